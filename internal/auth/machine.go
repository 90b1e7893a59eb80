package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartrestaurant/backoffice.git/internal/accounts"
)

type AccountStore interface {
	GetByIdentifier(ctx context.Context, identifier string) (*accounts.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*accounts.Account, error)
	GetByEmail(ctx context.Context, email string) (*accounts.Account, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type Hasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// Machine drives a session through anonymous -> pending_2fa -> authenticated.
// All session state lives in the SessionRepo, never in the process.
type Machine struct {
	accounts AccountStore
	hasher   Hasher
	codes    *CodeManager
	sender   CodeSender
	sessions SessionRepo
	tokens   *TokenProvider
	log      *zap.Logger
}

func NewMachine(
	accts AccountStore,
	hasher Hasher,
	codes *CodeManager,
	sender CodeSender,
	sessions SessionRepo,
	tokens *TokenProvider,
	log *zap.Logger,
) *Machine {
	return &Machine{
		accounts: accts,
		hasher:   hasher,
		codes:    codes,
		sender:   sender,
		sessions: sessions,
		tokens:   tokens,
		log:      log,
	}
}

type LoginResult struct {
	Authenticated        bool
	RequiresSecondFactor bool
	AccountID            uuid.UUID
	Token                string
	CSRFToken            string
	RemainingAttempts    int
}

// Login verifies the secret and either authenticates the session directly
// or issues a one-time code and parks the session in pending_2fa. Lookup
// and compare failures collapse into the same error so the response never
// reveals which field was wrong.
func (m *Machine) Login(ctx context.Context, sessionID, identifier, secret string) (*LoginResult, error) {
	acct, err := m.accounts.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !m.hasher.Compare(acct.PasswordHash, secret) {
		return nil, ErrInvalidCredentials
	}

	if !acct.TwoFactorEnabled {
		return m.authenticate(ctx, sessionID, acct)
	}

	code, err := m.codes.Issue(ctx, acct.ID, PurposeLogin)
	if err != nil {
		return nil, err
	}
	if err := m.sender.Send(ctx, acct, code, PurposeLogin); err != nil {
		m.log.Error("second-factor dispatch failed",
			zap.String("account_id", acct.ID.String()), zap.Error(err))
		return nil, ErrSendFailed
	}

	if err := m.sessions.Put(ctx, &Session{
		ID:        sessionID,
		State:     StatePendingSecondFactor,
		AccountID: acct.ID,
	}); err != nil {
		return nil, err
	}
	return &LoginResult{RequiresSecondFactor: true, AccountID: acct.ID}, nil
}

// SubmitSecondFactor is only valid from pending_2fa; submissions from
// anonymous or already-authenticated sessions are rejected outright.
func (m *Machine) SubmitSecondFactor(ctx context.Context, sessionID, code string) (*LoginResult, error) {
	sess, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.State != StatePendingSecondFactor {
		return nil, ErrNoPendingLogin
	}

	remaining, err := m.codes.Verify(ctx, sess.AccountID, PurposeLogin, code)
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			return &LoginResult{RequiresSecondFactor: true, RemainingAttempts: remaining}, err
		}
		return nil, err
	}

	acct, err := m.accounts.GetByID(ctx, sess.AccountID)
	if err != nil {
		return nil, err
	}
	return m.authenticate(ctx, sessionID, acct)
}

// Logout drops the session entirely: pending-2FA markers and the CSRF token
// go with it.
func (m *Machine) Logout(ctx context.Context, sessionID string) error {
	return m.sessions.Delete(ctx, sessionID)
}

func (m *Machine) Session(ctx context.Context, sessionID string) (*Session, error) {
	return m.sessions.Get(ctx, sessionID)
}

// RequestPasswordReset issues a reset code for the given email. The caller
// gets no signal whether the address exists.
func (m *Machine) RequestPasswordReset(ctx context.Context, email string) error {
	acct, err := m.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			m.log.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}
	code, err := m.codes.Issue(ctx, acct.ID, PurposePasswordReset)
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, acct, code, PurposePasswordReset)
}

func (m *Machine) ResetPassword(ctx context.Context, email, code, newSecret string) error {
	acct, err := m.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return ErrInvalidCode
		}
		return err
	}
	if _, err := m.codes.Verify(ctx, acct.ID, PurposePasswordReset, code); err != nil {
		return err
	}
	hash, err := m.hasher.Hash(newSecret)
	if err != nil {
		return err
	}
	return m.accounts.UpdatePassword(ctx, acct.ID, hash)
}

func (m *Machine) authenticate(ctx context.Context, sessionID string, acct *accounts.Account) (*LoginResult, error) {
	sess := &Session{
		ID:        sessionID,
		State:     StateAuthenticated,
		AccountID: acct.ID,
		CSRFToken: uuid.NewString(),
	}
	if err := m.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	token, err := m.tokens.Mint(acct.ID, acct.Username)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Authenticated: true,
		AccountID:     acct.ID,
		Token:         token,
		CSRFToken:     sess.CSRFToken,
	}, nil
}
