package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartrestaurant/backoffice.git/internal/accounts"
)

type fakeAccounts struct {
	byIdentifier func(identifier string) (*accounts.Account, error)
	byID         func(id uuid.UUID) (*accounts.Account, error)
	byEmail      func(email string) (*accounts.Account, error)
	updated      map[uuid.UUID]string
}

func (f *fakeAccounts) GetByIdentifier(_ context.Context, identifier string) (*accounts.Account, error) {
	return f.byIdentifier(identifier)
}

func (f *fakeAccounts) GetByID(_ context.Context, id uuid.UUID) (*accounts.Account, error) {
	return f.byID(id)
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*accounts.Account, error) {
	return f.byEmail(email)
}

func (f *fakeAccounts) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	if f.updated == nil {
		f.updated = map[uuid.UUID]string{}
	}
	f.updated[id] = hash
	return nil
}

// plainHasher compares secrets verbatim; good enough for state-machine tests.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return password, nil }
func (plainHasher) Compare(hash, password string) bool   { return hash == password }

type captureSender struct {
	code    string
	purpose Purpose
	sent    int
	err     error
}

func (s *captureSender) Send(_ context.Context, _ *accounts.Account, code string, purpose Purpose) error {
	if s.err != nil {
		return s.err
	}
	s.code = code
	s.purpose = purpose
	s.sent++
	return nil
}

type memSessions struct {
	byID map[string]*Session
}

func newMemSessions() *memSessions { return &memSessions{byID: map[string]*Session{}} }

func (m *memSessions) Get(_ context.Context, id string) (*Session, error) {
	if s, ok := m.byID[id]; ok {
		return s, nil
	}
	return &Session{ID: id, State: StateAnonymous}, nil
}

func (m *memSessions) Put(_ context.Context, s *Session) error {
	m.byID[s.ID] = s
	return nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

func testAccount(twoFactor bool) *accounts.Account {
	return &accounts.Account{
		ID:               uuid.New(),
		Username:         "manager",
		Email:            "manager@example.com",
		Phone:            "0712345678",
		PasswordHash:     "s3cretpass",
		TwoFactorEnabled: twoFactor,
		TwoFactorMethod:  accounts.TwoFactorEmail,
	}
}

func newTestMachine(acct *accounts.Account, sender CodeSender, sessions SessionRepo) *Machine {
	accts := &fakeAccounts{
		byIdentifier: func(identifier string) (*accounts.Account, error) {
			if acct != nil && (identifier == acct.Username || identifier == acct.Email) {
				return acct, nil
			}
			return nil, accounts.ErrNotFound
		},
		byID: func(id uuid.UUID) (*accounts.Account, error) {
			if acct != nil && id == acct.ID {
				return acct, nil
			}
			return nil, accounts.ErrNotFound
		},
		byEmail: func(email string) (*accounts.Account, error) {
			if acct != nil && email == acct.Email {
				return acct, nil
			}
			return nil, accounts.ErrNotFound
		},
	}
	codes := NewCodeManager(newFakeCodeStore(), newFakeLimiter())
	tokens := &TokenProvider{Secret: []byte("test-secret"), TTL: time.Minute}
	return NewMachine(accts, plainHasher{}, codes, sender, sessions, tokens, zap.NewNop())
}

func TestLoginUnknownAccount(t *testing.T) {
	m := newTestMachine(nil, &captureSender{}, newMemSessions())
	_, err := m.Login(context.Background(), "sid", "nobody", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginWrongPassword(t *testing.T) {
	m := newTestMachine(testAccount(false), &captureSender{}, newMemSessions())
	_, err := m.Login(context.Background(), "sid", "manager", "wrong")
	// Indistinguishable from an unknown account.
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginWithoutSecondFactor(t *testing.T) {
	sessions := newMemSessions()
	m := newTestMachine(testAccount(false), &captureSender{}, sessions)

	res, err := m.Login(context.Background(), "sid", "manager", "s3cretpass")
	require.NoError(t, err)
	assert.True(t, res.Authenticated)
	assert.False(t, res.RequiresSecondFactor)
	assert.NotEmpty(t, res.Token)
	assert.NotEmpty(t, res.CSRFToken)

	sess, err := sessions.Get(context.Background(), "sid")
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, sess.State)
}

func TestLoginWithSecondFactor(t *testing.T) {
	sender := &captureSender{}
	sessions := newMemSessions()
	acct := testAccount(true)
	m := newTestMachine(acct, sender, sessions)

	res, err := m.Login(context.Background(), "sid", "manager", "s3cretpass")
	require.NoError(t, err)
	assert.True(t, res.RequiresSecondFactor)
	assert.False(t, res.Authenticated)
	assert.Empty(t, res.Token)
	assert.Equal(t, 1, sender.sent)
	assert.Equal(t, PurposeLogin, sender.purpose)

	sess, err := sessions.Get(context.Background(), "sid")
	require.NoError(t, err)
	assert.Equal(t, StatePendingSecondFactor, sess.State)
	assert.Equal(t, acct.ID, sess.AccountID)
}

func TestLoginSendFailureSurfaces(t *testing.T) {
	sessions := newMemSessions()
	m := newTestMachine(testAccount(true), &captureSender{err: assert.AnError}, sessions)

	_, err := m.Login(context.Background(), "sid", "manager", "s3cretpass")
	assert.ErrorIs(t, err, ErrSendFailed)

	sess, _ := sessions.Get(context.Background(), "sid")
	assert.Equal(t, StateAnonymous, sess.State)
}

func TestSecondFactorFullFlow(t *testing.T) {
	sender := &captureSender{}
	sessions := newMemSessions()
	m := newTestMachine(testAccount(true), sender, sessions)

	_, err := m.Login(context.Background(), "sid", "manager", "s3cretpass")
	require.NoError(t, err)

	res, err := m.SubmitSecondFactor(context.Background(), "sid", sender.code)
	require.NoError(t, err)
	assert.True(t, res.Authenticated)
	assert.NotEmpty(t, res.Token)

	sess, _ := sessions.Get(context.Background(), "sid")
	assert.Equal(t, StateAuthenticated, sess.State)
}

func TestSecondFactorWrongCode(t *testing.T) {
	sender := &captureSender{}
	m := newTestMachine(testAccount(true), sender, newMemSessions())

	_, err := m.Login(context.Background(), "sid", "manager", "s3cretpass")
	require.NoError(t, err)

	res, err := m.SubmitSecondFactor(context.Background(), "sid", "000000")
	if assert.ErrorIs(t, err, ErrInvalidCode) {
		require.NotNil(t, res)
		assert.Equal(t, MaxAttempts-1, res.RemainingAttempts)
	}
}

func TestSecondFactorRequiresPendingSession(t *testing.T) {
	sender := &captureSender{}
	sessions := newMemSessions()
	m := newTestMachine(testAccount(true), sender, sessions)

	// Anonymous session: nothing pending.
	_, err := m.SubmitSecondFactor(context.Background(), "sid", "123456")
	assert.ErrorIs(t, err, ErrNoPendingLogin)

	// Already authenticated: also rejected.
	_, err = m.Login(context.Background(), "sid", "manager", "s3cretpass")
	require.NoError(t, err)
	res, err := m.SubmitSecondFactor(context.Background(), "sid", sender.code)
	require.NoError(t, err)
	require.True(t, res.Authenticated)

	_, err = m.SubmitSecondFactor(context.Background(), "sid", sender.code)
	assert.ErrorIs(t, err, ErrNoPendingLogin)
}

func TestLogoutDropsSession(t *testing.T) {
	sessions := newMemSessions()
	m := newTestMachine(testAccount(false), &captureSender{}, sessions)

	_, err := m.Login(context.Background(), "sid", "manager", "s3cretpass")
	require.NoError(t, err)
	require.NoError(t, m.Logout(context.Background(), "sid"))

	sess, _ := sessions.Get(context.Background(), "sid")
	assert.Equal(t, StateAnonymous, sess.State)
	assert.Empty(t, sess.CSRFToken)
}

func TestPasswordResetFlow(t *testing.T) {
	sender := &captureSender{}
	acct := testAccount(false)
	m := newTestMachine(acct, sender, newMemSessions())

	require.NoError(t, m.RequestPasswordReset(context.Background(), acct.Email))
	assert.Equal(t, PurposePasswordReset, sender.purpose)
	require.NotEmpty(t, sender.code)

	err := m.ResetPassword(context.Background(), acct.Email, sender.code, "brand-new-pass")
	require.NoError(t, err)

	// The consumed code is dead.
	err = m.ResetPassword(context.Background(), acct.Email, sender.code, "another-pass")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	sender := &captureSender{}
	m := newTestMachine(testAccount(false), sender, newMemSessions())

	err := m.RequestPasswordReset(context.Background(), "ghost@example.com")
	assert.NoError(t, err)
	assert.Zero(t, sender.sent)
}
