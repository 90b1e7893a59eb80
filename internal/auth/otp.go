package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nanorand/nanorand"
)

type Purpose string

const (
	PurposeLogin         Purpose = "login"
	PurposePasswordReset Purpose = "password_reset"
)

const (
	codeLength = 6
	CodeTTL    = 10 * time.Minute

	// MaxAttempts failed verifications lock the account out for the
	// limiter's window, regardless of what code is submitted.
	MaxAttempts = 5
)

// CodeStore persists one-time codes. Replace and Consume must each be
// atomic: Replace supersedes any unconsumed code for (account, purpose) in
// one transaction, Consume deletes-on-match in a single statement so a code
// can never verify twice.
type CodeStore interface {
	Replace(ctx context.Context, accountID uuid.UUID, purpose Purpose, code string, expiresAt time.Time) error
	Consume(ctx context.Context, accountID uuid.UUID, purpose Purpose, code string, now time.Time) (bool, error)
}

// AttemptLimiter counts failed verifications per account in shared storage
// so the limit holds across processes.
type AttemptLimiter interface {
	Attempts(ctx context.Context, accountID uuid.UUID) (int, error)
	RecordFailure(ctx context.Context, accountID uuid.UUID) (int, error)
	Reset(ctx context.Context, accountID uuid.UUID) error
}

type CodeManager struct {
	store   CodeStore
	limiter AttemptLimiter
	now     func() time.Time
}

func NewCodeManager(store CodeStore, limiter AttemptLimiter) *CodeManager {
	return &CodeManager{store: store, limiter: limiter, now: time.Now}
}

// GenerateCode draws a uniform 6-digit numeric code.
func GenerateCode() (string, error) {
	return nanorand.Gen(codeLength)
}

// Issue supersedes any prior unconsumed code for (account, purpose) and
// stores a fresh one valid for CodeTTL.
func (m *CodeManager) Issue(ctx context.Context, accountID uuid.UUID, purpose Purpose) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	if err := m.store.Replace(ctx, accountID, purpose, code, m.now().Add(CodeTTL)); err != nil {
		return "", err
	}
	return code, nil
}

// Verify consumes the stored code on match. The attempt counter is checked
// before the store is consulted at all: once locked out, even the correct
// code fails until the window elapses. Returns the remaining attempts
// alongside ErrInvalidCode on mismatch.
func (m *CodeManager) Verify(ctx context.Context, accountID uuid.UUID, purpose Purpose, submitted string) (remaining int, err error) {
	n, err := m.limiter.Attempts(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if n >= MaxAttempts {
		return 0, ErrRateLimited
	}

	ok, err := m.store.Consume(ctx, accountID, purpose, strings.TrimSpace(submitted), m.now())
	if err != nil {
		return 0, err
	}
	if !ok {
		n, err = m.limiter.RecordFailure(ctx, accountID)
		if err != nil {
			return 0, err
		}
		if n >= MaxAttempts {
			return 0, ErrRateLimited
		}
		return MaxAttempts - n, ErrInvalidCode
	}

	if err := m.limiter.Reset(ctx, accountID); err != nil {
		return 0, err
	}
	return MaxAttempts, nil
}
