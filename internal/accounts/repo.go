package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("account not found")
	ErrAlreadyExists = errors.New("username or email already exists")
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, a *Account) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO accounts(id, username, email, phone, password_hash, two_factor_enabled, two_factor_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Username, strings.ToLower(a.Email), a.Phone, a.PasswordHash, a.TwoFactorEnabled, a.TwoFactorMethod)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExists
	}
	return err
}

// GetByIdentifier resolves a login identifier which may be either the
// username or the email address.
func (r *Repo) GetByIdentifier(ctx context.Context, identifier string) (*Account, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT id, username, email, phone, password_hash, two_factor_enabled, two_factor_method, created_at, updated_at
		FROM accounts
		WHERE username = $1 OR email = lower($1)`, identifier)
	return scanAccount(row)
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT id, username, email, phone, password_hash, two_factor_enabled, two_factor_method, created_at, updated_at
		FROM accounts
		WHERE id = $1`, id)
	return scanAccount(row)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*Account, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT id, username, email, phone, password_hash, two_factor_enabled, two_factor_method, created_at, updated_at
		FROM accounts
		WHERE email = lower($1)`, email)
	return scanAccount(row)
}

func (r *Repo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE accounts SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) SetTwoFactor(ctx context.Context, id uuid.UUID, enabled bool, method TwoFactorMethod) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE accounts SET two_factor_enabled = $2, two_factor_method = $3, updated_at = now() WHERE id = $1`,
		id, enabled, method)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.Phone, &a.PasswordHash,
		&a.TwoFactorEnabled, &a.TwoFactorMethod, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
