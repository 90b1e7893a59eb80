package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CodesRepo is the Postgres CodeStore.
type CodesRepo struct{ DB *pgxpool.Pool }

func (r *CodesRepo) Replace(ctx context.Context, accountID uuid.UUID, purpose Purpose, code string, expiresAt time.Time) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM one_time_codes WHERE account_id = $1 AND purpose = $2`,
		accountID, purpose); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO one_time_codes(id, account_id, purpose, code, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), accountID, purpose, code, expiresAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Consume deletes the matching unexpired code in a single statement, so two
// concurrent submissions of the same code cannot both succeed.
func (r *CodesRepo) Consume(ctx context.Context, accountID uuid.UUID, purpose Purpose, code string, now time.Time) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		DELETE FROM one_time_codes
		WHERE account_id = $1 AND purpose = $2 AND code = $3 AND expires_at > $4`,
		accountID, purpose, code, now)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// PurgeExpired is a maintenance sweep; correctness does not depend on it
// since Consume and Replace never return expired codes.
func (r *CodesRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	ct, err := r.DB.Exec(ctx, `DELETE FROM one_time_codes WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
