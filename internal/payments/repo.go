package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartrestaurant/backoffice.git/internal/orders"
)

// TxRepo persists payment transactions. Finalize also applies the result to
// the linked order inside the same database transaction, so transaction and
// order state can never disagree.
type TxRepo struct {
	DB     *pgxpool.Pool
	Orders *orders.Pipeline
}

func (r *TxRepo) CreatePending(ctx context.Context, t *Transaction) error {
	ct, err := r.DB.Exec(ctx, `
		INSERT INTO payment_transactions(checkout_request_id, merchant_request_id, order_id,
		                                 phone_number, amount_cents, status)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (checkout_request_id) DO NOTHING`,
		t.CheckoutRequestID, t.MerchantRequestID, t.OrderID, t.PhoneNumber, t.AmountCents, StatusPending)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrTransactionExists
	}
	return nil
}

func (r *TxRepo) Get(ctx context.Context, checkoutRequestID string) (*Transaction, error) {
	row := r.DB.QueryRow(ctx, txColumns+` WHERE checkout_request_id = $1`, checkoutRequestID)
	return scanTransaction(row)
}

func (r *TxRepo) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]Transaction, error) {
	rows, err := r.DB.Query(ctx, txColumns+` WHERE order_id = $1 ORDER BY created_at DESC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.CheckoutRequestID, &t.MerchantRequestID, &t.OrderID, &t.PhoneNumber,
			&t.AmountCents, &t.Status, &t.ResultCode, &t.ResultDesc, &t.ReceiptNumber,
			&t.TransactionDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type FinalizeInput struct {
	CheckoutRequestID string
	Status            Status
	ResultCode        int
	ResultDesc        string
	ReceiptNumber     string
	TransactionDate   string
	PhoneNumber       string
	AmountCents       int
}

// Finalize moves a pending transaction to its terminal state and applies
// the outcome to the linked order, all in one transaction. The row is
// locked first; a transaction already terminal returns applied=false with
// no writes, which is the idempotency guard for duplicate callbacks.
func (r *TxRepo) Finalize(ctx context.Context, f FinalizeInput) (applied bool, err error) {
	if !f.Status.Terminal() {
		return false, errors.New("finalize requires a terminal status")
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var current Status
	var orderID *uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT status, order_id FROM payment_transactions
		WHERE checkout_request_id = $1
		FOR UPDATE`, f.CheckoutRequestID).Scan(&current, &orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}
	if current.Terminal() {
		return false, nil
	}

	if _, err := tx.Exec(ctx, `
		UPDATE payment_transactions
		SET status = $2, result_code = $3, result_desc = $4, receipt_number = $5,
		    transaction_date = $6, updated_at = now()
		WHERE checkout_request_id = $1`,
		f.CheckoutRequestID, f.Status, f.ResultCode, f.ResultDesc, f.ReceiptNumber,
		f.TransactionDate); err != nil {
		return false, err
	}

	if orderID != nil {
		payStatus := orders.PaymentFailed
		if f.Status == StatusCompleted {
			payStatus = orders.PaymentPaid
		}
		if _, err := r.Orders.ApplyPaymentResultTx(ctx, tx, *orderID, payStatus, f.ReceiptNumber); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

const txColumns = `
	SELECT checkout_request_id, merchant_request_id, order_id, phone_number, amount_cents,
	       status, result_code, result_desc, receipt_number, transaction_date, created_at, updated_at
	FROM payment_transactions`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	err := row.Scan(&t.CheckoutRequestID, &t.MerchantRequestID, &t.OrderID, &t.PhoneNumber,
		&t.AmountCents, &t.Status, &t.ResultCode, &t.ResultDesc, &t.ReceiptNumber,
		&t.TransactionDate, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
