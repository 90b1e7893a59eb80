package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/smartrestaurant/backoffice.git/internal/inventory"
)

// Pipeline owns Order and OrderItem rows. Creation reserves stock through
// the ledger inside the same transaction: either every line is reserved and
// the order exists, or nothing changed.
type Pipeline struct {
	DB     *pgxpool.Pool
	Ledger *inventory.Ledger
	Log    *zap.Logger

	now func() time.Time
}

func NewPipeline(db *pgxpool.Pool, ledger *inventory.Ledger, log *zap.Logger) *Pipeline {
	return &Pipeline{DB: db, Ledger: ledger, Log: log, now: time.Now}
}

func (p *Pipeline) CreateOrder(ctx context.Context, info CustomerInfo, lines []LineInput) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyItems
	}
	for _, ln := range lines {
		if ln.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}

	tx, err := p.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	number, err := p.nextNumber(ctx, tx)
	if err != nil {
		return nil, err
	}

	orderID := uuid.New()
	items := make([]OrderItem, 0, len(lines))
	subtotal := 0
	for _, ln := range lines {
		var sku, name string
		var priceCents int
		err := tx.QueryRow(ctx,
			`SELECT sku, name, unit_price_cents FROM inventory WHERE id = $1`,
			ln.ItemID).Scan(&sku, &name, &priceCents)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", inventory.ErrItemNotFound, ln.ItemID)
		}
		if err != nil {
			return nil, err
		}

		if err := p.Ledger.ReserveTx(ctx, tx, ln.ItemID, ln.Quantity, orderID); err != nil {
			return nil, fmt.Errorf("reserve %s: %w", sku, err)
		}

		items = append(items, OrderItem{
			ID:             uuid.New(),
			OrderID:        orderID,
			ItemID:         ln.ItemID,
			SKU:            sku,
			Name:           name,
			Quantity:       ln.Quantity,
			UnitPriceCents: priceCents,
		})
		subtotal += priceCents * ln.Quantity
	}

	totals := ComputeTotals(subtotal)
	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, order_number, customer_name, customer_email, customer_phone,
		                   table_number, status, payment_status, subtotal_cents, tax_cents,
		                   total_cents, special_instructions)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		orderID, number, info.Name, info.Email, info.Phone, info.TableNumber,
		StatusPending, PaymentPending, totals.SubtotalCents, totals.TaxCents,
		totals.TotalCents, info.SpecialInstructions)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, item_id, sku, name, quantity, unit_price_cents)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			it.ID, it.OrderID, it.ItemID, it.SKU, it.Name, it.Quantity, it.UnitPriceCents); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	p.Log.Info("order created",
		zap.String("order_id", orderID.String()),
		zap.String("order_number", number),
		zap.Int("total_cents", totals.TotalCents))

	return &Order{
		ID:                  orderID,
		Number:              number,
		CustomerName:        info.Name,
		CustomerEmail:       info.Email,
		CustomerPhone:       info.Phone,
		TableNumber:         info.TableNumber,
		Status:              StatusPending,
		PaymentStatus:       PaymentPending,
		SubtotalCents:       totals.SubtotalCents,
		TaxCents:            totals.TaxCents,
		TotalCents:          totals.TotalCents,
		SpecialInstructions: info.SpecialInstructions,
		Items:               items,
	}, nil
}

// nextNumber allocates today's next order number under a per-day advisory
// lock so concurrent creations cannot draw the same sequence.
func (p *Pipeline) nextNumber(ctx context.Context, tx pgx.Tx) (string, error) {
	day := p.now()
	prefix := DayPrefix(day)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, prefix); err != nil {
		return "", err
	}
	var last string
	err := tx.QueryRow(ctx, `
		SELECT order_number FROM orders
		WHERE order_number LIKE $1 || '%'
		ORDER BY order_number DESC
		LIMIT 1`, prefix).Scan(&last)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	return FormatNumber(day, NextSeq(last)), nil
}

// UpdateStatus moves an order along the forward-only flow. Cancellation
// restocks every line through compensating ledger entries in the same
// transaction.
func (p *Pipeline) UpdateStatus(ctx context.Context, orderID uuid.UUID, to Status) error {
	if !ValidStatus(to) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}

	tx, err := p.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var from Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&from)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	if to == StatusCancelled {
		rows, err := tx.Query(ctx,
			`SELECT item_id, quantity FROM order_items WHERE order_id = $1`, orderID)
		if err != nil {
			return err
		}
		type line struct {
			itemID uuid.UUID
			qty    int
		}
		var lines []line
		for rows.Next() {
			var ln line
			if err := rows.Scan(&ln.itemID, &ln.qty); err != nil {
				rows.Close()
				return err
			}
			lines = append(lines, ln)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		for _, ln := range lines {
			if err := p.Ledger.ReleaseTx(ctx, tx, ln.itemID, ln.qty, orderID); err != nil {
				return err
			}
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, orderID, to); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// MarkPaymentProcessing flips pending -> processing once a charge has been
// initiated; a no-op for any other state.
func (p *Pipeline) MarkPaymentProcessing(ctx context.Context, orderID uuid.UUID) error {
	_, err := p.DB.Exec(ctx, `
		UPDATE orders SET payment_status = $2, updated_at = now()
		WHERE id = $1 AND payment_status = 'pending'`,
		orderID, PaymentProcessing)
	return err
}

// ApplyPaymentResultTx finalizes the order's payment status inside the
// caller's transaction. Applying a terminal result twice affects zero rows,
// which makes reconciliation idempotent at this layer too.
func (p *Pipeline) ApplyPaymentResultTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, status PaymentStatus, receipt string) (bool, error) {
	if !status.Terminal() {
		return false, fmt.Errorf("%w: non-terminal payment status %q", ErrInvalidTransition, status)
	}
	ct, err := tx.Exec(ctx, `
		UPDATE orders
		SET payment_status = $2,
		    payment_receipt = CASE WHEN $3 <> '' THEN $3 ELSE payment_receipt END,
		    updated_at = now()
		WHERE id = $1 AND payment_status IN ('pending', 'processing')`,
		orderID, status, receipt)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (p *Pipeline) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := scanOrder(p.DB.QueryRow(ctx, orderColumns+` WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	o.Items, err = p.orderItems(ctx, o.ID)
	return o, err
}

func (p *Pipeline) GetByNumber(ctx context.Context, number string) (*Order, error) {
	o, err := scanOrder(p.DB.QueryRow(ctx, orderColumns+` WHERE order_number = $1`, number))
	if err != nil {
		return nil, err
	}
	o.Items, err = p.orderItems(ctx, o.ID)
	return o, err
}

type ListFilter struct {
	Status   string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	Limit    int
}

func (p *Pipeline) ListOrders(ctx context.Context, f ListFilter) ([]Order, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.DateFrom != nil {
		args = append(args, *f.DateFrom)
		where += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if f.DateTo != nil {
		args = append(args, *f.DateTo)
		where += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	var total int
	if err := p.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := p.DB.Query(ctx,
		orderColumns+where+fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrderRows(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *o)
	}
	return out, total, rows.Err()
}

func (p *Pipeline) orderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := p.DB.Query(ctx, `
		SELECT id, order_id, item_id, sku, name, quantity, unit_price_cents
		FROM order_items WHERE order_id = $1 ORDER BY sku`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ItemID, &it.SKU, &it.Name,
			&it.Quantity, &it.UnitPriceCents); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

const orderColumns = `
	SELECT id, order_number, customer_name, customer_email, customer_phone, table_number,
	       status, payment_status, payment_receipt, subtotal_cents, tax_cents, total_cents,
	       special_instructions, created_at, updated_at
	FROM orders`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.Number, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.TableNumber, &o.Status, &o.PaymentStatus, &o.PaymentReceipt, &o.SubtotalCents,
		&o.TaxCents, &o.TotalCents, &o.SpecialInstructions, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanOrderRows(rows pgx.Rows) (*Order, error) {
	var o Order
	err := rows.Scan(&o.ID, &o.Number, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.TableNumber, &o.Status, &o.PaymentStatus, &o.PaymentReceipt, &o.SubtotalCents,
		&o.TaxCents, &o.TotalCents, &o.SpecialInstructions, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
