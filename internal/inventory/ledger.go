package inventory

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ledger owns every stock mutation. Quantities move only through conditional
// updates paired with an appended movement row, never by direct assignment.
type Ledger struct{ DB *pgxpool.Pool }

func (l *Ledger) CreateItem(ctx context.Context, it *Item) error {
	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO inventory(id, sku, name, unit_cost_cents, unit_price_cents,
		                      current_stock, minimum_stock, maximum_stock, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		it.ID, it.SKU, it.Name, it.UnitCostCents, it.UnitPriceCents,
		it.CurrentStock, it.MinimumStock, it.MaximumStock, it.Status)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrSKUExists
	}
	if err != nil {
		return err
	}

	if it.CurrentStock > 0 {
		if err := appendMovement(ctx, tx, &Movement{
			ID:            uuid.New(),
			ItemID:        it.ID,
			Type:          MovementIn,
			Quantity:      it.CurrentStock,
			UnitCostCents: it.UnitCostCents,
			ReferenceType: ReferenceInitialStock,
		}); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Reserve decrements stock for one order line in its own transaction.
func (l *Ledger) Reserve(ctx context.Context, itemID uuid.UUID, qty int, orderID uuid.UUID) error {
	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := l.ReserveTx(ctx, tx, itemID, qty, orderID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ReserveTx decrements stock inside the caller's transaction. The update is
// conditional on current_stock >= qty; zero rows affected means the stock
// check lost, not that the row vanished.
func (l *Ledger) ReserveTx(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, qty int, orderID uuid.UUID) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	ct, err := tx.Exec(ctx, `
		UPDATE inventory
		SET current_stock = current_stock - $2, updated_at = now()
		WHERE id = $1 AND status = 'active' AND current_stock >= $2`,
		itemID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		var status ItemStatus
		err := tx.QueryRow(ctx, `SELECT status FROM inventory WHERE id = $1`, itemID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrItemNotFound
		}
		if err != nil {
			return err
		}
		if status != StatusActive {
			return ErrInactiveItem
		}
		return ErrInsufficientStock
	}
	return appendMovement(ctx, tx, &Movement{
		ID:            uuid.New(),
		ItemID:        itemID,
		Type:          MovementOut,
		Quantity:      qty,
		ReferenceType: ReferenceOrder,
		ReferenceID:   &orderID,
	})
}

// ReleaseTx is the compensating entry for a cancelled order line.
func (l *Ledger) ReleaseTx(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, qty int, orderID uuid.UUID) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	ct, err := tx.Exec(ctx, `
		UPDATE inventory SET current_stock = current_stock + $2, updated_at = now()
		WHERE id = $1`, itemID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return appendMovement(ctx, tx, &Movement{
		ID:            uuid.New(),
		ItemID:        itemID,
		Type:          MovementIn,
		Quantity:      qty,
		ReferenceType: ReferenceOrder,
		ReferenceID:   &orderID,
		Notes:         "order cancelled",
	})
}

// Receive books incoming goods at the given unit cost.
func (l *Ledger) Receive(ctx context.Context, itemID uuid.UUID, qty, unitCostCents int, notes string) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
		UPDATE inventory
		SET current_stock = current_stock + $2, unit_cost_cents = $3, updated_at = now()
		WHERE id = $1`, itemID, qty, unitCostCents)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	if err := appendMovement(ctx, tx, &Movement{
		ID:            uuid.New(),
		ItemID:        itemID,
		Type:          MovementIn,
		Quantity:      qty,
		UnitCostCents: unitCostCents,
		ReferenceType: ReferenceManual,
		Notes:         notes,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Adjust applies a signed manual correction. The conditional update keeps
// current_stock from ever going negative.
func (l *Ledger) Adjust(ctx context.Context, itemID uuid.UUID, delta int, reason string) error {
	if delta == 0 {
		return ErrInvalidQuantity
	}
	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
		UPDATE inventory
		SET current_stock = current_stock + $2, updated_at = now()
		WHERE id = $1 AND current_stock + $2 >= 0`, itemID, delta)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM inventory WHERE id = $1)`, itemID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrItemNotFound
		}
		return ErrInsufficientStock
	}

	mv := &Movement{
		ID:            uuid.New(),
		ItemID:        itemID,
		Type:          MovementIn,
		Quantity:      delta,
		ReferenceType: ReferenceManual,
		Notes:         reason,
	}
	if delta < 0 {
		mv.Type = MovementOut
		mv.Quantity = -delta
	}
	if err := appendMovement(ctx, tx, mv); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (l *Ledger) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	return scanItem(l.DB.QueryRow(ctx, itemColumns+` WHERE id = $1`, id))
}

func (l *Ledger) GetBySKU(ctx context.Context, sku string) (*Item, error) {
	return scanItem(l.DB.QueryRow(ctx, itemColumns+` WHERE sku = $1`, sku))
}

type ListFilter struct {
	Status string
	Page   int
	Limit  int
}

func (l *Ledger) ListItems(ctx context.Context, f ListFilter) ([]Item, int, error) {
	where := ""
	args := []any{}
	if f.Status != "" {
		where = ` WHERE status = $1`
		args = append(args, f.Status)
	}

	var total int
	if err := l.DB.QueryRow(ctx, `SELECT COUNT(*) FROM inventory`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (f.Page - 1) * f.Limit
	rows, err := l.DB.Query(ctx,
		itemColumns+where+` ORDER BY name ASC LIMIT $`+strconv.Itoa(len(args)+1)+` OFFSET $`+strconv.Itoa(len(args)+2),
		append(args, f.Limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items, err := collectItems(rows)
	return items, total, err
}

// LowStock lists active items at or below their minimum threshold.
func (l *Ledger) LowStock(ctx context.Context) ([]Item, error) {
	rows, err := l.DB.Query(ctx,
		itemColumns+` WHERE status = 'active' AND current_stock <= minimum_stock ORDER BY current_stock ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

func (l *Ledger) Movements(ctx context.Context, itemID uuid.UUID, page, limit int) ([]Movement, int, error) {
	var total int
	if err := l.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM stock_movements WHERE item_id = $1`, itemID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := l.DB.Query(ctx, `
		SELECT id, item_id, movement_type, quantity, unit_cost_cents, reference_type, reference_id, notes, created_at
		FROM stock_movements
		WHERE item_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, itemID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ItemID, &m.Type, &m.Quantity, &m.UnitCostCents,
			&m.ReferenceType, &m.ReferenceID, &m.Notes, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func appendMovement(ctx context.Context, tx pgx.Tx, m *Movement) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO stock_movements(id, item_id, movement_type, quantity, unit_cost_cents,
		                            reference_type, reference_id, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		m.ID, m.ItemID, m.Type, m.Quantity, m.UnitCostCents, m.ReferenceType, m.ReferenceID, m.Notes)
	return err
}

const itemColumns = `
	SELECT id, sku, name, unit_cost_cents, unit_price_cents,
	       current_stock, minimum_stock, maximum_stock, status, created_at, updated_at
	FROM inventory`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.SKU, &it.Name, &it.UnitCostCents, &it.UnitPriceCents,
		&it.CurrentStock, &it.MinimumStock, &it.MaximumStock, &it.Status, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func collectItems(rows pgx.Rows) ([]Item, error) {
	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.SKU, &it.Name, &it.UnitCostCents, &it.UnitPriceCents,
			&it.CurrentStock, &it.MinimumStock, &it.MaximumStock, &it.Status, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
