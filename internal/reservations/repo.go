package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("reservation not found")
	ErrInvalidStatus = errors.New("invalid reservation status")
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, res *Reservation) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO reservations(id, guest_name, guest_email, guest_phone, party_size,
		                         reservation_time, table_number, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		res.ID, res.GuestName, res.GuestEmail, res.GuestPhone, res.PartySize,
		res.ReservationTime, res.TableNumber, res.Status, res.Notes)
	return err
}

func (r *Repo) Get(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	row := r.DB.QueryRow(ctx, resColumns+` WHERE id = $1`, id)
	return scanReservation(row)
}

func (r *Repo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if !ValidStatus(status) {
		return ErrInvalidStatus
	}
	ct, err := r.DB.Exec(ctx,
		`UPDATE reservations SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type ListFilter struct {
	Status   string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	Limit    int
}

func (r *Repo) List(ctx context.Context, f ListFilter) ([]Reservation, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.DateFrom != nil {
		args = append(args, *f.DateFrom)
		where += fmt.Sprintf(" AND reservation_time >= $%d", len(args))
	}
	if f.DateTo != nil {
		args = append(args, *f.DateTo)
		where += fmt.Sprintf(" AND reservation_time <= $%d", len(args))
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM reservations`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := r.DB.Query(ctx,
		resColumns+where+fmt.Sprintf(" ORDER BY reservation_time ASC LIMIT $%d OFFSET $%d", len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		var res Reservation
		if err := rows.Scan(&res.ID, &res.GuestName, &res.GuestEmail, &res.GuestPhone, &res.PartySize,
			&res.ReservationTime, &res.TableNumber, &res.Status, &res.Notes, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, res)
	}
	return out, total, rows.Err()
}

const resColumns = `
	SELECT id, guest_name, guest_email, guest_phone, party_size, reservation_time,
	       table_number, status, notes, created_at, updated_at
	FROM reservations`

func scanReservation(row pgx.Row) (*Reservation, error) {
	var res Reservation
	err := row.Scan(&res.ID, &res.GuestName, &res.GuestEmail, &res.GuestPhone, &res.PartySize,
		&res.ReservationTime, &res.TableNumber, &res.Status, &res.Notes, &res.CreatedAt, &res.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}
