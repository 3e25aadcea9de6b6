package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/restaurant-phone-agent/internal/booking"
	"github.com/iliyamo/restaurant-phone-agent/internal/model"
)

// ReservationRepo is the MySQL booking.Store.  A ReservationRepo handed
// to a WithTx callback is bound to that transaction; reads of booked
// tables made through it take row locks until commit.
type ReservationRepo struct {
	db *sql.DB
	q  queryer
	tx *sql.Tx
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db, q: db} }

const reservationColumns = `id, customer_name, phone, party_size, res_date, res_time, status, table_id, call_id, created_at, updated_at`

// ActiveTables lists the tables that may be allocated, by id.
func (r *ReservationRepo) ActiveTables(ctx context.Context) ([]model.Table, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, table_number, capacity, is_active, created_at FROM restaurant_tables WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTables(rows)
}

// BookedTableIDs returns the tables held by confirmed reservations at
// exactly (date, tm).  Inside a transaction the rows are read with
// FOR UPDATE.
func (r *ReservationRepo) BookedTableIDs(ctx context.Context, date, tm string) ([]uint64, error) {
	q := `SELECT table_id FROM reservations WHERE res_date = ? AND res_time = ? AND status = 'confirmed' AND table_id IS NOT NULL`
	if r.tx != nil {
		q += ` FOR UPDATE`
	}
	rows, err := r.q.QueryContext(ctx, q, date, tm)
	if err != nil {
		return nil, mapWriteConflict(err)
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ConfirmedReservations lists confirmed reservations in slot order,
// limited to date when it is non-empty.
func (r *ReservationRepo) ConfirmedReservations(ctx context.Context, date string) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE status = 'confirmed'`
	args := []any{}
	if date != "" {
		q += ` AND res_date = ?`
		args = append(args, date)
	}
	q += ` ORDER BY res_date, res_time, id`
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// GetReservation fetches one reservation by id.
func (r *ReservationRepo) GetReservation(ctx context.Context, id uint64) (model.Reservation, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	res, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, booking.ErrReservationNotFound
	}
	return res, err
}

// InsertReservation stores res and reads back its id and timestamps.
// A second confirmed row for the same table and slot violates the
// unique key and surfaces as booking.ErrSlotTaken.
func (r *ReservationRepo) InsertReservation(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations (customer_name, phone, party_size, res_date, res_time, status, table_id, call_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.q.ExecContext(ctx, q,
		res.CustomerName, res.Phone, res.PartySize, res.Date, res.Time, string(res.Status), res.TableID, res.CallID)
	if err != nil {
		return mapWriteConflict(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	// Query back the full row to populate timestamps and defaults
	stored, err := scanReservation(r.q.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
	if err != nil {
		return err
	}
	*res = stored
	return nil
}

// UpdateStatus moves reservation id from one status to another.  When
// the row is missing or no longer in status from nothing changes and
// booking.ErrReservationNotFound is returned.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, from, to model.ReservationStatus) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ? AND status = ?`, string(to), id, string(from))
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrReservationNotFound
	}
	return nil
}

// WithTx runs fn inside one transaction and commits only when fn
// returns nil.  Called on a repo already bound to a transaction, fn
// joins it.
func (r *ReservationRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx booking.Store) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(ctx, &ReservationRepo{db: r.db, q: tx, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapWriteConflict(err)
	}
	committed = true
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (model.Reservation, error) {
	var (
		res     model.Reservation
		phone   sql.NullString
		tableID sql.NullInt64
		callID  sql.NullString
		status  string
	)
	err := row.Scan(&res.ID, &res.CustomerName, &phone, &res.PartySize, &res.Date, &res.Time,
		&status, &tableID, &callID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return model.Reservation{}, err
	}
	res.Status = model.ReservationStatus(status)
	if phone.Valid {
		p := phone.String
		res.Phone = &p
	}
	if tableID.Valid {
		id := uint64(tableID.Int64)
		res.TableID = &id
	}
	if callID.Valid {
		c := callID.String
		res.CallID = &c
	}
	return res, nil
}

func scanTables(rows *sql.Rows) ([]model.Table, error) {
	var out []model.Table
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.ID, &t.Number, &t.Capacity, &t.Active, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
