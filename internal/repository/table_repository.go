package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/restaurant-phone-agent/internal/model"
)

// TableRepo manages the restaurant_tables inventory.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo returns a new TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

// ListAll returns every table, retired ones included, ordered by number.
func (r *TableRepo) ListAll(ctx context.Context) ([]model.Table, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, table_number, capacity, is_active, created_at FROM restaurant_tables ORDER BY table_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTables(rows)
}

// GetByID returns ErrTableNotFound when id does not exist.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (model.Table, error) {
	var t model.Table
	err := r.db.QueryRowContext(ctx,
		`SELECT id, table_number, capacity, is_active, created_at FROM restaurant_tables WHERE id = ?`, id,
	).Scan(&t.ID, &t.Number, &t.Capacity, &t.Active, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Table{}, ErrTableNotFound
	}
	return t, err
}

// SetActive retires or reactivates a table.  Confirmed reservations on
// a retired table are kept; it is only skipped for new allocations.
func (r *TableRepo) SetActive(ctx context.Context, id uint64, active bool) (model.Table, error) {
	if _, err := r.db.ExecContext(ctx, `UPDATE restaurant_tables SET is_active = ? WHERE id = ?`, active, id); err != nil {
		return model.Table{}, err
	}
	return r.GetByID(ctx, id)
}

// SeedDefaults inserts tables numbered 1..len(capacities).  Numbers that
// already exist are left untouched, so seeding twice is harmless.  It
// returns how many tables were added.
func (r *TableRepo) SeedDefaults(ctx context.Context, capacities []int) (int, error) {
	if len(capacities) == 0 {
		return 0, nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT IGNORE INTO restaurant_tables (table_number, capacity) VALUES `)
	args := make([]any, 0, len(capacities)*2)
	for i, c := range capacities {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?)")
		args = append(args, i+1, c)
	}
	result, err := r.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}
