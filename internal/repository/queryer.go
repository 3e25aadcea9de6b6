package repository

import (
	"context"
	"database/sql"
)

// queryer is satisfied by both *sql.DB and *sql.Tx so repository
// methods run the same inside and outside a transaction.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
