package booking

import (
	"context"

	"github.com/iliyamo/restaurant-phone-agent/internal/model"
)

// Store is the persistence contract of the reservation engine.  A
// Store obtained inside WithTx runs every call in that transaction and
// BookedTableIDs there locks the rows it reads until commit.
type Store interface {
	// ActiveTables returns tables that may be allocated.
	ActiveTables(ctx context.Context) ([]model.Table, error)
	// BookedTableIDs returns the table ids held by confirmed
	// reservations at exactly date and tm.
	BookedTableIDs(ctx context.Context, date, tm string) ([]uint64, error)
	// ConfirmedReservations lists confirmed reservations, limited to
	// date when it is non-empty.
	ConfirmedReservations(ctx context.Context, date string) ([]model.Reservation, error)
	// GetReservation returns ErrReservationNotFound for unknown ids.
	GetReservation(ctx context.Context, id uint64) (model.Reservation, error)
	// InsertReservation stores res and fills its ID and timestamps.
	// It returns ErrSlotTaken when the table is already confirmed for
	// the slot.
	InsertReservation(ctx context.Context, res *model.Reservation) error
	// UpdateStatus moves a reservation from one status to another and
	// returns ErrReservationNotFound when no row was in status from.
	UpdateStatus(ctx context.Context, id uint64, from, to model.ReservationStatus) error
	// WithTx runs fn in a transaction, committing only when fn
	// returns nil.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
