package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-phone-agent/internal/booking"
	"github.com/iliyamo/restaurant-phone-agent/internal/model"
)

var (
	tableCols       = []string{"id", "table_number", "capacity", "is_active", "created_at"}
	reservationCols = []string{"id", "customer_name", "phone", "party_size", "res_date", "res_time", "status", "table_id", "call_id", "created_at", "updated_at"}
	stamp           = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
)

func newMock(t *testing.T) (*ReservationRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewReservationRepo(db), mock
}

func tableRows() *sqlmock.Rows {
	return sqlmock.NewRows(tableCols).
		AddRow(1, 1, 2, true, stamp).
		AddRow(2, 2, 4, true, stamp).
		AddRow(3, 3, 4, true, stamp)
}

func TestCreateLocksSlotInsideTransaction(t *testing.T) {
	repo, mock := newMock(t)

	// availability check outside the transaction
	mock.ExpectQuery(`SELECT id, table_number, capacity, is_active, created_at FROM restaurant_tables WHERE is_active = 1`).
		WillReturnRows(tableRows())
	mock.ExpectQuery(`SELECT table_id FROM reservations WHERE res_date = \? AND res_time = \? AND status = 'confirmed' AND table_id IS NOT NULL$`).
		WithArgs("2025-03-14", "19:00").
		WillReturnRows(sqlmock.NewRows([]string{"table_id"}).AddRow(2))

	// allocation inside it
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM restaurant_tables WHERE is_active = 1`).WillReturnRows(tableRows())
	mock.ExpectQuery(`SELECT table_id FROM reservations .* FOR UPDATE`).
		WithArgs("2025-03-14", "19:00").
		WillReturnRows(sqlmock.NewRows([]string{"table_id"}).AddRow(2))
	mock.ExpectExec(`INSERT INTO reservations`).
		WithArgs("Ragi", "+15550100", 3, "2025-03-14", "19:00", "confirmed", uint64(3), "CA1").
		WillReturnResult(sqlmock.NewResult(41, 1))
	mock.ExpectQuery(`SELECT .* FROM reservations WHERE id = \?`).WithArgs(int64(41)).
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(41, "Ragi", "+15550100", 3, "2025-03-14", "19:00", "confirmed", 3, "CA1", stamp, stamp))
	mock.ExpectCommit()

	svc := booking.NewService(repo)
	res, err := svc.Create(context.Background(), booking.CreateRequest{
		Name: "Ragi", PartySize: 3, Date: "2025-03-14", Time: "19:00", Phone: "+15550100", CallID: "CA1",
	})

	require.NoError(t, err)
	assert.EqualValues(t, 41, res.Reservation.ID)
	assert.EqualValues(t, 3, res.Table.ID)
	require.NotNil(t, res.Reservation.CallID)
	assert.Equal(t, "CA1", *res.Reservation.CallID)
	assert.Equal(t, stamp, res.Reservation.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDuplicateSlotRollsBackAsSlotTaken(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reservations`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx booking.Store) error {
		tableID := uint64(1)
		return tx.InsertReservation(ctx, &model.Reservation{
			CustomerName: "Bob", PartySize: 2, Date: "2025-03-14", Time: "19:00",
			Status: model.StatusConfirmed, TableID: &tableID,
		})
	})

	assert.ErrorIs(t, err, booking.ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeadlockOnCommitIsSlotTaken(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"})

	err := repo.WithTx(context.Background(), func(context.Context, booking.Store) error { return nil })
	assert.ErrorIs(t, err, booking.ErrSlotTaken)
}

func TestWithTxRollsBackOnCallbackError(t *testing.T) {
	repo, mock := newMock(t)
	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx booking.Store) error {
		// nested calls join the outer transaction
		return tx.WithTx(ctx, func(context.Context, booking.Store) error { return boom })
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOtherInsertErrorsPassThrough(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO reservations`).
		WillReturnError(&mysql.MySQLError{Number: 1452, Message: "foreign key"})

	err := repo.InsertReservation(context.Background(), &model.Reservation{Status: model.StatusConfirmed})
	require.Error(t, err)
	assert.False(t, errors.Is(err, booking.ErrSlotTaken))
}

func TestUpdateStatus(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(`UPDATE reservations SET status = \? WHERE id = \? AND status = \?`).
		WithArgs("cancelled", uint64(7), "confirmed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE reservations SET status`).
		WithArgs("cancelled", uint64(7), "confirmed").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	require.NoError(t, repo.UpdateStatus(ctx, 7, model.StatusConfirmed, model.StatusCancelled))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, 7, model.StatusConfirmed, model.StatusCancelled), booking.ErrReservationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReservation(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(`FROM reservations WHERE id = \?`).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(5, "Ragi", nil, 2, "2025-03-14", "19:00", "cancelled", 1, nil, stamp, stamp))
	mock.ExpectQuery(`FROM reservations WHERE id = \?`).WithArgs(uint64(6)).
		WillReturnRows(sqlmock.NewRows(reservationCols))

	res, err := repo.GetReservation(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, res.Phone)
	assert.Nil(t, res.CallID)
	assert.Equal(t, model.StatusCancelled, res.Status)
	require.NotNil(t, res.TableID)
	assert.EqualValues(t, 1, *res.TableID)

	_, err = repo.GetReservation(context.Background(), 6)
	assert.ErrorIs(t, err, booking.ErrReservationNotFound)
}

func TestConfirmedReservationsFiltersByDate(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(`WHERE status = 'confirmed' AND res_date = \? ORDER BY res_date, res_time, id`).
		WithArgs("2025-03-14").
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(1, "Ragi", nil, 2, "2025-03-14", "18:00", "confirmed", 1, nil, stamp, stamp).
			AddRow(2, "Bob", nil, 4, "2025-03-14", "19:00", "confirmed", 2, nil, stamp, stamp))
	mock.ExpectQuery(`WHERE status = 'confirmed' ORDER BY`).
		WillReturnRows(sqlmock.NewRows(reservationCols))

	got, err := repo.ConfirmedReservations(context.Background(), "2025-03-14")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.ConfirmedReservations(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
