package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDefaultsInsertsIgnoringExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT IGNORE INTO restaurant_tables \(table_number, capacity\) VALUES \(\?, \?\),\(\?, \?\),\(\?, \?\)`).
		WithArgs(1, 2, 2, 4, 3, 10).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := NewTableRepo(db).SeedDefaults(context.Background(), []int{2, 4, 10})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetActiveReturnsUpdatedTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE restaurant_tables SET is_active = \? WHERE id = \?`).
		WithArgs(false, uint64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM restaurant_tables WHERE id = \?`).WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows(tableCols).AddRow(4, 4, 4, false, stamp))

	tbl, err := NewTableRepo(db).SetActive(context.Background(), 4, false)
	require.NoError(t, err)
	assert.False(t, tbl.Active)
	assert.Equal(t, 4, tbl.Number)
}

func TestGetByIDMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM restaurant_tables WHERE id = \?`).WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows(tableCols))

	_, err = NewTableRepo(db).GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrTableNotFound)
}
