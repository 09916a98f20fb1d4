package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesafina/table-reservation/internal/model"
	"github.com/mesafina/table-reservation/internal/repository"
)

func activeTablesRows(tables ...model.Table) *sqlmock.Rows {
	rows := sqlmock.NewRows(tableCols)
	for _, t := range tables {
		rows.AddRow(t.ID, t.RestaurantID, t.Name, t.Capacity, t.Zone, t.IsActive, t.PhysicalStatus, t.CreatedAt, t.UpdatedAt)
	}
	return rows
}

func bookedRows(ids ...uint64) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"table_id"})
	for _, id := range ids {
		rows.AddRow(id)
	}
	return rows
}

func TestFindAvailableTablesFiltersBookedSlot(t *testing.T) {
	mock, reservations, tables, _, closeDB := setupMockDB(t)
	defer closeDB()
	a := NewAvailability(reservations, tables)

	t1 := model.Table{ID: 1, RestaurantID: 1, Name: "T1", Capacity: 4, IsActive: true}
	t2 := model.Table{ID: 2, RestaurantID: 1, Name: "T2", Capacity: 6, IsActive: true}
	mock.ExpectQuery(`FROM restaurant_tables WHERE restaurant_id`).
		WithArgs(1).WillReturnRows(activeTablesRows(t1, t2))
	mock.ExpectQuery(`SELECT table_id FROM reservations`).
		WithArgs(1, "2026-08-25", "20:00").WillReturnRows(bookedRows(1))

	free, err := a.FindAvailableTables(context.Background(), 1, "2026-08-25", "20:00", 4)
	require.NoError(t, err)
	require.Len(t, free, 1)
	assert.Equal(t, uint64(2), free[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Slot matching is exact-time: a table fully booked at 19:00 is still
// offered at 19:30.
func TestFindAvailableTablesMatchesExactTimeOnly(t *testing.T) {
	mock, reservations, tables, _, closeDB := setupMockDB(t)
	defer closeDB()
	a := NewAvailability(reservations, tables)

	t1 := model.Table{ID: 1, RestaurantID: 1, Name: "T1", Capacity: 4, IsActive: true}
	mock.ExpectQuery(`FROM restaurant_tables WHERE restaurant_id`).WillReturnRows(activeTablesRows(t1))
	mock.ExpectQuery(`SELECT table_id FROM reservations`).
		WithArgs(1, "2026-08-25", "19:30").WillReturnRows(bookedRows())

	free, err := a.FindAvailableTables(context.Background(), 1, "2026-08-25", "19:30", 2)
	require.NoError(t, err)
	assert.Len(t, free, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAvailableTablesAllBookedIsEmptyNotError(t *testing.T) {
	mock, reservations, tables, _, closeDB := setupMockDB(t)
	defer closeDB()
	a := NewAvailability(reservations, tables)

	t1 := model.Table{ID: 1, RestaurantID: 1, Name: "T1", Capacity: 4, IsActive: true}
	mock.ExpectQuery(`FROM restaurant_tables WHERE restaurant_id`).WillReturnRows(activeTablesRows(t1))
	mock.ExpectQuery(`SELECT table_id FROM reservations`).WillReturnRows(bookedRows(1))

	free, err := a.FindAvailableTables(context.Background(), 1, "2026-08-25", "20:00", 2)
	require.NoError(t, err)
	assert.Empty(t, free)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAvailableTablesNoQualifyingCapacityIsNotFound(t *testing.T) {
	mock, reservations, tables, _, closeDB := setupMockDB(t)
	defer closeDB()
	a := NewAvailability(reservations, tables)

	t1 := model.Table{ID: 1, RestaurantID: 1, Name: "T1", Capacity: 2, IsActive: true}
	mock.ExpectQuery(`FROM restaurant_tables WHERE restaurant_id`).WillReturnRows(activeTablesRows(t1))

	_, err := a.FindAvailableTables(context.Background(), 1, "2026-08-25", "20:00", 8)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAvailableTablesValidatesSlot(t *testing.T) {
	_, reservations, tables, _, closeDB := setupMockDB(t)
	defer closeDB()
	a := NewAvailability(reservations, tables)

	_, err := a.FindAvailableTables(context.Background(), 1, "25-08-2026", "20:00", 2)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = a.FindAvailableTables(context.Background(), 1, "2026-08-25", "8pm", 2)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = a.FindAvailableTables(context.Background(), 1, "2026-08-25", "20:00", 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListOpenSlots(t *testing.T) {
	mock, reservations, tables, _, closeDB := setupMockDB(t)
	defer closeDB()
	a := NewAvailability(reservations, tables)

	t1 := model.Table{ID: 1, RestaurantID: 1, Name: "T1", Capacity: 4, IsActive: true}
	mock.ExpectQuery(`FROM restaurant_tables WHERE restaurant_id`).WillReturnRows(activeTablesRows(t1))
	mock.ExpectQuery(`SELECT table_id FROM reservations`).
		WithArgs(1, "2026-08-25", "19:00").WillReturnRows(bookedRows(1))
	mock.ExpectQuery(`SELECT table_id FROM reservations`).
		WithArgs(1, "2026-08-25", "20:00").WillReturnRows(bookedRows())

	open, err := a.ListOpenSlots(context.Background(), 1, "2026-08-25", 2, []string{"19:00", "20:00"})
	require.NoError(t, err)
	assert.Equal(t, []string{"20:00"}, open)
	assert.NoError(t, mock.ExpectationsWereMet())
}
