package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesafina/table-reservation/internal/model"
	"github.com/mesafina/table-reservation/internal/queue"
	"github.com/mesafina/table-reservation/internal/repository"
)

func newLifecycle(t *testing.T, mock sqlmock.Sqlmock, reservations *repository.ReservationRepo,
	tables *repository.TableRepo, events EventPublisher, payments PaymentGateway, clock string) *LifecycleManager {
	t.Helper()
	availability := NewAvailability(reservations, tables)
	return NewLifecycleManager(reservations.DB(), reservations, tables, availability,
		payments, events, nil, LifecycleConfig{ServiceDurationMin: 90}, fixedClock(t, clock))
}

func TestCreateBooksPendingReservation(t *testing.T) {
	mock, reservations, tables, _, closeDB := setupMockDB(t)
	defer closeDB()
	m := newLifecycle(t, mock, reservations, tables, nil, nil, "2026-08-25 12:00")

	table := model.Table{ID: 3, RestaurantID: 1, Name: "T3", Capacity: 4, IsActive: true, PhysicalStatus: model.TableAvailable}
	mock.ExpectQuery(`FROM restaurant_tables WHERE id`).WithArgs(3).WillReturnRows(tableRow(table))
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs(3, "2026-08-25", "20:00", 0).WillReturnRows(existsRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reservations`).WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(`UPDATE restaurant_tables SET physical_status`).
		WithArgs(model.TablePending, uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := m.Create(context.Background(), CreateInput{
		RestaurantID: 1, TableID: 3, UserID: 9,
		Date: "2026-08-25", Time: "20:00", GuestCount: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), res.ID)
	assert.Equal(t, model.StatusPending, res.Status)
	assert.Equal(t, model.SourceOnline, res.Source)
	require.NotNil(t, res.EndTime)
	assert.Equal(t, "21:30", *res.EndTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithDepositStartsConfirmed(t *testing.T) {
	mock, reservations, tables, _, closeDB := setupMockDB(t)
	defer closeDB()
	m := newLifecycle(t, mock, reservations, tables, nil, nil, "2026-08-25 12:00")

	table := model.Table{ID: 3, RestaurantID: 1, Capacity: 4, IsActive: true}
	mock.ExpectQuery(`FROM restaurant_tables WHERE id`).WillReturnRows(tableRow(table))
	mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(existsRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reservations`).WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectExec(`UPDATE restaurant_tables SET physical_status`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := m.Create(context.Background(), CreateInput{
		RestaurantID: 1, TableID: 3, UserID: 9,
		Date: "2026-08-25", Time: "20:00", GuestCount: 2,
		DepositPaid: true, DepositAmountCents: 2000,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, res.Status)
	require.NotNil(t, res.ConfirmedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsTakenSlot(t *testing.T) {
	mock, reservations, tables, _, closeDB := setupMockDB(t)
	defer closeDB()
	m := newLifecycle(t, mock, reservations, tables, nil, nil, "2026-08-25 12:00")

	table := model.Table{ID: 3, RestaurantID: 1, Capacity: 4, IsActive: true}
	mock.ExpectQuery(`FROM restaurant_tables WHERE id`).WillReturnRows(tableRow(table))
	mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(existsRow(true))

	_, err := m.Create(context.Background(), CreateInput{
		RestaurantID: 1, TableID: 3, UserID: 9,
		Date: "2026-08-25", Time: "20:00", GuestCount: 2,
	})
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMapsDuplicateKeyToConflict(t *testing.T) {
	mock, reservations, tables, _, closeDB := setupMockDB(t)
	defer closeDB()
	m := newLifecycle(t, mock, reservations, tables, nil, nil, "2026-08-25 12:00")

	table := model.Table{ID: 3, RestaurantID: 1, Capacity: 4, IsActive: true}
	mock.ExpectQuery(`FROM restaurant_tables WHERE id`).WillReturnRows(tableRow(table))
	mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(existsRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reservations`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	// The pre-check passed but another booking won the race: the unique
	// index still turns it into a conflict, never a double booking.
	_, err := m.Create(context.Background(), CreateInput{
		RestaurantID: 1, TableID: 3, UserID: 9,
		Date: "2026-08-25", Time: "20:00", GuestCount: 2,
	})
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateValidatesCapacityAndInput(t *testing.T) {
	mock, reservations, tables, _, closeDB := setupMockDB(t)
	defer closeDB()
	m := newLifecycle(t, mock, reservations, tables, nil, nil, "2026-08-25 12:00")

	_, err := m.Create(context.Background(), CreateInput{TableID: 3, UserID: 9, Date: "2026-08-25", Time: "20:00", GuestCount: 2})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = m.Create(context.Background(), CreateInput{RestaurantID: 1, TableID: 3, UserID: 9, Date: "2026-08-25", Time: "25:99", GuestCount: 2})
	assert.ErrorIs(t, err, ErrValidation)

	table := model.Table{ID: 3, RestaurantID: 1, Capacity: 4, IsActive: true}
	mock.ExpectQuery(`FROM restaurant_tables WHERE id`).WillReturnRows(tableRow(table))
	_, err = m.Create(context.Background(), CreateInput{RestaurantID: 1, TableID: 3, UserID: 9, Date: "2026-08-25", Time: "20:00", GuestCount: 6})
	assert.ErrorIs(t, err, ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmMarksTableReservedNotOccupied(t *testing.T) {
	mock, reservations, tables, _, closeDB := setupMockDB(t)
	defer closeDB()
	m := newLifecycle(t, mock, reservations, tables, nil, nil, "2026-08-25 18:00")

	current := model.Reservation{ID: 7, RestaurantID: 1, TableID: 3, UserID: 9,
		Date: "2026-08-25", Time: "20:00", GuestCount: 2, Status: model.StatusPending, Source: model.SourceOnline}
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(7).WillReturnRows(reservationRows(current))
	mock.ExpectExec(`UPDATE reservations SET status`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE restaurant_tables SET physical_status`).
		WithArgs(model.TableReserved, uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	staff := Actor{UserID: 50, Role: model.RoleStaff, RestaurantID: 1}
	res, err := m.Apply(context.Background(), 7, model.EventConfirm, staff)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, res.Status)
	require.NotNil(t, res.ConfirmedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyRejectsTerminalReservation(t *testing.T) {
	mock, reservations, tables, _, closeDB := setupMockDB(t)
	defer closeDB()
	m := newLifecycle(t, mock, reservations, tables, nil, nil, "2026-08-25 18:00")

	current := model.Reservation{ID: 7, RestaurantID: 1, TableID: 3, UserID: 9,
		Date: "2026-08-25", Time: "20:00", GuestCount: 2, Status: model.StatusCancelled, Source: model.SourceOnline}
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(reservationRows(current))
	mock.ExpectRollback()

	staff := Actor{UserID: 50, Role: model.RoleStaff, RestaurantID: 1}
	_, err := m.Apply(context.Background(), 7, model.EventConfirm, staff)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyRequiresStaffOfRestaurant(t *testing.T) {
	mock, reservations, tables, _, closeDB := setupMockDB(t)
	defer closeDB()
	m := newLifecycle(t, mock, reservations, tables, nil, nil, "2026-08-25 18:00")

	current := model.Reservation{ID: 7, RestaurantID: 1, TableID: 3, UserID: 9,
		Date: "2026-08-25", Time: "20:00", GuestCount: 2, Status: model.StatusPending, Source: model.SourceOnline}
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(reservationRows(current))
	mock.ExpectRollback()

	otherStaff := Actor{UserID: 50, Role: model.RoleStaff, RestaurantID: 2}
	_, err := m.Apply(context.Background(), 7, model.EventConfirm, otherStaff)
	assert.ErrorIs(t, err, repository.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletePublishesReviewRequestEvent(t *testing.T) {
	mock, reservations, tables, _, closeDB := setupMockDB(t)
	defer closeDB()
	pub := &recordingPublisher{}
	m := newLifecycle(t, mock, reservations, tables, pub, nil, "2026-08-25 21:40")

	current := model.Reservation{ID: 7, RestaurantID: 1, TableID: 3, UserID: 9,
		Date: "2026-08-25", Time: "20:00", GuestCount: 2, Status: model.StatusSeated, Source: model.SourceOnline}
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(reservationRows(current))
	mock.ExpectExec(`UPDATE reservations SET status`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE restaurant_tables SET physical_status`).
		WithArgs(model.TableAvailable, uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	staff := Actor{UserID: 50, Role: model.RoleStaff, RestaurantID: 1}
	res, err := m.Apply(context.Background(), 7, model.EventComplete, staff)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, res.Status)
	require.Len(t, pub.events, 1)
	assert.Equal(t, queue.EventTypeCompleted, pub.events[0].EventType)
	assert.Equal(t, uint64(7), pub.events[0].ReservationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func expectCancelTx(mock sqlmock.Sqlmock, current model.Reservation, withReason bool) {
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(reservationRows(current))
	mock.ExpectExec(`UPDATE reservations SET status`).WillReturnResult(sqlmock.NewResult(0, 1))
	if withReason {
		mock.ExpectExec(`UPDATE reservations SET cancel_reason`).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(`UPDATE restaurant_tables SET physical_status`).
		WithArgs(model.TableAvailable, current.TableID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
}

func TestCancelRecordsReasonAndRefunds(t *testing.T) {
	mock, reservations, tables, _, closeDB := setupMockDB(t)
	defer closeDB()
	pub := &recordingPublisher{}
	gw := &flakyGateway{}
	m := newLifecycle(t, mock, reservations, tables, pub, gw, "2026-08-25 18:00")

	current := model.Reservation{ID: 7, RestaurantID: 1, TableID: 3, UserID: 9,
		Date: "2026-08-25", Time: "20:00", GuestCount: 2, Status: model.StatusConfirmed,
		Source: model.SourceOnline, DepositPaid: true, DepositAmountCents: 2000}
	expectCancelTx(mock, current, true)

	owner := Actor{UserID: 9, Role: model.RoleCustomer}
	res, err := m.Cancel(context.Background(), 7, "change of plans", owner)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, res.Status)
	require.NotNil(t, res.CancelReason)
	assert.Equal(t, "change of plans", *res.CancelReason)
	assert.Equal(t, 1, gw.calls)
	require.Len(t, pub.events, 1)
	assert.Equal(t, queue.EventTypeCancelled, pub.events[0].EventType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelRefundFailureGoesToOperatorQueue(t *testing.T) {
	mock, reservations, tables, _, closeDB := setupMockDB(t)
	defer closeDB()
	pub := &recordingPublisher{}
	gw := &flakyGateway{failUntil: 2} // first attempt and the retry both fail
	m := newLifecycle(t, mock, reservations, tables, pub, gw, "2026-08-25 18:00")

	current := model.Reservation{ID: 7, RestaurantID: 1, TableID: 3, UserID: 9,
		Date: "2026-08-25", Time: "20:00", GuestCount: 2, Status: model.StatusConfirmed,
		Source: model.SourceOnline, DepositPaid: true, DepositAmountCents: 2000}
	expectCancelTx(mock, current, false)

	owner := Actor{UserID: 9, Role: model.RoleCustomer}
	res, err := m.Cancel(context.Background(), 7, "", owner)
	require.NoError(t, err) // cancellation itself holds
	assert.Equal(t, model.StatusCancelled, res.Status)
	assert.Equal(t, 2, gw.calls)
	require.Len(t, pub.events, 2)
	assert.Equal(t, queue.EventTypeCancelled, pub.events[0].EventType)
	assert.Equal(t, queue.EventTypeRefundFailed, pub.events[1].EventType)
	assert.Equal(t, uint32(2000), pub.events[1].DepositAmountCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelWithoutDepositSkipsRefund(t *testing.T) {
	mock, reservations, tables, _, closeDB := setupMockDB(t)
	defer closeDB()
	pub := &recordingPublisher{}
	gw := &flakyGateway{}
	m := newLifecycle(t, mock, reservations, tables, pub, gw, "2026-08-25 18:00")

	current := model.Reservation{ID: 7, RestaurantID: 1, TableID: 3, UserID: 9,
		Date: "2026-08-25", Time: "20:00", GuestCount: 2, Status: model.StatusPending, Source: model.SourceOnline}
	expectCancelTx(mock, current, false)

	owner := Actor{UserID: 9, Role: model.RoleCustomer}
	_, err := m.Cancel(context.Background(), 7, "", owner)
	require.NoError(t, err)
	assert.Equal(t, 0, gw.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRescheduleMovesSlot(t *testing.T) {
	mock, reservations, tables, _, closeDB := setupMockDB(t)
	defer closeDB()
	m := newLifecycle(t, mock, reservations, tables, nil, nil, "2026-08-25 12:00")

	current := model.Reservation{ID: 7, RestaurantID: 1, TableID: 3, UserID: 9,
		Date: "2026-08-25", Time: "20:00", GuestCount: 2, Status: model.StatusConfirmed, Source: model.SourceOnline}
	table := model.Table{ID: 3, RestaurantID: 1, Capacity: 4, IsActive: true}
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations WHERE id = (.+) FOR UPDATE`).WillReturnRows(reservationRows(current))
	mock.ExpectQuery(`FROM restaurant_tables WHERE id = (.+) FOR UPDATE`).WillReturnRows(tableRow(table))
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs(3, "2026-08-26", "19:30", 7).WillReturnRows(existsRow(false))
	mock.ExpectExec(`UPDATE reservations`).
		WithArgs("2026-08-26", "19:30", "21:00", 3, uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	owner := Actor{UserID: 9, Role: model.RoleCustomer}
	guests := uint32(3)
	res, err := m.Reschedule(context.Background(), 7,
		RescheduleInput{Date: strPtr("2026-08-26"), Time: strPtr("19:30"), GuestCount: &guests}, owner)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-26", res.Date)
	assert.Equal(t, "19:30", res.Time)
	assert.Equal(t, uint32(3), res.GuestCount)
	require.NotNil(t, res.EndTime)
	assert.Equal(t, "21:00", *res.EndTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRescheduleRejectsSeatedReservation(t *testing.T) {
	mock, reservations, tables, _, closeDB := setupMockDB(t)
	defer closeDB()
	m := newLifecycle(t, mock, reservations, tables, nil, nil, "2026-08-25 12:00")

	current := model.Reservation{ID: 7, RestaurantID: 1, TableID: 3, UserID: 9,
		Date: "2026-08-25", Time: "20:00", GuestCount: 2, Status: model.StatusSeated, Source: model.SourceOnline}
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(reservationRows(current))
	mock.ExpectRollback()

	owner := Actor{UserID: 9, Role: model.RoleCustomer}
	_, err := m.Reschedule(context.Background(), 7, RescheduleInput{Time: strPtr("21:00")}, owner)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepeatCopiesBookingWithoutCancelNotes(t *testing.T) {
	mock, reservations, tables, _, closeDB := setupMockDB(t)
	defer closeDB()
	m := newLifecycle(t, mock, reservations, tables, nil, nil, "2026-08-25 12:00")

	source := model.Reservation{ID: 7, RestaurantID: 1, TableID: 3, UserID: 9,
		Date: "2026-07-01", Time: "20:00", GuestCount: 2, Status: model.StatusCompleted,
		Source: model.SourceOnline, Occasion: "birthday",
		SpecialRequest: strPtr("window seat"), CancelReason: strPtr("old note")}
	table := model.Table{ID: 3, RestaurantID: 1, Capacity: 4, IsActive: true}
	mock.ExpectQuery(`FROM reservations WHERE id`).WithArgs(7).WillReturnRows(reservationRows(source))
	mock.ExpectQuery(`FROM restaurant_tables WHERE id`).WillReturnRows(tableRow(table))
	mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(existsRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reservations`).WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(`UPDATE restaurant_tables SET physical_status`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	owner := Actor{UserID: 9, Role: model.RoleCustomer}
	res, err := m.Repeat(context.Background(), 7, "2026-09-01", "20:00", owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), res.ID)
	assert.Equal(t, model.StatusPending, res.Status)
	assert.Equal(t, "birthday", res.Occasion)
	assert.Nil(t, res.SpecialRequest)
	assert.Nil(t, res.CancelReason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepeatUnknownSourceIsNotFound(t *testing.T) {
	mock, reservations, tables, _, closeDB := setupMockDB(t)
	defer closeDB()
	m := newLifecycle(t, mock, reservations, tables, nil, nil, "2026-08-25 12:00")

	mock.ExpectQuery(`FROM reservations WHERE id`).WillReturnRows(reservationRows())

	owner := Actor{UserID: 9, Role: model.RoleCustomer}
	_, err := m.Repeat(context.Background(), 404, "2026-09-01", "20:00", owner)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
