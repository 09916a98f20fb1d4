package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/mesafina/table-reservation/internal/model"
	"github.com/mesafina/table-reservation/internal/queue"
	"github.com/mesafina/table-reservation/internal/repository"
)

// setupMockDB returns a sqlmock-backed database plus the repositories the
// services are built on.
func setupMockDB(t *testing.T) (sqlmock.Sqlmock, *repository.ReservationRepo, *repository.TableRepo, *repository.WaitlistRepo, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return mock, repository.NewReservationRepo(db), repository.NewTableRepo(db), repository.NewWaitlistRepo(db),
		func() { _ = db.Close() }
}

// fixedClock parses "2006-01-02 15:04" and returns a clock frozen at it.
func fixedClock(t *testing.T, s string) func() time.Time {
	t.Helper()
	at, err := time.Parse("2006-01-02 15:04", s)
	require.NoError(t, err)
	return func() time.Time { return at }
}

var tableCols = []string{"id", "restaurant_id", "name", "capacity", "zone", "is_active", "physical_status", "created_at", "updated_at"}

func tableRow(t model.Table) *sqlmock.Rows {
	return sqlmock.NewRows(tableCols).
		AddRow(t.ID, t.RestaurantID, t.Name, t.Capacity, t.Zone, t.IsActive, t.PhysicalStatus, t.CreatedAt, t.UpdatedAt)
}

var reservationCols = []string{
	"id", "restaurant_id", "table_id", "user_id",
	"reservation_date", "reservation_time", "end_time", "guest_count",
	"status", "source", "deposit_paid", "deposit_amount_cents",
	"occasion", "special_request", "cancel_reason",
	"confirmed_at", "arrived_at", "seated_at", "completed_at", "cancelled_at",
	"created_at", "updated_at",
}

func reservationRows(list ...model.Reservation) *sqlmock.Rows {
	rows := sqlmock.NewRows(reservationCols)
	for _, r := range list {
		rows.AddRow(r.ID, r.RestaurantID, r.TableID, r.UserID,
			r.Date, r.Time, ptrVal(r.EndTime), r.GuestCount,
			r.Status, r.Source, r.DepositPaid, r.DepositAmountCents,
			r.Occasion, ptrVal(r.SpecialRequest), ptrVal(r.CancelReason),
			timeVal(r.ConfirmedAt), timeVal(r.ArrivedAt), timeVal(r.SeatedAt),
			timeVal(r.CompletedAt), timeVal(r.CancelledAt),
			r.CreatedAt, r.UpdatedAt)
	}
	return rows
}

func ptrVal(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func timeVal(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func existsRow(exists bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(exists)
}

// recordingPublisher captures published events in order.
type recordingPublisher struct {
	events []queue.ReservationEvent
}

func (p *recordingPublisher) PublishReservationEvent(_ context.Context, ev queue.ReservationEvent) error {
	p.events = append(p.events, ev)
	return nil
}

// flakyGateway fails the first failUntil refund attempts, then succeeds.
type flakyGateway struct {
	calls     int
	failUntil int
}

func (g *flakyGateway) Refund(_ context.Context, _ uint64, _ uint32) error {
	g.calls++
	if g.calls <= g.failUntil {
		return errors.New("gateway unavailable")
	}
	return nil
}

func strPtr(s string) *string { return &s }
