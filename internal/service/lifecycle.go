package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/mesafina/table-reservation/internal/model"
	"github.com/mesafina/table-reservation/internal/queue"
	"github.com/mesafina/table-reservation/internal/repository"
	"github.com/mesafina/table-reservation/internal/timeslot"
)

// LifecycleConfig tunes the reservation lifecycle.
type LifecycleConfig struct {
	ServiceDurationMin int // default slot length used to derive end times
}

// LifecycleManager owns the reservation state machine.  Every mutation runs
// in one database transaction covering both the reservation row and the
// table's physical status, so a transition either applies fully or not at
// all.  Collaborator calls (refund, events) happen strictly after commit and
// never roll the transition back.
type LifecycleManager struct {
	db           *sql.DB
	reservations *repository.ReservationRepo
	tables       *repository.TableRepo
	availability *Availability
	payments     PaymentGateway
	events       EventPublisher
	cache        *StatusCache
	cfg          LifecycleConfig
	now          func() time.Time
}

// NewLifecycleManager wires the manager.  payments and events may be nil
// (refunds are then logged only and events dropped); cache may be nil.
func NewLifecycleManager(db *sql.DB, reservations *repository.ReservationRepo, tables *repository.TableRepo,
	availability *Availability, payments PaymentGateway, events EventPublisher, cache *StatusCache,
	cfg LifecycleConfig, now func() time.Time) *LifecycleManager {
	if now == nil {
		now = time.Now
	}
	if cfg.ServiceDurationMin <= 0 {
		cfg.ServiceDurationMin = 90
	}
	if payments == nil {
		payments = LogPaymentGateway{}
	}
	return &LifecycleManager{
		db:           db,
		reservations: reservations,
		tables:       tables,
		availability: availability,
		payments:     payments,
		events:       events,
		cache:        cache,
		cfg:          cfg,
		now:          now,
	}
}

// CreateInput carries the fields of a new booking.
type CreateInput struct {
	RestaurantID       uint64
	TableID            uint64
	UserID             uint64
	Date               string
	Time               string
	GuestCount         uint32
	Occasion           string
	SpecialRequest     *string
	DepositPaid        bool
	DepositAmountCents uint32
}

// validate checks required fields and slot formats.
func (in *CreateInput) validate() error {
	if in.RestaurantID == 0 || in.TableID == 0 || in.UserID == 0 {
		return fmt.Errorf("restaurant, table and user are required: %w", ErrValidation)
	}
	return validateSlot(in.Date, in.Time, in.GuestCount)
}

// checkTable verifies the table belongs to the restaurant, is active, and
// seats the party.
func checkTable(t *model.Table, restaurantID uint64, guests uint32) error {
	if t.RestaurantID != restaurantID {
		return fmt.Errorf("table %d does not belong to restaurant %d: %w", t.ID, restaurantID, ErrValidation)
	}
	if !t.IsActive {
		return fmt.Errorf("table %d is not active: %w", t.ID, ErrValidation)
	}
	if guests > t.Capacity {
		return fmt.Errorf("party of %d exceeds table capacity %d: %w", guests, t.Capacity, ErrValidation)
	}
	return nil
}

// Create books a table for an exact slot.  Initial status is pending, or
// confirmed directly when a deposit was paid at creation.  The availability
// pre-check yields a fast Conflict for the common case; the unique index on
// the insert is what actually guarantees no double booking under
// concurrency.
func (m *LifecycleManager) Create(ctx context.Context, in CreateInput) (*model.Reservation, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	table, err := m.tables.GetByID(ctx, in.TableID)
	if err != nil {
		return nil, err
	}
	if err := checkTable(table, in.RestaurantID, in.GuestCount); err != nil {
		return nil, err
	}
	if taken, err := m.availability.HasConflict(ctx, in.TableID, in.Date, in.Time, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("slot %s %s on table %d: %w", in.Date, in.Time, in.TableID, repository.ErrConflict)
	}

	end, err := timeslot.AddMinutes(in.Time, m.cfg.ServiceDurationMin)
	if err != nil {
		return nil, err
	}
	res := &model.Reservation{
		RestaurantID:       in.RestaurantID,
		TableID:            in.TableID,
		UserID:             in.UserID,
		Date:               in.Date,
		Time:               in.Time,
		EndTime:            &end,
		GuestCount:         in.GuestCount,
		Status:             model.StatusPending,
		Source:             model.SourceOnline,
		DepositPaid:        in.DepositPaid,
		DepositAmountCents: in.DepositAmountCents,
		Occasion:           in.Occasion,
		SpecialRequest:     in.SpecialRequest,
	}
	if in.DepositPaid {
		res.Status = model.StatusConfirmed
		at := m.now().UTC()
		res.ConfirmedAt = &at
	}
	err = runTx(ctx, m.db, func(tx *sql.Tx) error {
		if err := m.reservations.CreateTx(ctx, tx, res); err != nil {
			return err
		}
		return m.tables.UpdatePhysicalStatusTx(ctx, tx, table.ID, model.TablePending)
	})
	if err != nil {
		return nil, err
	}
	m.cache.Invalidate(res.RestaurantID)
	return res, nil
}

// CreateWalkIn seats a walk-in party immediately: the reservation starts in
// `seated` with source walk_in and the table goes straight to occupied.
// The waitlist manager is responsible for the logical-status admission check
// before calling this.
func (m *LifecycleManager) CreateWalkIn(ctx context.Context, restaurantID, tableID, userID uint64, guests uint32) (*model.Reservation, error) {
	table, err := m.tables.GetByID(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if err := checkTable(table, restaurantID, guests); err != nil {
		return nil, err
	}
	now := m.now()
	clock := timeslot.ClockOf(now)
	end, err := timeslot.AddMinutes(clock, m.cfg.ServiceDurationMin)
	if err != nil {
		return nil, err
	}
	seatedAt := now.UTC()
	res := &model.Reservation{
		RestaurantID: restaurantID,
		TableID:      tableID,
		UserID:       userID,
		Date:         timeslot.DateOf(now),
		Time:         clock,
		EndTime:      &end,
		GuestCount:   guests,
		Status:       model.StatusSeated,
		Source:       model.SourceWalkIn,
		SeatedAt:     &seatedAt,
	}
	err = runTx(ctx, m.db, func(tx *sql.Tx) error {
		if err := m.reservations.CreateTx(ctx, tx, res); err != nil {
			return err
		}
		return m.tables.UpdatePhysicalStatusTx(ctx, tx, tableID, model.TableOccupied)
	})
	if err != nil {
		return nil, err
	}
	m.cache.Invalidate(restaurantID)
	return res, nil
}

// Apply advances a reservation by one lifecycle event (confirm, arrive,
// seat, complete, no_show).  The transition table rejects anything not
// listed; terminal states reject everything.  Cancellation goes through
// Cancel, which additionally records the reason and drives the refund.
func (m *LifecycleManager) Apply(ctx context.Context, id uint64, event model.ReservationEvent, actor Actor) (*model.Reservation, error) {
	var res *model.Reservation
	err := runTx(ctx, m.db, func(tx *sql.Tx) error {
		var err error
		res, err = m.reservations.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if !actor.StaffOf(res.RestaurantID) {
			return repository.ErrForbidden
		}
		next, tableStatus, ok := model.NextStatus(res.Status, event)
		if !ok {
			return fmt.Errorf("cannot %s a %s reservation: %w", event, res.Status, ErrInvalidState)
		}
		at := m.now().UTC()
		if err := m.reservations.UpdateStatusTx(ctx, tx, id, next, at); err != nil {
			return err
		}
		if err := m.tables.UpdatePhysicalStatusTx(ctx, tx, res.TableID, tableStatus); err != nil {
			return err
		}
		res.Status = next
		stampTransition(res, next, at)
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.cache.Invalidate(res.RestaurantID)
	if event == model.EventComplete {
		m.publish(ctx, queue.EventTypeCompleted, res, "")
	}
	return res, nil
}

// Cancel moves any non-terminal reservation to cancelled, frees the table
// and records the reason in its dedicated field.  If a deposit was paid the
// refund is requested after commit; a refund failure is logged and escalated
// to the operator queue but never undoes the cancellation.
func (m *LifecycleManager) Cancel(ctx context.Context, id uint64, reason string, actor Actor) (*model.Reservation, error) {
	var res *model.Reservation
	err := runTx(ctx, m.db, func(tx *sql.Tx) error {
		var err error
		res, err = m.reservations.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if !actor.CanManage(res) {
			return repository.ErrForbidden
		}
		next, tableStatus, ok := model.NextStatus(res.Status, model.EventCancel)
		if !ok {
			return fmt.Errorf("reservation is already %s: %w", res.Status, ErrInvalidState)
		}
		at := m.now().UTC()
		if err := m.reservations.UpdateStatusTx(ctx, tx, id, next, at); err != nil {
			return err
		}
		if reason != "" {
			if err := m.reservations.SetCancelReasonTx(ctx, tx, id, reason); err != nil {
				return err
			}
			res.CancelReason = &reason
		}
		if err := m.tables.UpdatePhysicalStatusTx(ctx, tx, res.TableID, tableStatus); err != nil {
			return err
		}
		res.Status = next
		stampTransition(res, next, at)
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.cache.Invalidate(res.RestaurantID)
	m.publish(ctx, queue.EventTypeCancelled, res, reason)
	if res.DepositPaid {
		m.refund(ctx, res)
	}
	return res, nil
}

// refund asks the payment collaborator to return the deposit, retrying once
// on a transient failure.  Each attempt gets its own deadline so a timed-out
// first call does not starve the retry.  Cancellation and refund are
// deliberately not transactional with each other: a persistent refund
// failure is surfaced to the operator queue for manual follow-up.
func (m *LifecycleManager) refund(ctx context.Context, res *model.Reservation) {
	attempt := func() error {
		rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return m.payments.Refund(rctx, res.ID, res.DepositAmountCents)
	}
	err := attempt()
	if err != nil {
		err = attempt()
	}
	if err != nil {
		log.Printf("lifecycle: refund failed for reservation %d: %v", res.ID, err)
		m.publish(ctx, queue.EventTypeRefundFailed, res, err.Error())
	}
}

// RescheduleInput carries the fields that may change on reschedule; nil
// fields keep their current value.
type RescheduleInput struct {
	Date       *string
	Time       *string
	GuestCount *uint32
}

// Reschedule moves a pending or confirmed reservation to a new slot and/or
// party size.  Capacity and slot conflict are re-validated against the new
// values, excluding the reservation's own id from the conflict check.  The
// status and the table's physical state are left untouched.
func (m *LifecycleManager) Reschedule(ctx context.Context, id uint64, in RescheduleInput, actor Actor) (*model.Reservation, error) {
	if in.Date == nil && in.Time == nil && in.GuestCount == nil {
		return nil, fmt.Errorf("nothing to reschedule: %w", ErrValidation)
	}
	var res *model.Reservation
	err := runTx(ctx, m.db, func(tx *sql.Tx) error {
		var err error
		res, err = m.reservations.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if !actor.CanManage(res) {
			return repository.ErrForbidden
		}
		if !model.Reschedulable(res.Status) {
			return fmt.Errorf("cannot reschedule a %s reservation: %w", res.Status, ErrInvalidState)
		}
		date, clock, guests := res.Date, res.Time, res.GuestCount
		if in.Date != nil {
			date = *in.Date
		}
		if in.Time != nil {
			clock = *in.Time
		}
		if in.GuestCount != nil {
			guests = *in.GuestCount
		}
		if err := validateSlot(date, clock, guests); err != nil {
			return err
		}
		table, err := m.tables.GetByIDTx(ctx, tx, res.TableID)
		if err != nil {
			return err
		}
		if guests > table.Capacity {
			return fmt.Errorf("party of %d exceeds table capacity %d: %w", guests, table.Capacity, ErrValidation)
		}
		if taken, err := m.reservations.HasActiveAt(ctx, res.TableID, date, clock, id); err != nil {
			return err
		} else if taken {
			return fmt.Errorf("slot %s %s on table %d: %w", date, clock, res.TableID, repository.ErrConflict)
		}
		end, err := timeslot.AddMinutes(clock, m.cfg.ServiceDurationMin)
		if err != nil {
			return err
		}
		if err := m.reservations.UpdateSlotTx(ctx, tx, id, date, clock, &end, guests); err != nil {
			return err
		}
		res.Date, res.Time, res.EndTime, res.GuestCount = date, clock, &end, guests
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.cache.Invalidate(res.RestaurantID)
	return res, nil
}

// Repeat books the same table again for a new slot, copying guest count and
// occasion from a prior reservation.  Unlike the origin system it verifies
// the source table is still active and still seats the party.  Cancellation
// notes are never carried over: the new reservation starts clean.
func (m *LifecycleManager) Repeat(ctx context.Context, sourceID uint64, date, clock string, actor Actor) (*model.Reservation, error) {
	source, err := m.reservations.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(source) {
		return nil, repository.ErrForbidden
	}
	return m.Create(ctx, CreateInput{
		RestaurantID: source.RestaurantID,
		TableID:      source.TableID,
		UserID:       source.UserID,
		Date:         date,
		Time:         clock,
		GuestCount:   source.GuestCount,
		Occasion:     source.Occasion,
	})
}

// Get returns one reservation, enforcing that the actor owns it or is staff
// of its restaurant.
func (m *LifecycleManager) Get(ctx context.Context, id uint64, actor Actor) (*model.Reservation, error) {
	res, err := m.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(res) {
		return nil, repository.ErrForbidden
	}
	return res, nil
}

// ListMine returns the actor's own reservations with optional status and
// upcoming filters.
func (m *LifecycleManager) ListMine(ctx context.Context, actor Actor, status model.ReservationStatus, upcoming bool) ([]model.Reservation, error) {
	if status != "" && !status.Terminal() {
		switch status {
		case model.StatusPending, model.StatusConfirmed, model.StatusArrived, model.StatusSeated:
		default:
			return nil, fmt.Errorf("unknown status %q: %w", status, ErrValidation)
		}
	}
	now := m.now()
	return m.reservations.ListByUser(ctx, actor.UserID, status, upcoming, timeslot.DateOf(now), timeslot.ClockOf(now))
}

// ListForRestaurant returns a restaurant's reservations for one day, for
// staff planning views.  An empty date means today.
func (m *LifecycleManager) ListForRestaurant(ctx context.Context, restaurantID uint64, date string, actor Actor) ([]model.Reservation, error) {
	if !actor.StaffOf(restaurantID) {
		return nil, repository.ErrForbidden
	}
	if date == "" {
		date = timeslot.DateOf(m.now())
	}
	if _, err := timeslot.ParseDate(date); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrValidation)
	}
	return m.reservations.ListByRestaurantDate(ctx, restaurantID, date)
}

// stampTransition mirrors the repository's timestamp write onto the
// in-memory record returned to the caller.
func stampTransition(res *model.Reservation, status model.ReservationStatus, at time.Time) {
	switch status {
	case model.StatusConfirmed:
		res.ConfirmedAt = &at
	case model.StatusArrived:
		res.ArrivedAt = &at
	case model.StatusSeated:
		res.SeatedAt = &at
	case model.StatusCompleted:
		res.CompletedAt = &at
	case model.StatusCancelled, model.StatusNoShow:
		res.CancelledAt = &at
	}
}

// publish sends a domain event after commit.  Failures are logged and
// dropped: notification delivery never affects the core transition.
func (m *LifecycleManager) publish(ctx context.Context, eventType string, res *model.Reservation, reason string) {
	if m.events == nil {
		return
	}
	ev := queue.ReservationEvent{
		EventType:          eventType,
		ReservationID:      res.ID,
		RestaurantID:       res.RestaurantID,
		TableID:            res.TableID,
		UserID:             res.UserID,
		Date:               res.Date,
		Time:               res.Time,
		Status:             string(res.Status),
		DepositAmountCents: res.DepositAmountCents,
		Reason:             reason,
		OccurredAt:         m.now().UTC().Format(time.RFC3339),
	}
	if err := m.events.PublishReservationEvent(ctx, ev); err != nil {
		log.Printf("lifecycle: publish %s for reservation %d failed: %v", eventType, res.ID, err)
	}
}
