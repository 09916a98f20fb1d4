package service

import (
	"context"
	"time"

	"github.com/mesafina/table-reservation/internal/model"
	"github.com/mesafina/table-reservation/internal/repository"
	"github.com/mesafina/table-reservation/internal/timeslot"
)

// LogicalLabel is the derived, time-aware occupancy label of a table.  It is
// the source of truth for floor-plan UIs; the stored physical status is only
// a coarse signal.
type LogicalLabel string

const (
	LabelFree            LogicalLabel = "FREE"
	LabelReserved        LogicalLabel = "RESERVED"         // next booking within the soon window
	LabelNextReservation LogicalLabel = "NEXT_RESERVATION" // next booking within the wide window
	LabelOccupied        LogicalLabel = "OCCUPIED"
	LabelOutOfService    LogicalLabel = "OUT_OF_SERVICE"
)

// StatusConfig tunes the projection windows.
type StatusConfig struct {
	ServiceDurationMin int // default end-time when a reservation has none
	ReservedSoonMin    int // <= this many minutes until next -> RESERVED
	NextWindowMin      int // <= this many minutes until next -> NEXT_RESERVATION
}

// TableStatus is one table's derived occupancy view.
type TableStatus struct {
	TableID          uint64       `json:"table_id"`
	Name             string       `json:"name"`
	Zone             string       `json:"zone"`
	Capacity         uint32       `json:"capacity"`
	Label            LogicalLabel `json:"label"`
	RemainingMin     *int         `json:"remaining_min,omitempty"`      // occupied: minutes until current ends
	MinutesUntilNext *int         `json:"minutes_until_next,omitempty"` // minutes until the next booking
	CurrentID        *uint64      `json:"current_reservation_id,omitempty"`
	NextID           *uint64      `json:"next_reservation_id,omitempty"`
	NextTime         *string      `json:"next_time,omitempty"`
}

// StatusEngine computes the logical status projection.  It is a pure read
// path: nothing here mutates state.  Reports are recomputed per request,
// with an optional short-TTL cache for read throughput; the walk-in
// assignment flow always computes fresh.
type StatusEngine struct {
	reservations *repository.ReservationRepo
	tables       *repository.TableRepo
	cache        *StatusCache
	cfg          StatusConfig
	now          func() time.Time
}

// NewStatusEngine builds an engine.  cache may be nil to disable caching;
// now defaults to time.Now.
func NewStatusEngine(reservations *repository.ReservationRepo, tables *repository.TableRepo, cache *StatusCache, cfg StatusConfig, now func() time.Time) *StatusEngine {
	if now == nil {
		now = time.Now
	}
	if cfg.ServiceDurationMin <= 0 {
		cfg.ServiceDurationMin = 90
	}
	if cfg.ReservedSoonMin <= 0 {
		cfg.ReservedSoonMin = 30
	}
	if cfg.NextWindowMin <= 0 {
		cfg.NextWindowMin = 90
	}
	return &StatusEngine{reservations: reservations, tables: tables, cache: cache, cfg: cfg, now: now}
}

// Cache exposes the engine's cache so the lifecycle manager can invalidate
// it after committed mutations.
func (e *StatusEngine) Cache() *StatusCache { return e.cache }

// Report returns the logical status of every table in the restaurant,
// derived from today's live reservations and the current clock.
func (e *StatusEngine) Report(ctx context.Context, restaurantID uint64) ([]TableStatus, error) {
	if cached, ok := e.cache.Get(restaurantID); ok {
		return cached, nil
	}
	tables, err := e.tables.ListByRestaurant(ctx, restaurantID, false)
	if err != nil {
		return nil, err
	}
	now := e.now()
	today := timeslot.DateOf(now)
	live, err := e.reservations.ListActiveByRestaurantDate(ctx, restaurantID, today)
	if err != nil {
		return nil, err
	}
	byTable := make(map[uint64][]model.Reservation, len(tables))
	for _, r := range live {
		byTable[r.TableID] = append(byTable[r.TableID], r)
	}
	report := make([]TableStatus, 0, len(tables))
	for _, t := range tables {
		report = append(report, e.derive(t, byTable[t.ID], now))
	}
	e.cache.Set(restaurantID, report)
	return report, nil
}

// StatusOf computes one table's status fresh, bypassing the cache.  Used by
// the walk-in assignment flow, where a stale view could double-seat.
func (e *StatusEngine) StatusOf(ctx context.Context, table *model.Table) (TableStatus, error) {
	now := e.now()
	today := timeslot.DateOf(now)
	live, err := e.reservations.ListActiveByRestaurantDate(ctx, table.RestaurantID, today)
	if err != nil {
		return TableStatus{}, err
	}
	mine := make([]model.Reservation, 0, 4)
	for _, r := range live {
		if r.TableID == table.ID {
			mine = append(mine, r)
		}
	}
	return e.derive(*table, mine, now), nil
}

// endOf resolves a reservation's end time, defaulting to start + configured
// service duration when none was stored.
func (e *StatusEngine) endOf(r *model.Reservation) string {
	if r.EndTime != nil && *r.EndTime != "" {
		return *r.EndTime
	}
	end, err := timeslot.AddMinutes(r.Time, e.cfg.ServiceDurationMin)
	if err != nil {
		return r.Time
	}
	return end
}

// derive applies the projection rules to one table.  reservations must be
// today's live bookings for that table, sorted by time.
func (e *StatusEngine) derive(t model.Table, reservations []model.Reservation, now time.Time) TableStatus {
	st := TableStatus{
		TableID:  t.ID,
		Name:     t.Name,
		Zone:     t.Zone,
		Capacity: t.Capacity,
		Label:    LabelFree,
	}
	if !t.IsActive || t.PhysicalStatus == model.TableBlocked {
		st.Label = LabelOutOfService
		return st
	}
	nowClock := timeslot.ClockOf(now)
	nowMin, _ := timeslot.ParseClock(nowClock)

	var current *model.Reservation
	var next *model.Reservation
	for i := range reservations {
		r := &reservations[i]
		switch r.Status {
		case model.StatusArrived, model.StatusSeated:
			if current == nil {
				current = r
			}
			continue
		case model.StatusConfirmed:
			if in, err := timeslot.InWindow(r.Time, e.endOf(r), nowClock); err == nil && in {
				if current == nil {
					current = r
				}
				continue
			}
		}
		if r.Status == model.StatusPending || r.Status == model.StatusConfirmed {
			if m, err := timeslot.ParseClock(r.Time); err == nil && m > nowMin {
				if next == nil {
					next = r
				}
			}
		}
	}

	if current != nil {
		st.Label = LabelOccupied
		st.CurrentID = &current.ID
		if remaining, err := timeslot.MinutesUntil(nowClock, e.endOf(current)); err == nil {
			st.RemainingMin = &remaining
		}
	}
	if next != nil {
		until, err := timeslot.MinutesUntil(nowClock, next.Time)
		if err == nil {
			st.NextID = &next.ID
			nt := next.Time
			st.NextTime = &nt
			st.MinutesUntilNext = &until
			if current == nil {
				switch {
				case until <= e.cfg.ReservedSoonMin:
					st.Label = LabelReserved
				case until <= e.cfg.NextWindowMin:
					st.Label = LabelNextReservation
				}
			}
		}
	}
	return st
}
