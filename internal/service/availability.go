package service

import (
	"context"
	"fmt"

	"github.com/mesafina/table-reservation/internal/model"
	"github.com/mesafina/table-reservation/internal/repository"
	"github.com/mesafina/table-reservation/internal/timeslot"
)

// Availability resolves which tables are free for a slot and detects booking
// conflicts.  Slot matching is exact-time: reservations at 19:00 and 19:15
// on the same table do not conflict.  This mirrors the origin system and is
// kept for compatibility.  Results are always recomputed, never cached:
// caching here would open stale accept-then-conflict races.
type Availability struct {
	reservations *repository.ReservationRepo
	tables       *repository.TableRepo
}

// NewAvailability returns an Availability over the given stores.
func NewAvailability(reservations *repository.ReservationRepo, tables *repository.TableRepo) *Availability {
	return &Availability{reservations: reservations, tables: tables}
}

// qualifyingTables returns the restaurant's active tables with capacity for
// the party.  An empty result maps to ErrNotFound: the restaurant simply has
// no table that could ever seat this party, regardless of slot.
func (a *Availability) qualifyingTables(ctx context.Context, restaurantID uint64, partySize uint32) ([]model.Table, error) {
	tables, err := a.tables.ListByRestaurant(ctx, restaurantID, true)
	if err != nil {
		return nil, err
	}
	qualified := make([]model.Table, 0, len(tables))
	for _, t := range tables {
		if t.Capacity >= partySize {
			qualified = append(qualified, t)
		}
	}
	if len(qualified) == 0 {
		return nil, fmt.Errorf("no table seats a party of %d: %w", partySize, repository.ErrNotFound)
	}
	return qualified, nil
}

// FindAvailableTables returns the active tables with sufficient capacity and
// no live reservation at exactly (date, time).  An empty slice is a valid,
// non-error result: all qualifying tables are simply booked for that slot.
func (a *Availability) FindAvailableTables(ctx context.Context, restaurantID uint64, date, clock string, partySize uint32) ([]model.Table, error) {
	if err := validateSlot(date, clock, partySize); err != nil {
		return nil, err
	}
	qualified, err := a.qualifyingTables(ctx, restaurantID, partySize)
	if err != nil {
		return nil, err
	}
	booked, err := a.reservations.ActiveTableIDsAt(ctx, restaurantID, date, clock)
	if err != nil {
		return nil, err
	}
	free := make([]model.Table, 0, len(qualified))
	for _, t := range qualified {
		if _, taken := booked[t.ID]; !taken {
			free = append(free, t)
		}
	}
	return free, nil
}

// HasConflict reports whether a live reservation already holds the exact
// (table, date, time) slot.  excludeID skips one reservation id (used by
// reschedule to ignore the reservation being moved); pass 0 for none.
func (a *Availability) HasConflict(ctx context.Context, tableID uint64, date, clock string, excludeID uint64) (bool, error) {
	if _, err := timeslot.ParseDate(date); err != nil {
		return false, fmt.Errorf("%v: %w", err, ErrValidation)
	}
	if _, err := timeslot.ParseClock(clock); err != nil {
		return false, fmt.Errorf("%v: %w", err, ErrValidation)
	}
	return a.reservations.HasActiveAt(ctx, tableID, date, clock, excludeID)
}

// ListOpenSlots filters candidateSlots down to those where at least one
// qualifying table is free.  It drives "next available time" UIs.
func (a *Availability) ListOpenSlots(ctx context.Context, restaurantID uint64, date string, partySize uint32, candidateSlots []string) ([]string, error) {
	if _, err := timeslot.ParseDate(date); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrValidation)
	}
	if partySize < 1 {
		return nil, fmt.Errorf("party size must be at least 1: %w", ErrValidation)
	}
	qualified, err := a.qualifyingTables(ctx, restaurantID, partySize)
	if err != nil {
		return nil, err
	}
	open := make([]string, 0, len(candidateSlots))
	for _, slot := range candidateSlots {
		if _, err := timeslot.ParseClock(slot); err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrValidation)
		}
		booked, err := a.reservations.ActiveTableIDsAt(ctx, restaurantID, date, slot)
		if err != nil {
			return nil, err
		}
		for _, t := range qualified {
			if _, taken := booked[t.ID]; !taken {
				open = append(open, slot)
				break
			}
		}
	}
	return open, nil
}

func validateSlot(date, clock string, partySize uint32) error {
	if _, err := timeslot.ParseDate(date); err != nil {
		return fmt.Errorf("%v: %w", err, ErrValidation)
	}
	if _, err := timeslot.ParseClock(clock); err != nil {
		return fmt.Errorf("%v: %w", err, ErrValidation)
	}
	if partySize < 1 {
		return fmt.Errorf("party size must be at least 1: %w", ErrValidation)
	}
	return nil
}
