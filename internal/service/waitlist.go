package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mesafina/table-reservation/internal/model"
	"github.com/mesafina/table-reservation/internal/repository"
)

// WaitlistConfig tunes the walk-in queue.
type WaitlistConfig struct {
	WaitPerPositionMin int // estimated wait contributed by each party ahead
	WalkInMinBufferMin int // minimum minutes until the next booking to seat a walk-in
}

// WaitlistManager runs the walk-in queue: join with duplicate detection,
// drifting position queries, staff status updates and walk-in table
// assignment.  Assignment defers to the lifecycle manager for the actual
// seating so the reservation and table writes stay in one place.
type WaitlistManager struct {
	waitlist  *repository.WaitlistRepo
	tables    *repository.TableRepo
	status    *StatusEngine
	lifecycle *LifecycleManager
	cfg       WaitlistConfig
	now       func() time.Time
}

// NewWaitlistManager wires the manager.  now defaults to time.Now.
func NewWaitlistManager(waitlist *repository.WaitlistRepo, tables *repository.TableRepo,
	status *StatusEngine, lifecycle *LifecycleManager, cfg WaitlistConfig, now func() time.Time) *WaitlistManager {
	if now == nil {
		now = time.Now
	}
	if cfg.WaitPerPositionMin <= 0 {
		cfg.WaitPerPositionMin = 15
	}
	if cfg.WalkInMinBufferMin <= 0 {
		cfg.WalkInMinBufferMin = 60
	}
	return &WaitlistManager{
		waitlist:  waitlist,
		tables:    tables,
		status:    status,
		lifecycle: lifecycle,
		cfg:       cfg,
		now:       now,
	}
}

// JoinInput carries a walk-in party joining the queue.  UserID is nil for
// anonymous walk-ins taken at the door.
type JoinInput struct {
	RestaurantID uint64
	UserID       *uint64
	Name         string
	Phone        string
	PartySize    uint32
}

// Join appends the party to the queue.  A phone with a live entry at the
// restaurant is rejected with a conflict; the assigned position is one past
// the current live queue and the wait estimate scales with it.
func (m *WaitlistManager) Join(ctx context.Context, in JoinInput) (*model.WaitlistEntry, error) {
	if in.RestaurantID == 0 || in.Name == "" || in.Phone == "" {
		return nil, fmt.Errorf("restaurant, name and phone are required: %w", ErrValidation)
	}
	if in.PartySize < 1 {
		return nil, fmt.Errorf("party size must be at least 1: %w", ErrValidation)
	}
	dup, err := m.waitlist.HasLiveByPhone(ctx, in.RestaurantID, in.Phone)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, fmt.Errorf("phone %s already has a live waitlist entry: %w", in.Phone, repository.ErrConflict)
	}
	live, err := m.waitlist.CountLive(ctx, in.RestaurantID)
	if err != nil {
		return nil, err
	}
	position := live + 1
	entry := &model.WaitlistEntry{
		RestaurantID:     in.RestaurantID,
		UserID:           in.UserID,
		Name:             in.Name,
		Phone:            in.Phone,
		PartySize:        in.PartySize,
		Status:           model.WaitWaiting,
		Position:         &position,
		EstimatedWaitMin: position * uint32(m.cfg.WaitPerPositionMin),
	}
	if err := m.waitlist.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Status returns the entry with its current position recomputed from the
// live queue.  The stored position never changes; parties ahead leaving
// simply shrink the count of live entries before it, so the visible position
// and wait estimate drift downward.
func (m *WaitlistManager) Status(ctx context.Context, id uint64) (*model.WaitlistEntry, error) {
	entry, err := m.waitlist.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Status.Live() && entry.Position != nil {
		ahead, err := m.waitlist.CountLiveBefore(ctx, entry.RestaurantID, *entry.Position)
		if err != nil {
			return nil, err
		}
		current := ahead + 1
		entry.Position = &current
		entry.EstimatedWaitMin = current * uint32(m.cfg.WaitPerPositionMin)
	}
	return entry, nil
}

// UpdateStatus moves an entry along the waitlist flow (notify, confirm,
// seat, cancel, no_show).  Staff only; illegal moves, including anything on
// a terminal entry, are rejected.  When a party is seated, tableID names the
// table it was put at and flips it to occupied; zero skips the table write.
func (m *WaitlistManager) UpdateStatus(ctx context.Context, id uint64, to model.WaitlistStatus, tableID uint64, actor Actor) (*model.WaitlistEntry, error) {
	if !model.ValidWaitlistStatus(to) {
		return nil, fmt.Errorf("unknown waitlist status %q: %w", to, ErrValidation)
	}
	entry, err := m.waitlist.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.StaffOf(entry.RestaurantID) {
		return nil, repository.ErrForbidden
	}
	if !model.WaitlistTransitionAllowed(entry.Status, to) {
		return nil, fmt.Errorf("cannot move waitlist entry from %s to %s: %w", entry.Status, to, ErrInvalidState)
	}
	var table *model.Table
	if to == model.WaitSeated && tableID != 0 {
		table, err = m.tables.GetByID(ctx, tableID)
		if err != nil {
			return nil, err
		}
		if table.RestaurantID != entry.RestaurantID {
			return nil, fmt.Errorf("table %d belongs to another restaurant: %w", tableID, ErrValidation)
		}
	}
	clearPosition := !to.Live()
	if err := m.waitlist.UpdateStatus(ctx, id, to, clearPosition); err != nil {
		return nil, err
	}
	if table != nil {
		if err := m.tables.UpdatePhysicalStatus(ctx, table.ID, model.TableOccupied); err != nil {
			return nil, err
		}
		m.status.Cache().Invalidate(entry.RestaurantID)
	}
	entry.Status = to
	if clearPosition {
		entry.Position = nil
	}
	return entry, nil
}

// Leave removes the caller's own entry from the queue.  Ownership is by
// account or by phone for anonymous entries.  Leaving an entry that is no
// longer live reports not found, which makes repeated leave calls harmless.
func (m *WaitlistManager) Leave(ctx context.Context, id uint64, actor Actor, phone string) error {
	entry, err := m.waitlist.GetByID(ctx, id)
	if err != nil {
		return err
	}
	owns := (entry.UserID != nil && *entry.UserID == actor.UserID) ||
		(phone != "" && entry.Phone == phone) ||
		actor.StaffOf(entry.RestaurantID)
	if !owns {
		return repository.ErrForbidden
	}
	if !entry.Status.Live() {
		return fmt.Errorf("waitlist entry %d is already %s: %w", id, entry.Status, repository.ErrNotFound)
	}
	return m.waitlist.UpdateStatus(ctx, id, model.WaitCancelled, true)
}

// AssignWalkInInput identifies the party being seated.  EntryID links an
// existing waitlist entry; zero means a direct walk-in with no entry.
type AssignWalkInInput struct {
	TableID   uint64
	PartySize uint32
	EntryID   uint64
}

// AssignWalkIn seats a walk-in party at a table.  The table's logical status
// is computed fresh, never from cache: it must be FREE, or NEXT_RESERVATION
// with the next booking at least the configured buffer away.  A RESERVED
// table is always closed to walk-ins, whatever the buffer.  On success the
// lifecycle manager records a seated walk-in reservation and occupies the
// table, and the linked waitlist entry, if any, is marked seated.
func (m *WaitlistManager) AssignWalkIn(ctx context.Context, in AssignWalkInInput, actor Actor) (*model.Reservation, error) {
	if in.PartySize < 1 {
		return nil, fmt.Errorf("party size must be at least 1: %w", ErrValidation)
	}
	table, err := m.tables.GetByID(ctx, in.TableID)
	if err != nil {
		return nil, err
	}
	if !actor.StaffOf(table.RestaurantID) {
		return nil, repository.ErrForbidden
	}
	if in.PartySize > table.Capacity {
		return nil, fmt.Errorf("party of %d exceeds table capacity %d: %w", in.PartySize, table.Capacity, ErrValidation)
	}
	st, err := m.status.StatusOf(ctx, table)
	if err != nil {
		return nil, err
	}
	switch st.Label {
	case LabelFree:
	case LabelNextReservation:
		if st.MinutesUntilNext == nil || *st.MinutesUntilNext < m.cfg.WalkInMinBufferMin {
			return nil, fmt.Errorf("table %d has a booking too soon for a walk-in: %w", table.ID, repository.ErrConflict)
		}
	default:
		return nil, fmt.Errorf("table %d is %s: %w", table.ID, st.Label, repository.ErrConflict)
	}
	res, err := m.lifecycle.CreateWalkIn(ctx, table.RestaurantID, table.ID, actor.UserID, in.PartySize)
	if err != nil {
		return nil, err
	}
	if in.EntryID != 0 {
		if err := m.seatEntry(ctx, in.EntryID, table.RestaurantID); err != nil {
			log.Printf("waitlist: seating entry %d after walk-in assignment failed: %v", in.EntryID, err)
		}
	}
	return res, nil
}

// ListQueue returns the restaurant's queue for the staff view.
func (m *WaitlistManager) ListQueue(ctx context.Context, restaurantID uint64, liveOnly bool, actor Actor) ([]model.WaitlistEntry, error) {
	if !actor.StaffOf(restaurantID) {
		return nil, repository.ErrForbidden
	}
	return m.waitlist.ListByRestaurant(ctx, restaurantID, liveOnly)
}

// seatEntry marks a linked waitlist entry seated after a successful walk-in
// assignment.  The party is already at the table, so a failure here is
// logged by the caller rather than unwinding the seating.
func (m *WaitlistManager) seatEntry(ctx context.Context, entryID, restaurantID uint64) error {
	entry, err := m.waitlist.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.RestaurantID != restaurantID {
		return fmt.Errorf("entry %d belongs to another restaurant: %w", entryID, ErrValidation)
	}
	if !entry.Status.Live() {
		return fmt.Errorf("entry %d is already %s: %w", entryID, entry.Status, ErrInvalidState)
	}
	return m.waitlist.UpdateStatus(ctx, entryID, model.WaitSeated, true)
}
