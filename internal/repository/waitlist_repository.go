package repository

import (
	"context"
	"database/sql"

	"github.com/mesafina/table-reservation/internal/model"
)

// WaitlistRepo persists walk-in waitlist entries.  Stored positions are
// assigned once at join time; the drifting customer-visible position is
// recomputed from live counts (see CountLiveBefore).
type WaitlistRepo struct {
	db *sql.DB
}

// NewWaitlistRepo returns a WaitlistRepo bound to the given database.
func NewWaitlistRepo(db *sql.DB) *WaitlistRepo { return &WaitlistRepo{db: db} }

const waitlistColumns = `id, restaurant_id, user_id, name, phone, party_size, status,
	position, estimated_wait_min, created_at, updated_at`

func scanWaitlistEntry(row interface{ Scan(...any) error }) (*model.WaitlistEntry, error) {
	var (
		e        model.WaitlistEntry
		userID   sql.NullInt64
		position sql.NullInt64
	)
	if err := row.Scan(&e.ID, &e.RestaurantID, &userID, &e.Name, &e.Phone, &e.PartySize,
		&e.Status, &position, &e.EstimatedWaitMin, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if userID.Valid {
		v := uint64(userID.Int64)
		e.UserID = &v
	}
	if position.Valid {
		v := uint32(position.Int64)
		e.Position = &v
	}
	return &e, nil
}

// Create inserts a new entry and populates the generated ID.
func (r *WaitlistRepo) Create(ctx context.Context, e *model.WaitlistEntry) error {
	const q = `INSERT INTO waitlist_entries
			   (restaurant_id, user_id, name, phone, party_size, status, position, estimated_wait_min)
			   VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, e.RestaurantID, e.UserID, e.Name, e.Phone,
		e.PartySize, e.Status, e.Position, e.EstimatedWaitMin)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// GetByID fetches one entry.  Returns ErrNotFound for unknown ids.
func (r *WaitlistRepo) GetByID(ctx context.Context, id uint64) (*model.WaitlistEntry, error) {
	const q = `SELECT ` + waitlistColumns + ` FROM waitlist_entries WHERE id = ?`
	e, err := scanWaitlistEntry(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return e, err
}

// HasLiveByPhone reports whether the phone already has a waiting, notified
// or confirmed entry at the restaurant.
func (r *WaitlistRepo) HasLiveByPhone(ctx context.Context, restaurantID uint64, phone string) (bool, error) {
	const q = `SELECT EXISTS(
				 SELECT 1 FROM waitlist_entries
				 WHERE restaurant_id = ? AND phone = ?
				   AND status IN ('waiting','notified','confirmed'))`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, restaurantID, phone).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CountLive counts the restaurant's waiting and notified entries; the next
// join position is this count plus one.
func (r *WaitlistRepo) CountLive(ctx context.Context, restaurantID uint64) (uint32, error) {
	const q = `SELECT COUNT(*) FROM waitlist_entries
			   WHERE restaurant_id = ? AND status IN ('waiting','notified')`
	var n uint32
	err := r.db.QueryRowContext(ctx, q, restaurantID).Scan(&n)
	return n, err
}

// CountLiveBefore counts waiting/notified entries with a stored position
// lower than the given one.  The customer-visible position is this count
// plus one, so it drifts downward as earlier entries leave without any row
// being renumbered.
func (r *WaitlistRepo) CountLiveBefore(ctx context.Context, restaurantID uint64, position uint32) (uint32, error) {
	const q = `SELECT COUNT(*) FROM waitlist_entries
			   WHERE restaurant_id = ? AND status IN ('waiting','notified') AND position < ?`
	var n uint32
	err := r.db.QueryRowContext(ctx, q, restaurantID, position).Scan(&n)
	return n, err
}

// UpdateStatus moves the entry to a new status, clearing the stored
// position when the entry leaves the queue.
func (r *WaitlistRepo) UpdateStatus(ctx context.Context, id uint64, status model.WaitlistStatus, clearPosition bool) error {
	q := `UPDATE waitlist_entries SET status = ?`
	if clearPosition {
		q += `, position = NULL`
	}
	q += ` WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByRestaurant returns the restaurant's entries, live ones first by
// stored position, for the staff queue view.
func (r *WaitlistRepo) ListByRestaurant(ctx context.Context, restaurantID uint64, liveOnly bool) ([]model.WaitlistEntry, error) {
	q := `SELECT ` + waitlistColumns + ` FROM waitlist_entries WHERE restaurant_id = ?`
	if liveOnly {
		q += ` AND status IN ('waiting','notified','confirmed')`
	}
	q += ` ORDER BY position IS NULL, position, created_at`
	rows, err := r.db.QueryContext(ctx, q, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.WaitlistEntry, 0)
	for rows.Next() {
		e, err := scanWaitlistEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
