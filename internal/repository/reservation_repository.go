package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/mesafina/table-reservation/internal/model"
)

// ReservationRepo is the reservation store.  Rows are keyed by id and
// queryable by (table, date, time) and by (restaurant, date).  The `active`
// column mirrors the status: 1 while non-terminal, NULL once terminal, and
// backs the uniq_active_slot index that guarantees at most one live
// reservation per slot even under concurrent inserts.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle for transactions spanning stores.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = `id, restaurant_id, table_id, user_id,
	DATE_FORMAT(reservation_date, '%Y-%m-%d'), reservation_time, end_time, guest_count,
	status, source, deposit_paid, deposit_amount_cents, occasion, special_request, cancel_reason,
	confirmed_at, arrived_at, seated_at, completed_at, cancelled_at, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
	var (
		res            model.Reservation
		endTime        sql.NullString
		specialRequest sql.NullString
		cancelReason   sql.NullString
		confirmedAt    sql.NullTime
		arrivedAt      sql.NullTime
		seatedAt       sql.NullTime
		completedAt    sql.NullTime
		cancelledAt    sql.NullTime
	)
	if err := row.Scan(&res.ID, &res.RestaurantID, &res.TableID, &res.UserID,
		&res.Date, &res.Time, &endTime, &res.GuestCount,
		&res.Status, &res.Source, &res.DepositPaid, &res.DepositAmountCents,
		&res.Occasion, &specialRequest, &cancelReason,
		&confirmedAt, &arrivedAt, &seatedAt, &completedAt, &cancelledAt,
		&res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}
	if endTime.Valid {
		v := endTime.String
		res.EndTime = &v
	}
	if specialRequest.Valid {
		v := specialRequest.String
		res.SpecialRequest = &v
	}
	if cancelReason.Valid {
		v := cancelReason.String
		res.CancelReason = &v
	}
	if confirmedAt.Valid {
		v := confirmedAt.Time
		res.ConfirmedAt = &v
	}
	if arrivedAt.Valid {
		v := arrivedAt.Time
		res.ArrivedAt = &v
	}
	if seatedAt.Valid {
		v := seatedAt.Time
		res.SeatedAt = &v
	}
	if completedAt.Valid {
		v := completedAt.Time
		res.CompletedAt = &v
	}
	if cancelledAt.Valid {
		v := cancelledAt.Time
		res.CancelledAt = &v
	}
	return &res, nil
}

// CreateTx inserts a new reservation inside an existing transaction and
// populates the generated ID.  A collision on the active-slot unique index
// maps to ErrConflict: this is the safety mechanism against the
// check-then-act race, the HasConflict pre-check is only the fast path.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations
			   (restaurant_id, table_id, user_id, reservation_date, reservation_time, end_time,
				guest_count, status, active, source, deposit_paid, deposit_amount_cents,
				occasion, special_request, confirmed_at, seated_at)
			   VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		res.RestaurantID, res.TableID, res.UserID, res.Date, res.Time, res.EndTime,
		res.GuestCount, res.Status, res.Source, res.DepositPaid, res.DepositAmountCents,
		res.Occasion, res.SpecialRequest, res.ConfirmedAt, res.SeatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

// GetByID fetches one reservation.  Returns ErrNotFound for unknown ids.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return res, err
}

// GetForUpdateTx fetches one reservation inside a transaction with a row
// lock, so concurrent transitions on the same reservation serialise.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? FOR UPDATE`
	res, err := scanReservation(tx.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return res, err
}

// timestampColumn maps a resulting status to the transition timestamp column
// recorded alongside it.  no_show has no dedicated column and stamps
// cancelled_at, matching the origin schema.
var timestampColumn = map[model.ReservationStatus]string{
	model.StatusConfirmed: "confirmed_at",
	model.StatusArrived:   "arrived_at",
	model.StatusSeated:    "seated_at",
	model.StatusCompleted: "completed_at",
	model.StatusCancelled: "cancelled_at",
	model.StatusNoShow:    "cancelled_at",
}

// UpdateStatusTx moves the reservation to a new status, stamps the matching
// transition timestamp and clears the active flag when the status is
// terminal (releasing the slot in the unique index).
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.ReservationStatus, at time.Time) error {
	q := `UPDATE reservations SET status = ?`
	args := []any{status}
	if col, ok := timestampColumn[status]; ok {
		q += `, ` + col + ` = ?`
		args = append(args, at)
	}
	if status.Terminal() {
		q += `, active = NULL`
	}
	q += ` WHERE id = ?`
	args = append(args, id)
	res, err := tx.ExecContext(ctx, q, args...)
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

// UpdateSlotTx moves a reservation to a new (date, time) and/or guest count.
// A collision with another live reservation on the target slot maps to
// ErrConflict via the unique index.
func (r *ReservationRepo) UpdateSlotTx(ctx context.Context, tx *sql.Tx, id uint64, date, clock string, endTime *string, guests uint32) error {
	const q = `UPDATE reservations
			   SET reservation_date = ?, reservation_time = ?, end_time = ?, guest_count = ?
			   WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, date, clock, endTime, guests, id)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
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

// SetCancelReasonTx records the cancellation reason in its dedicated column.
// The guest-visible special_request field is never touched here.
func (r *ReservationRepo) SetCancelReasonTx(ctx context.Context, tx *sql.Tx, id uint64, reason string) error {
	_, err := tx.ExecContext(ctx, `UPDATE reservations SET cancel_reason = ? WHERE id = ?`, reason, id)
	return err
}

// HasActiveAt reports whether a live (non-terminal) reservation exists for
// the exact (table, date, time) slot.  excludeID skips one reservation and
// is used by reschedule; pass 0 to exclude nothing.
func (r *ReservationRepo) HasActiveAt(ctx context.Context, tableID uint64, date, clock string, excludeID uint64) (bool, error) {
	const q = `SELECT EXISTS(
				 SELECT 1 FROM reservations
				 WHERE table_id = ? AND reservation_date = ? AND reservation_time = ?
				   AND active = 1 AND id <> ?)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, tableID, date, clock, excludeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ActiveTableIDsAt returns the set of table ids holding a live reservation
// at the exact slot, for the whole restaurant in one query.
func (r *ReservationRepo) ActiveTableIDsAt(ctx context.Context, restaurantID uint64, date, clock string) (map[uint64]struct{}, error) {
	const q = `SELECT table_id FROM reservations
			   WHERE restaurant_id = ? AND reservation_date = ? AND reservation_time = ? AND active = 1`
	rows, err := r.db.QueryContext(ctx, q, restaurantID, date, clock)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	booked := make(map[uint64]struct{})
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		booked[id] = struct{}{}
	}
	return booked, rows.Err()
}

// ListActiveByRestaurantDate returns the restaurant's live reservations for
// one day ordered by table then time.  This feeds the logical status engine.
func (r *ReservationRepo) ListActiveByRestaurantDate(ctx context.Context, restaurantID uint64, date string) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
			   WHERE restaurant_id = ? AND reservation_date = ? AND active = 1
			   ORDER BY table_id, reservation_time`
	return r.list(ctx, q, restaurantID, date)
}

// ListByRestaurantDate returns every reservation of the restaurant for one
// day, terminal included, newest slot first within the day.
func (r *ReservationRepo) ListByRestaurantDate(ctx context.Context, restaurantID uint64, date string) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
			   WHERE restaurant_id = ? AND reservation_date = ?
			   ORDER BY reservation_time, table_id`
	return r.list(ctx, q, restaurantID, date)
}

// ListByUser returns the caller's reservations, newest first.  status
// filters on one status when non-empty; with upcoming set only slots at or
// after (today, nowClock) are returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64, status model.ReservationStatus, upcoming bool, today, nowClock string) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, status)
	}
	if upcoming {
		q += ` AND (reservation_date > ? OR (reservation_date = ? AND reservation_time >= ?))`
		args = append(args, today, today, nowClock)
	}
	q += ` ORDER BY reservation_date DESC, reservation_time DESC`
	return r.list(ctx, q, args...)
}

// CountActiveByTable counts live reservations referencing a table.  The
// table registry refuses deletion while this is non-zero.
func (r *ReservationRepo) CountActiveByTable(ctx context.Context, tableID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE table_id = ? AND active = 1`, tableID).Scan(&n)
	return n, err
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}
