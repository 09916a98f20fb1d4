package repository

import (
	"context"
	"database/sql"

	"github.com/mesafina/table-reservation/internal/model"
)

// TableRepo is the table registry: capacity, zone, active flag and the
// coarse physical status written by lifecycle side effects.  All timestamps
// are stored in UTC.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo returns a TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span the table registry and the reservation store.
func (r *TableRepo) DB() *sql.DB { return r.db }

const tableColumns = `id, restaurant_id, name, capacity, zone, is_active, physical_status, created_at, updated_at`

func scanTable(row interface{ Scan(...any) error }) (*model.Table, error) {
	var t model.Table
	if err := row.Scan(&t.ID, &t.RestaurantID, &t.Name, &t.Capacity, &t.Zone,
		&t.IsActive, &t.PhysicalStatus, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a new table and populates the generated ID.  A duplicate
// name within the restaurant maps to ErrConflict.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	const q = `INSERT INTO restaurant_tables (restaurant_id, name, capacity, zone, is_active, physical_status)
			   VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.RestaurantID, t.Name, t.Capacity, t.Zone, t.IsActive, t.PhysicalStatus)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID fetches one table.  Returns ErrNotFound when the id is unknown.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	const q = `SELECT ` + tableColumns + ` FROM restaurant_tables WHERE id = ?`
	t, err := scanTable(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return t, err
}

// GetByIDTx is GetByID inside an existing transaction, locking the row so a
// concurrent lifecycle transition cannot interleave its side effect.
func (r *TableRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Table, error) {
	const q = `SELECT ` + tableColumns + ` FROM restaurant_tables WHERE id = ? FOR UPDATE`
	t, err := scanTable(tx.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return t, err
}

// ListByRestaurant returns the restaurant's tables ordered by name.  With
// activeOnly set, inactive tables are filtered out.
func (r *TableRepo) ListByRestaurant(ctx context.Context, restaurantID uint64, activeOnly bool) ([]model.Table, error) {
	q := `SELECT ` + tableColumns + ` FROM restaurant_tables WHERE restaurant_id = ?`
	if activeOnly {
		q += ` AND is_active = 1`
	}
	q += ` ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tables := make([]model.Table, 0)
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *t)
	}
	return tables, rows.Err()
}

// Update persists admin-editable fields.  Returns ErrNotFound when no row
// was touched and ErrConflict on a duplicate name.
func (r *TableRepo) Update(ctx context.Context, t *model.Table) error {
	const q = `UPDATE restaurant_tables
			   SET name = ?, capacity = ?, zone = ?, is_active = ?, physical_status = ?
			   WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, t.Name, t.Capacity, t.Zone, t.IsActive, t.PhysicalStatus, t.ID)
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

// UpdatePhysicalStatus flips the stored occupancy flag outside a
// transaction (used by the waitlist manager's staff updates).
func (r *TableRepo) UpdatePhysicalStatus(ctx context.Context, id uint64, status model.PhysicalStatus) error {
	const q = `UPDATE restaurant_tables SET physical_status = ? WHERE id = ?`
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

// UpdatePhysicalStatusTx flips the stored occupancy flag inside the same
// transaction as the reservation state change, so a mutation either applies
// both writes or neither.
func (r *TableRepo) UpdatePhysicalStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.PhysicalStatus) error {
	const q = `UPDATE restaurant_tables SET physical_status = ? WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, status, id)
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

// Delete removes a table.  Callers must have verified that no non-terminal
// reservations reference it (see ReservationRepo.CountActiveByTable).
func (r *TableRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM restaurant_tables WHERE id = ?`, id)
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
