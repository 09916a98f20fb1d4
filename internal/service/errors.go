// Package service implements the reservation engine: availability
// resolution, the reservation lifecycle state machine, the logical table
// status projection and the walk-in waitlist queue.  Services never retry on
// conflict, forbidden or validation errors (those are caller-correctable);
// handlers translate the sentinels defined here and in the repository
// package into HTTP responses.
package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mesafina/table-reservation/internal/model"
)

// ErrValidation marks missing or malformed input.  Handlers map it to 400.
var ErrValidation = errors.New("validation failed")

// ErrInvalidState marks an illegal lifecycle transition, e.g. any event on a
// terminal reservation.  Handlers map it to 400.
var ErrInvalidState = errors.New("invalid state transition")

// Actor is the authenticated identity performing an operation, extracted
// from the JWT by the auth middleware.  RestaurantID is zero for customers.
type Actor struct {
	UserID       uint64
	Role         string
	RestaurantID uint64
}

// StaffOf reports whether the actor may act in the given restaurant's staff
// context.  Admins act across restaurants.
func (a Actor) StaffOf(restaurantID uint64) bool {
	if a.Role == model.RoleAdmin {
		return true
	}
	return a.Role == model.RoleStaff && a.RestaurantID == restaurantID
}

// CanManage reports whether the actor may mutate the reservation: the owner,
// staff of its restaurant, or an admin.
func (a Actor) CanManage(res *model.Reservation) bool {
	return res.UserID == a.UserID || a.StaffOf(res.RestaurantID)
}

// runTx runs fn inside a transaction, rolling back unless fn succeeds and
// the commit goes through.
func runTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
