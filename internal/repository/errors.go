// Package repository implements the persistent stores of the reservation
// engine over database/sql.  This file defines the sentinel errors shared by
// all repositories.  Higher layers compare against these with errors.Is and
// translate them into HTTP responses: ErrNotFound -> 404, ErrForbidden -> 403,
// ErrConflict -> 409.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource outside their restaurant context or ownership.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write collides with existing state: a live
// reservation already holds the slot, a duplicate waitlist entry exists, or
// a table still carries active reservations.  The uniqueness index on
// (table_id, reservation_date, reservation_time, active) surfaces here, so a
// lost check-then-act race still yields ErrConflict rather than a generic
// database failure.
var ErrConflict = errors.New("conflict")

// isDuplicateKey reports whether err is a MySQL duplicate-entry violation
// (error 1062), i.e. a unique index rejected the write.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
