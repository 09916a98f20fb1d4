package model

import "time"

// Roles recognised by the authorization middleware.  STAFF and ADMIN carry a
// restaurant context; ADMIN may act across restaurants.
const (
	RoleCustomer = "CUSTOMER"
	RoleStaff    = "STAFF"
	RoleAdmin    = "ADMIN"
)

// User is a thin account record backing the auth collaborator.  The core
// engine only needs an identity (ID), a role and an optional restaurant
// binding for staff.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – CUSTOMER, STAFF or ADMIN.
//  RestaurantID – restaurant the staff member belongs to (nil for customers).
//  IsActive     – whether the account is active.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	RestaurantID *uint64   // users.restaurant_id (nullable)
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
