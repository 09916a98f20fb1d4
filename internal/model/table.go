package model

import "time"

// PhysicalStatus is the coarse, stored occupancy flag of a table.  It is a
// signal written by the reservation lifecycle; the time-aware logical status
// computed by the status engine is the source of truth for UIs.
type PhysicalStatus string

// Physical status values persisted in restaurant_tables.physical_status.
const (
	TableAvailable PhysicalStatus = "available"
	TablePending   PhysicalStatus = "pending"
	TableReserved  PhysicalStatus = "reserved"
	TableOccupied  PhysicalStatus = "occupied"
	TableBlocked   PhysicalStatus = "blocked"
)

// ValidPhysicalStatus reports whether s is one of the persisted values.
func ValidPhysicalStatus(s PhysicalStatus) bool {
	switch s {
	case TableAvailable, TablePending, TableReserved, TableOccupied, TableBlocked:
		return true
	}
	return false
}

// Table represents a physical table in a restaurant.  Tables are created by
// admin action, mutated by the lifecycle manager's side effects, and never
// deleted while they carry non-terminal reservations.  This struct
// corresponds to a row in the `restaurant_tables` table.
//
// Fields:
//  ID             – primary key identifier.
//  RestaurantID   – restaurant this table belongs to.
//  Name           – table number or name, unique per restaurant.
//  Capacity       – maximum party size (>= 1).
//  Zone           – seating zone (terrace, bar, main room...).
//  IsActive       – whether the table can be booked at all.
//  PhysicalStatus – coarse stored occupancy flag.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Table struct {
	ID             uint64         `json:"id"`              // restaurant_tables.id
	RestaurantID   uint64         `json:"restaurant_id"`   // restaurant_tables.restaurant_id
	Name           string         `json:"name"`            // restaurant_tables.name
	Capacity       uint32         `json:"capacity"`        // restaurant_tables.capacity
	Zone           string         `json:"zone"`            // restaurant_tables.zone
	IsActive       bool           `json:"is_active"`       // restaurant_tables.is_active
	PhysicalStatus PhysicalStatus `json:"physical_status"` // restaurant_tables.physical_status
	CreatedAt      time.Time      `json:"created_at"`      // restaurant_tables.created_at
	UpdatedAt      time.Time      `json:"updated_at"`      // restaurant_tables.updated_at
}
