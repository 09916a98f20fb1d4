package model

import "time"

// WaitlistStatus is the closed set of states for a walk-in waitlist entry.
type WaitlistStatus string

const (
	WaitWaiting   WaitlistStatus = "waiting"
	WaitNotified  WaitlistStatus = "notified"
	WaitConfirmed WaitlistStatus = "confirmed"
	WaitSeated    WaitlistStatus = "seated"
	WaitCancelled WaitlistStatus = "cancelled"
	WaitNoShow    WaitlistStatus = "no_show"
)

// Live reports whether the entry still holds a place in the queue.  Position
// arithmetic only counts live entries; `confirmed` keeps its place until the
// party is actually seated.
func (s WaitlistStatus) Live() bool {
	return s == WaitWaiting || s == WaitNotified || s == WaitConfirmed
}

// waitlistTransitions lists the permitted status moves for staff updates.
// seated/cancelled/no_show are terminal.
var waitlistTransitions = map[WaitlistStatus][]WaitlistStatus{
	WaitWaiting:   {WaitNotified, WaitConfirmed, WaitSeated, WaitCancelled, WaitNoShow},
	WaitNotified:  {WaitConfirmed, WaitSeated, WaitCancelled, WaitNoShow},
	WaitConfirmed: {WaitSeated, WaitCancelled, WaitNoShow},
}

// WaitlistTransitionAllowed reports whether moving from -> to is permitted.
func WaitlistTransitionAllowed(from, to WaitlistStatus) bool {
	for _, s := range waitlistTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidWaitlistStatus reports whether s is one of the persisted values.
func ValidWaitlistStatus(s WaitlistStatus) bool {
	switch s {
	case WaitWaiting, WaitNotified, WaitConfirmed, WaitSeated, WaitCancelled, WaitNoShow:
		return true
	}
	return false
}

// WaitlistEntry is a walk-in customer waiting for a table.  The stored
// position is assigned once at join time; the customer-visible position is
// recomputed on every status query so it drifts downward as earlier entries
// leave, without renumbering rows.
//
// Fields:
//  ID               – primary key identifier.
//  RestaurantID     – restaurant the customer is waiting at.
//  UserID           – account of the customer, nil for anonymous walk-ins.
//  Name             – name announced when the table is ready.
//  Phone            – contact number; one live entry per phone per restaurant.
//  PartySize        – number of guests.
//  Status           – see WaitlistStatus.
//  Position         – initially assigned queue position, NULL once not live.
//  EstimatedWaitMin – best-effort estimate, position × per-position minutes.
type WaitlistEntry struct {
	ID               uint64         `json:"id"`
	RestaurantID     uint64         `json:"restaurant_id"`
	UserID           *uint64        `json:"user_id,omitempty"`
	Name             string         `json:"name"`
	Phone            string         `json:"phone"`
	PartySize        uint32         `json:"party_size"`
	Status           WaitlistStatus `json:"status"`
	Position         *uint32        `json:"position,omitempty"`
	EstimatedWaitMin uint32         `json:"estimated_wait_min"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}
