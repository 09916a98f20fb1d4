package model

import "time"

// ReservationStatus is the closed set of reservation states.  Transitions
// between states happen exclusively through the lifecycle manager, which
// consults the transition table below; any transition not listed there is
// rejected.
type ReservationStatus string

// Reservation status values persisted in reservations.status.
const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusArrived   ReservationStatus = "arrived"
	StatusSeated    ReservationStatus = "seated"
	StatusCompleted ReservationStatus = "completed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusNoShow    ReservationStatus = "no_show"
)

// Terminal reports whether no further transition is permitted from s.
func (s ReservationStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// ReservationSource records how the reservation came to exist.
type ReservationSource string

const (
	SourceOnline ReservationSource = "online"  // booked ahead of time
	SourceWalkIn ReservationSource = "walk_in" // created at the moment of seating
)

// ReservationEvent names a lifecycle transition request.
type ReservationEvent string

const (
	EventConfirm  ReservationEvent = "confirm"
	EventArrive   ReservationEvent = "arrive"
	EventSeat     ReservationEvent = "seat"
	EventComplete ReservationEvent = "complete"
	EventCancel   ReservationEvent = "cancel"
	EventNoShow   ReservationEvent = "no_show"
)

// EventForStatus maps a requested target status to the lifecycle event that
// produces it.  Used by the PATCH /reservations/:id/status handler, which
// receives target states rather than event names.
func EventForStatus(target ReservationStatus) (ReservationEvent, bool) {
	switch target {
	case StatusConfirmed:
		return EventConfirm, true
	case StatusArrived:
		return EventArrive, true
	case StatusSeated:
		return EventSeat, true
	case StatusCompleted:
		return EventComplete, true
	case StatusCancelled:
		return EventCancel, true
	case StatusNoShow:
		return EventNoShow, true
	}
	return "", false
}

// transition describes the outcome of applying an event: the resulting
// reservation status and the physical status written onto the table.
type transition struct {
	To    ReservationStatus
	Table PhysicalStatus
}

// reservationTransitions is the explicit state machine.  Confirm sets the
// table to `reserved`, not `occupied`: the table is not physically taken
// until the party arrives.
var reservationTransitions = map[ReservationEvent]map[ReservationStatus]transition{
	EventConfirm: {
		StatusPending: {To: StatusConfirmed, Table: TableReserved},
	},
	EventArrive: {
		StatusPending:   {To: StatusArrived, Table: TableOccupied},
		StatusConfirmed: {To: StatusArrived, Table: TableOccupied},
	},
	EventSeat: {
		StatusConfirmed: {To: StatusSeated, Table: TableOccupied},
		StatusArrived:   {To: StatusSeated, Table: TableOccupied},
	},
	EventComplete: {
		StatusPending:   {To: StatusCompleted, Table: TableAvailable},
		StatusConfirmed: {To: StatusCompleted, Table: TableAvailable},
		StatusArrived:   {To: StatusCompleted, Table: TableAvailable},
		StatusSeated:    {To: StatusCompleted, Table: TableAvailable},
	},
	EventCancel: {
		StatusPending:   {To: StatusCancelled, Table: TableAvailable},
		StatusConfirmed: {To: StatusCancelled, Table: TableAvailable},
		StatusArrived:   {To: StatusCancelled, Table: TableAvailable},
		StatusSeated:    {To: StatusCancelled, Table: TableAvailable},
	},
	EventNoShow: {
		StatusPending:   {To: StatusNoShow, Table: TableAvailable},
		StatusConfirmed: {To: StatusNoShow, Table: TableAvailable},
		StatusArrived:   {To: StatusNoShow, Table: TableAvailable},
		StatusSeated:    {To: StatusNoShow, Table: TableAvailable},
	},
}

// NextStatus resolves the transition table for (current, event).  The second
// and third results are the table side-effect and whether the transition is
// allowed at all.
func NextStatus(current ReservationStatus, event ReservationEvent) (ReservationStatus, PhysicalStatus, bool) {
	byState, ok := reservationTransitions[event]
	if !ok {
		return "", "", false
	}
	tr, ok := byState[current]
	if !ok {
		return "", "", false
	}
	return tr.To, tr.Table, true
}

// Reschedulable reports whether the reservation may be moved to a different
// slot.  Arrived/seated parties are already at the table.
func Reschedulable(s ReservationStatus) bool {
	return s == StatusPending || s == StatusConfirmed
}

// Reservation records a booking of one table for one exact slot
// (table, date, time).  Terminal rows are retained, never deleted.
//
// Fields:
//  ID                 – primary key identifier.
//  RestaurantID       – restaurant context, used for staff authorization.
//  TableID            – booked table.
//  UserID             – customer who owns the reservation.
//  Date               – calendar day, "2006-01-02".
//  Time               – wall-clock slot start, "15:04", restaurant-local.
//  EndTime            – optional end of service; nil means start + configured duration.
//  GuestCount         – party size (>= 1, <= table capacity).
//  Status             – lifecycle state, see ReservationStatus.
//  Source             – online booking or walk-in seating.
//  DepositPaid        – whether a deposit was captured at creation.
//  DepositAmountCents – captured amount, for refund on cancellation.
//  Occasion           – optional occasion tag (birthday, anniversary...).
//  SpecialRequest     – guest-visible free text.
//  CancelReason       – staff/customer cancellation note, kept apart from
//                       SpecialRequest so stale cancellation notes never leak
//                       into repeat bookings.
//  ConfirmedAt..CancelledAt – per-transition timestamps.
type Reservation struct {
	ID                 uint64            `json:"id"`
	RestaurantID       uint64            `json:"restaurant_id"`
	TableID            uint64            `json:"table_id"`
	UserID             uint64            `json:"user_id"`
	Date               string            `json:"date"`
	Time               string            `json:"time"`
	EndTime            *string           `json:"end_time,omitempty"`
	GuestCount         uint32            `json:"guest_count"`
	Status             ReservationStatus `json:"status"`
	Source             ReservationSource `json:"source"`
	DepositPaid        bool              `json:"deposit_paid"`
	DepositAmountCents uint32            `json:"deposit_amount_cents"`
	Occasion           string            `json:"occasion,omitempty"`
	SpecialRequest     *string           `json:"special_request,omitempty"`
	CancelReason       *string           `json:"cancel_reason,omitempty"`
	ConfirmedAt        *time.Time        `json:"confirmed_at,omitempty"`
	ArrivedAt          *time.Time        `json:"arrived_at,omitempty"`
	SeatedAt           *time.Time        `json:"seated_at,omitempty"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
	CancelledAt        *time.Time        `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}
