// Package queue defines the domain events exchanged over the message broker
// and the publisher/consumer that move them.  Events are published only
// after the owning database transaction has committed; consumers handle
// notification delivery and the operator alert log, so a broker failure can
// never roll back or block a reservation transition.
package queue

// ReservationEventsQueue is the single durable queue carrying all
// reservation domain events, discriminated by EventType.
const ReservationEventsQueue = "reservation.events"

// Event types carried on ReservationEventsQueue.
const (
	// EventTypeCompleted triggers the review-request notification.
	EventTypeCompleted = "reservation.completed"
	// EventTypeCancelled informs downstream consumers of a cancellation.
	EventTypeCancelled = "reservation.cancelled"
	// EventTypeRefundFailed lands on the operator queue: the reservation is
	// cancelled but the deposit refund needs manual follow-up.
	EventTypeRefundFailed = "reservation.refund_failed"
)

// ReservationEvent is the payload for every reservation domain event.  It
// carries enough for downstream consumers to notify or alert without
// querying the primary database.
type ReservationEvent struct {
	EventType          string `json:"event_type"`
	ReservationID      uint64 `json:"reservation_id"`
	RestaurantID       uint64 `json:"restaurant_id"`
	TableID            uint64 `json:"table_id"`
	UserID             uint64 `json:"user_id"`
	Date               string `json:"date"`
	Time               string `json:"time"`
	Status             string `json:"status"`
	DepositAmountCents uint32 `json:"deposit_amount_cents,omitempty"`
	Reason             string `json:"reason,omitempty"`
	OccurredAt         string `json:"occurred_at"`
}
