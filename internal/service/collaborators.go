package service

import (
	"context"
	"log"

	"github.com/mesafina/table-reservation/internal/queue"
)

// PaymentGateway is the external payment collaborator.  Refunds are issued
// after a deposit-paid reservation is cancelled; refund failure never rolls
// back or blocks the cancellation itself (it is logged and pushed onto the
// operator queue instead).
type PaymentGateway interface {
	Refund(ctx context.Context, reservationID uint64, amountCents uint32) error
}

// EventPublisher delivers domain events to the message broker after the
// owning transaction has committed.  Notification delivery (review requests,
// refund-failure alerts) is consumed downstream; publish failures are logged
// and ignored so they never affect the core transition.
type EventPublisher interface {
	PublishReservationEvent(ctx context.Context, ev queue.ReservationEvent) error
}

// LogPaymentGateway is the default no-op gateway used when no real payment
// provider is configured.  It records the refund request and reports success.
type LogPaymentGateway struct{}

func (LogPaymentGateway) Refund(_ context.Context, reservationID uint64, amountCents uint32) error {
	log.Printf("payments: refund requested | reservation_id=%d amount_cents=%d", reservationID, amountCents)
	return nil
}
