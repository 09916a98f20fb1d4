package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartReservationConsumer connects to RabbitMQ, declares the durable
// reservation.events queue, and consumes messages forever.  Completed
// events become review-request log entries; refund failures become operator
// alerts in logs/operations.log for manual follow-up.  The consumer runs a
// reconnect loop and rejects (without requeue) any message it cannot parse
// so a poison message cannot wedge the queue.
func StartReservationConsumer() error {
	url := brokerURL()
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("reservation-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Printf("reservation-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("reservation-consumer: set QoS failed: %v", err)
	}

	_, err = ch.QueueDeclare(ReservationEventsQueue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(ReservationEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body); err != nil {
			log.Printf("reservation-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "operations.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var line string
	switch ev.EventType {
	case EventTypeCompleted:
		line = fmt.Sprintf("[%s] review request | reservation_id=%d | user_id=%d | restaurant_id=%d | table_id=%d | slot=%s %s\n",
			ev.OccurredAt, ev.ReservationID, ev.UserID, ev.RestaurantID, ev.TableID, ev.Date, ev.Time)
	case EventTypeRefundFailed:
		line = fmt.Sprintf("[%s] OPERATOR ACTION REQUIRED: refund failed | reservation_id=%d | user_id=%d | amount_cents=%d | reason=%q\n",
			ev.OccurredAt, ev.ReservationID, ev.UserID, ev.DepositAmountCents, ev.Reason)
	case EventTypeCancelled:
		line = fmt.Sprintf("[%s] reservation cancelled | reservation_id=%d | user_id=%d | restaurant_id=%d | slot=%s %s | reason=%q\n",
			ev.OccurredAt, ev.ReservationID, ev.UserID, ev.RestaurantID, ev.Date, ev.Time, ev.Reason)
	default:
		line = fmt.Sprintf("[%s] %s | reservation_id=%d\n", ev.OccurredAt, ev.EventType, ev.ReservationID)
	}
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
