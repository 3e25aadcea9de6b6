// Package service publishes domain events to RabbitMQ.  Errors are logged
// and swallowed so a broker outage never interrupts a call or a booking.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-phone-agent/internal/config"
	"github.com/iliyamo/restaurant-phone-agent/internal/model"
	q "github.com/iliyamo/restaurant-phone-agent/internal/queue"
)

type publishFunc func(ctx context.Context, queue string, pub amqp.Publishing) error

// Publisher sends reservation and call events.  It satisfies both the
// booking notifier and the call announcer.
type Publisher struct {
	cfg     config.QueueConfig
	publish publishFunc
	logger  *zap.Logger
	now     func() time.Time
}

// NewPublisher returns a Publisher for cfg.  When cfg.Enabled is false
// every method is a no-op.
func NewPublisher(cfg config.QueueConfig, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Publisher{cfg: cfg, logger: logger, now: time.Now}
	p.publish = p.dialAndPublish
	return p
}

// ReservationConfirmed publishes a reservation.confirmed event.
func (p *Publisher) ReservationConfirmed(ctx context.Context, res model.Reservation, table model.Table) {
	ev := reservationEvent(q.EventReservationConfirmed, res, p.now())
	ev.TableID = table.ID
	ev.TableNumber = table.Number
	p.send(ctx, p.cfg.ReservationQueue, ev)
}

// ReservationCancelled publishes a reservation.cancelled event.
func (p *Publisher) ReservationCancelled(ctx context.Context, res model.Reservation) {
	p.send(ctx, p.cfg.ReservationQueue, reservationEvent(q.EventReservationCancelled, res, p.now()))
}

// CallFinalized publishes a call.finalized event for the re-scorer.
func (p *Publisher) CallFinalized(ctx context.Context, m model.CallMetrics) {
	p.send(ctx, p.cfg.CallQueue, q.CallFinalizedEvent{
		Type:             q.EventCallFinalized,
		CallID:           m.CallID,
		Variant:          m.Variant,
		BookingCompleted: m.BookingCompleted,
		EndedAt:          m.EndedAt,
	})
}

func reservationEvent(typ string, res model.Reservation, at time.Time) q.ReservationEvent {
	ev := q.ReservationEvent{
		Type:          typ,
		ReservationID: res.ID,
		CustomerName:  res.CustomerName,
		PartySize:     res.PartySize,
		Date:          res.Date,
		Time:          res.Time,
		OccurredAt:    at.UTC(),
	}
	if res.TableID != nil {
		ev.TableID = *res.TableID
	}
	if res.CallID != nil {
		ev.CallID = *res.CallID
	}
	return ev
}

func (p *Publisher) send(ctx context.Context, queue string, event any) {
	if p == nil || !p.cfg.Enabled {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("rabbitmq: marshal event failed", zap.String("queue", queue), zap.Error(err))
		return
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    uuid.NewString(),
		Timestamp:    p.now().UTC(),
		Body:         body,
	}
	if err := p.publish(ctx, queue, pub); err != nil {
		p.logger.Warn("rabbitmq: publish failed", zap.String("queue", queue), zap.Error(err))
	}
}

// dialAndPublish opens a short-lived connection per message.
func (p *Publisher) dialAndPublish(ctx context.Context, queue string, pub amqp.Publishing) error {
	conn, err := amqp.Dial(p.cfg.URL)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		return err
	}
	return ch.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key = queue name
		false, // mandatory
		false, // immediate
		pub,
	)
}
