package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-phone-agent/internal/metrics"
)

// Handler processes one message body.  A returned error rejects the
// message without requeueing it.
type Handler func(ctx context.Context, body []byte) error

// Consumer drains one durable queue with a reconnect loop.  Processing
// errors are logged and the offending message is rejected so the
// consumer keeps running.
type Consumer struct {
	url      string
	queue    string
	prefetch int
	handle   Handler
	metrics  *metrics.Metrics
	logger   *zap.Logger

	minBackoff time.Duration
	maxBackoff time.Duration
}

// NewConsumer wires a Consumer.  m may be nil.
func NewConsumer(url, queue string, prefetch int, h Handler, m *metrics.Metrics, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefetch < 1 {
		prefetch = 1
	}
	return &Consumer{
		url: url, queue: queue, prefetch: prefetch, handle: h, metrics: m,
		logger:     logger.With(zap.String("queue", queue)),
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
	}
}

// Run dials the broker and consumes until ctx is cancelled.  It only
// returns once ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := c.minBackoff
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warn("failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return nil
			}
			if backoff < c.maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = c.minBackoff // reset after successful connect

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		c.logger.Warn("consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		c.logger.Warn("set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.logger.Info("consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.process(ctx, d)
		}
	}
}

// process runs the handler and settles the delivery.
func (c *Consumer) process(ctx context.Context, d amqp.Delivery) {
	if err := c.handle(ctx, d.Body); err != nil {
		c.logger.Error("handle message failed", zap.String("message_id", d.MessageId), zap.Error(err))
		c.metrics.Consumed(c.queue, "rejected")
		_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
		return
	}
	c.metrics.Consumed(c.queue, "ok")
	_ = d.Ack(false)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
