package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/restaurant-phone-agent/internal/config"
	"github.com/iliyamo/restaurant-phone-agent/internal/model"
	q "github.com/iliyamo/restaurant-phone-agent/internal/queue"
)

type sent struct {
	queue string
	pub   amqp.Publishing
}

func newTestPublisher(enabled bool, err error) (*Publisher, *[]sent, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	p := NewPublisher(config.QueueConfig{
		Enabled: enabled, ReservationQueue: "reservation.events", CallQueue: "call.finalized",
	}, zap.New(core))
	p.now = func() time.Time { return time.Date(2025, 3, 14, 17, 0, 0, 0, time.UTC) }
	var out []sent
	p.publish = func(_ context.Context, queue string, pub amqp.Publishing) error {
		out = append(out, sent{queue, pub})
		return err
	}
	return p, &out, logs
}

func TestReservationConfirmedEvent(t *testing.T) {
	p, out, _ := newTestPublisher(true, nil)
	tableID, callID := uint64(3), "call-1"

	p.ReservationConfirmed(context.Background(), model.Reservation{
		ID: 11, CustomerName: "Ann", PartySize: 2, Date: "2025-03-14", Time: "19:00", TableID: &tableID, CallID: &callID,
	}, model.Table{ID: 3, Number: 4, Capacity: 4})

	require.Len(t, *out, 1)
	s := (*out)[0]
	assert.Equal(t, "reservation.events", s.queue)
	assert.Equal(t, amqp.Persistent, s.pub.DeliveryMode)
	assert.NotEmpty(t, s.pub.MessageId)

	var ev q.ReservationEvent
	require.NoError(t, json.Unmarshal(s.pub.Body, &ev))
	assert.Equal(t, q.EventReservationConfirmed, ev.Type)
	assert.Equal(t, uint64(11), ev.ReservationID)
	assert.Equal(t, 4, ev.TableNumber)
	assert.Equal(t, "call-1", ev.CallID)
}

func TestCallFinalizedEvent(t *testing.T) {
	p, out, _ := newTestPublisher(true, nil)
	p.CallFinalized(context.Background(), model.CallMetrics{CallID: "c-2", Variant: "v2_friendly", BookingCompleted: true})

	require.Len(t, *out, 1)
	assert.Equal(t, "call.finalized", (*out)[0].queue)
	var ev q.CallFinalizedEvent
	require.NoError(t, json.Unmarshal((*out)[0].pub.Body, &ev))
	assert.Equal(t, "c-2", ev.CallID)
	assert.True(t, ev.BookingCompleted)
}

func TestDisabledPublisherSendsNothing(t *testing.T) {
	p, out, _ := newTestPublisher(false, nil)
	p.ReservationCancelled(context.Background(), model.Reservation{ID: 1})
	assert.Empty(t, *out)
}

func TestPublishFailureIsLogged(t *testing.T) {
	p, _, logs := newTestPublisher(true, errors.New("connection refused"))
	p.ReservationCancelled(context.Background(), model.Reservation{ID: 1})
	assert.Equal(t, 1, logs.FilterMessage("rabbitmq: publish failed").Len())
}
