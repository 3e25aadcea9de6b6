// Package queue defines message payloads exchanged over the message broker
// and the consumers that handle them.
package queue

import "time"

// Event types carried in ReservationEvent.Type.
const (
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
	EventCallFinalized        = "call.finalized"
)

// ReservationEvent is published after a reservation is confirmed or
// cancelled.  It carries enough for downstream consumers to log or notify
// without querying the primary database.
type ReservationEvent struct {
	Type          string    `json:"type"`
	ReservationID uint64    `json:"reservation_id"`
	CustomerName  string    `json:"customer_name"`
	PartySize     int       `json:"party_size"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	TableID       uint64    `json:"table_id,omitempty"`
	TableNumber   int       `json:"table_number,omitempty"`
	CallID        string    `json:"call_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// CallFinalizedEvent is published once a call has been stored.  The
// re-scorer picks it up and runs the AI judge off the call path.
type CallFinalizedEvent struct {
	Type             string    `json:"type"`
	CallID           string    `json:"call_id"`
	Variant          string    `json:"variant"`
	BookingCompleted bool      `json:"booking_completed"`
	EndedAt          time.Time `json:"ended_at"`
}
