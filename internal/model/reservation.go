package model

import "time"

// ReservationStatus is the lifecycle state of a reservation.  A
// reservation is born confirmed and ends either cancelled or
// completed; both end states are terminal.
type ReservationStatus string

const (
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusCompleted ReservationStatus = "completed"
)

// Terminal reports whether no further transition is allowed.
func (s ReservationStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Reservation records a party booked at a table for one slot.
// Date and Time are kept as the canonical "YYYY-MM-DD" and "HH:MM"
// strings used across the API so slot equality is a plain string
// comparison.
//
// Fields:
//  ID           – primary key identifier.
//  CustomerName – name as given by the caller.
//  Phone        – optional contact number.
//  PartySize    – number of guests.
//  Date         – slot date (YYYY-MM-DD).
//  Time         – slot time (HH:MM, 24h).
//  Status       – confirmed, cancelled or completed.
//  TableID      – assigned table; always set while confirmed.
//  CallID       – call that created the reservation, if any.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Reservation struct {
	ID           uint64            `json:"id"`                // reservations.id
	CustomerName string            `json:"customer_name"`     // reservations.customer_name
	Phone        *string           `json:"phone,omitempty"`   // reservations.phone (nullable)
	PartySize    int               `json:"party_size"`        // reservations.party_size
	Date         string            `json:"date"`              // reservations.res_date
	Time         string            `json:"time"`              // reservations.res_time
	Status       ReservationStatus `json:"status"`            // reservations.status
	TableID      *uint64           `json:"table_id,omitempty"` // reservations.table_id (nullable)
	CallID       *string           `json:"call_id,omitempty"` // reservations.call_id (nullable)
	CreatedAt    time.Time         `json:"created_at"`        // reservations.created_at
	UpdatedAt    time.Time         `json:"updated_at"`        // reservations.updated_at
}
