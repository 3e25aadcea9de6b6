package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// BookingLog appends reservation events to <dir>/booking.log in a
// single-line, human-friendly format.
type BookingLog struct {
	dir string
	mu  sync.Mutex
}

// NewBookingLog writes into dir, "logs" when empty.
func NewBookingLog(dir string) *BookingLog {
	if dir == "" {
		dir = "logs"
	}
	return &BookingLog{dir: dir}
}

// Path is the file the log appends to.
func (b *BookingLog) Path() string { return filepath.Join(b.dir, "booking.log") }

// Handle implements Handler.
func (b *BookingLog) Handle(_ context.Context, body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	var verb string
	switch ev.Type {
	case EventReservationConfirmed:
		verb = "confirmed"
	case EventReservationCancelled:
		verb = "cancelled"
	default:
		return fmt.Errorf("unexpected event type %q", ev.Type)
	}
	if ev.ReservationID == 0 {
		return fmt.Errorf("event without reservation_id")
	}

	callID := ev.CallID
	if callID == "" {
		callID = "-"
	}
	line := fmt.Sprintf("[%s] Reservation %s | reservation_id=%d | name=%q | party=%d | date=%s | time=%s | table=%d | call_id=%s\n",
		ev.OccurredAt.UTC().Format(time.RFC3339), verb, ev.ReservationID, ev.CustomerName, ev.PartySize,
		ev.Date, ev.Time, ev.TableNumber, callID)

	b.mu.Lock()
	defer b.mu.Unlock()
	// Ensure logs directory exists
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(b.Path(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
