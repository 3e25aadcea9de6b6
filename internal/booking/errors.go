package booking

import (
	"errors"
	"fmt"
	"strings"
)

// ErrReservationNotFound is returned by a Store when a reservation does
// not exist or is not in the state an update expected.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrSlotTaken is returned by a Store when a confirmed insert collides
// with another confirmed reservation on the same table and slot, or the
// database aborted the transaction to resolve a lock conflict.  The
// whole write was rolled back and can be retried.
var ErrSlotTaken = errors.New("slot already taken")

// Kind names a class of failure a reservation operation can end in.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindCapacity     Kind = "capacity"
	KindSlotConflict Kind = "slot_conflict"
	KindNotFound     Kind = "not_found"
	KindStorage      Kind = "storage"
	KindCollaborator Kind = "collaborator"
)

// Failure is the error every Service operation returns.  Message is
// safe to read back to a caller; Err carries the underlying cause for
// logs.
type Failure struct {
	Kind         Kind
	Message      string
	Alternatives []string
	Err          error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// AsFailure extracts a *Failure from err's chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

func validationFailure(format string, args ...any) *Failure {
	return &Failure{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundFailure(message string) *Failure {
	return &Failure{Kind: KindNotFound, Message: message, Err: ErrReservationNotFound}
}

func storageFailure(err error) *Failure {
	return &Failure{
		Kind:    KindStorage,
		Message: "Something went wrong on our side. Please try again in a moment.",
		Err:     err,
	}
}

func capacityFailure(partySize, largest int) *Failure {
	msg := fmt.Sprintf("We don't have a table that seats %d.", partySize)
	if largest > 0 {
		msg += fmt.Sprintf(" Our largest table seats %d.", largest)
	}
	return &Failure{Kind: KindCapacity, Message: msg}
}

func slotConflictFailure(tm string, alternatives []string) *Failure {
	return &Failure{
		Kind:         KindSlotConflict,
		Message:      fmt.Sprintf("%s is fully booked. %s", tm, describeAlternatives(alternatives)),
		Alternatives: alternatives,
		Err:          ErrSlotTaken,
	}
}

// describeAlternatives renders a short spoken sentence listing the
// suggested times.
func describeAlternatives(alts []string) string {
	switch len(alts) {
	case 0:
		return "There are no open tables close to that time."
	case 1:
		return fmt.Sprintf("I could do %s instead.", alts[0])
	default:
		return fmt.Sprintf("I could do %s or %s instead.",
			strings.Join(alts[:len(alts)-1], ", "), alts[len(alts)-1])
	}
}
