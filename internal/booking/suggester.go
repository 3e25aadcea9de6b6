package booking

import (
	"context"
	"fmt"
)

// DefaultOffsets are the minute offsets tried around a full slot,
// closest first.
var DefaultOffsets = []int{-30, 30, -60, 60, -90, 90}

// Suggester searches nearby slots when the requested one is full.  A
// candidate is considered only when its hour falls in
// [OpenHour, CloseHour) on the same day.  Suggestions are advisory:
// nothing is held for the caller.
type Suggester struct {
	OpenHour        int
	CloseHour       int
	Offsets         []int
	MaxAlternatives int
}

// NewSuggester returns a Suggester for the given service window with the
// default offsets and a limit of three alternatives.
func NewSuggester(openHour, closeHour int) Suggester {
	return Suggester{
		OpenHour:        openHour,
		CloseHour:       closeHour,
		Offsets:         DefaultOffsets,
		MaxAlternatives: 3,
	}
}

// Suggest returns up to MaxAlternatives times on date, in offset order,
// at which some table can seat partySize.
func (s Suggester) Suggest(ctx context.Context, store Store, date, tm string, partySize int) ([]string, error) {
	base := minuteOfDay(tm)
	if base < 0 {
		return nil, validationFailure("time %q must be in HH:MM format", tm)
	}
	var found []string
	for _, off := range s.Offsets {
		if s.MaxAlternatives > 0 && len(found) >= s.MaxAlternatives {
			break
		}
		m := base + off
		if m < 0 || m >= 24*60 {
			continue
		}
		if h := m / 60; h < s.OpenHour || h >= s.CloseHour {
			continue
		}
		candidate := formatMinute(m)
		avail, err := resolveAvailability(ctx, store, partySize, date, candidate)
		if err != nil {
			return found, fmt.Errorf("check %s: %w", candidate, err)
		}
		if avail.Available() {
			found = append(found, candidate)
		}
	}
	return found, nil
}
