package booking

import "github.com/iliyamo/restaurant-phone-agent/internal/model"

// Allocate picks the table to assign from the free tables: the smallest
// capacity that still seats partySize, lowest id on ties.  Keeping big
// tables free for big parties is a best-fit heuristic; existing
// reservations are never moved.  ok is false when nothing fits.
func Allocate(free []model.Table, partySize int) (model.Table, bool) {
	var best model.Table
	found := false
	for _, t := range free {
		if t.Capacity < partySize {
			continue
		}
		if !found || t.Capacity < best.Capacity || (t.Capacity == best.Capacity && t.ID < best.ID) {
			best = t
			found = true
		}
	}
	return best, found
}
