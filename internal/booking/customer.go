package booking

import (
	"sort"

	"github.com/iliyamo/restaurant-phone-agent/internal/fuzzy"
	"github.com/iliyamo/restaurant-phone-agent/internal/model"
)

// Match pairs a reservation with the similarity of its customer name to
// the searched name.
type Match struct {
	Reservation model.Reservation `json:"reservation"`
	Score       int               `json:"score"`
}

// MatchAll returns every candidate whose name scores at least threshold
// against name, best first.  A non-empty date keeps only that day.
func MatchAll(candidates []model.Reservation, name, date string, threshold int) []Match {
	var out []Match
	for _, r := range candidates {
		if date != "" && r.Date != date {
			continue
		}
		if score := fuzzy.Score(name, r.CustomerName); score >= threshold {
			out = append(out, Match{Reservation: r, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Reservation.Date != b.Reservation.Date {
			return a.Reservation.Date < b.Reservation.Date
		}
		return a.Reservation.Time < b.Reservation.Time
	})
	return out
}

// ResolveForCancel picks the one reservation a cancel request by name
// refers to: the highest score at or above threshold, then the most
// recently created, then the highest id.  ok is false when no candidate
// clears the threshold.
func ResolveForCancel(candidates []model.Reservation, name, date string, threshold int) (Match, bool) {
	var best Match
	found := false
	for _, m := range MatchAll(candidates, name, date, threshold) {
		if !found || preferForCancel(m, best) {
			best = m
			found = true
		}
	}
	return best, found
}

func preferForCancel(a, b Match) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.Reservation.CreatedAt.Equal(b.Reservation.CreatedAt) {
		return a.Reservation.CreatedAt.After(b.Reservation.CreatedAt)
	}
	return a.Reservation.ID > b.Reservation.ID
}
