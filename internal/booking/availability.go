package booking

import (
	"context"
	"fmt"
	"sort"

	"github.com/iliyamo/restaurant-phone-agent/internal/model"
)

// Outcome is the result class of an availability check.
type Outcome string

const (
	OutcomeAvailable          Outcome = "available"
	OutcomeNoTableLargeEnough Outcome = "no_table_large_enough"
	OutcomeFullyBooked        Outcome = "fully_booked"
)

// Availability describes which tables can seat a party at one slot.
// Tables holds the free qualifying tables ordered by capacity then id.
// Alternatives is only filled for OutcomeFullyBooked.
type Availability struct {
	Outcome      Outcome       `json:"outcome"`
	PartySize    int           `json:"party_size"`
	Date         string        `json:"date"`
	Time         string        `json:"time"`
	Tables       []model.Table `json:"tables,omitempty"`
	Alternatives []string      `json:"alternatives,omitempty"`
	LargestTable int           `json:"largest_table"`
}

// Available reports whether at least one table is free.
func (a Availability) Available() bool { return a.Outcome == OutcomeAvailable }

// resolveAvailability computes the free tables able to seat partySize
// at (date, tm).  Through a transactional Store the booked rows read
// here stay locked until commit.
func resolveAvailability(ctx context.Context, store Store, partySize int, date, tm string) (Availability, error) {
	out := Availability{PartySize: partySize, Date: date, Time: tm}

	tables, err := store.ActiveTables(ctx)
	if err != nil {
		return out, fmt.Errorf("list active tables: %w", err)
	}
	qualifying := make([]model.Table, 0, len(tables))
	for _, t := range tables {
		if t.Capacity > out.LargestTable {
			out.LargestTable = t.Capacity
		}
		if t.Active && t.Capacity >= partySize {
			qualifying = append(qualifying, t)
		}
	}
	if len(qualifying) == 0 {
		out.Outcome = OutcomeNoTableLargeEnough
		return out, nil
	}

	booked, err := store.BookedTableIDs(ctx, date, tm)
	if err != nil {
		return out, fmt.Errorf("list booked tables: %w", err)
	}
	taken := make(map[uint64]struct{}, len(booked))
	for _, id := range booked {
		taken[id] = struct{}{}
	}
	for _, t := range qualifying {
		if _, ok := taken[t.ID]; !ok {
			out.Tables = append(out.Tables, t)
		}
	}
	if len(out.Tables) == 0 {
		out.Outcome = OutcomeFullyBooked
		return out, nil
	}
	sortBySize(out.Tables)
	out.Outcome = OutcomeAvailable
	return out, nil
}

func sortBySize(tables []model.Table) {
	sort.Slice(tables, func(i, j int) bool {
		if tables[i].Capacity != tables[j].Capacity {
			return tables[i].Capacity < tables[j].Capacity
		}
		return tables[i].ID < tables[j].ID
	})
}
