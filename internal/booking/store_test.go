package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/restaurant-phone-agent/internal/model"
)

// memStore is an in-memory Store.  WithTx serializes transactions and
// restores the reservation list when fn fails.
type memStore struct {
	txMu sync.Mutex

	mu             sync.Mutex
	tables         []model.Table
	reservations   []model.Reservation
	nextID         uint64
	queried        []string
	insertFailures int
	epoch          time.Time
}

func newMemStore(capacities ...int) *memStore {
	s := &memStore{epoch: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	for i, c := range capacities {
		s.tables = append(s.tables, model.Table{ID: uint64(i + 1), Number: i + 1, Capacity: c, Active: true})
	}
	return s
}

func (s *memStore) ActiveTables(ctx context.Context) ([]model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Table
	for _, t := range s.tables {
		if t.Active {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memStore) BookedTableIDs(ctx context.Context, date, tm string) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queried = append(s.queried, tm)
	var ids []uint64
	for _, r := range s.reservations {
		if r.Status == model.StatusConfirmed && r.Date == date && r.Time == tm && r.TableID != nil {
			ids = append(ids, *r.TableID)
		}
	}
	return ids, nil
}

func (s *memStore) ConfirmedReservations(ctx context.Context, date string) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Reservation
	for _, r := range s.reservations {
		if r.Status == model.StatusConfirmed && (date == "" || r.Date == date) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) GetReservation(ctx context.Context, id uint64) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.ID == id {
			return r, nil
		}
	}
	return model.Reservation{}, ErrReservationNotFound
}

func (s *memStore) InsertReservation(ctx context.Context, res *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertFailures > 0 {
		s.insertFailures--
		return ErrSlotTaken
	}
	for _, r := range s.reservations {
		if r.Status == model.StatusConfirmed && res.Status == model.StatusConfirmed &&
			r.Date == res.Date && r.Time == res.Time &&
			r.TableID != nil && res.TableID != nil && *r.TableID == *res.TableID {
			return ErrSlotTaken
		}
	}
	s.nextID++
	res.ID = s.nextID
	res.CreatedAt = s.epoch.Add(time.Duration(s.nextID) * time.Minute)
	res.UpdatedAt = res.CreatedAt
	s.reservations = append(s.reservations, *res)
	return nil
}

func (s *memStore) UpdateStatus(ctx context.Context, id uint64, from, to model.ReservationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reservations {
		if s.reservations[i].ID == id && s.reservations[i].Status == from {
			s.reservations[i].Status = to
			return nil
		}
	}
	return ErrReservationNotFound
}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := append([]model.Reservation(nil), s.reservations...)
	nextID := s.nextID
	s.mu.Unlock()

	if err := fn(ctx, s); err != nil {
		s.mu.Lock()
		s.reservations, s.nextID = snapshot, nextID
		s.mu.Unlock()
		return err
	}
	return nil
}

// seed inserts a confirmed reservation directly.
func (s *memStore) seed(name, date, tm string, tableID uint64) model.Reservation {
	res := model.Reservation{
		CustomerName: name, PartySize: 2, Date: date, Time: tm,
		Status: model.StatusConfirmed, TableID: &tableID,
	}
	if err := s.InsertReservation(context.Background(), &res); err != nil {
		panic(err)
	}
	return res
}

func (s *memStore) queriedTimes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.queried...)
	sort.Strings(out)
	return out
}

type recordingNotifier struct {
	mu        sync.Mutex
	confirmed []uint64
	cancelled []uint64
}

func (n *recordingNotifier) ReservationConfirmed(ctx context.Context, res model.Reservation, table model.Table) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, res.ID)
}

func (n *recordingNotifier) ReservationCancelled(ctx context.Context, res model.Reservation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, res.ID)
}
