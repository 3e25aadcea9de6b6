package booking

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-phone-agent/internal/model"
)

const testDate = "2025-06-14"

func requireFailure(t *testing.T, err error, kind Kind) *Failure {
	t.Helper()
	f, ok := AsFailure(err)
	require.True(t, ok, "expected *Failure, got %v", err)
	require.Equal(t, kind, f.Kind)
	return f
}

func TestCheckAvailabilityNeverReturnsSmallTables(t *testing.T) {
	store := newMemStore(model.DefaultTableCapacities...)
	store.seed("Ada", testDate, "19:00", 3)
	svc := NewService(store)

	for party := 1; party <= 10; party++ {
		avail, err := svc.CheckAvailability(context.Background(), party, testDate, "19:00")
		require.NoError(t, err)
		for _, tbl := range avail.Tables {
			assert.GreaterOrEqual(t, tbl.Capacity, party, "party %d got table %d", party, tbl.ID)
			assert.NotEqual(t, uint64(3), tbl.ID)
		}
	}
}

func TestCheckAvailabilityNoTableLargeEnough(t *testing.T) {
	svc := NewService(newMemStore(2, 4, 6))

	avail, err := svc.CheckAvailability(context.Background(), 7, testDate, "19:00")

	require.NoError(t, err)
	assert.Equal(t, OutcomeNoTableLargeEnough, avail.Outcome)
	assert.Empty(t, avail.Alternatives)
	assert.Equal(t, 6, avail.LargestTable)
}

func TestCheckAvailabilityFullyBookedSuggestsAlternatives(t *testing.T) {
	store := newMemStore(4)
	store.seed("Ada", testDate, "19:00", 1)
	svc := NewService(store)

	avail, err := svc.CheckAvailability(context.Background(), 2, testDate, "19:00")

	require.NoError(t, err)
	assert.Equal(t, OutcomeFullyBooked, avail.Outcome)
	assert.Empty(t, avail.Tables)
	assert.Equal(t, []string{"18:30", "19:30", "18:00"}, avail.Alternatives)
}

func TestCheckAvailabilityNormalizesAndValidates(t *testing.T) {
	svc := NewService(newMemStore(4))

	avail, err := svc.CheckAvailability(context.Background(), 2, testDate, "7:05")
	require.NoError(t, err)
	assert.Equal(t, "07:05", avail.Time)

	_, err = svc.CheckAvailability(context.Background(), 0, testDate, "19:00")
	requireFailure(t, err, KindValidation)

	_, err = svc.CheckAvailability(context.Background(), 2, "14/06/2025", "19:00")
	requireFailure(t, err, KindValidation)

	_, err = svc.CheckAvailability(context.Background(), 2, testDate, "7pm")
	requireFailure(t, err, KindValidation)
}

func TestCreateAssignsBestFitTable(t *testing.T) {
	store := newMemStore(2, 4, 4, 6)
	notifier := &recordingNotifier{}
	svc := NewService(store, WithNotifier(notifier))

	res, err := svc.Create(context.Background(), CreateRequest{
		Name: "Ragi", PartySize: 3, Date: testDate, Time: "19:00", Phone: "+15550100", CallID: "CA1",
	})

	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Table.ID)
	assert.Equal(t, model.StatusConfirmed, res.Reservation.Status)
	require.NotNil(t, res.Reservation.TableID)
	assert.Equal(t, uint64(2), *res.Reservation.TableID)
	require.NotNil(t, res.Reservation.CallID)
	assert.Equal(t, "CA1", *res.Reservation.CallID)
	assert.Equal(t, []uint64{res.Reservation.ID}, notifier.confirmed)
}

func TestCreateCapacityFailureWritesNothing(t *testing.T) {
	store := newMemStore(2, 4)
	svc := NewService(store)

	_, err := svc.Create(context.Background(), CreateRequest{Name: "Ragi", PartySize: 9, Date: testDate, Time: "19:00"})

	f := requireFailure(t, err, KindCapacity)
	assert.Empty(t, f.Alternatives)
	assert.Contains(t, f.Message, "largest table seats 4")
	assert.Empty(t, store.reservations)
}

func TestCreateSlotConflictCarriesAlternatives(t *testing.T) {
	store := newMemStore(4)
	store.seed("Ada", testDate, "19:00", 1)
	svc := NewService(store)

	_, err := svc.Create(context.Background(), CreateRequest{Name: "Ragi", PartySize: 2, Date: testDate, Time: "19:00"})

	f := requireFailure(t, err, KindSlotConflict)
	assert.Equal(t, []string{"18:30", "19:30", "18:00"}, f.Alternatives)
	assert.Contains(t, f.Message, "18:30, 19:30 or 18:00")
	assert.True(t, errors.Is(err, ErrSlotTaken))
	assert.Len(t, store.reservations, 1)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemStore(4))
	tests := []struct {
		name string
		req  CreateRequest
	}{
		{"missing name", CreateRequest{Name: "  ", PartySize: 2, Date: testDate, Time: "19:00"}},
		{"zero party", CreateRequest{Name: "Ragi", PartySize: 0, Date: testDate, Time: "19:00"}},
		{"bad date", CreateRequest{Name: "Ragi", PartySize: 2, Date: "tomorrow", Time: "19:00"}},
		{"bad time", CreateRequest{Name: "Ragi", PartySize: 2, Date: testDate, Time: "25:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			requireFailure(t, err, KindValidation)
		})
	}
}

func TestCreateRetriesAfterLostWriteRace(t *testing.T) {
	store := newMemStore(4)
	store.insertFailures = 2
	svc := NewService(store)

	res, err := svc.Create(context.Background(), CreateRequest{Name: "Ragi", PartySize: 2, Date: testDate, Time: "19:00"})

	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Table.ID)
	assert.Len(t, store.reservations, 1)
}

func TestCreateGivesUpAfterRepeatedWriteConflicts(t *testing.T) {
	store := newMemStore(4)
	store.insertFailures = maxAllocationAttempts
	svc := NewService(store)

	_, err := svc.Create(context.Background(), CreateRequest{Name: "Ragi", PartySize: 2, Date: testDate, Time: "19:00"})

	requireFailure(t, err, KindSlotConflict)
	assert.Empty(t, store.reservations)
}

func TestConcurrentCreatesNeverDoubleBook(t *testing.T) {
	store := newMemStore(4, 4, 4)
	svc := NewService(store)

	const callers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		confirmed []CreateResult
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Create(context.Background(), CreateRequest{Name: "Guest", PartySize: 2, Date: testDate, Time: "19:00"})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if f, ok := AsFailure(err); ok && f.Kind == KindSlotConflict {
					conflicts++
				}
				return
			}
			confirmed = append(confirmed, res)
		}()
	}
	wg.Wait()

	assert.Len(t, confirmed, 3)
	assert.Equal(t, callers-3, conflicts)
	seen := map[uint64]bool{}
	for _, r := range confirmed {
		assert.False(t, seen[r.Table.ID], "table %d booked twice", r.Table.ID)
		seen[r.Table.ID] = true
	}
}

func TestCancelTwiceIsSuccessThenNotFound(t *testing.T) {
	store := newMemStore(4)
	notifier := &recordingNotifier{}
	svc := NewService(store, WithNotifier(notifier))
	created, err := svc.Create(context.Background(), CreateRequest{Name: "Ragi", PartySize: 2, Date: testDate, Time: "19:00"})
	require.NoError(t, err)
	id := created.Reservation.ID

	first, err := svc.Cancel(context.Background(), CancelRequest{ReservationID: id})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, first.Reservation.Status)
	assert.Equal(t, 100, first.Score)

	_, err = svc.Cancel(context.Background(), CancelRequest{ReservationID: id})
	requireFailure(t, err, KindNotFound)
	assert.Equal(t, []uint64{id}, notifier.cancelled)
}

func TestCancelFreesTheTable(t *testing.T) {
	store := newMemStore(4)
	svc := NewService(store)
	created, err := svc.Create(context.Background(), CreateRequest{Name: "Ragi", PartySize: 2, Date: testDate, Time: "19:00"})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), CancelRequest{ReservationID: created.Reservation.ID})
	require.NoError(t, err)

	avail, err := svc.CheckAvailability(context.Background(), 2, testDate, "19:00")
	require.NoError(t, err)
	assert.True(t, avail.Available())
}

func TestCancelByMisheardName(t *testing.T) {
	store := newMemStore(4, 4)
	ragi := store.seed("Ragi", testDate, "19:00", 1)
	store.seed("Robert", testDate, "19:00", 2)
	svc := NewService(store)

	got, err := svc.Cancel(context.Background(), CancelRequest{Name: "Raji", Date: testDate})
	require.NoError(t, err)
	assert.Equal(t, ragi.ID, got.Reservation.ID)
	assert.GreaterOrEqual(t, got.Score, 75)

	_, err = svc.Cancel(context.Background(), CancelRequest{Name: "Bob", Date: testDate})
	requireFailure(t, err, KindNotFound)
}

func TestCancelByNamePrefersMostRecentOnTie(t *testing.T) {
	store := newMemStore(4, 4)
	store.seed("Ragi", testDate, "18:00", 1)
	later := store.seed("Ragi", testDate, "20:00", 2)
	svc := NewService(store)

	got, err := svc.Cancel(context.Background(), CancelRequest{Name: "ragi"})

	require.NoError(t, err)
	assert.Equal(t, later.ID, got.Reservation.ID)
}

func TestCancelRequiresTarget(t *testing.T) {
	svc := NewService(newMemStore(4))

	_, err := svc.Cancel(context.Background(), CancelRequest{})
	requireFailure(t, err, KindValidation)

	_, err = svc.Cancel(context.Background(), CancelRequest{ReservationID: 42})
	requireFailure(t, err, KindNotFound)
}

func TestCompleteIsTerminal(t *testing.T) {
	store := newMemStore(4)
	svc := NewService(store)
	res := store.seed("Ragi", testDate, "19:00", 1)

	done, err := svc.Complete(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)

	_, err = svc.Cancel(context.Background(), CancelRequest{ReservationID: res.ID})
	requireFailure(t, err, KindNotFound)

	_, err = svc.Complete(context.Background(), res.ID)
	requireFailure(t, err, KindNotFound)
}

func TestLookupReturnsEveryMatch(t *testing.T) {
	store := newMemStore(4, 4, 4)
	store.seed("John", testDate, "19:00", 1)
	store.seed("Jon", testDate, "20:00", 2)
	store.seed("Alice", testDate, "19:00", 3)
	store.seed("John", "2025-06-15", "19:00", 1)
	svc := NewService(store)

	matches, err := svc.Lookup(context.Background(), testDate, "Jon")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Jon", matches[0].Reservation.CustomerName)
	assert.Equal(t, 100, matches[0].Score)
	assert.Equal(t, "John", matches[1].Reservation.CustomerName)

	all, err := svc.Lookup(context.Background(), "", "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
