package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-phone-agent/internal/booking"
	"github.com/iliyamo/restaurant-phone-agent/internal/call"
	"github.com/iliyamo/restaurant-phone-agent/internal/model"
)

func execute(t *testing.T, r Reservations, sess *call.Session, name, input string) (map[string]any, bool) {
	t.Helper()
	tools := NewTools(r, nil, nil)
	tools.now = func() time.Time { return fixedNow }
	out := tools.Execute(context.Background(), sess, name, json.RawMessage(input))
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(out.Content), &payload))
	return payload, out.IsError
}

func newSession() *call.Session {
	return call.NewSession("CA9", "+15550199", VariantBaseline, nil)
}

func TestCreateReservationFillsCallerDetails(t *testing.T) {
	r := &stubReservations{}
	sess := newSession()

	payload, isErr := execute(t, r, sess, ToolCreateReservation,
		`{"name":"Ragi","party_size":3,"date":"2025-03-14","time":"19:00"}`)

	assert.False(t, isErr)
	assert.Equal(t, true, payload["success"])
	assert.EqualValues(t, 11, payload["reservation_id"])
	assert.EqualValues(t, 3, payload["table_number"])
	require.Len(t, r.created, 1)
	assert.Equal(t, "+15550199", r.created[0].Phone)
	assert.Equal(t, "CA9", r.created[0].CallID)

	m, _ := sess.Snapshot()
	assert.True(t, m.BookingCompleted)
	require.NotNil(t, m.ReservationID)
	assert.EqualValues(t, 11, *m.ReservationID)
	assert.Equal(t, 1, m.ToolCalls)
}

func TestInvalidArgumentsNeverReachTheEngine(t *testing.T) {
	r := &stubReservations{}
	sess := newSession()

	payload, isErr := execute(t, r, sess, ToolCreateReservation,
		`{"name":"","party_size":0,"date":"tomorrow","time":"7pm"}`)

	assert.True(t, isErr)
	assert.Equal(t, false, payload["success"])
	assert.Equal(t, "validation", payload["kind"])
	assert.Contains(t, payload["message"], "date must be a date like 2025-03-14")
	assert.Empty(t, r.created)

	payload, isErr = execute(t, r, sess, ToolCheckAvailability, `{"party_size":"four"}`)
	assert.True(t, isErr)
	assert.Equal(t, "validation", payload["kind"])
}

func TestSlotConflictCarriesAlternatives(t *testing.T) {
	r := &stubReservations{createErr: &booking.Failure{
		Kind:         booking.KindSlotConflict,
		Message:      "19:00 is fully booked. I could do 18:30 or 19:30 instead.",
		Alternatives: []string{"18:30", "19:30"},
	}}

	payload, isErr := execute(t, r, newSession(), ToolCreateReservation,
		`{"name":"Ragi","party_size":3,"date":"2025-03-14","time":"19:00"}`)

	assert.False(t, isErr)
	assert.Equal(t, "slot_conflict", payload["kind"])
	assert.Equal(t, []any{"18:30", "19:30"}, payload["alternatives"])
}

func TestCheckAvailabilityFullyBooked(t *testing.T) {
	r := &stubReservations{avail: booking.Availability{
		Outcome:      booking.OutcomeFullyBooked,
		Alternatives: []string{"18:30"},
	}}

	payload, _ := execute(t, r, newSession(), ToolCheckAvailability, `{"party_size":2,"date":"2025-03-14","time":"19:00"}`)

	assert.Equal(t, false, payload["available"])
	assert.Equal(t, "fully_booked", payload["reason"])
	assert.Equal(t, []any{"18:30"}, payload["alternatives"])
}

func TestCancelMarksIntentFulfilled(t *testing.T) {
	r := &stubReservations{}
	sess := newSession()

	payload, isErr := execute(t, r, sess, ToolCancelReservation, `{"name":"Raji"}`)

	assert.False(t, isErr)
	assert.EqualValues(t, 75, payload["match_score"])
	require.Len(t, r.cancelled, 1)
	assert.Equal(t, "Raji", r.cancelled[0].Name)
	m, _ := sess.Snapshot()
	assert.True(t, m.IntentFulfilled)
	assert.False(t, m.BookingCompleted)
}

func TestCancelNeedsIDOrName(t *testing.T) {
	r := &stubReservations{}
	payload, isErr := execute(t, r, newSession(), ToolCancelReservation, `{"date":"2025-03-14"}`)
	assert.True(t, isErr)
	assert.Equal(t, "validation", payload["kind"])
	assert.Empty(t, r.cancelled)
}

func TestCancelNotFound(t *testing.T) {
	r := &stubReservations{cancelErr: &booking.Failure{Kind: booking.KindNotFound, Message: "I couldn't find a reservation under that name."}}
	sess := newSession()

	payload, isErr := execute(t, r, sess, ToolCancelReservation, `{"name":"Zed"}`)

	assert.False(t, isErr)
	assert.Equal(t, "not_found", payload["kind"])
	m, _ := sess.Snapshot()
	assert.False(t, m.IntentFulfilled)
}

func TestStorageFailureIsAnError(t *testing.T) {
	r := &stubReservations{availErr: &booking.Failure{Kind: booking.KindStorage, Message: "Something went wrong on our side.", Err: errors.New("conn reset")}}
	payload, isErr := execute(t, r, newSession(), ToolCheckAvailability, `{"party_size":2,"date":"2025-03-14","time":"19:00"}`)
	assert.True(t, isErr)
	assert.Equal(t, "storage", payload["kind"])
	assert.NotContains(t, payload["message"], "conn reset")
}

func TestGetReservations(t *testing.T) {
	r := &stubReservations{matches: []booking.Match{
		{Reservation: model.Reservation{ID: 5, CustomerName: "Ragi", PartySize: 2, Date: "2025-03-14", Time: "19:00", Status: model.StatusConfirmed}, Score: 75},
	}}
	sess := newSession()

	payload, _ := execute(t, r, sess, ToolGetReservations, `{"name":"Raji"}`)

	assert.EqualValues(t, 1, payload["count"])
	m, _ := sess.Snapshot()
	assert.True(t, m.IntentFulfilled)
}

func TestUnknownTool(t *testing.T) {
	payload, isErr := execute(t, &stubReservations{}, newSession(), "order_pizza", `{}`)
	assert.True(t, isErr)
	assert.Contains(t, payload["message"], "order_pizza")
}

func TestCurrentDate(t *testing.T) {
	payload, _ := execute(t, &stubReservations{}, newSession(), ToolCurrentDate, ``)
	assert.Equal(t, "2025-03-14", payload["today"])
	assert.Equal(t, "Friday", payload["today_day_of_week"])
	assert.Equal(t, "2025-03-21", payload["next_week"])
	assert.Equal(t, "16:05", payload["current_time"])
	assert.EqualValues(t, 3, payload["month"])
}
