package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-phone-agent/internal/booking"
	"github.com/iliyamo/restaurant-phone-agent/internal/call"
	"github.com/iliyamo/restaurant-phone-agent/internal/metrics"
	"github.com/iliyamo/restaurant-phone-agent/internal/validation"
)

// Tool names the model can call.
const (
	ToolCurrentDate       = "get_current_date"
	ToolCheckAvailability = "check_availability"
	ToolCreateReservation = "create_reservation"
	ToolGetReservations   = "get_reservations"
	ToolCancelReservation = "cancel_reservation"
)

// Reservations is the part of the reservation engine the tools drive.
type Reservations interface {
	CheckAvailability(ctx context.Context, partySize int, date, tm string) (booking.Availability, error)
	Create(ctx context.Context, req booking.CreateRequest) (booking.CreateResult, error)
	Cancel(ctx context.Context, req booking.CancelRequest) (booking.CancelResult, error)
	Lookup(ctx context.Context, date, name string) ([]booking.Match, error)
}

// Result is the JSON payload handed back to the model for one tool call.
type Result struct {
	Content string
	IsError bool
}

// Tools executes tool calls against the reservation engine.
type Tools struct {
	reservations Reservations
	metrics      *metrics.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// NewTools wires Tools.  m may be nil.
func NewTools(r Reservations, m *metrics.Metrics, logger *zap.Logger) *Tools {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tools{reservations: r, metrics: m, logger: logger, now: time.Now}
}

var toolSpecs = []ToolSpec{
	{
		Name: ToolCurrentDate,
		Description: "Get today's date and time. Always use this first when the caller says today, tomorrow, " +
			"this week, next week or any other relative date.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
	},
	{
		Name:        ToolCheckAvailability,
		Description: "Check whether a table is free for a party size, date and time. Use this before creating a reservation.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{` +
			`"party_size":{"type":"integer","description":"Number of people in the party"},` +
			`"date":{"type":"string","description":"Date in YYYY-MM-DD format (e.g. 2025-03-14)"},` +
			`"time":{"type":"string","description":"Time in HH:MM 24-hour format (e.g. 19:00 for 7pm)"}},` +
			`"required":["party_size","date","time"]}`),
	},
	{
		Name:        ToolCreateReservation,
		Description: "Create a confirmed reservation. Only use this after checking availability and getting the caller's confirmation.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{` +
			`"name":{"type":"string","description":"Customer's full name"},` +
			`"party_size":{"type":"integer","description":"Number of people"},` +
			`"date":{"type":"string","description":"Date in YYYY-MM-DD format"},` +
			`"time":{"type":"string","description":"Time in HH:MM 24-hour format"},` +
			`"phone":{"type":"string","description":"Customer phone number (optional)"}},` +
			`"required":["name","party_size","date","time"]}`),
	},
	{
		Name:        ToolGetReservations,
		Description: "Look up existing reservations by date or customer name. Names are matched loosely.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{` +
			`"date":{"type":"string","description":"Filter by date (YYYY-MM-DD)"},` +
			`"name":{"type":"string","description":"Filter by customer name"}}}`),
	},
	{
		Name:        ToolCancelReservation,
		Description: "Cancel an existing reservation by its number or by the customer's name.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{` +
			`"reservation_id":{"type":"integer","description":"Reservation number, if the caller has it"},` +
			`"name":{"type":"string","description":"Customer name"},` +
			`"date":{"type":"string","description":"Date of the reservation (YYYY-MM-DD)"}}}`),
	},
}

// Specs lists the tools offered to the model.
func (t *Tools) Specs() []ToolSpec { return toolSpecs }

type availabilityArgs struct {
	PartySize int    `json:"party_size" validate:"required,min=1"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Time      string `json:"time" validate:"required,datetime=15:04"`
}

type createArgs struct {
	Name      string `json:"name" validate:"required"`
	PartySize int    `json:"party_size" validate:"required,min=1"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Time      string `json:"time" validate:"required,datetime=15:04"`
	Phone     string `json:"phone"`
	CallID    string `json:"call_id"`
}

type lookupArgs struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Name string `json:"name"`
}

type cancelArgs struct {
	ReservationID uint64 `json:"reservation_id" validate:"required_without=Name"`
	Name          string `json:"name" validate:"required_without=ReservationID"`
	Date          string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type tableView struct {
	TableNumber int `json:"table_number"`
	Capacity    int `json:"capacity"`
}

type reservationView struct {
	ReservationID uint64 `json:"reservation_id"`
	Name          string `json:"name"`
	PartySize     int    `json:"party_size"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Status        string `json:"status"`
	MatchScore    int    `json:"match_score,omitempty"`
}

type failureView struct {
	Success      bool     `json:"success"`
	Kind         string   `json:"kind"`
	Message      string   `json:"message"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// Execute runs one tool call for the call owning sess and records the
// outcome on it.  Every outcome, including bad arguments, becomes a
// JSON payload for the model.
func (t *Tools) Execute(ctx context.Context, sess *call.Session, name string, input json.RawMessage) Result {
	sess.RecordToolCall()
	payload, err := t.dispatch(ctx, sess, name, input)
	if err != nil {
		f, ok := booking.AsFailure(err)
		if !ok {
			f = &booking.Failure{Kind: booking.KindValidation, Message: err.Error(), Err: err}
		}
		t.metrics.ToolCall(name, string(f.Kind))
		t.logger.Info("tool call failed",
			zap.String("call_id", sess.CallID()), zap.String("tool", name),
			zap.String("kind", string(f.Kind)), zap.String("message", f.Message))
		return encode(failureView{Kind: string(f.Kind), Message: f.Message, Alternatives: f.Alternatives},
			f.Kind == booking.KindValidation || f.Kind == booking.KindStorage)
	}
	t.metrics.ToolCall(name, "ok")
	return encode(payload, false)
}

func (t *Tools) dispatch(ctx context.Context, sess *call.Session, name string, input json.RawMessage) (any, error) {
	switch name {
	case ToolCurrentDate:
		return t.currentDate(), nil
	case ToolCheckAvailability:
		var args availabilityArgs
		if err := decode(input, &args); err != nil {
			return nil, err
		}
		return t.checkAvailability(ctx, args)
	case ToolCreateReservation:
		var args createArgs
		if err := decode(input, &args); err != nil {
			return nil, err
		}
		return t.createReservation(ctx, sess, args)
	case ToolGetReservations:
		var args lookupArgs
		if err := decode(input, &args); err != nil {
			return nil, err
		}
		return t.getReservations(ctx, sess, args)
	case ToolCancelReservation:
		var args cancelArgs
		if err := decode(input, &args); err != nil {
			return nil, err
		}
		return t.cancelReservation(ctx, sess, args)
	default:
		return nil, &booking.Failure{Kind: booking.KindValidation, Message: fmt.Sprintf("unknown tool %q", name)}
	}
}

func decode(input json.RawMessage, dest any) error {
	if len(input) > 0 {
		if err := json.Unmarshal(input, dest); err != nil {
			return &booking.Failure{Kind: booking.KindValidation, Message: "arguments are not valid JSON", Err: err}
		}
	}
	return validation.Struct(dest)
}

func (t *Tools) currentDate() map[string]any {
	now := t.now()
	tomorrow := now.AddDate(0, 0, 1)
	return map[string]any{
		"current_datetime":     now.Format("2006-01-02T15:04:05"),
		"today":                now.Format("2006-01-02"),
		"today_day_of_week":    now.Format("Monday"),
		"tomorrow":             tomorrow.Format("2006-01-02"),
		"tomorrow_day_of_week": tomorrow.Format("Monday"),
		"next_week":            now.AddDate(0, 0, 7).Format("2006-01-02"),
		"current_time":         now.Format("15:04"),
		"year":                 now.Year(),
		"month":                int(now.Month()),
		"day":                  now.Day(),
	}
}

func (t *Tools) checkAvailability(ctx context.Context, args availabilityArgs) (any, error) {
	avail, err := t.reservations.CheckAvailability(ctx, args.PartySize, args.Date, args.Time)
	if err != nil {
		return nil, err
	}
	tables := make([]tableView, 0, len(avail.Tables))
	for _, tb := range avail.Tables {
		tables = append(tables, tableView{TableNumber: tb.Number, Capacity: tb.Capacity})
	}
	out := map[string]any{
		"available":        avail.Available(),
		"reason":           string(avail.Outcome),
		"date":             avail.Date,
		"time":             avail.Time,
		"party_size":       avail.PartySize,
		"available_tables": tables,
	}
	switch avail.Outcome {
	case booking.OutcomeNoTableLargeEnough:
		out["message"] = fmt.Sprintf("No table seats %d. The largest table seats %d.", args.PartySize, avail.LargestTable)
	case booking.OutcomeFullyBooked:
		out["message"] = fmt.Sprintf("%s is fully booked for %d.", avail.Time, args.PartySize)
		out["alternatives"] = avail.Alternatives
	default:
		out["message"] = fmt.Sprintf("A table for %d is free at %s on %s.", args.PartySize, avail.Time, avail.Date)
	}
	return out, nil
}

func (t *Tools) createReservation(ctx context.Context, sess *call.Session, args createArgs) (any, error) {
	phone := args.Phone
	if phone == "" {
		phone = sess.CallerPhone()
	}
	callID := args.CallID
	if callID == "" {
		callID = sess.CallID()
	}
	res, err := t.reservations.Create(ctx, booking.CreateRequest{
		Name:      args.Name,
		PartySize: args.PartySize,
		Date:      args.Date,
		Time:      args.Time,
		Phone:     phone,
		CallID:    callID,
	})
	if err != nil {
		return nil, err
	}
	sess.MarkBooked(res.Reservation.ID)
	return map[string]any{
		"success":        true,
		"reservation_id": res.Reservation.ID,
		"table_number":   res.Table.Number,
		"name":           res.Reservation.CustomerName,
		"party_size":     res.Reservation.PartySize,
		"date":           res.Reservation.Date,
		"time":           res.Reservation.Time,
		"message": fmt.Sprintf("Reservation %d confirmed for %s, party of %d on %s at %s.",
			res.Reservation.ID, res.Reservation.CustomerName, res.Reservation.PartySize,
			res.Reservation.Date, res.Reservation.Time),
	}, nil
}

func (t *Tools) getReservations(ctx context.Context, sess *call.Session, args lookupArgs) (any, error) {
	matches, err := t.reservations.Lookup(ctx, args.Date, args.Name)
	if err != nil {
		return nil, err
	}
	views := make([]reservationView, 0, len(matches))
	for _, m := range matches {
		views = append(views, reservationView{
			ReservationID: m.Reservation.ID,
			Name:          m.Reservation.CustomerName,
			PartySize:     m.Reservation.PartySize,
			Date:          m.Reservation.Date,
			Time:          m.Reservation.Time,
			Status:        string(m.Reservation.Status),
			MatchScore:    m.Score,
		})
	}
	if len(views) > 0 {
		sess.MarkIntentFulfilled()
	}
	return map[string]any{"success": true, "count": len(views), "reservations": views}, nil
}

func (t *Tools) cancelReservation(ctx context.Context, sess *call.Session, args cancelArgs) (any, error) {
	res, err := t.reservations.Cancel(ctx, booking.CancelRequest{
		ReservationID: args.ReservationID,
		Name:          args.Name,
		Date:          args.Date,
	})
	if err != nil {
		return nil, err
	}
	sess.MarkIntentFulfilled()
	r := res.Reservation
	return map[string]any{
		"success":        true,
		"reservation_id": r.ID,
		"name":           r.CustomerName,
		"date":           r.Date,
		"time":           r.Time,
		"match_score":    res.Score,
		"message":        fmt.Sprintf("Cancelled the reservation for %s on %s at %s.", r.CustomerName, r.Date, r.Time),
	}, nil
}

func encode(v any, isError bool) Result {
	b, err := json.Marshal(v)
	if err != nil {
		return Result{Content: `{"success":false,"kind":"storage","message":"internal error"}`, IsError: true}
	}
	return Result{Content: string(b), IsError: isError}
}
