// Package booking is the reservation engine: it checks availability,
// assigns tables, suggests nearby slots and resolves callers' names to
// their reservations.  Every operation runs against a Store and reports
// failures as *Failure values.
package booking

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-phone-agent/internal/fuzzy"
	"github.com/iliyamo/restaurant-phone-agent/internal/metrics"
	"github.com/iliyamo/restaurant-phone-agent/internal/model"
)

// maxAllocationAttempts bounds how often Create retries after losing a
// write race on the same slot.
const maxAllocationAttempts = 3

var errNoFreeTable = errors.New("no free table")

// Notifier is told about committed lifecycle changes.  Calls happen
// after commit and their failures never undo the change.
type Notifier interface {
	ReservationConfirmed(ctx context.Context, res model.Reservation, table model.Table)
	ReservationCancelled(ctx context.Context, res model.Reservation)
}

// Service orchestrates reservation creation, cancellation and lookup.
type Service struct {
	store     Store
	suggester Suggester
	threshold int
	notifier  Notifier
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSuggester replaces the default 17:00-22:00 suggester.
func WithSuggester(s Suggester) Option { return func(svc *Service) { svc.suggester = s } }

// WithThreshold sets the fuzzy name threshold used by cancel and lookup.
func WithThreshold(threshold int) Option {
	return func(svc *Service) {
		if threshold > 0 {
			svc.threshold = threshold
		}
	}
}

// WithNotifier registers a receiver for committed changes.
func WithNotifier(n Notifier) Option { return func(svc *Service) { svc.notifier = n } }

// WithMetrics records operation outcomes on m.
func WithMetrics(m *metrics.Metrics) Option { return func(svc *Service) { svc.metrics = m } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}

// NewService builds a Service over store.
func NewService(store Store, opts ...Option) *Service {
	svc := &Service{
		store:     store,
		suggester: NewSuggester(17, 22),
		threshold: fuzzy.DefaultThreshold,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// CheckAvailability reports which tables can seat partySize at the slot.
// When every qualifying table is taken it also lists nearby slots.
func (s *Service) CheckAvailability(ctx context.Context, partySize int, date, tm string) (Availability, error) {
	date, tm, err := validateSlot(partySize, date, tm)
	if err != nil {
		return Availability{}, err
	}
	avail, err := resolveAvailability(ctx, s.store, partySize, date, tm)
	if err != nil {
		return Availability{}, storageFailure(err)
	}
	if avail.Outcome == OutcomeFullyBooked {
		alts, err := s.suggester.Suggest(ctx, s.store, date, tm, partySize)
		if err != nil {
			s.logger.Warn("suggest alternatives failed", zap.String("date", date), zap.String("time", tm), zap.Error(err))
		}
		avail.Alternatives = alts
	}
	return avail, nil
}

// CreateRequest carries the details of a new reservation.
type CreateRequest struct {
	Name      string
	PartySize int
	Date      string
	Time      string
	Phone     string
	CallID    string
}

// CreateResult is a confirmed reservation and the table it holds.
type CreateResult struct {
	Reservation model.Reservation `json:"reservation"`
	Table       model.Table       `json:"table"`
}

// Create books a table for req.  The table is chosen again inside the
// write transaction with the slot's booked rows locked, so two callers
// racing for the last table cannot both be confirmed.
func (s *Service) Create(ctx context.Context, req CreateRequest) (CreateResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return CreateResult{}, s.fail("create", validationFailure("a name is required"))
	}
	date, tm, err := validateSlot(req.PartySize, req.Date, req.Time)
	if err != nil {
		return CreateResult{}, s.fail("create", err)
	}

	avail, err := resolveAvailability(ctx, s.store, req.PartySize, date, tm)
	if err != nil {
		return CreateResult{}, s.fail("create", storageFailure(err))
	}
	switch avail.Outcome {
	case OutcomeNoTableLargeEnough:
		return CreateResult{}, s.fail("create", capacityFailure(req.PartySize, avail.LargestTable))
	case OutcomeFullyBooked:
		return CreateResult{}, s.fail("create", s.conflict(ctx, date, tm, req.PartySize))
	}

	res := model.Reservation{
		CustomerName: name,
		PartySize:    req.PartySize,
		Date:         date,
		Time:         tm,
		Status:       model.StatusConfirmed,
	}
	if p := strings.TrimSpace(req.Phone); p != "" {
		res.Phone = &p
	}
	if req.CallID != "" {
		callID := req.CallID
		res.CallID = &callID
	}

	var table model.Table
	for attempt := 1; ; attempt++ {
		err = s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
			locked, err := resolveAvailability(ctx, tx, req.PartySize, date, tm)
			if err != nil {
				return err
			}
			t, ok := Allocate(locked.Tables, req.PartySize)
			if !ok {
				return errNoFreeTable
			}
			row := res
			row.TableID = &t.ID
			if err := tx.InsertReservation(ctx, &row); err != nil {
				return err
			}
			res, table = row, t
			return nil
		})
		if err == nil {
			break
		}
		if errors.Is(err, errNoFreeTable) {
			return CreateResult{}, s.fail("create", s.conflict(ctx, date, tm, req.PartySize))
		}
		if !errors.Is(err, ErrSlotTaken) {
			return CreateResult{}, s.fail("create", storageFailure(err))
		}
		if attempt >= maxAllocationAttempts {
			return CreateResult{}, s.fail("create", s.conflict(ctx, date, tm, req.PartySize))
		}
		s.metrics.AllocationRetry()
		s.logger.Info("allocation lost write race, retrying",
			zap.String("date", date), zap.String("time", tm), zap.Int("attempt", attempt))
	}

	s.metrics.Reservation("create", "confirmed")
	s.logger.Info("reservation confirmed",
		zap.Uint64("reservation_id", res.ID), zap.Int("table_number", table.Number),
		zap.String("date", date), zap.String("time", tm), zap.Int("party_size", req.PartySize))
	if s.notifier != nil {
		s.notifier.ReservationConfirmed(ctx, res, table)
	}
	return CreateResult{Reservation: res, Table: table}, nil
}

// CancelRequest identifies the reservation to cancel, either by id or
// by the caller's name with an optional date.  ReservationID wins when
// both are given.
type CancelRequest struct {
	ReservationID uint64
	Name          string
	Date          string
}

// CancelResult is the reservation as it was cancelled.  Score is 100 for
// a cancel by id.
type CancelResult struct {
	Reservation model.Reservation `json:"reservation"`
	Score       int               `json:"score"`
}

// Cancel moves a confirmed reservation to cancelled, which frees its
// table at once.  Cancelling the same reservation again reports
// not_found.
func (s *Service) Cancel(ctx context.Context, req CancelRequest) (CancelResult, error) {
	target, err := s.resolveCancelTarget(ctx, req)
	if err != nil {
		return CancelResult{}, s.fail("cancel", err)
	}
	if err := s.store.UpdateStatus(ctx, target.Reservation.ID, model.StatusConfirmed, model.StatusCancelled); err != nil {
		if errors.Is(err, ErrReservationNotFound) {
			return CancelResult{}, s.fail("cancel", notFoundFailure("That reservation is no longer active."))
		}
		return CancelResult{}, s.fail("cancel", storageFailure(err))
	}
	target.Reservation.Status = model.StatusCancelled

	s.metrics.Reservation("cancel", "cancelled")
	s.logger.Info("reservation cancelled",
		zap.Uint64("reservation_id", target.Reservation.ID), zap.Int("match_score", target.Score))
	if s.notifier != nil {
		s.notifier.ReservationCancelled(ctx, target.Reservation)
	}
	return CancelResult{Reservation: target.Reservation, Score: target.Score}, nil
}

func (s *Service) resolveCancelTarget(ctx context.Context, req CancelRequest) (Match, error) {
	if req.ReservationID > 0 {
		res, err := s.store.GetReservation(ctx, req.ReservationID)
		if err != nil {
			if errors.Is(err, ErrReservationNotFound) {
				return Match{}, notFoundFailure("I couldn't find a reservation with that number.")
			}
			return Match{}, storageFailure(err)
		}
		if res.Status != model.StatusConfirmed {
			return Match{}, notFoundFailure("I couldn't find an active reservation with that number.")
		}
		return Match{Reservation: res, Score: 100}, nil
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Match{}, validationFailure("a reservation number or a name is required")
	}
	date := ""
	if strings.TrimSpace(req.Date) != "" {
		d, err := NormalizeDate(req.Date)
		if err != nil {
			return Match{}, err
		}
		date = d
	}
	candidates, err := s.store.ConfirmedReservations(ctx, date)
	if err != nil {
		return Match{}, storageFailure(err)
	}
	m, ok := ResolveForCancel(candidates, name, date, s.threshold)
	if !ok {
		return Match{}, notFoundFailure("I couldn't find a reservation under that name.")
	}
	return m, nil
}

// Complete marks a confirmed reservation as seated and finished.
func (s *Service) Complete(ctx context.Context, id uint64) (model.Reservation, error) {
	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		if errors.Is(err, ErrReservationNotFound) {
			return model.Reservation{}, s.fail("complete", notFoundFailure("reservation not found"))
		}
		return model.Reservation{}, s.fail("complete", storageFailure(err))
	}
	if err := s.store.UpdateStatus(ctx, id, model.StatusConfirmed, model.StatusCompleted); err != nil {
		if errors.Is(err, ErrReservationNotFound) {
			return model.Reservation{}, s.fail("complete", notFoundFailure("reservation is not active"))
		}
		return model.Reservation{}, s.fail("complete", storageFailure(err))
	}
	res.Status = model.StatusCompleted
	s.metrics.Reservation("complete", "completed")
	return res, nil
}

// Lookup lists confirmed reservations, filtered by date when given and
// by fuzzy name when given.  Without a name every reservation scores
// 100.
func (s *Service) Lookup(ctx context.Context, date, name string) ([]Match, error) {
	if strings.TrimSpace(date) != "" {
		d, err := NormalizeDate(date)
		if err != nil {
			return nil, err
		}
		date = d
	}
	candidates, err := s.store.ConfirmedReservations(ctx, date)
	if err != nil {
		return nil, storageFailure(err)
	}
	if strings.TrimSpace(name) != "" {
		return MatchAll(candidates, name, date, s.threshold), nil
	}
	out := make([]Match, 0, len(candidates))
	for _, r := range candidates {
		out = append(out, Match{Reservation: r, Score: 100})
	}
	return out, nil
}

// conflict builds a slot_conflict failure with fresh suggestions.
func (s *Service) conflict(ctx context.Context, date, tm string, partySize int) *Failure {
	alts, err := s.suggester.Suggest(ctx, s.store, date, tm, partySize)
	if err != nil {
		s.logger.Warn("suggest alternatives failed", zap.String("date", date), zap.String("time", tm), zap.Error(err))
	}
	return slotConflictFailure(tm, alts)
}

func (s *Service) fail(operation string, err error) error {
	kind := "error"
	if f, ok := AsFailure(err); ok {
		kind = string(f.Kind)
		if f.Kind == KindStorage {
			s.logger.Error("reservation storage failure", zap.String("operation", operation), zap.Error(f.Err))
		}
	}
	s.metrics.Reservation(operation, kind)
	return err
}

func validateSlot(partySize int, date, tm string) (string, string, error) {
	if partySize < 1 {
		return "", "", validationFailure("party size must be at least 1")
	}
	d, err := NormalizeDate(date)
	if err != nil {
		return "", "", err
	}
	t, err := NormalizeTime(tm)
	if err != nil {
		return "", "", err
	}
	return d, t, nil
}
