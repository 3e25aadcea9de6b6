package call

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-phone-agent/internal/metrics"
	"github.com/iliyamo/restaurant-phone-agent/internal/model"
)

// Archive persists a finished call.
type Archive interface {
	SaveFinishedCall(ctx context.Context, m model.CallMetrics, turns []model.ConversationTurn) error
}

// Analyzer scores a stored call.
type Analyzer interface {
	Analyze(ctx context.Context, callID string, useJudge bool) (model.CallQuality, error)
}

// Announcer is told about every finalized call.
type Announcer interface {
	CallFinalized(ctx context.Context, m model.CallMetrics)
}

// Outcome is what finalizing a call produced.  Quality is nil when the
// quick score could not be computed.
type Outcome struct {
	Metrics model.CallMetrics
	Quality *model.CallQuality
}

// Finalizer closes sessions, stores them and scores them without the
// judge.  Full judged scoring happens later, off the call path.
type Finalizer struct {
	archive   Archive
	analyzer  Analyzer
	announcer Announcer
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewFinalizer wires a Finalizer.  analyzer, announcer and m may be nil.
func NewFinalizer(archive Archive, analyzer Analyzer, announcer Announcer, m *metrics.Metrics, logger *zap.Logger) *Finalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Finalizer{archive: archive, analyzer: analyzer, announcer: announcer, metrics: m, logger: logger}
}

// Finalize ends s and writes it out.  Only the save is fatal; scoring
// and announcing failures are logged.  After a failed save the session
// stays open for storage, so Finalize can be called again.
func (f *Finalizer) Finalize(ctx context.Context, s *Session, callerHungUp bool) (Outcome, error) {
	m, turns, err := s.Finalize(callerHungUp)
	if err != nil {
		return Outcome{}, err
	}
	if err := f.archive.SaveFinishedCall(ctx, m, turns); err != nil {
		return Outcome{Metrics: m}, fmt.Errorf("save call %s: %w", m.CallID, err)
	}
	s.MarkStored()
	f.metrics.CallFinalized(m.Variant)
	f.logger.Info("call finalized",
		zap.String("call_id", m.CallID), zap.String("variant", m.Variant),
		zap.Int("turns", m.TotalTurns), zap.Bool("booked", m.BookingCompleted),
		zap.Bool("hung_up_early", m.HungUpEarly))

	out := Outcome{Metrics: m}
	if f.analyzer != nil {
		q, err := f.analyzer.Analyze(ctx, m.CallID, false)
		if err != nil {
			f.logger.Warn("quick score failed", zap.String("call_id", m.CallID), zap.Error(err))
		} else {
			out.Quality = &q
		}
	}
	if f.announcer != nil {
		f.announcer.CallFinalized(ctx, m)
	}
	return out, nil
}
