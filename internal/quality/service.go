package quality

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-phone-agent/internal/metrics"
	"github.com/iliyamo/restaurant-phone-agent/internal/model"
)

// ErrCallNotFound is returned when a call has no stored metrics.
var ErrCallNotFound = errors.New("call not found")

// ErrNoJudge is returned by AnalyzePending when the scorer has no judge,
// since the pending calls would stay unjudged.
var ErrNoJudge = errors.New("no quality judge configured")

// CallStore reads finished calls and stores their quality.
type CallStore interface {
	GetMetrics(ctx context.Context, callID string) (model.CallMetrics, error)
	ListTurns(ctx context.Context, callID string) ([]model.ConversationTurn, error)
	UpsertQuality(ctx context.Context, q model.CallQuality) error
	ListPendingJudgement(ctx context.Context, limit int) ([]string, error)
}

// Service loads a call, scores it and overwrites its stored quality.
type Service struct {
	store   CallStore
	scorer  *Scorer
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService wires a Service.  m may be nil.
func NewService(store CallStore, scorer *Scorer, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, scorer: scorer, metrics: m, logger: logger}
}

// Analyze scores callID and replaces any earlier score.  The store is
// expected to wrap ErrCallNotFound for unknown calls.
func (s *Service) Analyze(ctx context.Context, callID string, useJudge bool) (model.CallQuality, error) {
	m, err := s.store.GetMetrics(ctx, callID)
	if err != nil {
		return model.CallQuality{}, fmt.Errorf("load call %s: %w", callID, err)
	}
	turns, err := s.store.ListTurns(ctx, callID)
	if err != nil {
		return model.CallQuality{}, fmt.Errorf("load transcript %s: %w", callID, err)
	}

	q := s.scorer.Score(ctx, m, turns, useJudge)
	if err := s.store.UpsertQuality(ctx, q); err != nil {
		return model.CallQuality{}, fmt.Errorf("store quality %s: %w", callID, err)
	}
	s.metrics.ObserveQuality(m.Variant, q.Overall)
	s.logger.Info("call scored",
		zap.String("call_id", callID), zap.String("variant", m.Variant),
		zap.Float64("overall", q.Overall), zap.String("tier", q.Tier), zap.Bool("judged", q.Judged))
	return q, nil
}

// AnalyzePending scores up to limit calls that have no judged score
// yet.  It keeps going past individual failures and returns how many
// calls were scored along with the first error seen.
func (s *Service) AnalyzePending(ctx context.Context, limit int) (int, error) {
	if !s.scorer.CanJudge() {
		return 0, ErrNoJudge
	}
	ids, err := s.store.ListPendingJudgement(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list pending calls: %w", err)
	}
	var firstErr error
	scored := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return scored, err
		}
		if _, err := s.Analyze(ctx, id, true); err != nil {
			s.logger.Warn("rescoring call failed", zap.String("call_id", id), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		scored++
	}
	return scored, firstErr
}
