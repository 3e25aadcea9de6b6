// Package quality scores finished calls on five dimensions and keeps the
// latest score per call.
package quality

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/restaurant-phone-agent/internal/model"
)

// Scorer turns a call's metrics and transcript into a CallQuality.  A
// nil judge leaves the subjective dimensions at their default.
type Scorer struct {
	judge  Judge
	logger *zap.Logger
	now    func() time.Time
}

// NewScorer returns a Scorer.  judge may be nil.
func NewScorer(judge Judge, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{judge: judge, logger: logger, now: time.Now}
}

// CanJudge reports whether a judge is attached.
func (s *Scorer) CanJudge() bool { return s.judge != nil }

// Score computes all dimensions.  The judge is consulted only when
// useJudge is set and the transcript is not empty; each judged
// dimension falls back to 75 on its own when the judge fails.
func (s *Scorer) Score(ctx context.Context, m model.CallMetrics, turns []model.ConversationTurn, useJudge bool) model.CallQuality {
	scores := Scores{
		Efficiency:      Efficiency(m),
		Accuracy:        Accuracy(turns),
		Helpfulness:     Helpfulness(m),
		Naturalness:     DefaultSubjectiveScore,
		Professionalism: DefaultSubjectiveScore,
	}
	judged := false
	if useJudge && s.judge != nil && len(turns) > 0 {
		scores.Naturalness, scores.Professionalism, judged = s.rate(ctx, m.CallID, Transcript(turns))
	}

	overall := Composite(scores)
	return model.CallQuality{
		CallID:          m.CallID,
		Efficiency:      scores.Efficiency,
		Accuracy:        scores.Accuracy,
		Helpfulness:     scores.Helpfulness,
		Naturalness:     scores.Naturalness,
		Professionalism: scores.Professionalism,
		Overall:         overall,
		Tier:            TierFor(overall),
		Frustrated:      Frustrated(m, turns),
		Judged:          judged,
		AnalyzedAt:      s.now().UTC(),
	}
}

// rate asks the judge for both subjective dimensions concurrently.
// judged is true when at least one rating came back.
func (s *Scorer) rate(ctx context.Context, callID, transcript string) (naturalness, professionalism float64, judged bool) {
	var natOK, profOK bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		naturalness, natOK = s.rateOne(gctx, callID, transcript, Naturalness)
		return nil
	})
	g.Go(func() error {
		professionalism, profOK = s.rateOne(gctx, callID, transcript, Professionalism)
		return nil
	})
	_ = g.Wait()
	return naturalness, professionalism, natOK || profOK
}

func (s *Scorer) rateOne(ctx context.Context, callID, transcript string, c Criteria) (float64, bool) {
	v, err := s.judge.Rate(ctx, transcript, c)
	if err != nil {
		s.logger.Warn("quality judge unavailable, using default",
			zap.String("call_id", callID), zap.String("criteria", c.Name), zap.Error(err))
		return DefaultSubjectiveScore, false
	}
	return clamp(v), true
}
