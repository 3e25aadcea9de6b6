package quality

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/restaurant-phone-agent/internal/model"
)

// stubJudge returns fixed ratings per criteria name.
type stubJudge struct {
	mu      sync.Mutex
	ratings map[string]float64
	err     error
	calls   int
}

func (j *stubJudge) Rate(ctx context.Context, transcript string, c Criteria) (float64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls++
	if j.err != nil {
		return 0, j.err
	}
	return j.ratings[c.Name], nil
}

func bookedCall() (model.CallMetrics, []model.ConversationTurn) {
	m := model.CallMetrics{
		CallID: "CA100", Variant: "v2_friendly", UserTurns: 4, DurationSeconds: 95,
		LLMLatencyMs: 2400, BookingCompleted: true, IntentFulfilled: true,
	}
	turns := []model.ConversationTurn{
		agentTurn("Thanks for calling Luigi's, how can I help?"),
		userTurn("A table for four on Friday at seven"),
		agentTurn("Friday at 19:00 for four, under what name?"),
		userTurn("Ragi"),
		agentTurn("You're all set, table 3."),
		userTurn("Perfect, thanks"),
	}
	return m, turns
}

func TestScoreUsesJudgeRatings(t *testing.T) {
	judge := &stubJudge{ratings: map[string]float64{"NATURALNESS": 80, "PROFESSIONALISM": 85}}
	m, turns := bookedCall()

	q := NewScorer(judge, nil).Score(context.Background(), m, turns, true)

	assert.Equal(t, 2, judge.calls)
	assert.True(t, q.Judged)
	assert.Equal(t, 80.0, q.Naturalness)
	assert.Equal(t, 85.0, q.Professionalism)
	assert.Equal(t, 100.0, q.Efficiency)
	assert.Equal(t, 100.0, q.Accuracy)
	assert.Equal(t, 100.0, q.Helpfulness)
	assert.InDelta(t, 95.5, q.Overall, 1e-9)
	assert.Equal(t, "Excellent", q.Tier)
	assert.False(t, q.Frustrated)
}

func TestScoreWithoutJudgeDefaultsSubjectiveDimensions(t *testing.T) {
	judge := &stubJudge{ratings: map[string]float64{"NATURALNESS": 10}}
	m, turns := bookedCall()

	q := NewScorer(judge, nil).Score(context.Background(), m, turns, false)

	assert.Zero(t, judge.calls)
	assert.False(t, q.Judged)
	assert.Equal(t, DefaultSubjectiveScore, q.Naturalness)
	assert.Equal(t, DefaultSubjectiveScore, q.Professionalism)

	q = NewScorer(nil, nil).Score(context.Background(), m, turns, true)
	assert.False(t, q.Judged)
	assert.Equal(t, DefaultSubjectiveScore, q.Naturalness)
}

func TestScoreEmptyTranscriptSkipsJudge(t *testing.T) {
	judge := &stubJudge{ratings: map[string]float64{"NATURALNESS": 10, "PROFESSIONALISM": 10}}

	q := NewScorer(judge, nil).Score(context.Background(), model.CallMetrics{CallID: "CA1", DurationSeconds: 12}, nil, true)

	assert.Zero(t, judge.calls)
	assert.Equal(t, DefaultSubjectiveScore, q.Naturalness)
	assert.Equal(t, 75.0, q.Accuracy)
	assert.Equal(t, 20.0, q.Helpfulness)
}

func TestScoreJudgeFailureFallsBackAndLogs(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	judge := &stubJudge{err: errors.New("overloaded")}
	m, turns := bookedCall()

	q := NewScorer(judge, zap.New(core)).Score(context.Background(), m, turns, true)

	assert.False(t, q.Judged)
	assert.Equal(t, DefaultSubjectiveScore, q.Naturalness)
	assert.Equal(t, DefaultSubjectiveScore, q.Professionalism)
	require.Equal(t, 2, logs.FilterMessage("quality judge unavailable, using default").Len())
	assert.Equal(t, "CA100", logs.All()[0].ContextMap()["call_id"])
}

func TestScoreClampsJudgeOutput(t *testing.T) {
	judge := &stubJudge{ratings: map[string]float64{"NATURALNESS": 140, "PROFESSIONALISM": -5}}
	m, turns := bookedCall()

	q := NewScorer(judge, nil).Score(context.Background(), m, turns, true)

	assert.Equal(t, 100.0, q.Naturalness)
	assert.Equal(t, 0.0, q.Professionalism)
}
