package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iliyamo/restaurant-phone-agent/internal/model"
)

// Analyzer scores a stored call.
type Analyzer interface {
	Analyze(ctx context.Context, callID string, useJudge bool) (model.CallQuality, error)
}

// Rescorer re-scores finalized calls with the AI judge.
type Rescorer struct {
	analyzer Analyzer
	useJudge bool
}

// NewRescorer returns a Rescorer.  With useJudge false it only
// recomputes the objective dimensions.
func NewRescorer(a Analyzer, useJudge bool) *Rescorer {
	return &Rescorer{analyzer: a, useJudge: useJudge}
}

// Handle implements Handler.
func (r *Rescorer) Handle(ctx context.Context, body []byte) error {
	var ev CallFinalizedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.CallID == "" {
		return fmt.Errorf("event without call_id")
	}
	if _, err := r.analyzer.Analyze(ctx, ev.CallID, r.useJudge); err != nil {
		return fmt.Errorf("rescore %s: %w", ev.CallID, err)
	}
	return nil
}
