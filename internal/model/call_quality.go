package model

import "time"

// CallQuality is the scored assessment of a finished call.  There is
// at most one row per call; scoring again replaces it.
//
// Fields:
//  Efficiency, Accuracy, Helpfulness – computed from metrics and transcript.
//  Naturalness, Professionalism      – rated by the AI judge (75 when unavailable).
//  Overall                           – weighted composite of the five dimensions.
//  Tier                              – Excellent, Great, Good, Fair or Poor.
//  Frustrated                        – caller showed frustration.
//  Judged                            – the AI judge produced the subjective scores.
//  AnalyzedAt                        – time of the last scoring run.
type CallQuality struct {
	CallID          string    `json:"call_id"`
	Efficiency      float64   `json:"efficiency"`
	Accuracy        float64   `json:"accuracy"`
	Helpfulness     float64   `json:"helpfulness"`
	Naturalness     float64   `json:"naturalness"`
	Professionalism float64   `json:"professionalism"`
	Overall         float64   `json:"overall"`
	Tier            string    `json:"tier"`
	Frustrated      bool      `json:"frustrated"`
	Judged          bool      `json:"judged"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
}

// ScoredCall joins a call's quality with the metrics the experiment
// report groups on.
type ScoredCall struct {
	CallID           string
	Variant          string
	BookingCompleted bool
	Quality          CallQuality
}
