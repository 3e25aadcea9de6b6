package model

import "time"

// CallMetrics holds the countable facts about one phone call.  A
// record is accumulated in memory while the call is live and written
// once when the call ends.
type CallMetrics struct {
	CallID           string     `json:"call_id"`
	CallerPhone      string     `json:"caller_phone"`
	Variant          string     `json:"variant"`
	StartedAt        time.Time  `json:"started_at"`
	EndedAt          time.Time  `json:"ended_at"`
	DurationSeconds  float64    `json:"duration_seconds"`
	TotalTurns       int        `json:"total_turns"`
	UserTurns        int        `json:"user_turns"`
	AgentTurns       int        `json:"agent_turns"`
	Clarifications   int        `json:"clarifications"`
	ToolCalls        int        `json:"tool_calls"`
	LLMLatencyMs     int64      `json:"llm_latency_ms"`
	APIErrors        int        `json:"api_errors"`
	BookingCompleted bool       `json:"booking_completed"`
	IntentFulfilled  bool       `json:"intent_fulfilled"`
	HungUpEarly      bool       `json:"hung_up_early"`
	ReservationID    *uint64    `json:"reservation_id,omitempty"`
}
