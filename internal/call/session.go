// Package call holds the in-memory state of live phone calls and hands
// it to durable storage once the call ends.
package call

import (
	"errors"
	"sync"
	"time"

	"github.com/iliyamo/restaurant-phone-agent/internal/model"
	"github.com/iliyamo/restaurant-phone-agent/internal/phrase"
)

// ErrFinalized is returned when a session that was already stored is
// finalized again.
var ErrFinalized = errors.New("call already finalized")

// ClarificationPhrases mark a caller turn asking the agent to repeat or
// rephrase.
var ClarificationPhrases = []string{
	"sorry",
	"pardon",
	"what",
	"repeat",
	"didn't catch",
	"can you say",
	"speak up",
	"come again",
}

// Session accumulates the metrics and transcript of one call.  It is
// owned by that call alone and is safe for concurrent use by the
// handlers serving it.
type Session struct {
	mu      sync.Mutex
	metrics model.CallMetrics
	turns   []model.ConversationTurn
	closed  bool
	stored  bool
	now     func() time.Time
}

// NewSession starts a session at now.
func NewSession(callID, callerPhone, variant string, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{
		metrics: model.CallMetrics{
			CallID:      callID,
			CallerPhone: callerPhone,
			Variant:     variant,
			StartedAt:   now().UTC(),
		},
		now: now,
	}
}

// CallID returns the id the session was started with.
func (s *Session) CallID() string { return s.metrics.CallID }

// CallerPhone returns the caller's number, possibly empty.
func (s *Session) CallerPhone() string { return s.metrics.CallerPhone }

// Variant returns the conversational variant assigned to the call.
func (s *Session) Variant() string { return s.metrics.Variant }

// AddUserTurn appends a caller utterance and counts it as a
// clarification request when it contains one of ClarificationPhrases.
func (s *Session) AddUserTurn(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendTurn(model.SpeakerUser, text)
	s.metrics.UserTurns++
	if phrase.ContainsAny(text, ClarificationPhrases) {
		s.metrics.Clarifications++
	}
}

// AddAgentTurn appends an agent reply.
func (s *Session) AddAgentTurn(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendTurn(model.SpeakerAgent, text)
	s.metrics.AgentTurns++
}

func (s *Session) appendTurn(speaker model.Speaker, text string) {
	s.turns = append(s.turns, model.ConversationTurn{
		CallID:  s.metrics.CallID,
		Seq:     len(s.turns),
		Speaker: speaker,
		Text:    text,
		At:      s.now().UTC(),
	})
	s.metrics.TotalTurns++
}

// RecordToolCall counts one tool execution.
func (s *Session) RecordToolCall() {
	s.mu.Lock()
	s.metrics.ToolCalls++
	s.mu.Unlock()
}

// RecordLLMLatency adds d to the total time spent waiting on the model.
func (s *Session) RecordLLMLatency(d time.Duration) {
	s.mu.Lock()
	s.metrics.LLMLatencyMs += d.Milliseconds()
	s.mu.Unlock()
}

// RecordAPIError counts a failed model request.
func (s *Session) RecordAPIError() {
	s.mu.Lock()
	s.metrics.APIErrors++
	s.mu.Unlock()
}

// MarkBooked records the reservation made during the call.  A booking
// always fulfils the caller's intent.
func (s *Session) MarkBooked(reservationID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.BookingCompleted = true
	s.metrics.IntentFulfilled = true
	id := reservationID
	s.metrics.ReservationID = &id
}

// MarkIntentFulfilled records that the caller got what they called for
// without a new booking, such as a cancellation.
func (s *Session) MarkIntentFulfilled() {
	s.mu.Lock()
	s.metrics.IntentFulfilled = true
	s.mu.Unlock()
}

// Snapshot copies the current metrics and transcript.
func (s *Session) Snapshot() (model.CallMetrics, []model.ConversationTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Finalize closes the session and returns its final metrics and
// transcript.  A caller who hangs up before booking or otherwise
// getting what they called for is marked as hung up early.  The end of
// the call is fixed by the first Finalize; later calls return the same
// record until MarkStored, after which they fail with ErrFinalized.
func (s *Session) Finalize(callerHungUp bool) (model.CallMetrics, []model.ConversationTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stored {
		return model.CallMetrics{}, nil, ErrFinalized
	}
	if !s.closed {
		s.closed = true
		end := s.now().UTC()
		s.metrics.EndedAt = end
		s.metrics.DurationSeconds = end.Sub(s.metrics.StartedAt).Seconds()
		s.metrics.HungUpEarly = callerHungUp && !s.metrics.BookingCompleted && !s.metrics.IntentFulfilled
	}
	m, turns := s.copyLocked()
	return m, turns, nil
}

// MarkStored records that the finalized call reached durable storage.
func (s *Session) MarkStored() {
	s.mu.Lock()
	s.stored = true
	s.mu.Unlock()
}

func (s *Session) copyLocked() (model.CallMetrics, []model.ConversationTurn) {
	m := s.metrics
	if m.ReservationID != nil {
		id := *m.ReservationID
		m.ReservationID = &id
	}
	turns := make([]model.ConversationTurn, len(s.turns))
	copy(turns, s.turns)
	return m, turns
}
