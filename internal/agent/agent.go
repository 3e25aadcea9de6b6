// Package agent runs the phone conversation: it asks the language model
// for the next step, executes the reservation tools it requests and
// returns plain speech for the caller.
package agent

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-phone-agent/internal/call"
	"github.com/iliyamo/restaurant-phone-agent/internal/metrics"
)

// DefaultHopLimit bounds the model requests made for one utterance.
const DefaultHopLimit = 5

// Fixed replies used when the model cannot produce one.
const (
	ApologyReply  = "I'm sorry, I'm having trouble right now. Could you say that again?"
	HopLimitReply = "Sorry, that is taking me longer than it should. Could you tell me again what you'd like to do?"
	EmptyReply    = "Sorry, could you say that again?"
)

// Conversation is the per-call state the agent works on: the session
// recording metrics and transcript, plus the model history.  Utterances
// of one call are handled one at a time.
type Conversation struct {
	mu       sync.Mutex
	Session  *call.Session
	Messages []Message
}

// NewConversation starts an empty history for sess.
func NewConversation(sess *call.Session) *Conversation {
	return &Conversation{Session: sess}
}

// Settings configures an Agent.
type Settings struct {
	Restaurant string
	HopLimit   int
}

// Agent drives conversations for every live call.
type Agent struct {
	model    Model
	tools    *Tools
	settings Settings
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// New wires an Agent.  m may be nil.
func New(model Model, tools *Tools, settings Settings, m *metrics.Metrics, logger *zap.Logger) *Agent {
	if settings.HopLimit <= 0 {
		settings.HopLimit = DefaultHopLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{model: model, tools: tools, settings: settings, metrics: m, logger: logger, now: time.Now}
}

// Greet records and returns the opening line of the call.
func (a *Agent) Greet(conv *Conversation) string {
	conv.mu.Lock()
	defer conv.mu.Unlock()
	text := Greeting(a.settings.Restaurant, conv.Session.Variant())
	a.say(conv, text)
	return text
}

// Respond handles one caller utterance and returns the reply to speak.
// Model failures never end the call: the caller hears an apology and
// the error is counted on the session.
func (a *Agent) Respond(ctx context.Context, conv *Conversation, utterance string) string {
	conv.mu.Lock()
	defer conv.mu.Unlock()

	text := strings.TrimSpace(utterance)
	sess := conv.Session
	sess.AddUserTurn(text)
	a.appendUser(conv, textBlock(text))

	system := SystemPrompt(a.settings.Restaurant, sess.Variant(), a.now())
	for hop := 0; hop < a.settings.HopLimit; hop++ {
		start := a.now()
		reply, err := a.model.Next(ctx, system, conv.Messages, a.tools.Specs())
		elapsed := a.now().Sub(start)
		sess.RecordLLMLatency(elapsed)
		a.metrics.ObserveLLM("conversation", elapsed)
		if err != nil {
			sess.RecordAPIError()
			a.logger.Warn("model request failed",
				zap.String("call_id", sess.CallID()), zap.Int("hop", hop), zap.Error(err))
			return a.say(conv, ApologyReply)
		}

		if len(reply.ToolCalls) == 0 {
			spoken := Speakable(reply.Text)
			if spoken == "" {
				spoken = EmptyReply
			}
			return a.say(conv, spoken)
		}

		conv.Messages = append(conv.Messages, Message{Role: RoleAssistant, Content: assistantBlocks(reply)})
		results := make([]Block, 0, len(reply.ToolCalls))
		for _, tc := range reply.ToolCalls {
			out := a.tools.Execute(ctx, sess, tc.Name, tc.Input)
			results = append(results, Block{
				Type:      BlockToolResult,
				ToolUseID: tc.ID,
				Content:   out.Content,
				IsError:   out.IsError,
			})
		}
		a.appendUser(conv, results...)
	}

	a.logger.Warn("tool hop limit reached",
		zap.String("call_id", sess.CallID()), zap.Int("limit", a.settings.HopLimit))
	return a.say(conv, HopLimitReply)
}

// appendUser adds blocks to the history as a user message, merging into
// the last message when it is already from the user so roles keep
// alternating after a failed request.
func (a *Agent) appendUser(conv *Conversation, blocks ...Block) {
	if n := len(conv.Messages); n > 0 && conv.Messages[n-1].Role == RoleUser {
		conv.Messages[n-1].Content = append(conv.Messages[n-1].Content, blocks...)
		return
	}
	conv.Messages = append(conv.Messages, Message{Role: RoleUser, Content: blocks})
}

func (a *Agent) say(conv *Conversation, text string) string {
	conv.Session.AddAgentTurn(text)
	if len(conv.Messages) > 0 {
		conv.Messages = append(conv.Messages, Message{Role: RoleAssistant, Content: []Block{textBlock(text)}})
	}
	return text
}
