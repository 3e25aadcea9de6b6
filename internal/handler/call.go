package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-phone-agent/internal/agent"
	"github.com/iliyamo/restaurant-phone-agent/internal/call"
)

// Conversations produces the agent's side of a call.
type Conversations interface {
	Greet(conv *agent.Conversation) string
	Respond(ctx context.Context, conv *agent.Conversation, utterance string) string
}

// CallFinalizer stores and scores a finished call.
type CallFinalizer interface {
	Finalize(ctx context.Context, s *call.Session, callerHungUp bool) (call.Outcome, error)
}

// CallHandler is the telephony collaborator's entry point: it starts
// calls, relays caller speech to the agent and ends calls.
type CallHandler struct {
	Agent     Conversations
	Finalizer CallFinalizer
	Calls     *call.Registry[*agent.Conversation]
	Variants  []string
	Logger    *zap.Logger
	Now       func() time.Time
}

// NewCallHandler wires a CallHandler over a fresh call registry.
func NewCallHandler(a Conversations, f CallFinalizer, variants []string, logger *zap.Logger) *CallHandler {
	if a == nil || f == nil {
		panic("nil dependency passed to NewCallHandler")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CallHandler{
		Agent: a, Finalizer: f, Calls: call.NewRegistry[*agent.Conversation](),
		Variants: variants, Logger: logger, Now: time.Now,
	}
}

type startCallRequest struct {
	CallID      string `json:"call_id" validate:"omitempty,max=64"`
	CallerPhone string `json:"caller_phone" validate:"max=32"`
}

type utteranceRequest struct {
	Text string `json:"text" validate:"required"`
}

type endCallRequest struct {
	CallerHungUp bool `json:"caller_hung_up"`
}

// Start handles POST /v1/calls.  A missing call_id gets a generated one.
// The variant is derived from the call id so a retried start lands on
// the same variant.
func (h *CallHandler) Start(c echo.Context) error {
	var req startCallRequest
	if err := bindValid(c, &req); err != nil {
		return failure(c, err)
	}
	id := strings.TrimSpace(req.CallID)
	if id == "" {
		id = uuid.NewString()
	}
	variant := call.AssignVariant(id, h.Variants)
	conv := agent.NewConversation(call.NewSession(id, strings.TrimSpace(req.CallerPhone), variant, h.Now))
	if err := h.Calls.Start(id, conv); err != nil {
		if errors.Is(err, call.ErrCallExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "call already in progress"})
		}
		return failure(c, err)
	}
	greeting := h.Agent.Greet(conv)
	h.Logger.Info("call started", zap.String("call_id", id), zap.String("variant", variant), zap.Int("live_calls", h.Calls.Len()))
	return c.JSON(http.StatusCreated, echo.Map{"call_id": id, "variant": variant, "greeting": greeting})
}

// Utterance handles POST /v1/calls/:call_id/utterances.
func (h *CallHandler) Utterance(c echo.Context) error {
	conv, ok := h.Calls.Get(c.Param("call_id"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "call not found"})
	}
	var req utteranceRequest
	if err := bindValid(c, &req); err != nil {
		return failure(c, err)
	}
	reply := h.Agent.Respond(c.Request().Context(), conv, req.Text)
	return c.JSON(http.StatusOK, echo.Map{"reply": reply})
}

// End handles POST /v1/calls/:call_id/end.  The session leaves the
// registry while it is stored, so a concurrent end gets 404.  When the
// call cannot be stored it goes back into the registry and the end can
// be retried.
func (h *CallHandler) End(c echo.Context) error {
	var req endCallRequest
	if err := bindValid(c, &req); err != nil {
		return failure(c, err)
	}
	id := c.Param("call_id")
	conv, ok := h.Calls.Remove(id)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "call not found"})
	}
	out, err := h.Finalizer.Finalize(c.Request().Context(), conv.Session, req.CallerHungUp)
	if err != nil {
		h.Logger.Error("finalize call failed", zap.String("call_id", id), zap.Error(err))
		if err := h.Calls.Start(id, conv); err != nil {
			h.Logger.Warn("call not restored after failed end", zap.String("call_id", id), zap.Error(err))
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store call"})
	}
	body := echo.Map{
		"call_id":           id,
		"variant":           out.Metrics.Variant,
		"booking_completed": out.Metrics.BookingCompleted,
		"hung_up_early":     out.Metrics.HungUpEarly,
		"duration_seconds":  out.Metrics.DurationSeconds,
	}
	if out.Quality != nil {
		body["overall"] = out.Quality.Overall
		body["tier"] = out.Quality.Tier
	}
	return c.JSON(http.StatusOK, body)
}
