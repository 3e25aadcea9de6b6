package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-phone-agent/internal/handler"
)

// RegisterCalls registers the telephony endpoints under /v1/calls.
// limit throttles utterances per call; pass nil to disable it.
func RegisterCalls(e *echo.Echo, h *handler.CallHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/calls")
	g.POST("", h.Start)
	if limit != nil {
		g.POST("/:call_id/utterances", h.Utterance, limit)
	} else {
		g.POST("/:call_id/utterances", h.Utterance)
	}
	g.POST("/:call_id/end", h.End)
}
