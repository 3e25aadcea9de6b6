package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-phone-agent/internal/handler"
)

// RegisterReservations registers the public reservation endpoints used by
// the telephony collaborator and the front desk.  mws (typically the
// per-IP rate limiter) run on every route.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, mws ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mws...)
	g.GET("/availability", h.Availability)
	g.GET("/reservations", h.List)
	g.POST("/reservations", h.Create)
	// static segment wins over :id in echo's router
	g.POST("/reservations/cancel", h.CancelByName)
	g.DELETE("/reservations/:id", h.Cancel)
}
