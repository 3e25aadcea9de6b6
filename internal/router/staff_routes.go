package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-phone-agent/internal/handler"
	"github.com/iliyamo/restaurant-phone-agent/internal/middleware"
)

// Staff bundles the handlers behind the staff JWT.
type Staff struct {
	Analytics    *handler.AnalyticsHandler
	Tables       *handler.TableHandler
	Reservations *handler.ReservationHandler
}

// RegisterStaff registers STAFF-scoped endpoints under /v1.  All routes
// require a valid JWT with the STAFF role.  cache, when non-nil, wraps the
// read-only analytics routes.
func RegisterStaff(e *echo.Echo, s Staff, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleStaff),
	)

	// ---- Analytics ----
	var reads []echo.MiddlewareFunc
	if cache != nil {
		reads = append(reads, cache)
	}
	g.GET("/analytics/calls/:call_id/quality", s.Analytics.Quality, reads...)
	g.GET("/analytics/experiments", s.Analytics.Experiments, reads...)
	g.POST("/analytics/calls/:call_id/score", s.Analytics.Score)

	// ---- Admin ----
	g.GET("/admin/tables", s.Tables.List)
	g.PATCH("/admin/tables/:id", s.Tables.SetActive)
	g.POST("/admin/reservations/:id/complete", s.Reservations.Complete)
}
