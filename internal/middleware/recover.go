package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Recover turns a handler panic into a logged 500 so one bad request
// cannot take down the calls in flight.
func Recover(logger *zap.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic.recovered",
						zap.String("request_id", RequestIDOf(c)),
						zap.String("path", c.Request().URL.Path),
						zap.Error(fmt.Errorf("panic: %v", rec)),
						zap.Stack("stack"))
					err = c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
				}
			}()
			return next(c)
		}
	}
}
