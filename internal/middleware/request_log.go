package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-Id"

// RequestLogger assigns every request an id (reusing X-Request-Id when the
// client sent one) and logs method, path, status and duration once the
// handler returns.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			c.Set(ctxRequestID, reqID)
			c.Response().Header().Set(requestIDHeader, reqID)

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			fields := []zap.Field{
				zap.String("request_id", reqID),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.String("route", c.Path()),
				zap.Int("status", status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			}
			switch {
			case status >= 500:
				logger.Error("request.complete", append(fields, zap.Error(err))...)
			case status >= 400:
				logger.Warn("request.complete", fields...)
			default:
				logger.Info("request.complete", fields...)
			}
			return nil
		}
	}
}
