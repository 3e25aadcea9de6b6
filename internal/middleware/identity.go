package middleware

// identity.go holds the context keys shared by the middleware and the
// helpers that read them back.

import (
	"github.com/labstack/echo/v4"
)

const (
	ctxUserID    = "user_id"
	ctxRole      = "role"
	ctxRequestID = "request_id"
)

// UserID returns the authenticated subject or "anon".
func UserID(c echo.Context) string {
	if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}

// RequestIDOf returns the id assigned by RequestLogger, or "".
func RequestIDOf(c echo.Context) string {
	s, _ := c.Get(ctxRequestID).(string)
	return s
}
