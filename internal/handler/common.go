package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-phone-agent/internal/booking"
)

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// statusFor maps a failure kind to its HTTP status.
func statusFor(kind booking.Kind) int {
	switch kind {
	case booking.KindValidation:
		return http.StatusBadRequest
	case booking.KindCapacity:
		return http.StatusUnprocessableEntity
	case booking.KindSlotConflict:
		return http.StatusConflict
	case booking.KindNotFound:
		return http.StatusNotFound
	case booking.KindCollaborator:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// failure writes err as a JSON error body.  Failures from the reservation
// engine keep their kind and alternatives; anything else is a 500.
func failure(c echo.Context, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return c.JSON(he.Code, echo.Map{"error": he.Message})
	}
	f, ok := booking.AsFailure(err)
	if !ok {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	body := echo.Map{"error": f.Message, "kind": f.Kind}
	if len(f.Alternatives) > 0 {
		body["alternatives"] = f.Alternatives
	}
	return c.JSON(statusFor(f.Kind), body)
}

// bindValid binds the request into dst and runs the registered validator.
func bindValid(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return &booking.Failure{Kind: booking.KindValidation, Message: "invalid request body", Err: err}
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(dst)
}
