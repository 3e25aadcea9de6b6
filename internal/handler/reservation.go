package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-phone-agent/internal/booking"
	"github.com/iliyamo/restaurant-phone-agent/internal/model"
)

// Reservations is the reservation engine as the HTTP layer uses it.
type Reservations interface {
	CheckAvailability(ctx context.Context, partySize int, date, tm string) (booking.Availability, error)
	Create(ctx context.Context, req booking.CreateRequest) (booking.CreateResult, error)
	Cancel(ctx context.Context, req booking.CancelRequest) (booking.CancelResult, error)
	Complete(ctx context.Context, id uint64) (model.Reservation, error)
	Lookup(ctx context.Context, date, name string) ([]booking.Match, error)
}

// ReservationHandler exposes the reservation engine over HTTP.  Bodies
// and query strings are validated before they reach the engine; the
// engine's failures are mapped by kind.
type ReservationHandler struct {
	Service Reservations
}

// NewReservationHandler panics when svc is nil.
func NewReservationHandler(svc Reservations) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Service: svc}
}

type availabilityQuery struct {
	PartySize int    `query:"party_size" json:"party_size" validate:"required,min=1"`
	Date      string `query:"date" json:"date" validate:"required,datetime=2006-01-02"`
	Time      string `query:"time" json:"time" validate:"required,datetime=15:04"`
}

type createReservationRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	PartySize int    `json:"party_size" validate:"required,min=1"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Time      string `json:"time" validate:"required,datetime=15:04"`
	Phone     string `json:"phone" validate:"max=32"`
	CallID    string `json:"call_id" validate:"max=64"`
}

type lookupQuery struct {
	Date string `query:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
	Name string `query:"name" json:"name"`
}

type cancelByNameRequest struct {
	Name string `json:"name" validate:"required"`
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// Availability handles GET /v1/availability.
func (h *ReservationHandler) Availability(c echo.Context) error {
	var q availabilityQuery
	if err := bindValid(c, &q); err != nil {
		return failure(c, err)
	}
	avail, err := h.Service.CheckAvailability(c.Request().Context(), q.PartySize, q.Date, q.Time)
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(http.StatusOK, avail)
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationRequest
	if err := bindValid(c, &req); err != nil {
		return failure(c, err)
	}
	res, err := h.Service.Create(c.Request().Context(), booking.CreateRequest{
		Name: req.Name, PartySize: req.PartySize, Date: req.Date, Time: req.Time,
		Phone: req.Phone, CallID: req.CallID,
	})
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// List handles GET /v1/reservations?date&name.
func (h *ReservationHandler) List(c echo.Context) error {
	var q lookupQuery
	if err := bindValid(c, &q); err != nil {
		return failure(c, err)
	}
	matches, err := h.Service.Lookup(c.Request().Context(), q.Date, q.Name)
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(matches), "reservations": matches})
}

// Cancel handles DELETE /v1/reservations/:id.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Service.Cancel(c.Request().Context(), booking.CancelRequest{ReservationID: id})
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// CancelByName handles POST /v1/reservations/cancel.  The best fuzzy
// match wins; a later reservation breaks ties.
func (h *ReservationHandler) CancelByName(c echo.Context) error {
	var req cancelByNameRequest
	if err := bindValid(c, &req); err != nil {
		return failure(c, err)
	}
	res, err := h.Service.Cancel(c.Request().Context(), booking.CancelRequest{Name: req.Name, Date: req.Date})
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Complete handles POST /v1/admin/reservations/:id/complete.
func (h *ReservationHandler) Complete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Service.Complete(c.Request().Context(), id)
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
