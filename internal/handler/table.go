package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-phone-agent/internal/model"
	"github.com/iliyamo/restaurant-phone-agent/internal/repository"
)

// Tables manages the table inventory.
type Tables interface {
	ListAll(ctx context.Context) ([]model.Table, error)
	SetActive(ctx context.Context, id uint64, active bool) (model.Table, error)
}

// TableHandler lets staff retire and reactivate tables.  Retiring a table
// leaves its existing reservations in place; it is only skipped by new
// allocations.
type TableHandler struct {
	Repo Tables
}

// NewTableHandler panics when repo is nil.
func NewTableHandler(repo Tables) *TableHandler {
	if repo == nil {
		panic("nil repository passed to NewTableHandler")
	}
	return &TableHandler{Repo: repo}
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// List handles GET /v1/admin/tables.
func (h *TableHandler) List(c echo.Context) error {
	tables, err := h.Repo.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tables": tables})
}

// SetActive handles PATCH /v1/admin/tables/:id {"active": bool}.
func (h *TableHandler) SetActive(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var req setActiveRequest
	if err := bindValid(c, &req); err != nil {
		return failure(c, err)
	}
	if req.Active == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "active is required"})
	}
	t, err := h.Repo.SetActive(c.Request().Context(), id, *req.Active)
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, t)
}
