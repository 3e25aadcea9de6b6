package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-phone-agent/internal/experiment"
	"github.com/iliyamo/restaurant-phone-agent/internal/model"
	"github.com/iliyamo/restaurant-phone-agent/internal/quality"
	"github.com/iliyamo/restaurant-phone-agent/internal/repository"
)

// QualityReader reads stored scores.
type QualityReader interface {
	GetQuality(ctx context.Context, callID string) (model.CallQuality, error)
	ListScoredCalls(ctx context.Context) ([]model.ScoredCall, error)
}

// CallScorer scores a stored call.
type CallScorer interface {
	Analyze(ctx context.Context, callID string, useJudge bool) (model.CallQuality, error)
}

// AnalyticsHandler serves call quality and the experiment report to staff.
type AnalyticsHandler struct {
	Store  QualityReader
	Scorer CallScorer
	// Invalidate runs after a call is re-scored; it drops cached reports.
	Invalidate func(ctx context.Context) error
	Logger     *zap.Logger
}

// NewAnalyticsHandler panics when store or scorer is nil.
func NewAnalyticsHandler(store QualityReader, scorer CallScorer, logger *zap.Logger) *AnalyticsHandler {
	if store == nil || scorer == nil {
		panic("nil dependency passed to NewAnalyticsHandler")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsHandler{Store: store, Scorer: scorer, Logger: logger}
}

// Quality handles GET /v1/analytics/calls/:call_id/quality.
func (h *AnalyticsHandler) Quality(c echo.Context) error {
	q, err := h.Store.GetQuality(c.Request().Context(), c.Param("call_id"))
	if err != nil {
		if errors.Is(err, repository.ErrQualityNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "call has not been scored"})
		}
		h.Logger.Error("load quality failed", zap.String("call_id", c.Param("call_id")), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, q)
}

// Score handles POST /v1/analytics/calls/:call_id/score?judge=true.
// Scoring again replaces the stored row.
func (h *AnalyticsHandler) Score(c echo.Context) error {
	useJudge := false
	if v := c.QueryParam("judge"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "judge must be true or false"})
		}
		useJudge = b
	}
	id := c.Param("call_id")
	q, err := h.Scorer.Analyze(c.Request().Context(), id, useJudge)
	if err != nil {
		if errors.Is(err, quality.ErrCallNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "call not found"})
		}
		h.Logger.Error("score call failed", zap.String("call_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not score call"})
	}
	if h.Invalidate != nil {
		if err := h.Invalidate(c.Request().Context()); err != nil {
			h.Logger.Warn("cache purge failed", zap.Error(err))
		}
	}
	return c.JSON(http.StatusOK, q)
}

// Experiments handles GET /v1/analytics/experiments.
func (h *AnalyticsHandler) Experiments(c echo.Context) error {
	calls, err := h.Store.ListScoredCalls(c.Request().Context())
	if err != nil {
		h.Logger.Error("list scored calls failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, experiment.Analyze(calls))
}
