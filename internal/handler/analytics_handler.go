package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	middlewarepkg "github.com/xavisolis/nutmeglocal/internal/middleware"
	"github.com/xavisolis/nutmeglocal/internal/service"
)

// AnalyticsHandler serves the owner dashboard.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs an AnalyticsHandler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Summary handles GET /businesses/:id/analytics.
func (h *AnalyticsHandler) Summary(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid business id")
	}

	summary, err := h.analytics.Summary(c.Request().Context(), middlewarepkg.IdentityFromContext(c), id)
	if err != nil {
		return respondError(c, err, "unable to load analytics")
	}
	return Success(c, http.StatusOK, "analytics fetched", summary)
}
