package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xavisolis/nutmeglocal/internal/dto"
	middlewarepkg "github.com/xavisolis/nutmeglocal/internal/middleware"
	"github.com/xavisolis/nutmeglocal/internal/service"
)

// ClaimsHandler exposes the ownership claim workflow.
type ClaimsHandler struct {
	claims *service.ClaimsService
}

// NewClaimsHandler constructs a ClaimsHandler.
func NewClaimsHandler(claims *service.ClaimsService) *ClaimsHandler {
	return &ClaimsHandler{claims: claims}
}

// Submit handles POST /claims.
func (h *ClaimsHandler) Submit(c echo.Context) error {
	var req dto.ClaimRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	claim, err := h.claims.Submit(c.Request().Context(), middlewarepkg.IdentityFromContext(c), service.ClaimInput{
		BusinessID: req.BusinessID,
		Proof:      req.Proof,
	})
	if err != nil {
		return respondError(c, err, "unable to submit claim")
	}
	return Success(c, http.StatusCreated, "claim submitted", claim)
}

// Mine handles GET /me/claims.
func (h *ClaimsHandler) Mine(c echo.Context) error {
	claims, err := h.claims.Mine(c.Request().Context(), middlewarepkg.IdentityFromContext(c))
	if err != nil {
		return respondError(c, err, "unable to fetch claims")
	}
	return Success(c, http.StatusOK, "claims fetched", claims)
}

// List handles GET /admin/claims with an optional status filter.
func (h *ClaimsHandler) List(c echo.Context) error {
	claims, err := h.claims.List(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return respondError(c, err, "unable to fetch claims")
	}
	return Success(c, http.StatusOK, "claims fetched", claims)
}

// Decide handles POST /admin/claims/:id/decision.
func (h *ClaimsHandler) Decide(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid claim id")
	}
	var req dto.ClaimDecisionRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	claim, err := h.claims.Decide(c.Request().Context(), middlewarepkg.IdentityFromContext(c), id, req.Action)
	if err != nil {
		return respondError(c, err, "unable to review claim")
	}
	return Success(c, http.StatusOK, "claim "+string(claim.Status), claim)
}
