package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xavisolis/nutmeglocal/internal/dto"
	"github.com/xavisolis/nutmeglocal/internal/service"
)

// SignupsHandler exposes the early access waitlist.
type SignupsHandler struct {
	signups *service.SignupService
}

// NewSignupsHandler constructs a SignupsHandler.
func NewSignupsHandler(signups *service.SignupService) *SignupsHandler {
	return &SignupsHandler{signups: signups}
}

// Signup handles POST /early-access.
func (h *SignupsHandler) Signup(c echo.Context) error {
	var req dto.SignupRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	signup, err := h.signups.Signup(c.Request().Context(), service.SignupInput{
		Email:        req.Email,
		Type:         req.Type,
		BusinessName: req.BusinessName,
	})
	if err != nil {
		return respondError(c, err, "unable to sign up")
	}
	return Success(c, http.StatusCreated, "signup received", signup)
}

// List handles GET /admin/early-access.
func (h *SignupsHandler) List(c echo.Context) error {
	signups, err := h.signups.List(c.Request().Context())
	if err != nil {
		return respondError(c, err, "unable to fetch signups")
	}
	return Success(c, http.StatusOK, "signups fetched", signups)
}
