package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	middlewarepkg "github.com/xavisolis/nutmeglocal/internal/middleware"
	"github.com/xavisolis/nutmeglocal/internal/service"
)

// respondError maps service errors to the response envelope. Unknown errors
// are logged and answered with fallback.
func respondError(c echo.Context, err error, fallback string) error {
	var (
		validationErr service.ValidationError
		csvErr        service.CSVValidationError
		duplicateErr  service.DuplicateClaimError
		pendingErr    service.TooManyPendingClaimsError
	)

	switch {
	case errors.As(err, &validationErr):
		return Error(c, http.StatusBadRequest, validationErr.Message)
	case errors.As(err, &csvErr):
		return Error(c, http.StatusBadRequest, csvErr.Message)
	case errors.As(err, &duplicateErr):
		return Error(c, http.StatusBadRequest, duplicateErr.Message)
	case errors.As(err, &pendingErr):
		return Error(c, http.StatusTooManyRequests, pendingErr.Error())
	case errors.Is(err, service.ErrInvalidEventKind), errors.Is(err, service.ErrInvalidDecision):
		return Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInvalidCredentials):
		return Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return Error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrBusinessNotFound),
		errors.Is(err, service.ErrClaimNotFound),
		errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrCategoryNotFound):
		return Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadySignedUp),
		errors.Is(err, service.ErrEmailAlreadyExists),
		errors.Is(err, service.ErrClaimAlreadyReviewed):
		return Error(c, http.StatusConflict, err.Error())
	default:
		log.Printf("component=http request_id=%s method=%s path=%s error=%v",
			middlewarepkg.RequestIDFromContext(c), c.Request().Method, c.Path(), err)
		return Error(c, http.StatusInternalServerError, fallback)
	}
}

// parseID reads a uuid path parameter.
func parseID(c echo.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
