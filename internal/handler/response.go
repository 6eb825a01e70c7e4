package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xavisolis/nutmeglocal/internal/dto"
	middlewarepkg "github.com/xavisolis/nutmeglocal/internal/middleware"
)

// Success sends a successful response using the shared envelope format.
func Success(c echo.Context, status int, message string, data any) error {
	if status == 0 {
		status = http.StatusOK
	}
	return c.JSON(status, dto.APIResponse{
		Status:  dto.StatusSuccess,
		Message: message,
		Data:    data,
	})
}

// Error sends an error response using the shared envelope format.
func Error(c echo.Context, status int, message string) error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, dto.ErrorResponse(message))
}

// Beacon answers a browser beacon. Recorded, skipped and dropped beacons
// all get the same reply.
func Beacon(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.BeaconResponse{Success: true})
}

// HTTPErrorHandler renders errors that escape a handler, such as unknown
// routes and method mismatches, in the envelope.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "internal server error"
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		switch status {
		case http.StatusNotFound:
			message = "route not found"
		case http.StatusMethodNotAllowed:
			message = "method not allowed"
		default:
			if text, ok := httpErr.Message.(string); ok && text != "" {
				message = text
			} else {
				message = http.StatusText(status)
			}
		}
	}
	if status >= http.StatusInternalServerError {
		log.Printf("component=http request_id=%s method=%s path=%s error=%v",
			middlewarepkg.RequestIDFromContext(c), c.Request().Method, c.Request().URL.Path, err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = Error(c, status, message)
	}
	if err != nil {
		log.Printf("component=http request_id=%s write_error=%v", middlewarepkg.RequestIDFromContext(c), err)
	}
}
