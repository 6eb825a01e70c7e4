package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/xavisolis/nutmeglocal/internal/service"
)

// Context keys used to store request metadata.
const (
	ContextKeyIdentity  = "identity"
	ContextKeyRequestID = "request_id"
)

// IdentityFromContext returns the authenticated caller, or nil for anonymous requests.
func IdentityFromContext(c echo.Context) *service.Identity {
	if identity, ok := c.Get(ContextKeyIdentity).(*service.Identity); ok {
		return identity
	}
	return nil
}
