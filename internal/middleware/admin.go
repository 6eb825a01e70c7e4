package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xavisolis/nutmeglocal/internal/auth"
	"github.com/xavisolis/nutmeglocal/internal/dto"
)

// RequireAdmin lets through only callers whose email is on the admin allow-list.
// It must run after JWT.
func RequireAdmin(admins auth.AllowList) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := IdentityFromContext(c)
			if identity == nil {
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse("authentication required"))
			}
			if !admins.Contains(identity.Email) {
				return c.JSON(http.StatusForbidden, dto.ErrorResponse("admin access required"))
			}
			return next(c)
		}
	}
}
