package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	authpkg "github.com/xavisolis/nutmeglocal/internal/auth"
	"github.com/xavisolis/nutmeglocal/internal/dto"
	"github.com/xavisolis/nutmeglocal/internal/service"
)

var (
	errMissingHeader = errors.New("missing authorization header")
	errInvalidHeader = errors.New("invalid authorization header")
	errInvalidToken  = errors.New("invalid token")
)

// JWT requires a valid bearer token and stores the caller identity in the context.
func JWT(manager *authpkg.JWTManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, err := identityFromRequest(c, manager)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse(err.Error()))
			}
			c.Set(ContextKeyIdentity, identity)
			return next(c)
		}
	}
}

// OptionalJWT attaches the identity when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalJWT(manager *authpkg.JWTManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if identity, err := identityFromRequest(c, manager); err == nil {
				c.Set(ContextKeyIdentity, identity)
			}
			return next(c)
		}
	}
}

func identityFromRequest(c echo.Context, manager *authpkg.JWTManager) (*service.Identity, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return nil, errMissingHeader
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errInvalidHeader
	}

	claims, err := manager.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, errInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errInvalidToken
	}
	return &service.Identity{UserID: userID, Email: claims.Email}, nil
}
