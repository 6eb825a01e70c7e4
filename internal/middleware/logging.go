package middleware

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
)

// Logging writes one key=value access line per request.
func Logging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			user := "-"
			if identity := IdentityFromContext(c); identity != nil {
				user = identity.UserID.String()
			}
			log.Printf("request_id=%s method=%s path=%s status=%d ip=%s user_id=%s latency=%s",
				RequestIDFromContext(c), c.Request().Method, c.Request().URL.Path, c.Response().Status, c.RealIP(), user, latency)

			return err
		}
	}
}
