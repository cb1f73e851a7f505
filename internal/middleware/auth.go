package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/tome/internal/apperror"
)

// RequireToken returns middleware that requires a shared bearer token on
// every request: "Authorization: Bearer <token>". An empty configured token
// disables the check (development only; config.Load refuses an empty token
// in production). Comparison is constant-time.
func RequireToken(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token == "" {
				return next(c)
			}

			header := c.Request().Header.Get("Authorization")
			presented, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return apperror.NewUnauthorized("missing bearer token")
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				return apperror.NewUnauthorized("invalid bearer token")
			}
			return next(c)
		}
	}
}
