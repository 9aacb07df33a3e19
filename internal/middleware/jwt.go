package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/atom-referral-tracker/internal/utils" // token verification
)

// ClientAuth returns an Echo middleware that validates the Bearer access
// token issued by clientLogin and injects the client's email and role into
// the request context. Handlers read them with ClientEmail(c) and
// c.Get("role").
func ClientAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Preflight requests carry no credentials.
			if c.Request().Method == http.MethodOptions {
				return next(c)
			}
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			// ParseAccessToken checks the HMAC algorithm, signature and expiry.
			sub, role, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(clientEmailKey, sub)
			c.Set("role", role)
			return next(c)
		}
	}
}
