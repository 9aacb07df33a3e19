package middleware

// identity.go holds the context key shared between ClientAuth and the
// handlers that act on behalf of the authenticated client.

import "github.com/labstack/echo/v4"

const clientEmailKey = "client_email"

// ClientEmail returns the email of the client authenticated by ClientAuth,
// or "" when the request carries no client session.
func ClientEmail(c echo.Context) string {
	if v, ok := c.Get(clientEmailKey).(string); ok {
		return v
	}
	return ""
}
