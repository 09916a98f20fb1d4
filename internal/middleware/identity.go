package middleware

// identity.go defines helpers shared across middleware files. It provides a
// user identifier extraction function reading the typed context values set
// by JWTAuth. When no user is authenticated, "anon" is returned so rate
// limit keys still partition by IP and route.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID renders the authenticated user id for cache and rate-limit
// keys. It returns "anon" when the request carries no valid token.
func currentUserID(c echo.Context) string {
	if v, ok := c.Get("user_id").(uint64); ok && v != 0 {
		return strconv.FormatUint(v, 10)
	}
	return "anon"
}
