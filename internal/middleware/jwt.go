package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's claims into the request context.  The provided
// secret must match the one used when issuing tokens.  Handlers read the
// authenticated identity via `c.Get("user_id")`, `c.Get("role")` and, for
// staff accounts, `c.Get("restaurant_id")`.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header starts with "Bearer " followed by the JWT.
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false,
					"error": echo.Map{"code": "UNAUTHORIZED", "message": "missing bearer token"}})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Parse with HS256 and our secret; reject other signing methods.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false,
					"error": echo.Map{"code": "UNAUTHORIZED", "message": "invalid token"}})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false,
					"error": echo.Map{"code": "UNAUTHORIZED", "message": "invalid claims"}})
			}

			// JWT numeric values decode as float64; convert up front so
			// handlers can type-assert without caring about JSON numbers.
			if sub, ok := claims["sub"].(float64); ok {
				c.Set("user_id", uint64(sub))
			}
			if role, ok := claims["role"].(string); ok {
				c.Set("role", role)
			}
			if rid, ok := claims["restaurant_id"].(float64); ok {
				c.Set("restaurant_id", uint64(rid))
			}
			return next(c)
		}
	}
}
