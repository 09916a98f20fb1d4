package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework handling routing

	"github.com/mesafina/table-reservation/internal/handler"    // handlers implementing the endpoints
	"github.com/mesafina/table-reservation/internal/middleware" // JWT authentication and role enforcement
)

// RegisterRoutes registers routes that require no authentication.  The
// health check is used by load balancers and monitoring to verify the
// service is up; the availability lookups are open so guests can browse
// free tables before creating an account.
func RegisterRoutes(e *echo.Echo, av *handler.AvailabilityHandler) {
	e.GET("/healthz", handler.Health)
	// Free tables for an exact slot and the open-slot filter for
	// "next available time" pickers.
	e.GET("/v1/restaurants/:id/tables/available", av.FindTables)
	e.GET("/v1/restaurants/:id/open-slots", av.OpenSlots)
}

// RegisterAuth registers the authentication endpoints.  Register and login
// live under /v1/auth and need no session; /v1/me echoes the claims of a
// valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}
