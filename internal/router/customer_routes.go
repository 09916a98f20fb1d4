package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mesafina/table-reservation/internal/handler"
	"github.com/mesafina/table-reservation/internal/middleware"
	"github.com/mesafina/table-reservation/internal/model"
)

// RegisterCustomer registers the booking endpoints under /v1.  All routes
// require a valid JWT; any role may call them, ownership and restaurant
// checks happen in the service layer.  Customers can book, inspect and
// cancel their own reservations, move them to a new slot, repeat an old
// booking and manage their waitlist entry.
func RegisterCustomer(e *echo.Echo, r *handler.ReservationHandler, w *handler.WaitlistHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleStaff, model.RoleAdmin),
	)
	g.POST("/reservations", r.Create)
	g.GET("/reservations/my", r.ListMine)
	g.GET("/reservations/:id", r.Get)
	g.POST("/reservations/:id/cancel", r.Cancel)
	g.PATCH("/reservations/:id", r.Reschedule)
	g.POST("/reservations/repeat/:id", r.Repeat)

	// Waitlist self-service.  Join binds the entry to the account; status
	// shows the drifting queue position; DELETE is the customer-side exit.
	g.POST("/waitlist/join", w.Join)
	g.GET("/waitlist/:id/status", w.Status)
	g.DELETE("/waitlist/:id", w.Leave)
}
