package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mesafina/table-reservation/internal/handler"
	"github.com/mesafina/table-reservation/internal/middleware"
	"github.com/mesafina/table-reservation/internal/model"
)

// RegisterStaff registers the staff and admin surface under /v1.  All
// routes require a valid JWT with the STAFF or ADMIN role; which
// restaurant a staff member may touch is enforced in the service layer
// from the token's restaurant binding.
func RegisterStaff(e *echo.Echo, r *handler.ReservationHandler, ts *handler.TableStatusHandler,
	at *handler.AdminTableHandler, w *handler.WaitlistHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleStaff, model.RoleAdmin),
	)

	// Lifecycle transitions requested as target states (confirmed,
	// arrived, seated, completed, cancelled, no_show).
	g.PATCH("/reservations/:id/status", r.ChangeStatus)
	// Day planning view of a restaurant's bookings.
	g.GET("/restaurants/:id/reservations", r.ListForRestaurant)

	// Floor-plan view: derived logical status of every table.
	g.GET("/admin/mesas/estado", ts.Report)

	// Table registry.
	g.POST("/admin/tables", at.Create)
	g.GET("/restaurants/:id/tables", at.List)
	g.PATCH("/admin/tables/:id", at.Update)
	g.DELETE("/admin/tables/:id", at.Delete)

	// Walk-in queue management.
	g.GET("/restaurants/:id/waitlist", w.ListQueue)
	g.PATCH("/waitlist/admin/:id/status", w.UpdateStatus)
	g.POST("/admin/tables/:id/walkin", w.AssignWalkIn)
}
