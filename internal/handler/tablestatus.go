package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesafina/table-reservation/internal/service"
)

// TableStatusHandler serves the staff floor-plan view: the derived logical
// status of every table, recomputed from today's live bookings and the
// clock.
type TableStatusHandler struct {
	Engine *service.StatusEngine
}

func NewTableStatusHandler(e *service.StatusEngine) *TableStatusHandler {
	return &TableStatusHandler{Engine: e}
}

// Report handles GET /v1/admin/mesas/estado.  Staff see their own
// restaurant; admins pick one with ?restaurant_id=.
func (h *TableStatusHandler) Report(c echo.Context) error {
	restaurantID, err := queryUint(c, "restaurant_id", actor(c).RestaurantID)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}
	if restaurantID == 0 {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "restaurant_id required")
	}
	if !actor(c).StaffOf(restaurantID) {
		return respondError(c, http.StatusForbidden, "FORBIDDEN", "operation not permitted")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	report, err := h.Engine.Report(ctx, restaurantID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, report)
}
