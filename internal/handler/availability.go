package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mesafina/table-reservation/internal/service"
)

// AvailabilityHandler exposes slot availability lookups.
type AvailabilityHandler struct {
	Availability *service.Availability
}

func NewAvailabilityHandler(a *service.Availability) *AvailabilityHandler {
	return &AvailabilityHandler{Availability: a}
}

// FindTables returns the restaurant's tables free at an exact slot:
// GET /v1/restaurants/:id/tables/available?date=&time=&guests=.
// An empty list is a valid answer (everything booked); 404 means no table
// in the restaurant could ever seat the party.
func (h *AvailabilityHandler) FindTables(c echo.Context) error {
	restaurantID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}
	guests, err := strconv.ParseUint(c.QueryParam("guests"), 10, 32)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid guests")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	tables, err := h.Availability.FindAvailableTables(ctx, restaurantID,
		c.QueryParam("date"), c.QueryParam("time"), uint32(guests))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, tables)
}

// OpenSlots filters a comma-separated ?slots= list down to the times where
// at least one qualifying table is free, for "next available time" UIs.
func (h *AvailabilityHandler) OpenSlots(c echo.Context) error {
	restaurantID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}
	guests, err := strconv.ParseUint(c.QueryParam("guests"), 10, 32)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid guests")
	}
	raw := strings.Split(c.QueryParam("slots"), ",")
	slots := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			slots = append(slots, s)
		}
	}
	if len(slots) == 0 {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "slots required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	open, err := h.Availability.ListOpenSlots(ctx, restaurantID, c.QueryParam("date"), uint32(guests), slots)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, open)
}
