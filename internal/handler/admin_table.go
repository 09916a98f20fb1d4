package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesafina/table-reservation/internal/model"
	"github.com/mesafina/table-reservation/internal/repository"
	"github.com/mesafina/table-reservation/internal/service"
)

// AdminTableHandler manages the table registry: create, list, update,
// block and delete.  Every mutation invalidates the status cache so the
// floor-plan view reflects registry changes promptly.
type AdminTableHandler struct {
	Tables       *repository.TableRepo
	Reservations *repository.ReservationRepo
	Cache        *service.StatusCache
}

func NewAdminTableHandler(t *repository.TableRepo, r *repository.ReservationRepo, cache *service.StatusCache) *AdminTableHandler {
	return &AdminTableHandler{Tables: t, Reservations: r, Cache: cache}
}

type tableReq struct {
	RestaurantID   uint64  `json:"restaurant_id"`
	Name           string  `json:"name"`
	Capacity       uint32  `json:"capacity"`
	Zone           string  `json:"zone"`
	IsActive       *bool   `json:"is_active"`
	PhysicalStatus *string `json:"physical_status"`
}

// Create registers a new table in the actor's restaurant.
func (h *AdminTableHandler) Create(c echo.Context) error {
	var req tableReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid body")
	}
	restaurantID := req.RestaurantID
	if restaurantID == 0 {
		restaurantID = actor(c).RestaurantID
	}
	if restaurantID == 0 || req.Name == "" || req.Capacity == 0 {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "restaurant, name and capacity are required")
	}
	if !actor(c).StaffOf(restaurantID) {
		return respondError(c, http.StatusForbidden, "FORBIDDEN", "operation not permitted")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	table := &model.Table{
		RestaurantID:   restaurantID,
		Name:           req.Name,
		Capacity:       req.Capacity,
		Zone:           req.Zone,
		IsActive:       true,
		PhysicalStatus: model.TableAvailable,
	}
	if err := h.Tables.Create(ctx, table); err != nil {
		return fail(c, err)
	}
	h.Cache.Invalidate(restaurantID)
	return respond(c, http.StatusCreated, table)
}

// List returns the restaurant's tables: GET /v1/restaurants/:id/tables.
func (h *AdminTableHandler) List(c echo.Context) error {
	restaurantID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	tables, err := h.Tables.ListByRestaurant(ctx, restaurantID, c.QueryParam("active") == "true")
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, tables)
}

// Update edits registry fields, including the active flag and a manual
// physical status (e.g. blocking a table for maintenance).
func (h *AdminTableHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}
	var req tableReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	table, err := h.Tables.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if !actor(c).StaffOf(table.RestaurantID) {
		return respondError(c, http.StatusForbidden, "FORBIDDEN", "operation not permitted")
	}
	if req.Name != "" {
		table.Name = req.Name
	}
	if req.Capacity != 0 {
		table.Capacity = req.Capacity
	}
	if req.Zone != "" {
		table.Zone = req.Zone
	}
	if req.IsActive != nil {
		table.IsActive = *req.IsActive
	}
	if req.PhysicalStatus != nil {
		status := model.PhysicalStatus(*req.PhysicalStatus)
		if !model.ValidPhysicalStatus(status) {
			return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown physical_status")
		}
		table.PhysicalStatus = status
	}
	if err := h.Tables.Update(ctx, table); err != nil {
		return fail(c, err)
	}
	h.Cache.Invalidate(table.RestaurantID)
	return respond(c, http.StatusOK, table)
}

// Delete removes a table that carries no live reservations.
func (h *AdminTableHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	table, err := h.Tables.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if !actor(c).StaffOf(table.RestaurantID) {
		return respondError(c, http.StatusForbidden, "FORBIDDEN", "operation not permitted")
	}
	n, err := h.Reservations.CountActiveByTable(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if n > 0 {
		return respondError(c, http.StatusConflict, "CONFLICT", "table still has live reservations")
	}
	if err := h.Tables.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	h.Cache.Invalidate(table.RestaurantID)
	return c.NoContent(http.StatusNoContent)
}
