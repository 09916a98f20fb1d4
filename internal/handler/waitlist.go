package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesafina/table-reservation/internal/model"
	"github.com/mesafina/table-reservation/internal/service"
)

// WaitlistHandler exposes the walk-in queue.
type WaitlistHandler struct {
	Waitlist *service.WaitlistManager
}

func NewWaitlistHandler(w *service.WaitlistManager) *WaitlistHandler {
	return &WaitlistHandler{Waitlist: w}
}

type joinReq struct {
	RestaurantID uint64 `json:"restaurant_id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	PartySize    uint32 `json:"party_size"`
}

type waitlistStatusReq struct {
	Status  string `json:"status"`
	TableID uint64 `json:"table_id"` // optional; names the table when seating
}

type leaveReq struct {
	Phone string `json:"phone"`
}

type walkInReq struct {
	PartySize uint32 `json:"party_size"`
	EntryID   uint64 `json:"waitlist_entry_id"`
}

// Join adds the caller's party to the queue.  A phone with a live entry at
// the restaurant gets a 409.
func (h *WaitlistHandler) Join(c echo.Context) error {
	var req joinReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	var userID *uint64
	if id := actor(c).UserID; id != 0 {
		userID = &id
	}
	entry, err := h.Waitlist.Join(ctx, service.JoinInput{
		RestaurantID: req.RestaurantID,
		UserID:       userID,
		Name:         req.Name,
		Phone:        req.Phone,
		PartySize:    req.PartySize,
	})
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, entry)
}

// Status returns an entry with its drifting position recomputed.
func (h *WaitlistHandler) Status(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	entry, err := h.Waitlist.Status(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, entry)
}

// UpdateStatus lets staff walk an entry through notify/confirm/seat/cancel/
// no_show.  Seating may name the table the party was put at, which marks it
// occupied.
func (h *WaitlistHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}
	var req waitlistStatusReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	entry, err := h.Waitlist.UpdateStatus(ctx, id, model.WaitlistStatus(req.Status), req.TableID, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, entry)
}

// Leave removes the caller's own entry.  Anonymous entries authenticate by
// phone in the body.
func (h *WaitlistHandler) Leave(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}
	var req leaveReq
	_ = c.Bind(&req)
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Waitlist.Leave(ctx, id, actor(c), req.Phone); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListQueue returns the restaurant's queue for the staff view:
// GET /v1/restaurants/:id/waitlist?live=true.
func (h *WaitlistHandler) ListQueue(c echo.Context) error {
	restaurantID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Waitlist.ListQueue(ctx, restaurantID, c.QueryParam("live") == "true", actor(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, list)
}

// AssignWalkIn seats a walk-in party at a table:
// POST /v1/admin/tables/:id/walkin.
func (h *WaitlistHandler) AssignWalkIn(c echo.Context) error {
	tableID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}
	var req walkInReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Waitlist.AssignWalkIn(ctx, service.AssignWalkInInput{
		TableID:   tableID,
		PartySize: req.PartySize,
		EntryID:   req.EntryID,
	}, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, res)
}
