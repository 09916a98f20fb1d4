package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mesafina/table-reservation/internal/model"
	"github.com/mesafina/table-reservation/internal/service"
)

// ReservationHandler exposes the reservation lifecycle over HTTP.
type ReservationHandler struct {
	Lifecycle *service.LifecycleManager
}

func NewReservationHandler(l *service.LifecycleManager) *ReservationHandler {
	return &ReservationHandler{Lifecycle: l}
}

type createReservationReq struct {
	RestaurantID       uint64  `json:"restaurant_id"`
	TableID            uint64  `json:"table_id"`
	Date               string  `json:"date"`
	Time               string  `json:"time"`
	GuestCount         uint32  `json:"guest_count"`
	Occasion           string  `json:"occasion"`
	SpecialRequest     *string `json:"special_request"`
	DepositPaid        bool    `json:"deposit_paid"`
	DepositAmountCents uint32  `json:"deposit_amount_cents"`
}

type statusChangeReq struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type cancelReq struct {
	Reason string `json:"reason"`
}

type rescheduleReq struct {
	Date       *string `json:"date"`
	Time       *string `json:"time"`
	GuestCount *uint32 `json:"guest_count"`
}

type repeatReq struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// Create books a table for the authenticated customer.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Lifecycle.Create(ctx, service.CreateInput{
		RestaurantID:       req.RestaurantID,
		TableID:            req.TableID,
		UserID:             actor(c).UserID,
		Date:               req.Date,
		Time:               req.Time,
		GuestCount:         req.GuestCount,
		Occasion:           req.Occasion,
		SpecialRequest:     req.SpecialRequest,
		DepositPaid:        req.DepositPaid,
		DepositAmountCents: req.DepositAmountCents,
	})
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, res)
}

// Get returns one reservation to its owner or staff.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Lifecycle.Get(ctx, id, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, res)
}

// ListMine returns the caller's reservations.  Supports ?status= and
// ?upcoming=true filters.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	status := model.ReservationStatus(c.QueryParam("status"))
	upcoming := c.QueryParam("upcoming") == "true"
	list, err := h.Lifecycle.ListMine(ctx, actor(c), status, upcoming)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, list)
}

// ChangeStatus applies a lifecycle transition requested as a target status
// (confirmed, arrived, seated, completed, cancelled, no_show).  Cancellation
// routes through Cancel so the reason and refund handling apply.
func (h *ReservationHandler) ChangeStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}
	var req statusChangeReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid body")
	}
	target := model.ReservationStatus(req.Status)
	event, ok := model.EventForStatus(target)
	if !ok {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown target status")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	var res *model.Reservation
	if event == model.EventCancel {
		res, err = h.Lifecycle.Cancel(ctx, id, req.Reason, actor(c))
	} else {
		res, err = h.Lifecycle.Apply(ctx, id, event, actor(c))
	}
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, res)
}

// Cancel cancels a reservation, recording the reason in its dedicated field.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}
	var req cancelReq
	_ = c.Bind(&req) // reason is optional
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Lifecycle.Cancel(ctx, id, req.Reason, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, res)
}

// Reschedule moves a pending or confirmed reservation to a new slot and/or
// party size.
func (h *ReservationHandler) Reschedule(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}
	var req rescheduleReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Lifecycle.Reschedule(ctx, id, service.RescheduleInput{
		Date:       req.Date,
		Time:       req.Time,
		GuestCount: req.GuestCount,
	}, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, res)
}

// Repeat books the same table again for a new slot, copying guest count and
// occasion from a previous reservation.
func (h *ReservationHandler) Repeat(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}
	var req repeatReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Lifecycle.Repeat(ctx, id, req.Date, req.Time, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, res)
}

// ListForRestaurant returns a restaurant's bookings for one day, for staff
// planning.  ?date= defaults to today inside the service.
func (h *ReservationHandler) ListForRestaurant(c echo.Context) error {
	restaurantID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}
	date := c.QueryParam("date")
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Lifecycle.ListForRestaurant(ctx, restaurantID, date, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, list)
}
