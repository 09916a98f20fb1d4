// Package handler implements the HTTP surface of the reservation engine.
// Every response uses the same envelope: {"success": true, "data": ...} on
// success and {"success": false, "error": {"code", "message"}} on failure.
// Handlers translate the service/repository sentinel errors into HTTP status
// codes and never leak raw database errors to clients.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mesafina/table-reservation/internal/repository"
	"github.com/mesafina/table-reservation/internal/service"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respond writes the success envelope.
func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

// respondError writes the failure envelope for a known status and code.
func respondError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, echo.Map{"success": false, "error": errorBody{Code: code, Message: message}})
}

// fail maps a sentinel error from the service or repository layer onto the
// HTTP taxonomy.  Unknown errors become opaque 500s.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, service.ErrInvalidState):
		return respondError(c, http.StatusBadRequest, "INVALID_STATE", err.Error())
	case errors.Is(err, repository.ErrNotFound):
		return respondError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, repository.ErrForbidden):
		return respondError(c, http.StatusForbidden, "FORBIDDEN", "operation not permitted")
	case errors.Is(err, repository.ErrConflict):
		return respondError(c, http.StatusConflict, "CONFLICT", err.Error())
	default:
		return respondError(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

// actor assembles the authenticated identity placed in the context by the
// JWT middleware.
func actor(c echo.Context) service.Actor {
	a := service.Actor{}
	if v, ok := c.Get("user_id").(uint64); ok {
		a.UserID = v
	}
	if v, ok := c.Get("role").(string); ok {
		a.Role = v
	}
	if v, ok := c.Get("restaurant_id").(uint64); ok {
		a.RestaurantID = v
	}
	return a
}

// pathID parses a numeric :id style path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// queryUint parses an optional numeric query parameter, returning def when
// absent.
func queryUint(c echo.Context, name string, def uint64) (uint64, error) {
	s := c.QueryParam(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return v, nil
}
