package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mesafina/table-reservation/internal/config"
	"github.com/mesafina/table-reservation/internal/model"
	"github.com/mesafina/table-reservation/internal/repository"
	"github.com/mesafina/table-reservation/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints.  Sessions are
// stateless: a short-lived access token carries the user id, role and staff
// restaurant binding, and there is nothing server-side to revoke.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u}
}

// ----- DTOs -----

type registerReq struct {
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	Role         string  `json:"role"` // CUSTOMER | STAFF | ADMIN
	RestaurantID *uint64 `json:"restaurant_id"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPart struct {
	ID           uint64  `json:"id"`
	Email        string  `json:"email"`
	Role         string  `json:"role"`
	RestaurantID *uint64 `json:"restaurant_id,omitempty"`
}
type authData struct {
	User   userPart          `json:"user"`
	Access utils.AccessToken `json:"access"`
}

// Register creates a user and returns an access token immediately.  Staff
// and admin accounts must name the restaurant they belong to.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "email/password required")
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	switch role {
	case model.RoleStaff, model.RoleAdmin:
		if req.RestaurantID == nil || *req.RestaurantID == 0 {
			return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "restaurant_id required for staff accounts")
		}
	default:
		role = model.RoleCustomer
		req.RestaurantID = nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, role, req.RestaurantID, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return respondError(c, http.StatusConflict, "CONFLICT", "email already exists")
		}
		return respondError(c, http.StatusInternalServerError, "INTERNAL", "create user failed")
	}

	var restaurantID uint64
	if req.RestaurantID != nil {
		restaurantID = *req.RestaurantID
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, role, restaurantID, h.Cfg.AccessTTLMin)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "INTERNAL", "issue access failed")
	}

	return respond(c, http.StatusCreated, authData{
		User:   userPart{ID: uid, Email: req.Email, Role: role, RestaurantID: req.RestaurantID},
		Access: access,
	})
}

// Login verifies credentials and returns a fresh access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "email/password required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
		}
		return respondError(c, http.StatusInternalServerError, "INTERNAL", "query failed")
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
	}

	var restaurantID uint64
	if u.RestaurantID != nil {
		restaurantID = *u.RestaurantID
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, restaurantID, h.Cfg.AccessTTLMin)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "INTERNAL", "issue access failed")
	}

	return respond(c, http.StatusOK, authData{
		User:   userPart{ID: u.ID, Email: u.Email, Role: u.Role, RestaurantID: u.RestaurantID},
		Access: access,
	})
}

// Me returns the identity claims of the current token.
func (h *AuthHandler) Me(c echo.Context) error {
	a := actor(c)
	return respond(c, http.StatusOK, echo.Map{
		"user_id":       a.UserID,
		"role":          a.Role,
		"restaurant_id": a.RestaurantID,
	})
}
