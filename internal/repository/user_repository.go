package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mesafina/table-reservation/internal/model"
	"github.com/mesafina/table-reservation/internal/utils"
)

// UserRepo backs the thin auth collaborator.  The engine itself never
// queries users beyond login and token claims.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts a user and returns its ID.  restaurantID is nil for
// customers and set for staff accounts.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, restaurantID *uint64, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, restaurant_id) VALUES (?,?,?,?)",
		email, hash, role, restaurantID)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

const userColumns = "id, email, password_hash, role, restaurant_id, is_active, created_at, updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	var restaurantID sql.NullInt64
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &restaurantID,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if restaurantID.Valid {
		v := uint64(restaurantID.Int64)
		u.RestaurantID = &v
	}
	return u, err
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}
