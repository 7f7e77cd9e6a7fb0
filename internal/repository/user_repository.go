package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/transfermar/booking-backend/internal/model"
	"github.com/transfermar/booking-backend/internal/utils"
)

// UserRepo persists accounts for the three audiences of the API:
// customers, admins and company dispatchers.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts a user and returns its ID. companyID is only set for
// COMPANY accounts and links the user to the partner company whose
// orders it may see.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, companyID *uint64, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, company_id) VALUES (?,?,?,?)",
		email, hash, role, companyID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
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

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scan(r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,company_id,is_active,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scan(r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,company_id,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id))
}

func (r *UserRepo) scan(row *sql.Row) (model.User, error) {
	var (
		u   model.User
		cid sql.NullInt64
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &cid, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if cid.Valid {
		v := uint64(cid.Int64)
		u.CompanyID = &v
	}
	return u, nil
}
