// Package auth implements password hashing, JWT issuance/verification and
// the user-account store. Grounded on intelligencedev-manifold's
// user_auth.go (bcrypt hash/verify, user CRUD) and auth_handlers.go
// (JWTCustomClaims, configureJWTMiddleware, login/register handler
// shape) — both already import golang-jwt/jwt/v5, echo-jwt/v4 and
// golang.org/x/crypto/bcrypt.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"memoryd/internal/apierr"
	"memoryd/internal/database"
	"memoryd/internal/models"
)

// UserStore is the account persistence boundary.
type UserStore struct {
	db *database.Pool
}

func NewUserStore(db *database.Pool) *UserStore {
	return &UserStore{db: db}
}

// Create registers a new user with a bcrypt-hashed password.
func (s *UserStore) Create(ctx context.Context, username, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apierr.StorageErrorf(err, "hash password")
	}

	u := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	const q = `INSERT INTO users (id, username, email, password_hash, is_active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`
	if _, err := s.db.Exec(ctx, q, u.ID, u.Username, u.Email, u.PasswordHash, u.IsActive, u.CreatedAt); err != nil {
		return nil, apierr.StorageErrorf(err, "insert user")
	}
	return u, nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	const q = `SELECT id, username, email, password_hash, is_active, last_login_at, last_login_ip, created_at
		FROM users WHERE username = $1`
	return s.scanOne(ctx, q, username)
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const q = `SELECT id, username, email, password_hash, is_active, last_login_at, last_login_ip, created_at
		FROM users WHERE id = $1`
	return s.scanOne(ctx, q, id)
}

func (s *UserStore) scanOne(ctx context.Context, q string, arg any) (*models.User, error) {
	row := s.db.QueryRow(ctx, q, arg)
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive, &u.LastLoginAt, &u.LastLoginIP, &u.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apierr.NotFoundError("user not found")
		}
		return nil, apierr.StorageErrorf(err, "get user")
	}
	return &u, nil
}

// RecordLogin stamps last_login_at/last_login_ip for a successful login.
func (s *UserStore) RecordLogin(ctx context.Context, id uuid.UUID, ip string) error {
	const q = `UPDATE users SET last_login_at = now(), last_login_ip = $2 WHERE id = $1`
	_, err := s.db.Exec(ctx, q, id, ip)
	if err != nil {
		return apierr.StorageErrorf(err, "record login")
	}
	return nil
}

// VerifyPassword reports whether password matches the user's stored hash.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
