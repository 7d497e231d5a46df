package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"memoryd/internal/apierr"
	"memoryd/internal/auth"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

func (s *Server) registerHandler(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return mapError(apierr.ValidationError("invalid request body"))
	}
	if req.Username == "" || req.Password == "" || req.Email == "" {
		return mapError(apierr.ValidationError("username, email and password are required"))
	}

	u, err := s.users.Create(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		return mapError(err)
	}

	token, err := auth.IssueToken(u.ID, s.cfg.Auth.JWTSecret, s.cfg.Auth.TokenExpiry)
	if err != nil {
		return mapError(apierr.StorageErrorf(err, "issue token"))
	}
	return c.JSON(http.StatusCreated, tokenResponse{Token: token, UserID: u.ID.String(), Username: u.Username})
}

func (s *Server) loginHandler(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return mapError(apierr.ValidationError("invalid request body"))
	}
	if req.Username == "" || req.Password == "" {
		return mapError(apierr.ValidationError("username and password are required"))
	}

	u, err := s.users.GetByUsername(c.Request().Context(), req.Username)
	if err != nil {
		return mapError(apierr.AuthError("invalid username or password"))
	}
	if !auth.VerifyPassword(u.PasswordHash, req.Password) {
		return mapError(apierr.AuthError("invalid username or password"))
	}
	if !u.IsActive {
		return mapError(apierr.DisabledAccountError("account is disabled"))
	}

	token, err := auth.IssueToken(u.ID, s.cfg.Auth.JWTSecret, s.cfg.Auth.TokenExpiry)
	if err != nil {
		return mapError(apierr.StorageErrorf(err, "issue token"))
	}

	_ = s.users.RecordLogin(c.Request().Context(), u.ID, c.RealIP())

	return c.JSON(http.StatusOK, tokenResponse{Token: token, UserID: u.ID.String(), Username: u.Username})
}

func (s *Server) meHandler(c echo.Context) error {
	userID, err := authenticatedUserID(c)
	if err != nil {
		return mapError(err)
	}
	u, err := s.users.GetByID(c.Request().Context(), userID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, userResponse{ID: u.ID.String(), Username: u.Username, Email: u.Email, IsActive: u.IsActive})
}

// authenticatedUserID extracts and parses the bearer subject set by
// auth.Middleware.
func authenticatedUserID(c echo.Context) (uuid.UUID, error) {
	sub, ok := auth.UserIDFromContext(c)
	if !ok {
		return uuid.Nil, apierr.AuthError("missing authentication")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, apierr.AuthError("invalid token subject")
	}
	return id, nil
}
