// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/danielhkuo/deliberate/auth"
	"github.com/danielhkuo/deliberate/cliparse"
	"github.com/danielhkuo/deliberate/middleware"
	"github.com/danielhkuo/deliberate/models"
)

const (
	minUsernameLen = 2
	maxUsernameLen = 50
	minPasswordLen = 8
)

type UserHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	tokens *auth.TokenManager
}

func NewUserHandler(db *sql.DB, cfg cliparse.Config) *UserHandler {
	return &UserHandler{
		db:     db,
		cfg:    cfg,
		tokens: auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL),
	}
}

// Register handles POST /users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	username := strings.TrimSpace(req.Username)
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username must be 2-50 characters")
		return
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLen {
		middleware.ErrorResponse(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	userID := uuid.NewString()
	isAdmin := h.cfg.IsAdminUsername(username)

	_, err = h.db.Exec(`
		INSERT INTO app_user (id, username, email, password_hash, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, userID, username, nullString(strings.TrimSpace(req.Email)), hash, isAdmin, time.Now().UTC())
	if isUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "Username already taken")
		return
	}
	if err != nil {
		slog.Error("failed to insert user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	slog.Info("user registered", "user_id", userID, "username", username, "admin", isAdmin)

	middleware.JSONResponse(w, http.StatusCreated, models.RegisterResponse{UserID: userID})
}

// Login handles POST /users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Username == "" || req.Password == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username and password are required")
		return
	}

	var userID, username, hash string
	var isAdmin bool
	err := h.db.QueryRow(`
		SELECT id, username, password_hash, is_admin FROM app_user WHERE username = $1
	`, strings.TrimSpace(req.Username)).Scan(&userID, &username, &hash, &isAdmin)
	if err == sql.ErrNoRows {
		auth.DummyVerify()
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := auth.VerifyPassword(req.Password, hash); err != nil {
		if !errors.Is(err, auth.ErrInvalidPassword) {
			slog.Error("stored password hash is unreadable", "user_id", userID, "error", err)
		}
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, expiresAt, err := h.tokens.Issue(userID, username, isAdmin)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	slog.Info("user logged in", "user_id", userID)

	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    userID,
	})
}

// Me handles GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var user models.User
	var email sql.NullString
	err := h.db.QueryRow(`
		SELECT id, username, email, is_admin, created_at FROM app_user WHERE id = $1
	`, userID).Scan(&user.ID, &user.Username, &email, &user.IsAdmin, &user.CreatedAt)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	user.Email = stringPtr(email)

	middleware.JSONResponse(w, http.StatusOK, user)
}
