// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/deliberate/auth"
	"github.com/danielhkuo/deliberate/cliparse"
	"github.com/danielhkuo/deliberate/middleware"
	"github.com/danielhkuo/deliberate/models"
)

type FeedbackHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewFeedbackHandler(db *sql.DB, cfg cliparse.Config) *FeedbackHandler {
	return &FeedbackHandler{db: db, cfg: cfg}
}

// Create handles POST /feedback
// Anonymous submissions are accepted; the user is attached when signed in
func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFeedbackRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "description is required")
		return
	}

	var userID sql.NullString
	if claims, ok := middleware.UserFromContext(r.Context()); ok {
		userID = nullString(claims.UserID())
	}

	feedbackID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate feedback ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit feedback")
		return
	}

	ipHash := auth.HashIP(middleware.GetClientIP(r), h.cfg.InviteSalt)

	_, err = h.db.Exec(`
		INSERT INTO feedback (id, user_id, description, contact_info, ip_hash, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, feedbackID, userID, description, nullString(strings.TrimSpace(req.ContactInfo)), ipHash, models.FeedbackPending, time.Now().UTC())
	if err != nil {
		slog.Error("failed to insert feedback", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit feedback")
		return
	}

	slog.Info("feedback submitted", "feedback_id", feedbackID, "ip_hash", ipHash)

	middleware.JSONResponse(w, http.StatusCreated, models.IDResponse{ID: feedbackID})
}

// List handles GET /feedback (admin only)
func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	query := `
		SELECT id, user_id, description, contact_info, status, response, responded_at, created_at
		FROM feedback`
	var args []any
	if status := r.URL.Query().Get("status"); status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := h.db.Query(query, args...)
	if err != nil {
		slog.Error("failed to query feedback", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	feedback := []models.Feedback{}
	for rows.Next() {
		var f models.Feedback
		var userID, contact, response sql.NullString
		var respondedAt sql.NullTime
		if err := rows.Scan(&f.ID, &userID, &f.Description, &contact, &f.Status, &response, &respondedAt, &f.CreatedAt); err != nil {
			slog.Error("failed to scan feedback", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		f.UserID = stringPtr(userID)
		f.ContactInfo = stringPtr(contact)
		f.Response = stringPtr(response)
		if respondedAt.Valid {
			f.RespondedAt = &respondedAt.Time
		}
		feedback = append(feedback, f)
	}

	middleware.JSONResponse(w, http.StatusOK, feedback)
}

// Respond handles POST /feedback/{id}/respond (admin only)
func (h *FeedbackHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req models.RespondFeedbackRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	response := strings.TrimSpace(req.Response)
	if response == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "response is required")
		return
	}

	feedbackID := r.PathValue("id")
	res, err := h.db.Exec(`
		UPDATE feedback SET response = $1, responded_at = $2, status = $3 WHERE id = $4
	`, response, time.Now().UTC(), models.FeedbackResponded, feedbackID)
	if err != nil {
		slog.Error("failed to respond to feedback", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to respond")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Feedback not found")
		return
	}

	slog.Info("feedback responded", "feedback_id", feedbackID)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Response recorded"})
}
