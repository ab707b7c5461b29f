// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/deliberate/auth"
	"github.com/danielhkuo/deliberate/middleware"
	"github.com/danielhkuo/deliberate/models"
)

// CreateReview handles POST /decisions/{id}/reviews
func (h *DecisionHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.CreateReviewRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "content is required")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	decisionID := r.PathValue("id")
	if _, ok := checkDecisionAccess(w, tx, decisionID, userID); !ok {
		return
	}

	reviewID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate review ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create review")
		return
	}

	_, err = tx.Exec(`
		INSERT INTO review (id, decision_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, reviewID, decisionID, userID, content, time.Now().UTC())
	if err != nil {
		slog.Error("failed to insert review", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create review")
		return
	}

	if err := linkArticles(tx, "review_article", "review_id", reviewID, req.ReferencedArticles); err != nil {
		slog.Error("failed to link review articles", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create review")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit review", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create review")
		return
	}

	slog.Info("review created", "review_id", reviewID, "decision_id", decisionID)

	middleware.JSONResponse(w, http.StatusCreated, models.IDResponse{ID: reviewID})
}

// ListReviews handles GET /decisions/{id}/reviews
func (h *DecisionHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	decisionID := r.PathValue("id")
	if _, ok := checkDecisionAccess(w, h.db, decisionID, userID); !ok {
		return
	}

	rows, err := h.db.Query(`
		SELECT r.id, r.user_id, u.username, r.content, r.created_at
		FROM review r
		JOIN app_user u ON u.id = r.user_id
		WHERE r.decision_id = $1
		ORDER BY r.created_at DESC
	`, decisionID)
	if err != nil {
		slog.Error("failed to query reviews", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	reviews := []models.Review{}
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.Username, &rv.Content, &rv.CreatedAt); err != nil {
			rows.Close()
			slog.Error("failed to scan review", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		reviews = append(reviews, rv)
	}
	rows.Close()

	refs, err := articleRefs(h.db, "review_article", "review_id",
		`SELECT id FROM review WHERE decision_id = $1`, decisionID)
	if err != nil {
		slog.Error("failed to query review articles", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	for i := range reviews {
		reviews[i].ReferencedArticles = refs[reviews[i].ID]
		if reviews[i].ReferencedArticles == nil {
			reviews[i].ReferencedArticles = []models.ArticleRef{}
		}
	}

	middleware.JSONResponse(w, http.StatusOK, reviews)
}
