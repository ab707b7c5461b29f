// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/deliberate/auth"
	"github.com/danielhkuo/deliberate/cliparse"
	"github.com/danielhkuo/deliberate/middleware"
	"github.com/danielhkuo/deliberate/models"
)

type BalancedDecisionHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewBalancedDecisionHandler(db *sql.DB, cfg cliparse.Config) *BalancedDecisionHandler {
	return &BalancedDecisionHandler{db: db, cfg: cfg}
}

// Save handles POST /balanced-decisions
// conditions, comparisons and groups are stored as the client sent them
func (h *BalancedDecisionHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.SaveBalancedDecisionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name := strings.TrimSpace(req.DecisionName)
	if name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "decision_name is required")
		return
	}
	for field, raw := range map[string]json.RawMessage{
		"conditions":  req.Conditions,
		"comparisons": req.Comparisons,
		"groups":      req.Groups,
	} {
		if isBlank(raw) {
			middleware.ErrorDetails(w, http.StatusBadRequest, "missing field", map[string]any{"field": field})
			return
		}
	}

	decisionID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate balanced decision ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save decision")
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO balanced_decision (id, user_id, decision_name, conditions, comparisons, group_data, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, decisionID, userID, name, string(req.Conditions), string(req.Comparisons), string(req.Groups),
		nullString(strings.TrimSpace(req.DecisionResult)), time.Now().UTC())
	if err != nil {
		slog.Error("failed to insert balanced decision", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save decision")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.IDResponse{ID: decisionID})
}

// List handles GET /balanced-decisions
func (h *BalancedDecisionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	page, size := middleware.ParsePagination(r, "page_size", 10)

	total, err := countRows(h.db, `SELECT COUNT(*) FROM balanced_decision WHERE user_id = $1`, userID)
	if err != nil {
		slog.Error("failed to count balanced decisions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(`
		SELECT id, decision_name, result, created_at
		FROM balanced_decision
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, size, (page-1)*size)
	if err != nil {
		slog.Error("failed to query balanced decisions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	decisions := []models.BalancedDecisionSummary{}
	for rows.Next() {
		var d models.BalancedDecisionSummary
		var result sql.NullString
		if err := rows.Scan(&d.ID, &d.DecisionName, &result, &d.CreatedAt); err != nil {
			slog.Error("failed to scan balanced decision", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		d.Result = stringPtr(result)
		decisions = append(decisions, d)
	}

	middleware.JSONResponse(w, http.StatusOK, models.BalancedDecisionListResponse{
		Decisions: decisions,
		Page:      middleware.NewPage(page, size, total),
	})
}

// Get handles GET /balanced-decisions/{id}
func (h *BalancedDecisionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var d models.BalancedDecision
	var ownerID, conditions, comparisons, groups string
	var result sql.NullString
	err := h.db.QueryRow(`
		SELECT id, user_id, decision_name, conditions, comparisons, group_data, result, created_at
		FROM balanced_decision
		WHERE id = $1
	`, r.PathValue("id")).Scan(&d.ID, &ownerID, &d.DecisionName, &conditions, &comparisons, &groups, &result, &d.CreatedAt)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Decision not found")
		return
	}
	if err != nil {
		slog.Error("failed to query balanced decision", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if ownerID != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "You are not allowed to access this decision")
		return
	}

	d.Conditions = json.RawMessage(conditions)
	d.Comparisons = json.RawMessage(comparisons)
	d.Groups = json.RawMessage(groups)
	d.Result = stringPtr(result)

	middleware.JSONResponse(w, http.StatusOK, d)
}
