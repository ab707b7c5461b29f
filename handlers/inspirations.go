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

type InspirationHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewInspirationHandler(db *sql.DB, cfg cliparse.Config) *InspirationHandler {
	return &InspirationHandler{db: db, cfg: cfg}
}

// latestReflection matches only the newest of a user's reflections on each
// inspiration. Ties on updated_at fall back to the larger ID.
const latestReflection = `
	NOT EXISTS (
		SELECT 1 FROM reflection r2
		WHERE r2.user_id = r.user_id
		  AND r2.inspiration_id = r.inspiration_id
		  AND (r2.updated_at > r.updated_at OR (r2.updated_at = r.updated_at AND r2.id > r.id))
	)`

func scanReflectionWithInspiration(rows *sql.Rows) (models.Reflection, error) {
	var rf models.Reflection
	insp := &models.Inspiration{}
	err := rows.Scan(&rf.ID, &rf.InspirationID, &rf.Content, &rf.CreatedAt, &rf.UpdatedAt,
		&insp.ID, &insp.Type, &insp.Content, &insp.CreatedAt, &insp.UpdatedAt)
	rf.Inspiration = insp
	return rf, err
}

// List handles GET /inspirations
func (h *InspirationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size := middleware.ParsePagination(r, "per_page", 2)

	total, err := countRows(h.db, `SELECT COUNT(*) FROM inspiration`)
	if err != nil {
		slog.Error("failed to count inspirations", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(`
		SELECT id, type, content, created_at, updated_at
		FROM inspiration
		ORDER BY updated_at DESC, id
		LIMIT $1 OFFSET $2
	`, size, (page-1)*size)
	if err != nil {
		slog.Error("failed to query inspirations", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	inspirations := []models.Inspiration{}
	for rows.Next() {
		var i models.Inspiration
		if err := rows.Scan(&i.ID, &i.Type, &i.Content, &i.CreatedAt, &i.UpdatedAt); err != nil {
			slog.Error("failed to scan inspiration", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		inspirations = append(inspirations, i)
	}

	middleware.JSONResponse(w, http.StatusOK, models.InspirationListResponse{
		Inspirations: inspirations,
		Page:         middleware.NewPage(page, size, total),
	})
}

// Create handles POST /inspirations (admin only)
func (h *InspirationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateInspirationRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	kind := strings.TrimSpace(req.Type)
	content := strings.TrimSpace(req.Content)
	if kind == "" || content == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "type and content are required")
		return
	}

	inspirationID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate inspiration ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create inspiration")
		return
	}

	now := time.Now().UTC()
	_, err = h.db.Exec(`
		INSERT INTO inspiration (id, type, content, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)
	`, inspirationID, kind, content, now)
	if err != nil {
		slog.Error("failed to insert inspiration", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create inspiration")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.IDResponse{ID: inspirationID})
}

// Reflections handles GET /inspirations/{id}/reflections
// Lists the caller's own reflections on one inspiration, newest first
func (h *InspirationHandler) Reflections(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	inspirationID := r.PathValue("id")
	n, err := countRows(h.db, `SELECT COUNT(*) FROM inspiration WHERE id = $1`, inspirationID)
	if err != nil {
		slog.Error("failed to query inspiration", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Inspiration not found")
		return
	}

	rows, err := h.db.Query(`
		SELECT id, inspiration_id, content, created_at, updated_at
		FROM reflection
		WHERE user_id = $1 AND inspiration_id = $2
		ORDER BY updated_at DESC
	`, userID, inspirationID)
	if err != nil {
		slog.Error("failed to query reflections", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	reflections := []models.Reflection{}
	for rows.Next() {
		var rf models.Reflection
		if err := rows.Scan(&rf.ID, &rf.InspirationID, &rf.Content, &rf.CreatedAt, &rf.UpdatedAt); err != nil {
			slog.Error("failed to scan reflection", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		reflections = append(reflections, rf)
	}

	middleware.JSONResponse(w, http.StatusOK, models.InspirationReflectionsResponse{
		InspirationID: inspirationID,
		Reflections:   reflections,
		Count:         len(reflections),
	})
}

// CreateReflection handles POST /reflections
func (h *InspirationHandler) CreateReflection(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.CreateReflectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	content := strings.TrimSpace(req.Content)
	if req.InspirationID == "" || content == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "inspiration_id and content are required")
		return
	}

	n, err := countRows(h.db, `SELECT COUNT(*) FROM inspiration WHERE id = $1`, req.InspirationID)
	if err != nil {
		slog.Error("failed to query inspiration", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Inspiration not found")
		return
	}

	reflectionID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate reflection ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create reflection")
		return
	}

	now := time.Now().UTC()
	_, err = h.db.Exec(`
		INSERT INTO reflection (id, user_id, inspiration_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, reflectionID, userID, req.InspirationID, content, now)
	if err != nil {
		slog.Error("failed to insert reflection", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create reflection")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.IDResponse{ID: reflectionID})
}

// ownedReflection writes 404/403/500 unless userID wrote the reflection
func (h *InspirationHandler) ownedReflection(w http.ResponseWriter, reflectionID, userID string) bool {
	var ownerID string
	err := h.db.QueryRow(`SELECT user_id FROM reflection WHERE id = $1`, reflectionID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Reflection not found")
		return false
	}
	if err != nil {
		slog.Error("failed to query reflection", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false
	}
	if ownerID != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "You are not allowed to access this reflection")
		return false
	}
	return true
}

// UpdateReflection handles PUT /reflections/{id}
func (h *InspirationHandler) UpdateReflection(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.UpdateReflectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "content is required")
		return
	}

	reflectionID := r.PathValue("id")
	if !h.ownedReflection(w, reflectionID, userID) {
		return
	}

	_, err := h.db.Exec(`UPDATE reflection SET content = $1, updated_at = $2 WHERE id = $3`,
		content, time.Now().UTC(), reflectionID)
	if err != nil {
		slog.Error("failed to update reflection", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update reflection")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Reflection updated"})
}

// DeleteReflection handles DELETE /reflections/{id}
func (h *InspirationHandler) DeleteReflection(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	reflectionID := r.PathValue("id")
	if !h.ownedReflection(w, reflectionID, userID) {
		return
	}

	if _, err := h.db.Exec(`DELETE FROM reflection WHERE id = $1`, reflectionID); err != nil {
		slog.Error("failed to delete reflection", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete reflection")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Reflection deleted"})
}

// Mine handles GET /reflections/mine
// One entry per inspiration: the caller's latest reflection on it
func (h *InspirationHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	page, size := middleware.ParsePagination(r, "per_page", 10)

	total, err := countRows(h.db, `SELECT COUNT(DISTINCT inspiration_id) FROM reflection WHERE user_id = $1`, userID)
	if err != nil {
		slog.Error("failed to count reflections", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(`
		SELECT r.id, r.inspiration_id, r.content, r.created_at, r.updated_at,
		       i.id, i.type, i.content, i.created_at, i.updated_at
		FROM reflection r
		JOIN inspiration i ON i.id = r.inspiration_id
		WHERE r.user_id = $1 AND `+latestReflection+`
		ORDER BY r.updated_at DESC, r.id
		LIMIT $2 OFFSET $3
	`, userID, size, (page-1)*size)
	if err != nil {
		slog.Error("failed to query reflections", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	reflections := []models.Reflection{}
	for rows.Next() {
		rf, err := scanReflectionWithInspiration(rows)
		if err != nil {
			slog.Error("failed to scan reflection", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		reflections = append(reflections, rf)
	}

	middleware.JSONResponse(w, http.StatusOK, models.ReflectionListResponse{
		Reflections: reflections,
		Page:        middleware.NewPage(page, size, total),
	})
}

// MineRandom handles GET /reflections/mine/random
// Picks up to two inspirations the caller reflected on, each with the
// latest reflection
func (h *InspirationHandler) MineRandom(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	rows, err := h.db.Query(`
		SELECT r.id, r.inspiration_id, r.content, r.created_at, r.updated_at,
		       i.id, i.type, i.content, i.created_at, i.updated_at
		FROM reflection r
		JOIN inspiration i ON i.id = r.inspiration_id
		WHERE r.user_id = $1 AND `+latestReflection+`
		ORDER BY RANDOM()
		LIMIT 2
	`, userID)
	if err != nil {
		slog.Error("failed to query random reflections", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	reflections := []models.Reflection{}
	for rows.Next() {
		rf, err := scanReflectionWithInspiration(rows)
		if err != nil {
			slog.Error("failed to scan reflection", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		reflections = append(reflections, rf)
	}

	middleware.JSONResponse(w, http.StatusOK, reflections)
}
