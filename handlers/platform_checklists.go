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
	"github.com/danielhkuo/deliberate/middleware"
	"github.com/danielhkuo/deliberate/models"
)

// platformVersions lists every version of a platform checklist family,
// newest first. Only the root version can be cloned.
func platformVersions(q queryer, rootID string) ([]models.ChecklistVersion, error) {
	rows, err := q.Query(`
		SELECT id, version, description
		FROM platform_checklist
		WHERE id = $1 OR parent_id = $1
		ORDER BY version DESC
	`, rootID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versions := []models.ChecklistVersion{}
	for rows.Next() {
		var v models.ChecklistVersion
		var desc sql.NullString
		if err := rows.Scan(&v.ID, &v.Version, &desc); err != nil {
			return nil, err
		}
		v.Description = desc.String
		v.CanUpdate = v.ID == rootID
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// ListPlatform handles GET /platform-checklists
func (h *ChecklistHandler) ListPlatform(w http.ResponseWriter, r *http.Request) {
	page, size := middleware.ParsePagination(r, "page_size", 10)

	total, err := countRows(h.db, `SELECT COUNT(*) FROM platform_checklist WHERE parent_id IS NULL`)
	if err != nil {
		slog.Error("failed to count platform checklists", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(`
		SELECT id, name, description, version, clone_count
		FROM platform_checklist
		WHERE parent_id IS NULL
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, size, (page-1)*size)
	if err != nil {
		slog.Error("failed to query platform checklists", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	checklists := []models.ChecklistSummary{}
	for rows.Next() {
		var c models.ChecklistSummary
		var desc sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &desc, &c.Version, &c.CloneCount); err != nil {
			rows.Close()
			slog.Error("failed to scan platform checklist", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		c.Description = desc.String
		checklists = append(checklists, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate platform checklists", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	for i := range checklists {
		versions, err := platformVersions(h.db, checklists[i].ID)
		if err != nil {
			slog.Error("failed to query platform versions", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		checklists[i].Versions = []models.ChecklistVersion{}
		for _, v := range versions {
			if v.ID != checklists[i].ID {
				checklists[i].Versions = append(checklists[i].Versions, v)
			}
		}
	}

	middleware.JSONResponse(w, http.StatusOK, models.ChecklistListResponse{
		Checklists: checklists,
		Page:       middleware.NewPage(page, size, total),
	})
}

// GetPlatform handles GET /platform-checklists/{id}
func (h *ChecklistHandler) GetPlatform(w http.ResponseWriter, r *http.Request) {
	checklistID := r.PathValue("id")

	var parentID sql.NullString
	err := h.db.QueryRow(`SELECT parent_id FROM platform_checklist WHERE id = $1`, checklistID).Scan(&parentID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Platform checklist not found")
		return
	}
	if err != nil {
		slog.Error("failed to query platform checklist", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	rootID := checklistID
	if parentID.Valid {
		rootID = parentID.String
	}

	versions, err := platformVersions(h.db, rootID)
	if err != nil || len(versions) == 0 {
		slog.Error("failed to query platform versions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	detail := models.ChecklistDetail{ID: versions[0].ID, RootID: rootID, Versions: versions}
	var desc, mermaid sql.NullString
	err = h.db.QueryRow(`
		SELECT name, description, mermaid_code, version FROM platform_checklist WHERE id = $1
	`, detail.ID).Scan(&detail.Name, &desc, &mermaid, &detail.Version)
	if err != nil {
		slog.Error("failed to query latest platform version", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	detail.Description = desc.String
	detail.MermaidCode = mermaid.String

	detail.Questions, err = loadQuestions(h.db, "platform_checklist_question", "platform_checklist_id", detail.ID)
	if err != nil {
		slog.Error("failed to query platform questions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, detail)
}

// CreatePlatform handles POST /platform-checklists (admin only)
// With parent_id set the checklist becomes the next version of that family.
func (h *ChecklistHandler) CreatePlatform(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePlatformChecklistRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	questions, msg := validateQuestions(req.Questions)
	if msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	version := 1
	var parentID sql.NullString
	if req.ParentID != "" {
		var grandparent sql.NullString
		err := tx.QueryRow(`SELECT parent_id FROM platform_checklist WHERE id = $1`, req.ParentID).Scan(&grandparent)
		if err == sql.ErrNoRows {
			middleware.ErrorResponse(w, http.StatusNotFound, "Parent checklist not found")
			return
		}
		if err != nil {
			slog.Error("failed to query parent platform checklist", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		rootID := req.ParentID
		if grandparent.Valid {
			rootID = grandparent.String
		}

		var latest int
		err = tx.QueryRow(`
			SELECT MAX(version) FROM platform_checklist WHERE id = $1 OR parent_id = $1
		`, rootID).Scan(&latest)
		if err != nil {
			slog.Error("failed to query latest platform version", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		version = latest + 1
		parentID = nullString(rootID)
	}

	checklistID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate checklist ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create checklist")
		return
	}

	_, err = tx.Exec(`
		INSERT INTO platform_checklist (id, parent_id, version, name, description, mermaid_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, checklistID, parentID, version, name, nullString(req.Description), nullString(req.MermaidCode), time.Now().UTC())
	if err != nil {
		slog.Error("failed to insert platform checklist", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create checklist")
		return
	}

	if err := insertQuestions(tx, "platform_checklist_question", "platform_checklist_id", checklistID, questions); err != nil {
		slog.Error("failed to insert platform questions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create checklist")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit platform checklist", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create checklist")
		return
	}

	slog.Info("platform checklist created", "checklist_id", checklistID, "version", version)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateChecklistResponse{ChecklistID: checklistID})
}
