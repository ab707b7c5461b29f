// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/deliberate/auth"
	"github.com/danielhkuo/deliberate/cliparse"
	"github.com/danielhkuo/deliberate/middleware"
	"github.com/danielhkuo/deliberate/models"
)

type ChecklistHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewChecklistHandler(db *sql.DB, cfg cliparse.Config) *ChecklistHandler {
	return &ChecklistHandler{db: db, cfg: cfg}
}

// validateQuestions trims question text and rejects empty lists or entries
func validateQuestions(questions []models.QuestionInput) ([]models.QuestionInput, string) {
	if len(questions) == 0 {
		return nil, "at least one question is required"
	}
	out := make([]models.QuestionInput, len(questions))
	for i, q := range questions {
		text := strings.TrimSpace(q.Question)
		if text == "" {
			return nil, "each question must have text"
		}
		out[i] = models.QuestionInput{Question: text, Description: strings.TrimSpace(q.Description)}
	}
	return out, ""
}

// insertQuestions writes questions in order. table is checklist_question or
// platform_checklist_question; fkColumn names its parent column.
func insertQuestions(q queryer, table, fkColumn, checklistID string, questions []models.QuestionInput) error {
	for i, question := range questions {
		questionID, err := auth.GenerateID(12)
		if err != nil {
			return err
		}
		_, err = q.Exec(
			`INSERT INTO `+table+` (id, `+fkColumn+`, position, question, description) VALUES ($1, $2, $3, $4, $5)`,
			questionID, checklistID, i, question.Question, nullString(question.Description),
		)
		if err != nil {
			return fmt.Errorf("failed to insert question: %w", err)
		}
	}
	return nil
}

// loadQuestions returns a checklist's questions in their original order
func loadQuestions(q queryer, table, fkColumn, checklistID string) ([]models.Question, error) {
	rows, err := q.Query(
		`SELECT id, question, description FROM `+table+` WHERE `+fkColumn+` = $1 ORDER BY position`,
		checklistID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		var question models.Question
		var desc sql.NullString
		if err := rows.Scan(&question.ID, &question.Question, &desc); err != nil {
			return nil, err
		}
		question.Description = desc.String
		questions = append(questions, question)
	}
	return questions, rows.Err()
}

// checklistOwner loads the owner and root of a checklist version
func checklistOwner(q queryer, checklistID string) (ownerID, rootID string, isRoot bool, err error) {
	var parentID sql.NullString
	err = q.QueryRow(`SELECT user_id, parent_id FROM checklist WHERE id = $1`, checklistID).Scan(&ownerID, &parentID)
	if err != nil {
		return "", "", false, err
	}
	if parentID.Valid {
		return ownerID, parentID.String, false, nil
	}
	return ownerID, checklistID, true, nil
}

// checklistVersions lists every version of a family, newest first
func checklistVersions(q queryer, rootID string) ([]models.ChecklistVersion, error) {
	rows, err := q.Query(`
		SELECT c.id, c.version, c.description, COUNT(d.id)
		FROM checklist c
		LEFT JOIN checklist_decision d ON d.checklist_id = c.id
		WHERE c.id = $1 OR c.parent_id = $1
		GROUP BY c.id, c.version, c.description
		ORDER BY c.version DESC
	`, rootID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versions := []models.ChecklistVersion{}
	for rows.Next() {
		var v models.ChecklistVersion
		var desc sql.NullString
		if err := rows.Scan(&v.ID, &v.Version, &desc, &v.DecisionCount); err != nil {
			return nil, err
		}
		v.Description = desc.String
		v.CanUpdate = v.ID == rootID
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// List handles GET /checklists
// Returns the caller's root checklists, newest first, each with its versions
func (h *ChecklistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	page, size := middleware.ParsePagination(r, "page_size", 10)

	total, err := countRows(h.db, `SELECT COUNT(*) FROM checklist WHERE user_id = $1 AND parent_id IS NULL`, userID)
	if err != nil {
		slog.Error("failed to count checklists", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(`
		SELECT c.id, c.name, c.description, c.version, c.is_clone, COUNT(d.id)
		FROM checklist c
		LEFT JOIN checklist_decision d ON d.checklist_id = c.id
		WHERE c.user_id = $1 AND c.parent_id IS NULL
		GROUP BY c.id, c.name, c.description, c.version, c.is_clone, c.created_at
		ORDER BY c.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, size, (page-1)*size)
	if err != nil {
		slog.Error("failed to query checklists", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	checklists := []models.ChecklistSummary{}
	for rows.Next() {
		var c models.ChecklistSummary
		var desc sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &desc, &c.Version, &c.IsClone, &c.DecisionCount); err != nil {
			rows.Close()
			slog.Error("failed to scan checklist", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		c.Description = desc.String
		c.CanUpdate = true
		checklists = append(checklists, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate checklists", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	for i := range checklists {
		versions, err := checklistVersions(h.db, checklists[i].ID)
		if err != nil {
			slog.Error("failed to query checklist versions", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		// The root itself is already the summary
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

// Create handles POST /checklists
func (h *ChecklistHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.CreateChecklistRequest
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

	checklistID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate checklist ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create checklist")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO checklist (id, user_id, version, name, description, mermaid_code, created_at)
		VALUES ($1, $2, 1, $3, $4, $5, $6)
	`, checklistID, userID, name, nullString(req.Description), nullString(req.MermaidCode), time.Now().UTC())
	if err != nil {
		slog.Error("failed to insert checklist", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create checklist")
		return
	}

	if err := insertQuestions(tx, "checklist_question", "checklist_id", checklistID, questions); err != nil {
		slog.Error("failed to insert checklist questions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create checklist")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit checklist", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create checklist")
		return
	}

	slog.Info("checklist created", "checklist_id", checklistID, "user_id", userID, "questions", len(questions))

	middleware.JSONResponse(w, http.StatusCreated, models.CreateChecklistResponse{ChecklistID: checklistID})
}

// Get handles GET /checklists/{id}
// Any version ID resolves to the latest version of its family
func (h *ChecklistHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	checklistID := r.PathValue("id")
	ownerID, rootID, _, err := checklistOwner(h.db, checklistID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Checklist not found")
		return
	}
	if err != nil {
		slog.Error("failed to query checklist", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if ownerID != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "You are not allowed to access this checklist")
		return
	}

	versions, err := checklistVersions(h.db, rootID)
	if err != nil || len(versions) == 0 {
		slog.Error("failed to query checklist versions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	detail := models.ChecklistDetail{ID: versions[0].ID, RootID: rootID, Versions: versions}
	var desc, mermaid sql.NullString
	err = h.db.QueryRow(`
		SELECT name, description, mermaid_code, version, is_clone FROM checklist WHERE id = $1
	`, detail.ID).Scan(&detail.Name, &desc, &mermaid, &detail.Version, &detail.IsClone)
	if err != nil {
		slog.Error("failed to query latest checklist version", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	detail.Description = desc.String
	detail.MermaidCode = mermaid.String

	detail.Questions, err = loadQuestions(h.db, "checklist_question", "checklist_id", detail.ID)
	if err != nil {
		slog.Error("failed to query checklist questions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, detail)
}

// Update handles PUT /checklists/{id}
// Appends a new version to the family instead of editing in place
func (h *ChecklistHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.UpdateChecklistRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
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

	ownerID, rootID, _, err := checklistOwner(tx, r.PathValue("id"))
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Checklist not found")
		return
	}
	if err != nil {
		slog.Error("failed to query checklist", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if ownerID != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "You are not allowed to access this checklist")
		return
	}

	var name string
	var latestVersion int
	var desc, mermaid sql.NullString
	err = tx.QueryRow(`
		SELECT name, description, mermaid_code, version
		FROM checklist
		WHERE id = $1 OR parent_id = $1
		ORDER BY version DESC
		LIMIT 1
	`, rootID).Scan(&name, &desc, &mermaid, &latestVersion)
	if err != nil {
		slog.Error("failed to query latest checklist version", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if req.Description != nil {
		desc = nullString(*req.Description)
	}
	if req.MermaidCode != nil {
		mermaid = nullString(*req.MermaidCode)
	}

	newID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate checklist ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update checklist")
		return
	}

	_, err = tx.Exec(`
		INSERT INTO checklist (id, user_id, parent_id, version, name, description, mermaid_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, newID, userID, rootID, latestVersion+1, name, desc, mermaid, time.Now().UTC())
	if err != nil {
		slog.Error("failed to insert checklist version", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update checklist")
		return
	}

	if err := insertQuestions(tx, "checklist_question", "checklist_id", newID, questions); err != nil {
		slog.Error("failed to insert checklist questions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update checklist")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit checklist version", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update checklist")
		return
	}

	slog.Info("checklist version added", "checklist_id", newID, "root_id", rootID, "version", latestVersion+1)

	middleware.JSONResponse(w, http.StatusOK, models.CreateChecklistResponse{ChecklistID: newID})
}

// Delete handles DELETE /checklists/{id}
// Removes one version with its questions, decisions, answers, reviews and
// groups. A root with remaining versions must be deleted as a family.
func (h *ChecklistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	checklistID := r.PathValue("id")
	ownerID, _, isRoot, err := checklistOwner(h.db, checklistID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Checklist not found")
		return
	}
	if err != nil {
		slog.Error("failed to query checklist", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if ownerID != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "You are not allowed to access this checklist")
		return
	}

	if isRoot {
		children, err := countRows(h.db, `SELECT COUNT(*) FROM checklist WHERE parent_id = $1`, checklistID)
		if err != nil {
			slog.Error("failed to count checklist versions", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if children > 0 {
			middleware.ErrorResponse(w, http.StatusConflict, "Checklist has newer versions; delete the family instead")
			return
		}
	}

	if _, err := h.db.Exec(`DELETE FROM checklist WHERE id = $1`, checklistID); err != nil {
		slog.Error("failed to delete checklist", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete checklist")
		return
	}

	slog.Info("checklist deleted", "checklist_id", checklistID, "user_id", userID)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Checklist deleted"})
}

// DeleteFamily handles DELETE /checklists/{id}/family
func (h *ChecklistHandler) DeleteFamily(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	checklistID := r.PathValue("id")

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	ownerID, _, isRoot, err := checklistOwner(tx, checklistID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Checklist not found")
		return
	}
	if err != nil {
		slog.Error("failed to query checklist", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !isRoot {
		middleware.ErrorResponse(w, http.StatusBadRequest, "This is not a root checklist")
		return
	}
	if ownerID != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "You are not allowed to access this checklist")
		return
	}

	res, err := tx.Exec(`DELETE FROM checklist WHERE parent_id = $1`, checklistID)
	if err != nil {
		slog.Error("failed to delete checklist versions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete checklist")
		return
	}
	removed, _ := res.RowsAffected()

	if _, err := tx.Exec(`DELETE FROM checklist WHERE id = $1`, checklistID); err != nil {
		slog.Error("failed to delete root checklist", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete checklist")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit checklist deletion", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete checklist")
		return
	}

	slog.Info("checklist family deleted", "root_id", checklistID, "versions", removed+1)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Checklist and all versions deleted"})
}

// Clone handles POST /checklists/clone
// Copies a platform checklist into the caller's own checklists
func (h *ChecklistHandler) Clone(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.CloneChecklistRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ChecklistID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "checklist_id is required")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var name string
	var desc, mermaid sql.NullString
	err = tx.QueryRow(`
		SELECT name, description, mermaid_code FROM platform_checklist WHERE id = $1
	`, req.ChecklistID).Scan(&name, &desc, &mermaid)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Platform checklist not found")
		return
	}
	if err != nil {
		slog.Error("failed to query platform checklist", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	platformQuestions, err := loadQuestions(tx, "platform_checklist_question", "platform_checklist_id", req.ChecklistID)
	if err != nil {
		slog.Error("failed to query platform questions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	checklistID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate checklist ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to clone checklist")
		return
	}

	_, err = tx.Exec(`
		INSERT INTO checklist (id, user_id, version, name, description, mermaid_code, is_clone, platform_checklist_id, created_at)
		VALUES ($1, $2, 1, $3, $4, $5, $6, $7, $8)
	`, checklistID, userID, name, desc, mermaid, true, req.ChecklistID, time.Now().UTC())
	if err != nil {
		slog.Error("failed to insert cloned checklist", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to clone checklist")
		return
	}

	questions := make([]models.QuestionInput, len(platformQuestions))
	for i, q := range platformQuestions {
		questions[i] = models.QuestionInput{Question: q.Question, Description: q.Description}
	}
	if err := insertQuestions(tx, "checklist_question", "checklist_id", checklistID, questions); err != nil {
		slog.Error("failed to insert cloned questions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to clone checklist")
		return
	}

	_, err = tx.Exec(`UPDATE platform_checklist SET clone_count = clone_count + 1 WHERE id = $1`, req.ChecklistID)
	if err != nil {
		slog.Error("failed to bump clone count", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to clone checklist")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit clone", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to clone checklist")
		return
	}

	slog.Info("platform checklist cloned", "platform_checklist_id", req.ChecklistID, "checklist_id", checklistID, "user_id", userID)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateChecklistResponse{ChecklistID: checklistID})
}
