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

	"github.com/danielhkuo/deliberate/auth"
	"github.com/danielhkuo/deliberate/cliparse"
	"github.com/danielhkuo/deliberate/middleware"
	"github.com/danielhkuo/deliberate/models"
)

var errUnknownQuestion = errors.New("question does not belong to this checklist")

type DecisionHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewDecisionHandler(db *sql.DB, cfg cliparse.Config) *DecisionHandler {
	return &DecisionHandler{db: db, cfg: cfg}
}

// insertAnswers stores answers by userID on a decision. Every question must
// belong to checklistID or errUnknownQuestion is returned.
func insertAnswers(q queryer, decisionID, checklistID, userID string, answers []models.AnswerInput) error {
	now := time.Now().UTC()
	for _, a := range answers {
		n, err := countRows(q, `SELECT COUNT(*) FROM checklist_question WHERE id = $1 AND checklist_id = $2`, a.QuestionID, checklistID)
		if err != nil {
			return err
		}
		if n == 0 {
			return errUnknownQuestion
		}

		answerID, err := auth.GenerateID(16)
		if err != nil {
			return err
		}
		_, err = q.Exec(`
			INSERT INTO checklist_answer (id, decision_id, question_id, user_id, answer, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, answerID, decisionID, a.QuestionID, userID, strings.TrimSpace(a.Answer), now)
		if err != nil {
			return err
		}

		if err := linkArticles(q, "answer_article", "answer_id", answerID, a.ReferencedArticles); err != nil {
			return err
		}
	}
	return nil
}

// decisionResponses loads every participant's answers keyed by question ID
func decisionResponses(q queryer, decisionID string) (map[string][]models.Response, error) {
	rows, err := q.Query(`
		SELECT a.id, a.question_id, a.user_id, u.username, a.answer
		FROM checklist_answer a
		JOIN app_user u ON u.id = a.user_id
		WHERE a.decision_id = $1
		ORDER BY a.created_at, a.id
	`, decisionID)
	if err != nil {
		return nil, err
	}

	type answerRow struct {
		id, questionID string
		resp           models.Response
	}
	var answers []answerRow
	for rows.Next() {
		var a answerRow
		if err := rows.Scan(&a.id, &a.questionID, &a.resp.UserID, &a.resp.Username, &a.resp.Answer); err != nil {
			rows.Close()
			return nil, err
		}
		answers = append(answers, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs, err := articleRefs(q, "answer_article", "answer_id",
		`SELECT id FROM checklist_answer WHERE decision_id = $1`, decisionID)
	if err != nil {
		return nil, err
	}

	byQuestion := make(map[string][]models.Response)
	for _, a := range answers {
		a.resp.ReferencedArticles = refs[a.id]
		if a.resp.ReferencedArticles == nil {
			a.resp.ReferencedArticles = []models.ArticleRef{}
		}
		byQuestion[a.questionID] = append(byQuestion[a.questionID], a.resp)
	}
	return byQuestion, nil
}

// decisionGroup returns the group attached to a decision, or nil
func decisionGroup(q queryer, decisionID string) (*models.GroupSummary, error) {
	group := &models.GroupSummary{}
	err := q.QueryRow(`
		SELECT id, name FROM decision_group WHERE decision_id = $1 ORDER BY created_at LIMIT 1
	`, decisionID).Scan(&group.ID, &group.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	group.Members, err = groupMembers(q, group.ID)
	if err != nil {
		return nil, err
	}
	group.MembersCount = len(group.Members)
	return group, nil
}

// Create handles POST /decisions
func (h *DecisionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.CreateDecisionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name := strings.TrimSpace(req.DecisionName)
	if name == "" || req.ChecklistID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "checklist_id and decision_name are required")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var ownerID string
	err = tx.QueryRow(`SELECT user_id FROM checklist WHERE id = $1`, req.ChecklistID).Scan(&ownerID)
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

	decisionID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate decision ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create decision")
		return
	}

	_, err = tx.Exec(`
		INSERT INTO checklist_decision (id, checklist_id, user_id, decision_name, final_decision, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, decisionID, req.ChecklistID, userID, name, nullString(strings.TrimSpace(req.FinalDecision)), time.Now().UTC())
	if err != nil {
		slog.Error("failed to insert decision", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create decision")
		return
	}

	err = insertAnswers(tx, decisionID, req.ChecklistID, userID, req.Answers)
	if errors.Is(err, errUnknownQuestion) {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to insert answers", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create decision")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit decision", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create decision")
		return
	}

	slog.Info("decision created", "decision_id", decisionID, "checklist_id", req.ChecklistID, "answers", len(req.Answers))

	middleware.JSONResponse(w, http.StatusCreated, models.CreateDecisionResponse{DecisionID: decisionID})
}

// List handles GET /decisions
func (h *DecisionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	page, size := middleware.ParsePagination(r, "page_size", 10)

	total, err := countRows(h.db, `SELECT COUNT(*) FROM checklist_decision WHERE user_id = $1`, userID)
	if err != nil {
		slog.Error("failed to count decisions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(`
		SELECT d.id, d.decision_name, d.checklist_id, c.version, d.final_decision, d.created_at
		FROM checklist_decision d
		JOIN checklist c ON c.id = d.checklist_id
		WHERE d.user_id = $1
		ORDER BY d.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, size, (page-1)*size)
	if err != nil {
		slog.Error("failed to query decisions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	decisions := []models.DecisionSummary{}
	for rows.Next() {
		var d models.DecisionSummary
		var final sql.NullString
		if err := rows.Scan(&d.ID, &d.DecisionName, &d.ChecklistID, &d.Version, &final, &d.CreatedAt); err != nil {
			slog.Error("failed to scan decision", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		d.FinalDecision = stringPtr(final)
		decisions = append(decisions, d)
	}

	middleware.JSONResponse(w, http.StatusOK, models.DecisionListResponse{
		Decisions: decisions,
		Page:      middleware.NewPage(page, size, total),
	})
}

// Get handles GET /decisions/{id}
// Returns each question with every participant's responses
func (h *DecisionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	decisionID := r.PathValue("id")
	if _, ok := checkDecisionAccess(w, h.db, decisionID, userID); !ok {
		return
	}

	var detail models.DecisionDetail
	var final sql.NullString
	err := h.db.QueryRow(`
		SELECT d.id, d.decision_name, d.checklist_id, c.version, d.user_id, d.final_decision, d.created_at
		FROM checklist_decision d
		JOIN checklist c ON c.id = d.checklist_id
		WHERE d.id = $1
	`, decisionID).Scan(&detail.ID, &detail.DecisionName, &detail.ChecklistID, &detail.Version, &detail.OwnerID, &final, &detail.CreatedAt)
	if err != nil {
		slog.Error("failed to query decision", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	detail.FinalDecision = stringPtr(final)

	questions, err := loadQuestions(h.db, "checklist_question", "checklist_id", detail.ChecklistID)
	if err != nil {
		slog.Error("failed to query decision questions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	responses, err := decisionResponses(h.db, decisionID)
	if err != nil {
		slog.Error("failed to query decision responses", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	detail.Answers = make([]models.QuestionResponses, 0, len(questions))
	for _, q := range questions {
		qr := models.QuestionResponses{QuestionID: q.ID, Question: q.Question, Responses: responses[q.ID]}
		if qr.Responses == nil {
			qr.Responses = []models.Response{}
		}
		detail.Answers = append(detail.Answers, qr)
	}

	detail.Group, err = decisionGroup(h.db, decisionID)
	if err != nil {
		slog.Error("failed to query decision group", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	detail.HasGroup = detail.Group != nil

	middleware.JSONResponse(w, http.StatusOK, detail)
}

// Questions handles GET /decisions/{id}/questions
func (h *DecisionHandler) Questions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	decisionID := r.PathValue("id")
	if _, ok := checkDecisionAccess(w, h.db, decisionID, userID); !ok {
		return
	}

	var checklistID string
	if err := h.db.QueryRow(`SELECT checklist_id FROM checklist_decision WHERE id = $1`, decisionID).Scan(&checklistID); err != nil {
		slog.Error("failed to query decision checklist", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	questions, err := loadQuestions(h.db, "checklist_question", "checklist_id", checklistID)
	if err != nil {
		slog.Error("failed to query decision questions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, questions)
}

// SubmitAnswers handles POST /decisions/{id}/answers
// Group members answer the owner's checklist here
func (h *DecisionHandler) SubmitAnswers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.SubmitAnswersRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Answers) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "at least one answer is required")
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

	var checklistID string
	if err := tx.QueryRow(`SELECT checklist_id FROM checklist_decision WHERE id = $1`, decisionID).Scan(&checklistID); err != nil {
		slog.Error("failed to query decision checklist", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	err = insertAnswers(tx, decisionID, checklistID, userID, req.Answers)
	if errors.Is(err, errUnknownQuestion) {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to insert answers", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit answers")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit answers", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit answers")
		return
	}

	slog.Info("answers submitted", "decision_id", decisionID, "user_id", userID, "answers", len(req.Answers))

	middleware.JSONResponse(w, http.StatusCreated, models.MessageResponse{Message: "Answers submitted"})
}

// Responses handles GET /decisions/{id}/responses
func (h *DecisionHandler) Responses(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	decisionID := r.PathValue("id")
	if _, ok := checkDecisionAccess(w, h.db, decisionID, userID); !ok {
		return
	}

	responses, err := decisionResponses(h.db, decisionID)
	if err != nil {
		slog.Error("failed to query decision responses", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, responses)
}

// Delete handles DELETE /decisions/{id}
// Answers, reviews and groups go with it through ON DELETE CASCADE
func (h *DecisionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	decisionID := r.PathValue("id")

	var ownerID string
	err := h.db.QueryRow(`SELECT user_id FROM checklist_decision WHERE id = $1`, decisionID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Decision not found")
		return
	}
	if err != nil {
		slog.Error("failed to query decision", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if ownerID != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only the decision owner can delete it")
		return
	}

	if _, err := h.db.Exec(`DELETE FROM checklist_decision WHERE id = $1`, decisionID); err != nil {
		slog.Error("failed to delete decision", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete decision")
		return
	}

	slog.Info("decision deleted", "decision_id", decisionID, "user_id", userID)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Decision deleted"})
}
