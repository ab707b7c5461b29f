// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/deliberate/auth"
	"github.com/danielhkuo/deliberate/cliparse"
	"github.com/danielhkuo/deliberate/middleware"
	"github.com/danielhkuo/deliberate/models"
)

var (
	todoTypes    = map[string]bool{models.TodoToday: true, models.TodoThisWeek: true, models.TodoThisMonth: true, models.TodoCustom: true}
	todoStatuses = map[string]bool{models.StatusNotStarted: true, models.StatusInProgress: true, models.StatusCompleted: true, models.StatusEnded: true}
)

type TodoHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	now func() time.Time
}

func NewTodoHandler(db *sql.DB, cfg cliparse.Config) *TodoHandler {
	return &TodoHandler{db: db, cfg: cfg, now: time.Now}
}

// dueString renders end relative to now, e.g. "3 hours from now" or
// "2 days ago"
func dueString(end, now time.Time) string {
	return humanize.RelTime(end, now, "ago", "from now")
}

// expireTodos marks the user's overdue, unfinished todos as ended
func (h *TodoHandler) expireTodos(userID string) (int64, error) {
	now := h.now().UTC()
	res, err := h.db.Exec(`
		UPDATE todo_item
		SET status = $1, updated_at = $2
		WHERE user_id = $3 AND end_time < $2 AND status IN ($4, $5)
	`, models.StatusEnded, now, userID, models.StatusNotStarted, models.StatusInProgress)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// listTodos writes a page of the user's todos in one of the given statuses
func (h *TodoHandler) listTodos(w http.ResponseWriter, r *http.Request, userID, orderBy string, statuses ...string) {
	page, size := middleware.ParsePagination(r, "page_size", 10)

	total, err := countRows(h.db, `SELECT COUNT(*) FROM todo_item WHERE user_id = $1 AND status IN ($2, $3)`,
		userID, statuses[0], statuses[len(statuses)-1])
	if err != nil {
		slog.Error("failed to count todos", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(`
		SELECT id, name, type, status, start_time, end_time, importance, urgency, updated_at
		FROM todo_item
		WHERE user_id = $1 AND status IN ($2, $3)
		ORDER BY `+orderBy+`
		LIMIT $4 OFFSET $5
	`, userID, statuses[0], statuses[len(statuses)-1], size, (page-1)*size)
	if err != nil {
		slog.Error("failed to query todos", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	now := h.now()
	todos := []models.Todo{}
	for rows.Next() {
		var t models.Todo
		if err := rows.Scan(&t.ID, &t.Name, &t.Type, &t.Status, &t.StartTime, &t.EndTime, &t.Importance, &t.Urgency, &t.UpdatedAt); err != nil {
			slog.Error("failed to scan todo", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		t.Due = dueString(t.EndTime, now)
		todos = append(todos, t)
	}

	middleware.JSONResponse(w, http.StatusOK, models.TodoListResponse{
		Todos: todos,
		Page:  middleware.NewPage(page, size, total),
	})
}

// Create handles POST /todos
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.CreateTodoRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if !todoTypes[req.Type] {
		middleware.ErrorDetails(w, http.StatusBadRequest, "invalid type", map[string]any{
			"allowed": []string{models.TodoToday, models.TodoThisWeek, models.TodoThisMonth, models.TodoCustom},
		})
		return
	}
	if req.Status == "" {
		req.Status = models.StatusNotStarted
	}
	if !todoStatuses[req.Status] {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid status")
		return
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		middleware.ErrorResponse(w, http.StatusBadRequest, "start_time and end_time are required")
		return
	}
	if req.EndTime.Before(req.StartTime) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "end_time must not be before start_time")
		return
	}

	todoID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate todo ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create todo")
		return
	}

	now := h.now().UTC()
	_, err = h.db.Exec(`
		INSERT INTO todo_item (id, user_id, name, type, status, start_time, end_time, importance, urgency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`, todoID, userID, name, req.Type, req.Status, req.StartTime.UTC(), req.EndTime.UTC(), req.Importance, req.Urgency, now)
	if err != nil {
		slog.Error("failed to insert todo", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create todo")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.IDResponse{ID: todoID})
}

// List handles GET /todos
// Overdue todos are swept to ended before the open ones are listed
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	expired, err := h.expireTodos(userID)
	if err != nil {
		slog.Error("failed to expire todos", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if expired > 0 {
		slog.Info("todos expired", "user_id", userID, "count", expired)
	}

	h.listTodos(w, r, userID, "importance DESC, urgency DESC, end_time ASC", models.StatusNotStarted, models.StatusInProgress)
}

// Completed handles GET /todos/completed
func (h *TodoHandler) Completed(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	h.listTodos(w, r, userID, "updated_at DESC", models.StatusCompleted)
}

// Ended handles GET /todos/ended
func (h *TodoHandler) Ended(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	if _, err := h.expireTodos(userID); err != nil {
		slog.Error("failed to expire todos", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	h.listTodos(w, r, userID, "updated_at DESC", models.StatusEnded)
}

// ownedTodo writes 404/403/500 unless userID owns the todo
func (h *TodoHandler) ownedTodo(w http.ResponseWriter, todoID, userID string) bool {
	var ownerID string
	err := h.db.QueryRow(`SELECT user_id FROM todo_item WHERE id = $1`, todoID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Todo not found")
		return false
	}
	if err != nil {
		slog.Error("failed to query todo", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false
	}
	if ownerID != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "You are not allowed to access this todo")
		return false
	}
	return true
}

// Update handles PUT /todos/{id}
// The only transition a client may request is to completed
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.UpdateTodoRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Status != models.StatusCompleted {
		middleware.ErrorResponse(w, http.StatusBadRequest, "status can only be set to completed")
		return
	}

	todoID := r.PathValue("id")
	if !h.ownedTodo(w, todoID, userID) {
		return
	}

	_, err := h.db.Exec(`UPDATE todo_item SET status = $1, updated_at = $2 WHERE id = $3`,
		models.StatusCompleted, h.now().UTC(), todoID)
	if err != nil {
		slog.Error("failed to update todo", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update todo")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Todo completed"})
}

// Delete handles DELETE /todos/{id}
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	todoID := r.PathValue("id")
	if !h.ownedTodo(w, todoID, userID) {
		return
	}

	if _, err := h.db.Exec(`DELETE FROM todo_item WHERE id = $1`, todoID); err != nil {
		slog.Error("failed to delete todo", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete todo")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Todo deleted"})
}
