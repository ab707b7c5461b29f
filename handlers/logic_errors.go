// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/deliberate/middleware"
	"github.com/danielhkuo/deliberate/models"
)

type LogicErrorHandler struct {
	db *sql.DB
}

func NewLogicErrorHandler(db *sql.DB) *LogicErrorHandler {
	return &LogicErrorHandler{db: db}
}

// List handles GET /logic-errors
func (h *LogicErrorHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`SELECT id, name, term, description, example FROM logic_error ORDER BY name`)
	if err != nil {
		slog.Error("failed to query logic errors", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	logicErrors := []models.LogicError{}
	for rows.Next() {
		var le models.LogicError
		var example sql.NullString
		if err := rows.Scan(&le.ID, &le.Name, &le.Term, &le.Description, &example); err != nil {
			slog.Error("failed to scan logic error", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		le.Example = stringPtr(example)
		logicErrors = append(logicErrors, le)
	}

	middleware.JSONResponse(w, http.StatusOK, logicErrors)
}
