// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/deliberate/ahp"
	"github.com/danielhkuo/deliberate/auth"
	"github.com/danielhkuo/deliberate/cliparse"
	"github.com/danielhkuo/deliberate/middleware"
	"github.com/danielhkuo/deliberate/models"
)

type AHPHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewAHPHandler(db *sql.DB, cfg cliparse.Config) *AHPHandler {
	return &AHPHandler{db: db, cfg: cfg}
}

// Analyze handles POST /ahp/analysis
func (h *AHPHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req models.AHPAnalysisRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorDetails(w, http.StatusBadRequest, "Invalid input data", map[string]any{
			"reason": err.Error(),
		})
		return
	}

	if len(req.CriteriaMatrix) == 0 || len(req.AlternativeMatrices) == 0 {
		middleware.ErrorDetails(w, http.StatusBadRequest, "Invalid input data", map[string]any{
			"reason": "criteria_matrix and alternative_matrices are required",
		})
		return
	}

	result, err := ahp.Analyze(req.CriteriaMatrix, req.AlternativeMatrices, req.AlternativeNames)
	if err != nil {
		writeAHPError(w, err)
		return
	}

	slog.Info("ahp analysis computed",
		"criteria", len(req.CriteriaMatrix),
		"alternatives", len(result.PriorityVector),
		"best", result.BestName,
	)

	middleware.JSONResponse(w, http.StatusOK, models.AHPAnalysisResponse{
		PriorityVector: result.PriorityVector,
		BestChoiceName: result.BestName,
	})
}

// writeAHPError maps engine errors onto 400 responses; anything unexpected
// is a 500
func writeAHPError(w http.ResponseWriter, err error) {
	var formatErr *ahp.MatrixFormatError
	var dimErr *ahp.DimensionMismatchError
	var consErr *ahp.ConsistencyError

	switch {
	case errors.As(err, &formatErr):
		details := map[string]any{
			"matrix": formatErr.Matrix,
			"reason": formatErr.Reason,
		}
		if formatErr.Row >= 0 {
			details["row"] = formatErr.Row
			details["col"] = formatErr.Col
		}
		middleware.ErrorDetails(w, http.StatusBadRequest, "Invalid matrix", details)

	case errors.As(err, &dimErr):
		middleware.ErrorDetails(w, http.StatusBadRequest, "Dimension mismatch", map[string]any{
			"field":    dimErr.Field,
			"expected": dimErr.Want,
			"got":      dimErr.Got,
		})

	case errors.As(err, &consErr):
		middleware.ErrorDetails(w, http.StatusBadRequest, "Inconsistent judgments", map[string]any{
			"matrix":            consErr.Matrix,
			"consistency_ratio": consErr.Ratio,
			"threshold":         ahp.ConsistencyThreshold,
		})

	default:
		slog.Error("ahp analysis failed", "error", err)
		middleware.ErrorDetails(w, http.StatusInternalServerError, "AHP computation failed", map[string]any{
			"reason": err.Error(),
		})
	}
}

// historyRequestData is the part of a stored analysis request we index
type historyRequestData struct {
	AlternativeNames []string `json:"alternative_names"`
	CriteriaNames    []string `json:"criteria_names"`
}

type historyResponseData struct {
	BestChoiceName string `json:"best_choice_name"`
}

func isBlank(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// SaveHistory handles POST /ahp/history
func (h *AHPHandler) SaveHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.SaveAHPHistoryRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if isBlank(req.RequestData) || isBlank(req.ResponseData) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "request_data and response_data are required")
		return
	}

	var reqData historyRequestData
	if err := json.Unmarshal(req.RequestData, &reqData); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "request_data must be an object")
		return
	}
	if len(reqData.AlternativeNames) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "request_data.alternative_names is required")
		return
	}

	var respData historyResponseData
	if err := json.Unmarshal(req.ResponseData, &respData); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "response_data must be an object")
		return
	}

	altNames, _ := json.Marshal(reqData.AlternativeNames)
	critNames, _ := json.Marshal(reqData.CriteriaNames)
	if reqData.CriteriaNames == nil {
		critNames = []byte("[]")
	}

	historyID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate history ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save history")
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO ahp_history (id, user_id, alternative_names, criteria_names, request_data, response_data, best_choice_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, historyID, userID, string(altNames), string(critNames),
		string(req.RequestData), string(req.ResponseData), respData.BestChoiceName, time.Now().UTC())
	if err != nil {
		slog.Error("failed to insert ahp history", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save history")
		return
	}

	slog.Info("ahp history saved", "history_id", historyID, "user_id", userID)

	middleware.JSONResponse(w, http.StatusCreated, models.IDResponse{ID: historyID})
}

// ListHistory handles GET /ahp/history
func (h *AHPHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	rows, err := h.db.Query(`
		SELECT id, alternative_names, criteria_names, request_data, response_data, best_choice_name, created_at
		FROM ahp_history
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		slog.Error("failed to query ahp history", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	history := []models.AHPHistory{}
	for rows.Next() {
		var rec models.AHPHistory
		var altNames, reqData, respData string
		var critNames, best sql.NullString
		if err := rows.Scan(&rec.ID, &altNames, &critNames, &reqData, &respData, &best, &rec.CreatedAt); err != nil {
			slog.Error("failed to scan ahp history", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}

		json.Unmarshal([]byte(altNames), &rec.AlternativeNames)
		rec.CriteriaNames = []string{}
		if critNames.Valid {
			json.Unmarshal([]byte(critNames.String), &rec.CriteriaNames)
		}
		rec.RequestData = json.RawMessage(reqData)
		rec.ResponseData = json.RawMessage(respData)
		rec.BestChoiceName = best.String

		history = append(history, rec)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate ahp history", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, history)
}

// DeleteHistory handles DELETE /ahp/history/{id}
func (h *AHPHandler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	historyID := r.PathValue("id")
	if historyID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "id is required")
		return
	}

	var ownerID string
	err := h.db.QueryRow(`SELECT user_id FROM ahp_history WHERE id = $1`, historyID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Record not found")
		return
	}
	if err != nil {
		slog.Error("failed to query ahp history", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if ownerID != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "You are not allowed to access this record")
		return
	}

	if _, err := h.db.Exec(`DELETE FROM ahp_history WHERE id = $1`, historyID); err != nil {
		slog.Error("failed to delete ahp history", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete record")
		return
	}

	slog.Info("ahp history deleted", "history_id", historyID, "user_id", userID)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Record deleted"})
}
