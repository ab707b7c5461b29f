package models

import (
	"encoding/json"
	"time"

	"github.com/danielhkuo/deliberate/ahp"
)

type AHPAnalysisRequest struct {
	CriteriaMatrix      [][]ahp.Cell   `json:"criteria_matrix"`
	AlternativeMatrices [][][]ahp.Cell `json:"alternative_matrices"`
	AlternativeNames    []string       `json:"alternative_names"`
	CriteriaNames       []string       `json:"criteria_names,omitempty"`
}

type AHPAnalysisResponse struct {
	PriorityVector []float64 `json:"priority_vector"`
	BestChoiceName string    `json:"best_choice_name"`
}

// Both blobs are stored verbatim
type SaveAHPHistoryRequest struct {
	RequestData  json.RawMessage `json:"request_data"`
	ResponseData json.RawMessage `json:"response_data"`
}

type AHPHistory struct {
	ID               string          `json:"id"`
	AlternativeNames []string        `json:"alternative_names"`
	CriteriaNames    []string        `json:"criteria_names"`
	RequestData      json.RawMessage `json:"request_data"`
	ResponseData     json.RawMessage `json:"response_data"`
	BestChoiceName   string          `json:"best_choice_name"`
	CreatedAt        time.Time       `json:"created_at"`
}
