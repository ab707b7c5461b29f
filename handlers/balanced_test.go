// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/deliberate/models"
	"github.com/danielhkuo/deliberate/testutil"
)

func TestBalancedDecisions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewBalancedDecisionHandler(db, testutil.GetTestConfig())
	alice := testutil.CreateTestUser(t, db, "alice", false)
	bob := testutil.CreateTestUser(t, db, "bob", false)

	valid := models.SaveBalancedDecisionRequest{
		DecisionName:   "Rent or buy",
		Conditions:     json.RawMessage(`[{"name":"stable job","weight":3}]`),
		Comparisons:    json.RawMessage(`{"rent":2,"buy":5}`),
		Groups:         json.RawMessage(`[["rent"],["buy"]]`),
		DecisionResult: "buy",
	}

	tests := []struct {
		name           string
		requestBody    models.SaveBalancedDecisionRequest
		expectedStatus int
	}{
		{"valid", valid, http.StatusCreated},
		{"missing name", models.SaveBalancedDecisionRequest{Conditions: valid.Conditions, Comparisons: valid.Comparisons, Groups: valid.Groups}, http.StatusBadRequest},
		{"missing groups", models.SaveBalancedDecisionRequest{DecisionName: "x", Conditions: valid.Conditions, Comparisons: valid.Comparisons}, http.StatusBadRequest},
	}

	var savedID string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/balanced-decisions", tt.requestBody, nil)
			req = testutil.AsUser(req, alice, "alice", false)
			w := httptest.NewRecorder()

			handler.Save(w, req)
			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusCreated {
				var resp models.IDResponse
				testutil.AssertJSON(t, w, &resp)
				savedID = resp.ID
			}
		})
	}

	req := httptest.NewRequest("GET", "/balanced-decisions", nil)
	req = testutil.AsUser(req, alice, "alice", false)
	w := httptest.NewRecorder()
	handler.List(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var list models.BalancedDecisionListResponse
	testutil.AssertJSON(t, w, &list)
	if list.TotalItems != 1 || len(list.Decisions) != 1 || list.Decisions[0].ID != savedID {
		t.Errorf("Expected the saved decision in the list, got %+v", list)
	}

	get := func(userID, id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/balanced-decisions/"+id, nil)
		req.SetPathValue("id", id)
		req = testutil.AsUser(req, userID, "someone", false)
		w := httptest.NewRecorder()
		handler.Get(w, req)
		return w
	}

	testutil.AssertStatus(t, get(bob, savedID), http.StatusForbidden)
	testutil.AssertStatus(t, get(alice, "missing"), http.StatusNotFound)

	w = get(alice, savedID)
	testutil.AssertStatus(t, w, http.StatusOK)
	var d models.BalancedDecision
	testutil.AssertJSON(t, w, &d)

	var comparisons map[string]int
	if err := json.Unmarshal(d.Comparisons, &comparisons); err != nil {
		t.Fatalf("Expected comparisons returned as JSON: %v", err)
	}
	if comparisons["buy"] != 5 || d.Result == nil || *d.Result != "buy" {
		t.Errorf("Unexpected decision: %+v", d)
	}
}
