// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/deliberate/models"
	"github.com/danielhkuo/deliberate/testutil"
)

func TestCreateDecision(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewDecisionHandler(db, testutil.GetTestConfig())
	alice := testutil.CreateTestUser(t, db, "alice", false)
	bob := testutil.CreateTestUser(t, db, "bob", false)

	checklistID, qids := testutil.CreateTestChecklist(t, db, alice, "Job offer", "Pay?", "Team?")
	_, otherQids := testutil.CreateTestChecklist(t, db, alice, "Other", "Unrelated?")
	articleID := testutil.CreateTestArticle(t, db, alice, "Salary survey")

	tests := []struct {
		name           string
		userID         string
		requestBody    models.CreateDecisionRequest
		expectedStatus int
	}{
		{
			name:   "valid decision with article",
			userID: alice,
			requestBody: models.CreateDecisionRequest{
				ChecklistID:  checklistID,
				DecisionName: "Take the job",
				Answers: []models.AnswerInput{
					{QuestionID: qids[0], Answer: "Yes, 20% more", ReferencedArticles: []string{articleID, articleID, "missing"}},
					{QuestionID: qids[1], Answer: "Seems fine"},
				},
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:   "question from another checklist",
			userID: alice,
			requestBody: models.CreateDecisionRequest{
				ChecklistID:  checklistID,
				DecisionName: "Bad answer",
				Answers:      []models.AnswerInput{{QuestionID: otherQids[0], Answer: "?"}},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "foreign checklist",
			userID: bob,
			requestBody: models.CreateDecisionRequest{
				ChecklistID:  checklistID,
				DecisionName: "Not mine",
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:   "unknown checklist",
			userID: alice,
			requestBody: models.CreateDecisionRequest{
				ChecklistID:  "missing",
				DecisionName: "Nope",
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "missing name",
			userID:         alice,
			requestBody:    models.CreateDecisionRequest{ChecklistID: checklistID},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/decisions", tt.requestBody, nil)
			req = testutil.AsUser(req, tt.userID, "someone", false)
			w := httptest.NewRecorder()

			handler.Create(w, req)
			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}

	var refCount int
	db.QueryRow("SELECT reference_count FROM article WHERE id = $1", articleID).Scan(&refCount)
	if refCount != 1 {
		t.Errorf("Expected reference_count 1 after deduplication, got %d", refCount)
	}

	// The rejected decision must not leave a partial row behind
	var count int
	db.QueryRow("SELECT COUNT(*) FROM checklist_decision WHERE decision_name = 'Bad answer'").Scan(&count)
	if count != 0 {
		t.Error("Expected failed decision to be rolled back")
	}
}

func TestGetDecisionWithGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewDecisionHandler(db, cfg)
	alice := testutil.CreateTestUser(t, db, "alice", false)
	bob := testutil.CreateTestUser(t, db, "bob", false)
	carol := testutil.CreateTestUser(t, db, "carol", false)

	checklistID, qids := testutil.CreateTestChecklist(t, db, alice, "Holiday", "Where?", "When?")
	decisionID := testutil.CreateTestDecision(t, db, alice, checklistID, "Summer trip")
	testutil.CreateTestGroup(t, db, cfg, alice, decisionID, bob)
	articleID := testutil.CreateTestArticle(t, db, bob, "Travel guide")

	submit := func(userID string, answers ...models.AnswerInput) int {
		req := testutil.MakeRequest("POST", "/decisions/"+decisionID+"/answers", models.SubmitAnswersRequest{Answers: answers}, nil)
		req.SetPathValue("id", decisionID)
		req = testutil.AsUser(req, userID, "someone", false)
		w := httptest.NewRecorder()
		handler.SubmitAnswers(w, req)
		return w.Code
	}

	if code := submit(alice, models.AnswerInput{QuestionID: qids[0], Answer: "Lisbon"}); code != http.StatusCreated {
		t.Fatalf("Owner answer: expected 201, got %d", code)
	}
	if code := submit(bob, models.AnswerInput{QuestionID: qids[0], Answer: "Porto", ReferencedArticles: []string{articleID}}); code != http.StatusCreated {
		t.Fatalf("Member answer: expected 201, got %d", code)
	}
	if code := submit(carol, models.AnswerInput{QuestionID: qids[0], Answer: "Paris"}); code != http.StatusForbidden {
		t.Errorf("Outsider answer: expected 403, got %d", code)
	}

	req := httptest.NewRequest("GET", "/decisions/"+decisionID, nil)
	req.SetPathValue("id", decisionID)
	req = testutil.AsUser(req, bob, "bob", false)
	w := httptest.NewRecorder()
	handler.Get(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var detail models.DecisionDetail
	testutil.AssertJSON(t, w, &detail)

	if detail.OwnerID != alice {
		t.Errorf("Expected owner %s, got %s", alice, detail.OwnerID)
	}
	if !detail.HasGroup || detail.Group == nil || detail.Group.MembersCount != 1 {
		t.Errorf("Expected group with one member, got %+v", detail.Group)
	}
	if len(detail.Answers) != 2 {
		t.Fatalf("Expected 2 questions, got %d", len(detail.Answers))
	}
	where := detail.Answers[0]
	if where.QuestionID != qids[0] || len(where.Responses) != 2 {
		t.Fatalf("Expected 2 responses to %s, got %+v", qids[0], where)
	}
	for _, resp := range where.Responses {
		if resp.Username == "bob" && len(resp.ReferencedArticles) != 1 {
			t.Errorf("Expected bob's response with one article, got %+v", resp)
		}
	}
	if len(detail.Answers[1].Responses) != 0 {
		t.Errorf("Expected no responses to second question, got %d", len(detail.Answers[1].Responses))
	}

	req = httptest.NewRequest("GET", "/decisions/"+decisionID+"/responses", nil)
	req.SetPathValue("id", decisionID)
	req = testutil.AsUser(req, alice, "alice", false)
	w = httptest.NewRecorder()
	handler.Responses(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var byQuestion map[string][]models.Response
	testutil.AssertJSON(t, w, &byQuestion)
	if len(byQuestion[qids[0]]) != 2 {
		t.Errorf("Expected 2 responses keyed by question, got %+v", byQuestion)
	}
}

func TestDecisionAccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewDecisionHandler(db, testutil.GetTestConfig())
	alice := testutil.CreateTestUser(t, db, "alice", false)
	carol := testutil.CreateTestUser(t, db, "carol", false)

	checklistID, _ := testutil.CreateTestChecklist(t, db, alice, "Private", "Q?")
	decisionID := testutil.CreateTestDecision(t, db, alice, checklistID, "Secret")

	tests := []struct {
		name           string
		id             string
		userID         string
		expectedStatus int
	}{
		{"owner", decisionID, alice, http.StatusOK},
		{"outsider", decisionID, carol, http.StatusForbidden},
		{"unknown", "missing", alice, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/decisions/"+tt.id+"/questions", nil)
			req.SetPathValue("id", tt.id)
			req = testutil.AsUser(req, tt.userID, "someone", false)
			w := httptest.NewRecorder()

			handler.Questions(w, req)
			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}
}

func TestListDecisions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewDecisionHandler(db, testutil.GetTestConfig())
	alice := testutil.CreateTestUser(t, db, "alice", false)

	rootID, _ := testutil.CreateTestChecklist(t, db, alice, "Family", "Q?")
	childID, _ := testutil.CreateTestVersion(t, db, alice, rootID, 2, "Q?")
	testutil.CreateTestDecision(t, db, alice, rootID, "First")
	testutil.CreateTestDecision(t, db, alice, childID, "Second")

	req := httptest.NewRequest("GET", "/decisions?page_size=1", nil)
	req = testutil.AsUser(req, alice, "alice", false)
	w := httptest.NewRecorder()
	handler.List(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.DecisionListResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.TotalItems != 2 || resp.TotalPages != 2 || len(resp.Decisions) != 1 {
		t.Errorf("Expected page 1 of 2 with one decision, got %+v", resp)
	}
}

func TestDeleteDecision(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewDecisionHandler(db, cfg)
	alice := testutil.CreateTestUser(t, db, "alice", false)
	bob := testutil.CreateTestUser(t, db, "bob", false)

	checklistID, _ := testutil.CreateTestChecklist(t, db, alice, "Checklist", "Q?")
	decisionID := testutil.CreateTestDecision(t, db, alice, checklistID, "Doomed")
	groupID, _ := testutil.CreateTestGroup(t, db, cfg, alice, decisionID, bob)

	del := func(userID string) int {
		req := httptest.NewRequest("DELETE", "/decisions/"+decisionID, nil)
		req.SetPathValue("id", decisionID)
		req = testutil.AsUser(req, userID, "someone", false)
		w := httptest.NewRecorder()
		handler.Delete(w, req)
		return w.Code
	}

	if code := del(bob); code != http.StatusForbidden {
		t.Errorf("Member delete: expected 403, got %d", code)
	}
	if code := del(alice); code != http.StatusOK {
		t.Fatalf("Owner delete: expected 200, got %d", code)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM decision_group WHERE id = $1", groupID).Scan(&count)
	if count != 0 {
		t.Error("Expected group removed with decision")
	}
}

func TestReviews(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewDecisionHandler(db, cfg)
	alice := testutil.CreateTestUser(t, db, "alice", false)
	bob := testutil.CreateTestUser(t, db, "bob", false)
	carol := testutil.CreateTestUser(t, db, "carol", false)

	checklistID, _ := testutil.CreateTestChecklist(t, db, alice, "Checklist", "Q?")
	decisionID := testutil.CreateTestDecision(t, db, alice, checklistID, "Reviewed")
	testutil.CreateTestGroup(t, db, cfg, alice, decisionID, bob)
	articleID := testutil.CreateTestArticle(t, db, alice, "Hindsight")

	review := func(userID string, body models.CreateReviewRequest) int {
		req := testutil.MakeRequest("POST", "/decisions/"+decisionID+"/reviews", body, nil)
		req.SetPathValue("id", decisionID)
		req = testutil.AsUser(req, userID, "someone", false)
		w := httptest.NewRecorder()
		handler.CreateReview(w, req)
		return w.Code
	}

	if code := review(alice, models.CreateReviewRequest{Content: "Worked out", ReferencedArticles: []string{articleID}}); code != http.StatusCreated {
		t.Fatalf("Owner review: expected 201, got %d", code)
	}
	if code := review(bob, models.CreateReviewRequest{Content: "Agreed"}); code != http.StatusCreated {
		t.Fatalf("Member review: expected 201, got %d", code)
	}
	if code := review(carol, models.CreateReviewRequest{Content: "Who am I"}); code != http.StatusForbidden {
		t.Errorf("Outsider review: expected 403, got %d", code)
	}
	if code := review(alice, models.CreateReviewRequest{Content: "  "}); code != http.StatusBadRequest {
		t.Errorf("Empty review: expected 400, got %d", code)
	}

	req := httptest.NewRequest("GET", "/decisions/"+decisionID+"/reviews", nil)
	req.SetPathValue("id", decisionID)
	req = testutil.AsUser(req, bob, "bob", false)
	w := httptest.NewRecorder()
	handler.ListReviews(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var reviews []models.Review
	testutil.AssertJSON(t, w, &reviews)
	if len(reviews) != 2 {
		t.Fatalf("Expected 2 reviews, got %d", len(reviews))
	}

	cited := 0
	for _, rv := range reviews {
		for _, ref := range rv.ReferencedArticles {
			if ref.Title == "Hindsight" {
				cited++
			}
		}
	}
	if cited != 1 {
		t.Errorf("Expected one citation of the article, got %d", cited)
	}

	var refCount int
	db.QueryRow("SELECT reference_count FROM article WHERE id = $1", articleID).Scan(&refCount)
	if refCount != 1 {
		t.Errorf("Expected reference_count 1, got %d", refCount)
	}
}
