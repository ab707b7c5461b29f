// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/deliberate/models"
	"github.com/danielhkuo/deliberate/testutil"
)

func createReflection(t *testing.T, handler *InspirationHandler, userID, inspirationID, content string) string {
	t.Helper()
	req := testutil.MakeRequest("POST", "/reflections", models.CreateReflectionRequest{InspirationID: inspirationID, Content: content}, nil)
	req = testutil.AsUser(req, userID, "someone", false)
	w := httptest.NewRecorder()
	handler.CreateReflection(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.IDResponse
	testutil.AssertJSON(t, w, &resp)
	return resp.ID
}

func TestListInspirations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewInspirationHandler(db, testutil.GetTestConfig())

	req := httptest.NewRequest("GET", "/inspirations", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.InspirationListResponse
	testutil.AssertJSON(t, w, &resp)

	// Seeded catalogue, two per page by default
	if len(resp.Inspirations) != 2 {
		t.Errorf("Expected 2 inspirations on the first page, got %d", len(resp.Inspirations))
	}
	if resp.TotalItems == 0 || resp.TotalPages != (resp.TotalItems+1)/2 {
		t.Errorf("Unexpected pagination: %+v", resp.Page)
	}
}

func TestCreateInspiration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewInspirationHandler(db, testutil.GetTestConfig())

	tests := []struct {
		name           string
		requestBody    models.CreateInspirationRequest
		expectedStatus int
	}{
		{"valid", models.CreateInspirationRequest{Type: "quote", Content: "Measure twice, cut once."}, http.StatusCreated},
		{"missing content", models.CreateInspirationRequest{Type: "quote"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/inspirations", tt.requestBody, nil)
			w := httptest.NewRecorder()
			handler.Create(w, req)
			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}
}

func TestReflections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewInspirationHandler(db, testutil.GetTestConfig())
	alice := testutil.CreateTestUser(t, db, "alice", false)
	bob := testutil.CreateTestUser(t, db, "bob", false)

	first := createReflection(t, handler, alice, "insp-reversibility", "Mostly reversible")
	second := createReflection(t, handler, alice, "insp-reversibility", "Actually not reversible")
	createReflection(t, handler, alice, "insp-advice", "Take the leap")
	createReflection(t, handler, bob, "insp-advice", "Bob's own")

	// Pin the order so the latest reflection is unambiguous
	base := time.Now().UTC().Add(-time.Hour)
	db.Exec("UPDATE reflection SET updated_at = $1 WHERE id = $2", base, first)
	db.Exec("UPDATE reflection SET updated_at = $1 WHERE id = $2", base.Add(time.Minute), second)

	req := testutil.MakeRequest("POST", "/reflections", models.CreateReflectionRequest{InspirationID: "missing", Content: "x"}, nil)
	req = testutil.AsUser(req, alice, "alice", false)
	w := httptest.NewRecorder()
	handler.CreateReflection(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)

	req = httptest.NewRequest("GET", "/reflections/mine", nil)
	req = testutil.AsUser(req, alice, "alice", false)
	w = httptest.NewRecorder()
	handler.Mine(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var mine models.ReflectionListResponse
	testutil.AssertJSON(t, w, &mine)
	if mine.TotalItems != 2 || len(mine.Reflections) != 2 {
		t.Fatalf("Expected one reflection per inspiration (2), got %+v", mine)
	}
	for _, rf := range mine.Reflections {
		if rf.InspirationID == "insp-reversibility" && rf.ID != second {
			t.Errorf("Expected latest reflection %s, got %s", second, rf.ID)
		}
		if rf.Inspiration == nil || rf.Inspiration.ID != rf.InspirationID {
			t.Errorf("Expected embedded inspiration, got %+v", rf.Inspiration)
		}
	}

	req = httptest.NewRequest("GET", "/reflections/mine/random", nil)
	req = testutil.AsUser(req, alice, "alice", false)
	w = httptest.NewRecorder()
	handler.MineRandom(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var random []models.Reflection
	testutil.AssertJSON(t, w, &random)
	if len(random) != 2 || random[0].InspirationID == random[1].InspirationID {
		t.Errorf("Expected two distinct inspirations, got %+v", random)
	}

	req = httptest.NewRequest("GET", "/inspirations/insp-reversibility/reflections", nil)
	req.SetPathValue("id", "insp-reversibility")
	req = testutil.AsUser(req, alice, "alice", false)
	w = httptest.NewRecorder()
	handler.Reflections(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var perInspiration models.InspirationReflectionsResponse
	testutil.AssertJSON(t, w, &perInspiration)
	if perInspiration.Count != 2 || perInspiration.Reflections[0].ID != second {
		t.Errorf("Expected both reflections newest first, got %+v", perInspiration)
	}
}

func TestUpdateAndDeleteReflection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewInspirationHandler(db, testutil.GetTestConfig())
	alice := testutil.CreateTestUser(t, db, "alice", false)
	bob := testutil.CreateTestUser(t, db, "bob", false)
	reflectionID := createReflection(t, handler, alice, "insp-advice", "Draft")

	update := func(userID, content string) int {
		req := testutil.MakeRequest("PUT", "/reflections/"+reflectionID, models.UpdateReflectionRequest{Content: content}, nil)
		req.SetPathValue("id", reflectionID)
		req = testutil.AsUser(req, userID, "someone", false)
		w := httptest.NewRecorder()
		handler.UpdateReflection(w, req)
		return w.Code
	}
	del := func(userID string) int {
		req := httptest.NewRequest("DELETE", "/reflections/"+reflectionID, nil)
		req.SetPathValue("id", reflectionID)
		req = testutil.AsUser(req, userID, "someone", false)
		w := httptest.NewRecorder()
		handler.DeleteReflection(w, req)
		return w.Code
	}

	tests := []struct {
		name     string
		call     func() int
		expected int
	}{
		{"foreign update", func() int { return update(bob, "Hijack") }, http.StatusForbidden},
		{"empty update", func() int { return update(alice, "") }, http.StatusBadRequest},
		{"own update", func() int { return update(alice, "Final") }, http.StatusOK},
		{"foreign delete", func() int { return del(bob) }, http.StatusForbidden},
		{"own delete", func() int { return del(alice) }, http.StatusOK},
		{"delete again", func() int { return del(alice) }, http.StatusNotFound},
	}

	for _, tt := range tests {
		if code := tt.call(); code != tt.expected {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.expected, code)
		}
	}
}
