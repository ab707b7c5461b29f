// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/deliberate/testutil"
)

// TestConcurrentGroupJoins verifies that many users joining the same group at
// once all land exactly once
func TestConcurrentGroupJoins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewGroupHandler(db, cfg)

	owner := testutil.CreateTestUser(t, db, "owner", false)
	checklistID, _ := testutil.CreateTestChecklist(t, db, owner, "Shared", "Q?")
	decisionID := testutil.CreateTestDecision(t, db, owner, checklistID, "Team offsite")
	groupID, code := testutil.CreateTestGroup(t, db, cfg, owner, decisionID)

	numUsers := 10
	userIDs := make([]string, numUsers)
	for i := range userIDs {
		userIDs[i] = testutil.CreateTestUser(t, db, fmt.Sprintf("member%02d", i), false)
	}

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numUsers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			req := httptest.NewRequest("POST", "/groups/join/"+code, nil)
			req.SetPathValue("code", code)
			req = testutil.AsUser(req, userIDs[idx], "member", false)
			w := httptest.NewRecorder()

			handler.Join(w, req)

			if w.Code == http.StatusOK {
				successCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	if int(successCount.Load()) != numUsers {
		t.Errorf("Expected %d successful joins, got %d", numUsers, successCount.Load())
	}

	var members int
	if err := db.QueryRow("SELECT COUNT(*) FROM group_member WHERE group_id = $1", groupID).Scan(&members); err != nil {
		t.Fatalf("Failed to count members: %v", err)
	}
	if members != numUsers {
		t.Errorf("Expected %d members in database, got %d", numUsers, members)
	}
}

// TestConcurrentDuplicateJoin verifies that when the same user joins twice at
// once, exactly one request succeeds and the other conflicts
func TestConcurrentDuplicateJoin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewGroupHandler(db, cfg)

	owner := testutil.CreateTestUser(t, db, "owner", false)
	joiner := testutil.CreateTestUser(t, db, "joiner", false)
	checklistID, _ := testutil.CreateTestChecklist(t, db, owner, "Shared", "Q?")
	decisionID := testutil.CreateTestDecision(t, db, owner, checklistID, "Race")
	_, code := testutil.CreateTestGroup(t, db, cfg, owner, decisionID)

	var ok, conflict atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req := httptest.NewRequest("POST", "/groups/join/"+code, nil)
			req.SetPathValue("code", code)
			req = testutil.AsUser(req, joiner, "joiner", false)
			w := httptest.NewRecorder()

			handler.Join(w, req)

			switch w.Code {
			case http.StatusOK:
				ok.Add(1)
			case http.StatusConflict:
				conflict.Add(1)
			}
		}()
	}

	wg.Wait()

	if ok.Load() != 1 || conflict.Load() != 1 {
		t.Errorf("Expected one join and one conflict, got %d and %d", ok.Load(), conflict.Load())
	}
}

// TestConcurrentAnalyses verifies the AHP endpoint gives identical answers
// under parallel load
func TestConcurrentAnalyses(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewAHPHandler(db, testutil.GetTestConfig())

	body := `{
		"criteria_matrix": [["1", "3", "5"], ["1/3", "1", "3"], ["1/5", "1/3", "1"]],
		"alternative_matrices": [
			[["1", "2"], ["1/2", "1"]],
			[["1", "1/4"], ["4", "1"]],
			[["1", "3"], ["1/3", "1"]]
		],
		"alternative_names": ["Stay", "Move"]
	}`

	numRequests := 20
	results := make([]string, numRequests)
	var wg sync.WaitGroup

	for i := 0; i < numRequests; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			req := httptest.NewRequest("POST", "/ahp/analysis", strings.NewReader(body))
			w := httptest.NewRecorder()
			handler.Analyze(w, req)
			results[idx] = fmt.Sprintf("%d %s", w.Code, w.Body.String())
		}(i)
	}

	wg.Wait()

	for i := 1; i < numRequests; i++ {
		if results[i] != results[0] {
			t.Fatalf("Result %d differs from result 0:\n%s\n%s", i, results[i], results[0])
		}
	}
	if !strings.HasPrefix(results[0], "200 ") {
		t.Errorf("Expected success, got %s", results[0])
	}
}
