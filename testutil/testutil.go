// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/deliberate/auth"
	"github.com/danielhkuo/deliberate/cliparse"
	"github.com/danielhkuo/deliberate/db"
	"github.com/danielhkuo/deliberate/middleware"
)

// TestPassword is the password of every user made by CreateTestUser
const TestPassword = "correct-horse-battery"

var (
	hashOnce   sync.Once
	cachedHash string
)

// SetupTestDB creates a fresh SQLite database in t.TempDir() with every
// migration applied. The database is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := GetTestConfig()
	cfg.DatabaseURL = "file:" + filepath.Join(t.TempDir(), "deliberate.db")

	conn, err := db.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.Migrate(conn, cfg.DatabaseType); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           3318,
		DatabaseURL:    "file:test.db",
		DatabaseType:   cliparse.DatabaseSQLite,
		TokenSecret:    "test-token-secret",
		InviteSalt:     "test-invite-salt",
		TokenTTL:       time.Hour,
		AdminUsernames: []string{"root"},
	}
}

// Tokens returns the token manager matching cfg
func Tokens(cfg cliparse.Config) *auth.TokenManager {
	return auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL)
}

// CreateTestUser inserts a user whose password is TestPassword
func CreateTestUser(t *testing.T, conn *sql.DB, username string, isAdmin bool) string {
	t.Helper()

	hashOnce.Do(func() {
		var err error
		cachedHash, err = auth.HashPassword(TestPassword)
		if err != nil {
			panic(err)
		}
	})

	userID, _ := auth.GenerateID(16)
	_, err := conn.Exec(`
		INSERT INTO app_user (id, username, password_hash, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, username, cachedHash, isAdmin, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return userID
}

// AuthHeaders returns an Authorization header for the given user
func AuthHeaders(t *testing.T, cfg cliparse.Config, userID, username string, isAdmin bool) map[string]string {
	t.Helper()

	token, _, err := Tokens(cfg).Issue(userID, username, isAdmin)
	if err != nil {
		t.Fatalf("Failed to issue test token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// AsUser attaches claims to the request context the way RequireUser does,
// for calling handler methods directly
func AsUser(r *http.Request, userID, username string, isAdmin bool) *http.Request {
	claims := &auth.Claims{Username: username, IsAdmin: isAdmin}
	claims.Subject = userID
	return r.WithContext(middleware.ContextWithUser(r.Context(), claims))
}

// CreateTestChecklist creates a root checklist with the given questions and
// returns its ID and the question IDs in order
func CreateTestChecklist(t *testing.T, conn *sql.DB, userID, name string, questions ...string) (string, []string) {
	t.Helper()

	checklistID, _ := auth.GenerateID(16)
	_, err := conn.Exec(`
		INSERT INTO checklist (id, user_id, version, name, description, created_at)
		VALUES ($1, $2, 1, $3, 'A test checklist', $4)
	`, checklistID, userID, name, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test checklist: %v", err)
	}

	return checklistID, AddTestQuestions(t, conn, checklistID, questions...)
}

// CreateTestVersion appends a version to a root checklist
func CreateTestVersion(t *testing.T, conn *sql.DB, userID, rootID string, version int, questions ...string) (string, []string) {
	t.Helper()

	checklistID, _ := auth.GenerateID(16)
	_, err := conn.Exec(`
		INSERT INTO checklist (id, user_id, parent_id, version, name, created_at)
		SELECT $1, user_id, id, $2, name, $3 FROM checklist WHERE id = $4
	`, checklistID, version, time.Now().UTC(), rootID)
	if err != nil {
		t.Fatalf("Failed to create test checklist version: %v", err)
	}

	return checklistID, AddTestQuestions(t, conn, checklistID, questions...)
}

// AddTestQuestions adds questions to a checklist and returns their IDs
func AddTestQuestions(t *testing.T, conn *sql.DB, checklistID string, questions ...string) []string {
	t.Helper()

	ids := make([]string, 0, len(questions))
	for i, q := range questions {
		questionID, _ := auth.GenerateID(12)
		_, err := conn.Exec(`
			INSERT INTO checklist_question (id, checklist_id, position, question)
			VALUES ($1, $2, $3, $4)
		`, questionID, checklistID, i, q)
		if err != nil {
			t.Fatalf("Failed to create test question: %v", err)
		}
		ids = append(ids, questionID)
	}
	return ids
}

// CreateTestPlatformChecklist creates a platform checklist with questions
func CreateTestPlatformChecklist(t *testing.T, conn *sql.DB, name string, questions ...string) string {
	t.Helper()

	checklistID, _ := auth.GenerateID(16)
	_, err := conn.Exec(`
		INSERT INTO platform_checklist (id, version, name, description, created_at)
		VALUES ($1, 1, $2, 'A curated checklist', $3)
	`, checklistID, name, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test platform checklist: %v", err)
	}

	for i, q := range questions {
		questionID, _ := auth.GenerateID(12)
		_, err := conn.Exec(`
			INSERT INTO platform_checklist_question (id, platform_checklist_id, position, question)
			VALUES ($1, $2, $3, $4)
		`, questionID, checklistID, i, q)
		if err != nil {
			t.Fatalf("Failed to create test platform question: %v", err)
		}
	}

	return checklistID
}

// CreateTestDecision records a decision on a checklist with no answers
func CreateTestDecision(t *testing.T, conn *sql.DB, userID, checklistID, name string) string {
	t.Helper()

	decisionID, _ := auth.GenerateID(16)
	_, err := conn.Exec(`
		INSERT INTO checklist_decision (id, checklist_id, user_id, decision_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, decisionID, checklistID, userID, name, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test decision: %v", err)
	}

	return decisionID
}

// CreateTestGroup creates a decision group and adds the given members
func CreateTestGroup(t *testing.T, conn *sql.DB, cfg cliparse.Config, ownerID, decisionID string, memberIDs ...string) (groupID, inviteCode string) {
	t.Helper()

	groupID, _ = auth.GenerateID(16)
	inviteCode = auth.GenerateInviteCode(groupID, cfg.InviteSalt)
	_, err := conn.Exec(`
		INSERT INTO decision_group (id, name, invite_code, owner_id, decision_id, created_at)
		VALUES ($1, 'Test Group', $2, $3, $4, $5)
	`, groupID, inviteCode, ownerID, decisionID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test group: %v", err)
	}

	for _, memberID := range memberIDs {
		_, err := conn.Exec(`
			INSERT INTO group_member (group_id, user_id, joined_at) VALUES ($1, $2, $3)
		`, groupID, memberID, time.Now().UTC())
		if err != nil {
			t.Fatalf("Failed to add test group member: %v", err)
		}
	}

	return groupID, inviteCode
}

// CreateTestArticle creates an article owned by userID
func CreateTestArticle(t *testing.T, conn *sql.DB, userID, title string) string {
	t.Helper()

	articleID, _ := auth.GenerateID(12)
	now := time.Now().UTC()
	_, err := conn.Exec(`
		INSERT INTO article (id, user_id, title, content, author, tags, keywords, created_at, updated_at)
		VALUES ($1, $2, $3, 'Body text', 'Tester', 'test', 'sample', $4, $4)
	`, articleID, userID, title, now)
	if err != nil {
		t.Fatalf("Failed to create test article: %v", err)
	}

	return articleID
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
