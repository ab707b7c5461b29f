// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/deliberate/models"
	"github.com/danielhkuo/deliberate/testutil"
)

func TestRegister(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewUserHandler(db, testutil.GetTestConfig())

	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		expectAdmin    bool
	}{
		{"valid", models.RegisterRequest{Username: "alice", Password: "longenough"}, http.StatusCreated, false},
		{"duplicate", models.RegisterRequest{Username: "alice", Password: "longenough"}, http.StatusConflict, false},
		{"configured admin", models.RegisterRequest{Username: "Root", Password: "longenough"}, http.StatusCreated, true},
		{"short username", models.RegisterRequest{Username: "a", Password: "longenough"}, http.StatusBadRequest, false},
		{"short password", models.RegisterRequest{Username: "bob", Password: "short"}, http.StatusBadRequest, false},
		{"invalid JSON", "invalid json", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if s, ok := tt.requestBody.(string); ok {
				req = httptest.NewRequest("POST", "/users/register", strings.NewReader(s))
			} else {
				req = testutil.MakeRequest("POST", "/users/register", tt.requestBody, nil)
			}
			w := httptest.NewRecorder()

			handler.Register(w, req)
			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusCreated {
				var resp models.RegisterResponse
				testutil.AssertJSON(t, w, &resp)

				var isAdmin bool
				db.QueryRow("SELECT is_admin FROM app_user WHERE id = $1", resp.UserID).Scan(&isAdmin)
				if isAdmin != tt.expectAdmin {
					t.Errorf("Expected is_admin %v, got %v", tt.expectAdmin, isAdmin)
				}
			}
		})
	}
}

func TestLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewUserHandler(db, cfg)
	userID := testutil.CreateTestUser(t, db, "alice", false)

	tests := []struct {
		name           string
		requestBody    models.LoginRequest
		expectedStatus int
	}{
		{"valid", models.LoginRequest{Username: "alice", Password: testutil.TestPassword}, http.StatusOK},
		{"wrong password", models.LoginRequest{Username: "alice", Password: "nope-nope-nope"}, http.StatusUnauthorized},
		{"unknown user", models.LoginRequest{Username: "mallory", Password: testutil.TestPassword}, http.StatusUnauthorized},
		{"missing password", models.LoginRequest{Username: "alice"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/users/login", tt.requestBody, nil)
			w := httptest.NewRecorder()

			handler.Login(w, req)
			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusOK {
				var resp models.LoginResponse
				testutil.AssertJSON(t, w, &resp)
				if resp.UserID != userID {
					t.Errorf("Expected user %s, got %s", userID, resp.UserID)
				}

				claims, err := testutil.Tokens(cfg).Validate(resp.Token)
				if err != nil {
					t.Fatalf("Issued token does not validate: %v", err)
				}
				if claims.UserID() != userID || claims.Username != "alice" {
					t.Errorf("Unexpected claims: %+v", claims)
				}
			}
		})
	}
}

func TestMe(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewUserHandler(db, testutil.GetTestConfig())
	userID := testutil.CreateTestUser(t, db, "alice", true)

	req := httptest.NewRequest("GET", "/users/me", nil)
	req = testutil.AsUser(req, userID, "alice", true)
	w := httptest.NewRecorder()
	handler.Me(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var user models.User
	testutil.AssertJSON(t, w, &user)
	if user.ID != userID || user.Username != "alice" || !user.IsAdmin {
		t.Errorf("Unexpected profile: %+v", user)
	}

	req = httptest.NewRequest("GET", "/users/me", nil)
	w = httptest.NewRecorder()
	handler.Me(w, req)
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}
