// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/deliberate/auth"
	"github.com/danielhkuo/deliberate/cliparse"
	"github.com/danielhkuo/deliberate/middleware"
	"github.com/danielhkuo/deliberate/models"
)

type GroupHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewGroupHandler(db *sql.DB, cfg cliparse.Config) *GroupHandler {
	return &GroupHandler{db: db, cfg: cfg}
}

// groupMembers lists a group's members in join order
func groupMembers(q queryer, groupID string) ([]models.Member, error) {
	rows, err := q.Query(`
		SELECT u.id, u.username, u.email
		FROM group_member gm
		JOIN app_user u ON u.id = gm.user_id
		WHERE gm.group_id = $1
		ORDER BY gm.joined_at, u.username
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var m models.Member
		var email sql.NullString
		if err := rows.Scan(&m.ID, &m.Username, &email); err != nil {
			return nil, err
		}
		m.Email = stringPtr(email)
		members = append(members, m)
	}
	return members, rows.Err()
}

// Create handles POST /groups
// Only the owner of the decision can open a group on it
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.CreateGroupRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || req.DecisionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name and checklist_decision_id are required")
		return
	}

	var ownerID string
	err := h.db.QueryRow(`SELECT user_id FROM checklist_decision WHERE id = $1`, req.DecisionID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Decision not found")
		return
	}
	if err != nil {
		slog.Error("failed to query decision", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if ownerID != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only the decision owner can create a group")
		return
	}

	groupID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate group ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create group")
		return
	}
	inviteCode := auth.GenerateInviteCode(groupID, h.cfg.InviteSalt)

	_, err = h.db.Exec(`
		INSERT INTO decision_group (id, name, invite_code, owner_id, decision_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, groupID, name, inviteCode, userID, req.DecisionID, time.Now().UTC())
	if err != nil {
		slog.Error("failed to insert group", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create group")
		return
	}

	slog.Info("group created", "group_id", groupID, "decision_id", req.DecisionID)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateGroupResponse{
		GroupID:    groupID,
		InviteCode: inviteCode,
	})
}

// Join handles POST /groups/join/{code}
func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	code := r.PathValue("code")

	var groupID, ownerID, decisionID string
	err := h.db.QueryRow(`
		SELECT id, owner_id, decision_id FROM decision_group WHERE invite_code = $1
	`, code).Scan(&groupID, &ownerID, &decisionID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Invalid invite code")
		return
	}
	if err != nil {
		slog.Error("failed to query group by invite code", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// A code minted under a rotated salt no longer admits anyone
	if err := auth.ValidateInviteCode(groupID, code, h.cfg.InviteSalt); err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Invalid invite code")
		return
	}

	if ownerID == userID {
		middleware.ErrorResponse(w, http.StatusConflict, "You own this group")
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO group_member (group_id, user_id, joined_at) VALUES ($1, $2, $3)
	`, groupID, userID, time.Now().UTC())
	if isUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "Already a member of this group")
		return
	}
	if err != nil {
		slog.Error("failed to insert group member", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to join group")
		return
	}

	slog.Info("group joined", "group_id", groupID, "user_id", userID)

	middleware.JSONResponse(w, http.StatusOK, models.JoinGroupResponse{GroupID: groupID, DecisionID: decisionID})
}

// Get handles GET /groups/{id}
// The invite code is only shown to the owner
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	groupID := r.PathValue("id")

	var detail models.GroupDetail
	var ownerID, inviteCode string
	err := h.db.QueryRow(`
		SELECT g.id, g.name, g.decision_id, d.decision_name, u.username, g.owner_id, g.invite_code
		FROM decision_group g
		JOIN checklist_decision d ON d.id = g.decision_id
		JOIN app_user u ON u.id = g.owner_id
		WHERE g.id = $1
	`, groupID).Scan(&detail.ID, &detail.GroupName, &detail.DecisionID, &detail.DecisionName, &detail.InviterUsername, &ownerID, &inviteCode)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Group not found")
		return
	}
	if err != nil {
		slog.Error("failed to query group", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if ownerID == userID {
		detail.InviteCode = inviteCode
	} else {
		n, err := countRows(h.db, `SELECT COUNT(*) FROM group_member WHERE group_id = $1 AND user_id = $2`, groupID, userID)
		if err != nil {
			slog.Error("failed to check group membership", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if n == 0 {
			middleware.ErrorResponse(w, http.StatusForbidden, "You are not a member of this group")
			return
		}
	}

	middleware.JSONResponse(w, http.StatusOK, detail)
}

// Members handles GET /groups/{id}/members (owner only)
func (h *GroupHandler) Members(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	groupID := r.PathValue("id")

	var ownerID string
	err := h.db.QueryRow(`SELECT owner_id FROM decision_group WHERE id = $1`, groupID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Group not found")
		return
	}
	if err != nil {
		slog.Error("failed to query group", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if ownerID != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only the group owner can list members")
		return
	}

	members, err := groupMembers(h.db, groupID)
	if err != nil {
		slog.Error("failed to query group members", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.GroupMembersResponse{Members: members})
}
