// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lib/pq"

	"github.com/danielhkuo/deliberate/middleware"
	"github.com/danielhkuo/deliberate/models"
)

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// isUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint on either supported database
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// requireUserID returns the caller's user ID, writing a 401 when the request
// did not pass through RequireUser
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return "", false
	}
	return claims.UserID(), true
}

// nullString maps "" to NULL
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// countRows runs a COUNT(*) query
func countRows(q queryer, query string, args ...any) (int, error) {
	var n int
	if err := q.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// linkArticles records which existing articles an answer or review cites and
// bumps their reference counts. Unknown IDs are skipped.
func linkArticles(q queryer, joinTable, ownerColumn, ownerID string, articleIDs []string) error {
	seen := make(map[string]bool, len(articleIDs))
	for _, articleID := range articleIDs {
		if articleID == "" || seen[articleID] {
			continue
		}
		seen[articleID] = true

		res, err := q.Exec(`UPDATE article SET reference_count = reference_count + 1 WHERE id = $1`, articleID)
		if err != nil {
			return fmt.Errorf("failed to bump reference count: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue
		}

		_, err = q.Exec(
			`INSERT INTO `+joinTable+` (`+ownerColumn+`, article_id) VALUES ($1, $2)`,
			ownerID, articleID,
		)
		if err != nil {
			return fmt.Errorf("failed to link article: %w", err)
		}
	}
	return nil
}

// articleRefs loads cited article titles keyed by answer or review ID
func articleRefs(q queryer, joinTable, ownerColumn, parentQuery string, args ...any) (map[string][]models.ArticleRef, error) {
	rows, err := q.Query(`
		SELECT j.`+ownerColumn+`, a.id, a.title
		FROM `+joinTable+` j
		JOIN article a ON a.id = j.article_id
		WHERE j.`+ownerColumn+` IN (`+parentQuery+`)
		ORDER BY a.title
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := make(map[string][]models.ArticleRef)
	for rows.Next() {
		var ownerID string
		var ref models.ArticleRef
		if err := rows.Scan(&ownerID, &ref.ID, &ref.Title); err != nil {
			return nil, err
		}
		refs[ownerID] = append(refs[ownerID], ref)
	}
	return refs, rows.Err()
}

// decisionAccess reports the owner of a decision and whether userID may see
// it, either as owner or as a member of one of its groups. Returns
// sql.ErrNoRows for an unknown decision.
func decisionAccess(q queryer, decisionID, userID string) (ownerID string, allowed bool, err error) {
	err = q.QueryRow(`SELECT user_id FROM checklist_decision WHERE id = $1`, decisionID).Scan(&ownerID)
	if err != nil {
		return "", false, err
	}
	if ownerID == userID {
		return ownerID, true, nil
	}

	n, err := countRows(q, `
		SELECT COUNT(*)
		FROM group_member gm
		JOIN decision_group g ON g.id = gm.group_id
		WHERE g.decision_id = $1 AND gm.user_id = $2
	`, decisionID, userID)
	if err != nil {
		return ownerID, false, err
	}
	return ownerID, n > 0, nil
}

// checkDecisionAccess writes 404/403/500 and returns false when the caller
// may not see the decision
func checkDecisionAccess(w http.ResponseWriter, q queryer, decisionID, userID string) (ownerID string, ok bool) {
	ownerID, allowed, err := decisionAccess(q, decisionID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Decision not found")
		return "", false
	}
	if err != nil {
		slog.Error("failed to check decision access", "decision_id", decisionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return "", false
	}
	if !allowed {
		middleware.ErrorResponse(w, http.StatusForbidden, "You are not allowed to access this decision")
		return "", false
	}
	return ownerID, true
}
