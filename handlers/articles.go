// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/deliberate/auth"
	"github.com/danielhkuo/deliberate/cliparse"
	"github.com/danielhkuo/deliberate/middleware"
	"github.com/danielhkuo/deliberate/models"
)

type ArticleHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewArticleHandler(db *sql.DB, cfg cliparse.Config) *ArticleHandler {
	return &ArticleHandler{db: db, cfg: cfg}
}

const articleColumns = `id, title, content, author, tags, keywords, reference_count, created_at, updated_at`

func scanArticle(row interface{ Scan(...any) error }) (models.Article, error) {
	var a models.Article
	var tags, keywords sql.NullString
	err := row.Scan(&a.ID, &a.Title, &a.Content, &a.Author, &tags, &keywords, &a.ReferenceCount, &a.CreatedAt, &a.UpdatedAt)
	a.Tags = tags.String
	a.Keywords = keywords.String
	return a, err
}

// Create handles POST /articles
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.CreateArticleRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	author := strings.TrimSpace(req.Author)
	if title == "" || content == "" || author == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title, content and author are required")
		return
	}

	articleID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate article ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create article")
		return
	}

	now := time.Now().UTC()
	_, err = h.db.Exec(`
		INSERT INTO article (id, user_id, title, content, author, tags, keywords, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, articleID, userID, title, content, author,
		nullString(strings.TrimSpace(req.Tags)), nullString(strings.TrimSpace(req.Keywords)), now)
	if err != nil {
		slog.Error("failed to insert article", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create article")
		return
	}

	slog.Info("article created", "article_id", articleID, "user_id", userID)

	middleware.JSONResponse(w, http.StatusCreated, models.IDResponse{ID: articleID})
}

// List handles GET /articles
// tags and keywords are case-insensitive substring filters
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	query := `SELECT ` + articleColumns + ` FROM article WHERE user_id = $1`
	args := []any{userID}
	for _, filter := range []string{"tags", "keywords"} {
		if v := strings.TrimSpace(r.URL.Query().Get(filter)); v != "" {
			args = append(args, "%"+strings.ToLower(v)+"%")
			query += fmt.Sprintf(` AND LOWER(%s) LIKE $%d`, filter, len(args))
		}
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := h.db.Query(query, args...)
	if err != nil {
		slog.Error("failed to query articles", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	articles := []models.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			slog.Error("failed to scan article", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		a.Content = ""
		articles = append(articles, a)
	}

	middleware.JSONResponse(w, http.StatusOK, articles)
}

// loadOwned fetches an article and writes 404/403/500 unless userID owns it
func (h *ArticleHandler) loadOwned(w http.ResponseWriter, articleID, userID string) (models.Article, bool) {
	var ownerID string
	err := h.db.QueryRow(`SELECT user_id FROM article WHERE id = $1`, articleID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Article not found")
		return models.Article{}, false
	}
	if err != nil {
		slog.Error("failed to query article", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.Article{}, false
	}
	if ownerID != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "You are not allowed to access this article")
		return models.Article{}, false
	}

	a, err := scanArticle(h.db.QueryRow(`SELECT `+articleColumns+` FROM article WHERE id = $1`, articleID))
	if err != nil {
		slog.Error("failed to load article", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.Article{}, false
	}
	return a, true
}

// Get handles GET /articles/{id}
func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	a, ok := h.loadOwned(w, r.PathValue("id"), userID)
	if !ok {
		return
	}

	middleware.JSONResponse(w, http.StatusOK, a)
}

// Update handles PUT /articles/{id}
// Only fields present in the body change
func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.UpdateArticleRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	a, ok := h.loadOwned(w, r.PathValue("id"), userID)
	if !ok {
		return
	}

	for _, f := range []struct {
		in       *string
		out      *string
		required bool
	}{
		{req.Title, &a.Title, true},
		{req.Content, &a.Content, true},
		{req.Author, &a.Author, true},
		{req.Tags, &a.Tags, false},
		{req.Keywords, &a.Keywords, false},
	} {
		if f.in == nil {
			continue
		}
		v := strings.TrimSpace(*f.in)
		if f.required && v == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, "title, content and author cannot be empty")
			return
		}
		*f.out = v
	}

	a.UpdatedAt = time.Now().UTC()
	_, err := h.db.Exec(`
		UPDATE article
		SET title = $1, content = $2, author = $3, tags = $4, keywords = $5, updated_at = $6
		WHERE id = $7
	`, a.Title, a.Content, a.Author, nullString(a.Tags), nullString(a.Keywords), a.UpdatedAt, a.ID)
	if err != nil {
		slog.Error("failed to update article", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update article")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, a)
}

// Delete handles DELETE /articles/{id}
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	articleID := r.PathValue("id")
	if _, ok := h.loadOwned(w, articleID, userID); !ok {
		return
	}

	if _, err := h.db.Exec(`DELETE FROM article WHERE id = $1`, articleID); err != nil {
		slog.Error("failed to delete article", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete article")
		return
	}

	slog.Info("article deleted", "article_id", articleID, "user_id", userID)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Article deleted"})
}
