// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/deliberate/auth"
	"github.com/danielhkuo/deliberate/cliparse"
	"github.com/danielhkuo/deliberate/handlers"
	"github.com/danielhkuo/deliberate/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()
	tokens := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL)

	public := middleware.WithLogging
	user := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireUser(tokens, h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAdmin(tokens, h))
	}
	optional := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.OptionalUser(tokens, h))
	}

	// Initialize handlers
	userHandler := handlers.NewUserHandler(db, cfg)
	ahpHandler := handlers.NewAHPHandler(db, cfg)
	checklistHandler := handlers.NewChecklistHandler(db, cfg)
	decisionHandler := handlers.NewDecisionHandler(db, cfg)
	groupHandler := handlers.NewGroupHandler(db, cfg)
	articleHandler := handlers.NewArticleHandler(db, cfg)
	todoHandler := handlers.NewTodoHandler(db, cfg)
	inspirationHandler := handlers.NewInspirationHandler(db, cfg)
	feedbackHandler := handlers.NewFeedbackHandler(db, cfg)
	balancedHandler := handlers.NewBalancedDecisionHandler(db, cfg)
	logicErrorHandler := handlers.NewLogicErrorHandler(db)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Users
	mux.HandleFunc("POST /users/register", public(userHandler.Register))
	mux.HandleFunc("POST /users/login", public(userHandler.Login))
	mux.HandleFunc("GET /users/me", user(userHandler.Me))

	// AHP
	mux.HandleFunc("POST /ahp/analysis", public(ahpHandler.Analyze))
	mux.HandleFunc("POST /ahp/history", user(ahpHandler.SaveHistory))
	mux.HandleFunc("GET /ahp/history", user(ahpHandler.ListHistory))
	mux.HandleFunc("DELETE /ahp/history/{id}", user(ahpHandler.DeleteHistory))

	// Checklists
	mux.HandleFunc("GET /checklists", user(checklistHandler.List))
	mux.HandleFunc("POST /checklists", user(checklistHandler.Create))
	mux.HandleFunc("POST /checklists/clone", user(checklistHandler.Clone))
	mux.HandleFunc("GET /checklists/{id}", user(checklistHandler.Get))
	mux.HandleFunc("PUT /checklists/{id}", user(checklistHandler.Update))
	mux.HandleFunc("DELETE /checklists/{id}", user(checklistHandler.Delete))
	mux.HandleFunc("DELETE /checklists/{id}/family", user(checklistHandler.DeleteFamily))

	// Platform checklists
	mux.HandleFunc("GET /platform-checklists", public(checklistHandler.ListPlatform))
	mux.HandleFunc("GET /platform-checklists/{id}", public(checklistHandler.GetPlatform))
	mux.HandleFunc("POST /platform-checklists", admin(checklistHandler.CreatePlatform))

	// Decisions, answers and reviews
	mux.HandleFunc("POST /decisions", user(decisionHandler.Create))
	mux.HandleFunc("GET /decisions", user(decisionHandler.List))
	mux.HandleFunc("GET /decisions/{id}", user(decisionHandler.Get))
	mux.HandleFunc("DELETE /decisions/{id}", user(decisionHandler.Delete))
	mux.HandleFunc("GET /decisions/{id}/questions", user(decisionHandler.Questions))
	mux.HandleFunc("POST /decisions/{id}/answers", user(decisionHandler.SubmitAnswers))
	mux.HandleFunc("GET /decisions/{id}/responses", user(decisionHandler.Responses))
	mux.HandleFunc("POST /decisions/{id}/reviews", user(decisionHandler.CreateReview))
	mux.HandleFunc("GET /decisions/{id}/reviews", user(decisionHandler.ListReviews))

	// Decision groups
	mux.HandleFunc("POST /groups", user(groupHandler.Create))
	mux.HandleFunc("POST /groups/join/{code}", user(groupHandler.Join))
	mux.HandleFunc("GET /groups/{id}", user(groupHandler.Get))
	mux.HandleFunc("GET /groups/{id}/members", user(groupHandler.Members))

	// Articles
	mux.HandleFunc("POST /articles", user(articleHandler.Create))
	mux.HandleFunc("GET /articles", user(articleHandler.List))
	mux.HandleFunc("GET /articles/{id}", user(articleHandler.Get))
	mux.HandleFunc("PUT /articles/{id}", user(articleHandler.Update))
	mux.HandleFunc("DELETE /articles/{id}", user(articleHandler.Delete))

	// Todos
	mux.HandleFunc("POST /todos", user(todoHandler.Create))
	mux.HandleFunc("GET /todos", user(todoHandler.List))
	mux.HandleFunc("GET /todos/completed", user(todoHandler.Completed))
	mux.HandleFunc("GET /todos/ended", user(todoHandler.Ended))
	mux.HandleFunc("PUT /todos/{id}", user(todoHandler.Update))
	mux.HandleFunc("DELETE /todos/{id}", user(todoHandler.Delete))

	// Inspirations and reflections
	mux.HandleFunc("GET /inspirations", public(inspirationHandler.List))
	mux.HandleFunc("POST /inspirations", admin(inspirationHandler.Create))
	mux.HandleFunc("GET /inspirations/{id}/reflections", user(inspirationHandler.Reflections))
	mux.HandleFunc("POST /reflections", user(inspirationHandler.CreateReflection))
	mux.HandleFunc("PUT /reflections/{id}", user(inspirationHandler.UpdateReflection))
	mux.HandleFunc("DELETE /reflections/{id}", user(inspirationHandler.DeleteReflection))
	mux.HandleFunc("GET /reflections/mine", user(inspirationHandler.Mine))
	mux.HandleFunc("GET /reflections/mine/random", user(inspirationHandler.MineRandom))

	// Feedback
	mux.HandleFunc("POST /feedback", optional(feedbackHandler.Create))
	mux.HandleFunc("GET /feedback", admin(feedbackHandler.List))
	mux.HandleFunc("POST /feedback/{id}/respond", admin(feedbackHandler.Respond))

	// Balanced decisions
	mux.HandleFunc("POST /balanced-decisions", user(balancedHandler.Save))
	mux.HandleFunc("GET /balanced-decisions", user(balancedHandler.List))
	mux.HandleFunc("GET /balanced-decisions/{id}", user(balancedHandler.Get))

	// Logic errors
	mux.HandleFunc("GET /logic-errors", public(logicErrorHandler.List))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("deliberate API v1"))
	})

	return mux
}
