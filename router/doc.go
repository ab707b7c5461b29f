// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Deliberate API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

Every route goes through middleware.WithLogging. Routes are grouped by the
auth wrapper they need:

  - public: no token
  - user: middleware.RequireUser, 401 without a valid bearer token
  - admin: middleware.RequireAdmin, 403 for non-admins
  - optional: middleware.OptionalUser, claims attached when present

# Endpoints

Public:

	GET  /health
	POST /users/register
	POST /users/login
	POST /ahp/analysis
	GET  /platform-checklists
	GET  /platform-checklists/{id}
	GET  /inspirations
	GET  /logic-errors
	POST /feedback              (optional user)

User:

	GET  /users/me
	POST|GET /ahp/history, DELETE /ahp/history/{id}
	GET|POST /checklists, POST /checklists/clone
	GET|PUT|DELETE /checklists/{id}, DELETE /checklists/{id}/family
	GET|POST /decisions, GET|DELETE /decisions/{id}
	GET  /decisions/{id}/questions
	POST /decisions/{id}/answers, GET /decisions/{id}/responses
	POST|GET /decisions/{id}/reviews
	POST /groups, POST /groups/join/{code}
	GET  /groups/{id}, GET /groups/{id}/members
	GET|POST /articles, GET|PUT|DELETE /articles/{id}
	GET|POST /todos, GET /todos/completed, GET /todos/ended
	PUT|DELETE /todos/{id}
	GET  /inspirations/{id}/reflections
	POST /reflections, PUT|DELETE /reflections/{id}
	GET  /reflections/mine, GET /reflections/mine/random
	POST|GET /balanced-decisions, GET /balanced-decisions/{id}

Admin:

	POST /platform-checklists
	POST /inspirations
	GET  /feedback
	POST /feedback/{id}/respond
*/
package router
