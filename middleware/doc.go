// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status,
duration_ms). Each request gets an ID, taken from an incoming X-Request-ID
header or generated with google/uuid, echoed back in the response and
available to handlers through RequestID(r.Context()).

# Authentication

Session tokens arrive as "Authorization: Bearer <token>":

	mux.HandleFunc("GET /users/me", middleware.WithLogging(
		middleware.RequireUser(tokens, h.Me)))

RequireUser answers 401 for missing, malformed or expired tokens.
RequireAdmin additionally answers 403 for non-admins. OptionalUser never
rejects. Handlers read the caller with UserFromContext.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, DELETE, OPTIONS with headers
Content-Type, Authorization, X-Request-ID.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.ErrorDetails(w, http.StatusBadRequest, "Inconsistent judgments", details)

Parse JSON request bodies:

	var req models.CreateChecklistRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Pagination

	page, size := middleware.ParsePagination(r, "page_size", 10)
	envelope := middleware.NewPage(page, size, total)

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Used for the salted IP hash stored with feedback.
*/
package middleware
