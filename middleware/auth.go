// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/deliberate/auth"
)

// ContextWithUser stores validated claims on the request context
func ContextWithUser(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, userKey, claims)
}

// UserFromContext returns the claims set by RequireUser or OptionalUser
func UserFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(userKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// bearerToken extracts the token from "Authorization: Bearer <token>"
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireUser rejects requests without a valid session token
func RequireUser(tokens *auth.TokenManager, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			ErrorResponse(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			if auth.IsExpired(err) {
				ErrorResponse(w, http.StatusUnauthorized, "Session expired")
				return
			}
			slog.Info("rejected session token", "request_id", RequestID(r.Context()), "error", err)
			ErrorResponse(w, http.StatusUnauthorized, "Invalid session token")
			return
		}

		next(w, r.WithContext(ContextWithUser(r.Context(), claims)))
	}
}

// RequireAdmin is RequireUser plus the admin flag
func RequireAdmin(tokens *auth.TokenManager, next http.HandlerFunc) http.HandlerFunc {
	return RequireUser(tokens, func(w http.ResponseWriter, r *http.Request) {
		claims, _ := UserFromContext(r.Context())
		if !claims.IsAdmin {
			ErrorResponse(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r)
	})
}

// OptionalUser attaches claims when a valid token is present and otherwise
// lets the request through anonymously
func OptionalUser(tokens *auth.TokenManager, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			if claims, err := tokens.Validate(token); err == nil {
				r = r.WithContext(ContextWithUser(r.Context(), claims))
			}
		}
		next(w, r)
	}
}
