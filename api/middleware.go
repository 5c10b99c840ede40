package api

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

// requireAuth rejects requests without a valid bearer token and puts the
// authenticated user ID on the request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}

		userID, err := ParseToken(s.jwtSecret, strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

// optionalAuth attaches the user ID when a valid token is present but lets
// anonymous requests through. Public commitment reads use this so visibility
// checks can still distinguish owners.
func (s *Server) optionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if strings.HasPrefix(h, "Bearer ") {
			if userID, err := ParseToken(s.jwtSecret, strings.TrimPrefix(h, "Bearer ")); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
			}
		}
		next(w, r)
	}
}

// UserIDFromContext extracts the authenticated user ID, zero if anonymous
func UserIDFromContext(ctx context.Context) int64 {
	if v, ok := ctx.Value(userIDKey).(int64); ok {
		return v
	}
	return 0
}
