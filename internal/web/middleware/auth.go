package middleware

import (
	"context"
	"net/http"

	"github.com/kozaktomas/photobooth/internal/session"
)

type contextKey string

const sessionContextKey contextKey = "session"

// RequireSession is middleware that requires a live booth session
func RequireSession(sm *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := sm.GetSessionFromRequest(r)
			if s == nil {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error": "no active session"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionFromContext retrieves the session from the request context
func GetSessionFromContext(ctx context.Context) *session.Session {
	s, ok := ctx.Value(sessionContextKey).(*session.Session)
	if !ok {
		return nil
	}
	return s
}

// SetSessionInContext adds a session to the context.
// This is primarily for testing - use RequireSession middleware in production.
func SetSessionInContext(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}
