package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/kozaktomas/photobooth/internal/session"
)

const sessionCookieName = "photobooth_session"

// SessionManager binds booth sessions to browsers with a signed cookie.
type SessionManager struct {
	secret []byte
	store  *session.Store
}

// NewSessionManager creates a new session manager
func NewSessionManager(secret string, store *session.Store) *SessionManager {
	// Use a default secret if none provided (for development)
	if secret == "" {
		secret = "photobooth-dev-secret-change-in-production"
	}
	return &SessionManager{
		secret: []byte(secret),
		store:  store,
	}
}

// CreateSession starts a new booth session.
func (sm *SessionManager) CreateSession() *session.Session {
	return sm.store.Create()
}

// GetSession retrieves a live session by ID
func (sm *SessionManager) GetSession(sessionID string) *session.Session {
	s, err := sm.store.Get(sessionID)
	if err != nil {
		return nil
	}
	return s
}

// DeleteSession ends a session
func (sm *SessionManager) DeleteSession(sessionID string) {
	sm.store.Delete(sessionID)
}

// SetSessionCookie sets the session cookie on the response
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, s *session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    s.ID + "." + sm.signData(s.ID),
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		SameSite: http.SameSiteLaxMode,
		MaxAge:   max(int(time.Until(s.ExpiresAt).Seconds()), 1),
	})
}

// ClearSessionCookie removes the session cookie
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// GetSessionFromRequest extracts the session from a signed cookie or a bearer token.
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) *session.Session {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		sessionID, signature, ok := strings.Cut(cookie.Value, ".")
		if ok && sm.verifySignature(sessionID, signature) {
			if s := sm.GetSession(sessionID); s != nil {
				return s
			}
		}
	}

	if sessionID, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		if s := sm.GetSession(sessionID); s != nil {
			return s
		}
	}

	return nil
}

// signData creates an HMAC signature for data
func (sm *SessionManager) signData(data string) string {
	h := hmac.New(sha256.New, sm.secret)
	h.Write([]byte(data))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

// verifySignature verifies an HMAC signature
func (sm *SessionManager) verifySignature(data, signature string) bool {
	expected := sm.signData(data)
	return hmac.Equal([]byte(signature), []byte(expected))
}
