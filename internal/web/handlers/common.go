package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kozaktomas/photobooth/internal/collage"
	"github.com/kozaktomas/photobooth/internal/filter"
	"github.com/kozaktomas/photobooth/internal/loader"
	"github.com/kozaktomas/photobooth/internal/session"
	"github.com/kozaktomas/photobooth/internal/web/middleware"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps booth, filter and collage errors onto HTTP statuses.
// Unexpected errors are logged and reported as 500 without details.
func respondDomainError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrCaptureLimit),
		errors.Is(err, session.ErrNotReady),
		errors.Is(err, session.ErrEditSuperseded),
		errors.Is(err, collage.ErrSuperseded):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrInvalidMaxPhotos),
		errors.Is(err, session.ErrUnknownLayout),
		errors.Is(err, session.ErrDeviceUnavailable),
		errors.Is(err, filter.ErrUnknownEffect),
		errors.Is(err, collage.ErrInvalidLayout):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, loader.ErrDecode):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		log.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// mustGetSession returns the booth session placed in the context by
// middleware.RequireSession, or writes a 401 and returns nil.
func mustGetSession(w http.ResponseWriter, r *http.Request) *session.Session {
	s := middleware.GetSessionFromContext(r.Context())
	if s == nil {
		respondError(w, http.StatusUnauthorized, "no active session")
	}
	return s
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
