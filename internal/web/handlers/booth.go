package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kozaktomas/photobooth/internal/codec"
	"github.com/kozaktomas/photobooth/internal/constants"
	"github.com/kozaktomas/photobooth/internal/filter"
	"github.com/kozaktomas/photobooth/internal/session"
	"github.com/kozaktomas/photobooth/internal/web/middleware"
)

// BoothHandler handles booth session and photo endpoints.
type BoothHandler struct {
	sessionManager *middleware.SessionManager
	log            *zap.Logger
}

// NewBoothHandler creates a new booth handler.
func NewBoothHandler(sm *middleware.SessionManager, log *zap.Logger) *BoothHandler {
	return &BoothHandler{
		sessionManager: sm,
		log:            log,
	}
}

type photoResponse struct {
	session.Photo
	URL         string `json:"url"`
	OriginalURL string `json:"original_url"`
}

type sessionResponse struct {
	ID          string          `json:"id"`
	ExpiresAt   time.Time       `json:"expires_at"`
	MaxPhotos   int             `json:"max_photos"`
	Photos      []photoResponse `json:"photos"`
	CanCapture  bool            `json:"can_capture"`
	CanComplete bool            `json:"can_complete"`
	Collage     collageResponse `json:"collage"`
}

func newPhotoResponse(p session.Photo) photoResponse {
	base := "/api/v1/session/photos/" + p.ID
	return photoResponse{Photo: p, URL: base, OriginalURL: base + "/original"}
}

func newSessionResponse(s *session.Session) sessionResponse {
	photos := s.Photos()
	out := make([]photoResponse, len(photos))
	for i, p := range photos {
		out[i] = newPhotoResponse(p)
	}
	return sessionResponse{
		ID:          s.ID,
		ExpiresAt:   s.ExpiresAt,
		MaxPhotos:   s.MaxPhotos(),
		Photos:      out,
		CanCapture:  s.CanCapture(),
		CanComplete: s.CanComplete(),
		Collage:     newCollageResponse(s.Collage()),
	}
}

// Create starts a new booth session and sets its cookie.
func (h *BoothHandler) Create(w http.ResponseWriter, r *http.Request) {
	if old := h.sessionManager.GetSessionFromRequest(r); old != nil {
		h.sessionManager.DeleteSession(old.ID)
	}
	s := h.sessionManager.CreateSession()
	h.sessionManager.SetSessionCookie(w, s)
	respondJSON(w, http.StatusCreated, newSessionResponse(s))
}

// Get returns the session state.
func (h *BoothHandler) Get(w http.ResponseWriter, r *http.Request) {
	s := mustGetSession(w, r)
	if s == nil {
		return
	}
	respondJSON(w, http.StatusOK, newSessionResponse(s))
}

// End deletes the session and clears its cookie.
func (h *BoothHandler) End(w http.ResponseWriter, r *http.Request) {
	s := mustGetSession(w, r)
	if s == nil {
		return
	}
	h.sessionManager.DeleteSession(s.ID)
	h.sessionManager.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

type maxPhotosRequest struct {
	MaxPhotos int `json:"max_photos"`
}

// SetMaxPhotos changes the capture limit.
func (h *BoothHandler) SetMaxPhotos(w http.ResponseWriter, r *http.Request) {
	s := mustGetSession(w, r)
	if s == nil {
		return
	}

	var req maxPhotosRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if err := s.SetMaxPhotos(req.MaxPhotos); err != nil {
		respondDomainError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, newSessionResponse(s))
}

type captureRequest struct {
	DataURL string `json:"data_url"`
}

// Capture stores a frame sent by the browser, either as multipart field "photo"
// or as JSON {"data_url": "data:image/...;base64,..."}.
func (h *BoothHandler) Capture(w http.ResponseWriter, r *http.Request) {
	s := mustGetSession(w, r)
	if s == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	data, err := readCapture(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "photo too large")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.Capture(r.Context(), data)
	if err != nil {
		respondDomainError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, newPhotoResponse(p))
}

func readCapture(r *http.Request) ([]byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
			return nil, err
		}
		file, _, err := r.FormFile("photo")
		if err != nil {
			return nil, errors.New("photo field is required")
		}
		defer file.Close()
		return io.ReadAll(file)
	}

	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, errors.New(errInvalidRequestBody)
	}
	if req.DataURL == "" {
		// The camera produced no frame.
		return nil, nil
	}
	data, _, err := codec.ParseDataURL(req.DataURL)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Photo serves the rendered (filtered) photo.
func (h *BoothHandler) Photo(w http.ResponseWriter, r *http.Request) {
	h.servePhoto(w, r, false)
}

// Original serves the photo as captured.
func (h *BoothHandler) Original(w http.ResponseWriter, r *http.Request) {
	h.servePhoto(w, r, true)
}

func (h *BoothHandler) servePhoto(w http.ResponseWriter, r *http.Request, original bool) {
	s := mustGetSession(w, r)
	if s == nil {
		return
	}

	p, err := s.Photo(chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, h.log, err)
		return
	}

	data, mime := p.Rendered, p.RenderedMIME
	if original {
		data, mime = p.Original, p.OriginalMIME
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// EditFilters re-renders a photo with new adjustments. Omitted fields keep
// their neutral value.
func (h *BoothHandler) EditFilters(w http.ResponseWriter, r *http.Request) {
	s := mustGetSession(w, r)
	if s == nil {
		return
	}

	adj := filter.Default()
	if err := json.NewDecoder(r.Body).Decode(&adj); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	id := chi.URLParam(r, "id")
	p, err := s.Edit(r.Context(), id, adj)
	if err != nil {
		h.log.Debug("photo edit failed",
			zap.String("photo", sanitizeForLog(id)),
			zap.Error(err))
		respondDomainError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, newPhotoResponse(p))
}

// ResetFilters restores a photo's original rendering.
func (h *BoothHandler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	s := mustGetSession(w, r)
	if s == nil {
		return
	}

	p, err := s.ResetFilter(chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, newPhotoResponse(p))
}

// DeletePhoto removes one photo.
func (h *BoothHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	s := mustGetSession(w, r)
	if s == nil {
		return
	}

	if err := s.DeletePhoto(chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetPhotos discards every photo so the visitor can start over.
func (h *BoothHandler) ResetPhotos(w http.ResponseWriter, r *http.Request) {
	s := mustGetSession(w, r)
	if s == nil {
		return
	}
	s.Reset()
	respondJSON(w, http.StatusOK, newSessionResponse(s))
}
