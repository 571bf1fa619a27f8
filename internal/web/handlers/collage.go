package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kozaktomas/photobooth/internal/catalog"
	"github.com/kozaktomas/photobooth/internal/codec"
	"github.com/kozaktomas/photobooth/internal/collage"
	"github.com/kozaktomas/photobooth/internal/constants"
	"github.com/kozaktomas/photobooth/internal/export"
)

// CollageHandler handles collage generation, events and export.
type CollageHandler struct {
	log *zap.Logger
}

// NewCollageHandler creates a new collage handler.
func NewCollageHandler(log *zap.Logger) *CollageHandler {
	return &CollageHandler{log: log}
}

type collageResponse struct {
	Version     uint64     `json:"version"`
	Pending     bool       `json:"pending"`
	Ready       bool       `json:"ready"`
	LayoutID    string     `json:"layout_id,omitempty"`
	PhotoIDs    []string   `json:"photo_ids,omitempty"`
	Format      string     `json:"format,omitempty"`
	Width       int        `json:"width,omitempty"`
	Height      int        `json:"height,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	DownloadURL string     `json:"download_url,omitempty"`
	PrintURL    string     `json:"print_url,omitempty"`
	PDFURL      string     `json:"pdf_url,omitempty"`
}

func newCollageResponse(st collage.Status) collageResponse {
	resp := collageResponse{
		Version: st.Version,
		Pending: st.Pending,
	}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}
	if res := st.Latest; res != nil {
		b := res.Image.Bounds()
		created := res.CreatedAt
		resp.Ready = true
		resp.LayoutID = res.LayoutID
		resp.PhotoIDs = res.PhotoIDs
		resp.Format = string(res.Format)
		resp.Width = b.Dx()
		resp.Height = b.Dy()
		resp.Fingerprint = res.Fingerprint
		resp.CreatedAt = &created
		resp.DownloadURL = "/api/v1/session/collage/download"
		resp.PrintURL = "/api/v1/session/collage/print"
		resp.PDFURL = "/api/v1/session/collage/pdf"
	}
	return resp
}

type composeRequest struct {
	LayoutID string `json:"layout_id"`
}

// Compose builds (or rebuilds) the session collage. A request overtaken by a
// newer one answers 409 and its result is dropped.
func (h *CollageHandler) Compose(w http.ResponseWriter, r *http.Request) {
	s := mustGetSession(w, r)
	if s == nil {
		return
	}

	var req composeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, errInvalidRequestBody)
			return
		}
	}

	if _, err := s.Compose(r.Context(), req.LayoutID); err != nil {
		respondDomainError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, newCollageResponse(s.Collage()))
}

// Status returns the collage state.
func (h *CollageHandler) Status(w http.ResponseWriter, r *http.Request) {
	s := mustGetSession(w, r)
	if s == nil {
		return
	}
	respondJSON(w, http.StatusOK, newCollageResponse(s.Collage()))
}

// Events streams generator events over SSE.
func (h *CollageHandler) Events(w http.ResponseWriter, r *http.Request) {
	s := mustGetSession(w, r)
	if s == nil {
		return
	}
	streamSSEEvents(w, r, s.Events(), func() any {
		return newCollageResponse(s.Collage())
	})
}

// etag is weak: it names the look of the collage, not its exact bytes.
func etag(res *collage.Result) string {
	return `W/"` + res.Fingerprint + `"`
}

// Download serves the latest collage as a file. ?inline=1 serves it for display.
func (h *CollageHandler) Download(w http.ResponseWriter, r *http.Request) {
	s := mustGetSession(w, r)
	if s == nil {
		return
	}

	res := s.Collage().Latest
	if res == nil {
		respondError(w, http.StatusNotFound, "no collage yet")
		return
	}

	tag := etag(res)
	w.Header().Set("ETag", tag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == tag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	disposition := "attachment"
	if inline, _ := strconv.ParseBool(r.URL.Query().Get("inline")); inline {
		disposition = "inline"
	}
	name := export.DownloadFilename(res.LayoutID, res.Format, res.CreatedAt)
	w.Header().Set("Content-Disposition", disposition+`; filename="`+name+`"`)
	w.Header().Set("Content-Type", res.Format.MIME())
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Encoded)))
	w.WriteHeader(http.StatusOK)
	w.Write(res.Encoded)
}

// Print serves an HTML page that prints the latest collage.
func (h *CollageHandler) Print(w http.ResponseWriter, r *http.Request) {
	s := mustGetSession(w, r)
	if s == nil {
		return
	}

	res := s.Collage().Latest
	if res == nil {
		respondError(w, http.StatusNotFound, "no collage yet")
		return
	}

	title := "Collage"
	if l, ok := catalog.LayoutByID(res.LayoutID); ok {
		title = "Collage " + l.Name
	}

	var buf bytes.Buffer
	if err := export.PrintDocument(&buf, codec.DataURL(res.Encoded, res.Format.MIME()), title); err != nil {
		respondDomainError(w, h.log, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// PDF serves the latest collage as a one page PDF sized to the collage.
func (h *CollageHandler) PDF(w http.ResponseWriter, r *http.Request) {
	s := mustGetSession(w, r)
	if s == nil {
		return
	}

	res := s.Collage().Latest
	if res == nil {
		respondError(w, http.StatusNotFound, "no collage yet")
		return
	}

	var buf bytes.Buffer
	if err := export.PDF(&buf, res.Image, constants.DefaultQuality); err != nil {
		respondDomainError(w, h.log, err)
		return
	}
	name := export.PDFFilename(res.LayoutID, res.CreatedAt)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
