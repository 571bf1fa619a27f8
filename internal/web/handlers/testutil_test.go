package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kozaktomas/photobooth/internal/codec"
	"github.com/kozaktomas/photobooth/internal/collage"
	"github.com/kozaktomas/photobooth/internal/filter"
	"github.com/kozaktomas/photobooth/internal/loader"
	"github.com/kozaktomas/photobooth/internal/session"
	"github.com/kozaktomas/photobooth/internal/web/middleware"
)

// testSessionManager creates a session manager over a fresh in-memory store
func testSessionManager() *middleware.SessionManager {
	dec := loader.New(time.Second, 1<<20)
	store := session.NewStore(dec, filter.NewRenderer(dec, codec.PNG, 95), collage.NewCompositor(dec))
	return middleware.NewSessionManager("test-secret", store)
}

// newTestSession creates a booth session for handler tests
func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	return testSessionManager().CreateSession()
}

// requestWithSession creates a request with a booth session in context
func requestWithSession(t *testing.T, method, path string, body io.Reader, s *session.Session) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	return req.WithContext(middleware.SetSessionInContext(req.Context(), s))
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// framePNG encodes a small test frame; seed varies its content
func framePNG(t *testing.T, seed int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := range 30 {
		for x := range 40 {
			img.Set(x, y, color.RGBA{uint8(x*6 + seed*50), uint8(y * 8), uint8(seed * 70), 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode frame: %v", err)
	}
	return buf.Bytes()
}

// captureFrames stores n frames in the session
func captureFrames(t *testing.T, s *session.Session, n int) []session.Photo {
	t.Helper()
	photos := make([]session.Photo, n)
	for i := range n {
		p, err := s.Capture(context.Background(), framePNG(t, i))
		if err != nil {
			t.Fatalf("failed to capture frame %d: %v", i, err)
		}
		photos[i] = p
	}
	return photos
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
