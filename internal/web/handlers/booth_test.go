package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/photobooth/internal/codec"
)

func TestBoothHandler_Create(t *testing.T) {
	sm := testSessionManager()
	handler := NewBoothHandler(sm, testLogger())

	recorder := httptest.NewRecorder()
	handler.Create(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))

	assertStatusCode(t, recorder, http.StatusCreated)

	var result sessionResponse
	parseJSONResponse(t, recorder, &result)
	if result.ID == "" || result.MaxPhotos != 4 || !result.CanCapture || result.CanComplete {
		t.Errorf("unexpected session %+v", result)
	}
	if sm.GetSession(result.ID) == nil {
		t.Error("session should be stored")
	}
	if len(recorder.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}
}

func TestBoothHandler_Get(t *testing.T) {
	s := newTestSession(t)
	captureFrames(t, s, 2)
	handler := NewBoothHandler(testSessionManager(), testLogger())

	recorder := httptest.NewRecorder()
	handler.Get(recorder, requestWithSession(t, http.MethodGet, "/api/v1/session", nil, s))

	assertStatusCode(t, recorder, http.StatusOK)

	var result sessionResponse
	parseJSONResponse(t, recorder, &result)
	if len(result.Photos) != 2 || !result.CanComplete {
		t.Errorf("unexpected session %+v", result)
	}
	if p := result.Photos[0]; p.URL != "/api/v1/session/photos/"+p.ID || p.Width != 40 {
		t.Errorf("unexpected photo %+v", p)
	}
}

func TestBoothHandler_SetMaxPhotos(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"valid", `{"max_photos": 6}`, http.StatusOK},
		{"not allowed", `{"max_photos": 5}`, http.StatusBadRequest},
		{"invalid json", `{`, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSession(t)
			handler := NewBoothHandler(testSessionManager(), testLogger())

			recorder := httptest.NewRecorder()
			handler.SetMaxPhotos(recorder, requestWithSession(t, http.MethodPut, "/api/v1/session/max-photos", strings.NewReader(tc.body), s))

			assertStatusCode(t, recorder, tc.status)
			if tc.status == http.StatusOK && s.MaxPhotos() != 6 {
				t.Errorf("MaxPhotos = %d, want 6", s.MaxPhotos())
			}
		})
	}
}

func TestBoothHandler_Capture_Multipart(t *testing.T) {
	s := newTestSession(t)
	handler := NewBoothHandler(testSessionManager(), testLogger())

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("photo", "frame.png")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	part.Write(framePNG(t, 1))
	writer.Close()

	req := requestWithSession(t, http.MethodPost, "/api/v1/session/photos", body, s)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	recorder := httptest.NewRecorder()
	handler.Capture(recorder, req)

	assertStatusCode(t, recorder, http.StatusCreated)
	if len(s.Photos()) != 1 {
		t.Errorf("expected 1 photo, got %d", len(s.Photos()))
	}
}

func TestBoothHandler_Capture_DataURL(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"valid", `{"data_url": "` + codec.DataURL(framePNG(t, 1), "image/png") + `"}`, http.StatusCreated, ""},
		{"empty frame", `{"data_url": ""}`, http.StatusBadRequest, "capture device unavailable"},
		{"not an image", `{"data_url": "` + codec.DataURL([]byte("hello"), "image/png") + `"}`, http.StatusUnprocessableEntity, ""},
		{"bad data url", `{"data_url": "data:image/png,raw"}`, http.StatusBadRequest, ""},
		{"invalid json", `nope`, http.StatusBadRequest, errInvalidRequestBody},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSession(t)
			handler := NewBoothHandler(testSessionManager(), testLogger())

			req := requestWithSession(t, http.MethodPost, "/api/v1/session/photos", strings.NewReader(tc.body), s)
			req.Header.Set("Content-Type", "application/json")

			recorder := httptest.NewRecorder()
			handler.Capture(recorder, req)

			assertStatusCode(t, recorder, tc.status)
			if tc.message != "" {
				assertJSONError(t, recorder, tc.message)
			}
		})
	}
}

func TestBoothHandler_Capture_Limit(t *testing.T) {
	s := newTestSession(t)
	if err := s.SetMaxPhotos(2); err != nil {
		t.Fatalf("SetMaxPhotos failed: %v", err)
	}
	captureFrames(t, s, 2)
	handler := NewBoothHandler(testSessionManager(), testLogger())

	body := `{"data_url": "` + codec.DataURL(framePNG(t, 3), "image/png") + `"}`
	recorder := httptest.NewRecorder()
	handler.Capture(recorder, requestWithSession(t, http.MethodPost, "/api/v1/session/photos", strings.NewReader(body), s))

	assertStatusCode(t, recorder, http.StatusConflict)
}

func TestBoothHandler_PhotoAndOriginal(t *testing.T) {
	s := newTestSession(t)
	p := captureFrames(t, s, 1)[0]
	handler := NewBoothHandler(testSessionManager(), testLogger())

	edit := requestWithSession(t, http.MethodPut, "/", strings.NewReader(`{"filter": "vintage"}`), s)
	recorder := httptest.NewRecorder()
	handler.EditFilters(recorder, requestWithChiParams(edit, map[string]string{"id": p.ID}))
	assertStatusCode(t, recorder, http.StatusOK)

	rendered := httptest.NewRecorder()
	handler.Photo(rendered, requestWithChiParams(requestWithSession(t, http.MethodGet, "/", nil, s), map[string]string{"id": p.ID}))
	assertStatusCode(t, rendered, http.StatusOK)
	assertContentType(t, rendered, "image/png")

	original := httptest.NewRecorder()
	handler.Original(original, requestWithChiParams(requestWithSession(t, http.MethodGet, "/", nil, s), map[string]string{"id": p.ID}))
	assertStatusCode(t, original, http.StatusOK)

	if !bytes.Equal(original.Body.Bytes(), p.Original) {
		t.Error("original endpoint should serve the captured bytes")
	}
	if bytes.Equal(rendered.Body.Bytes(), p.Original) {
		t.Error("rendered endpoint should serve the filtered photo")
	}

	missing := httptest.NewRecorder()
	handler.Photo(missing, requestWithChiParams(requestWithSession(t, http.MethodGet, "/", nil, s), map[string]string{"id": "nope"}))
	assertStatusCode(t, missing, http.StatusNotFound)
}

func TestBoothHandler_EditFilters(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		edited bool
	}{
		{"preset", `{"filter": "neon"}`, http.StatusOK, true},
		{"numeric", `{"brightness": 1.4, "contrast": 0.8}`, http.StatusOK, true},
		{"neutral", `{"filter": "none"}`, http.StatusOK, false},
		{"unknown preset", `{"filter": "lomo"}`, http.StatusBadRequest, false},
		{"invalid json", `{"brightness": "x"}`, http.StatusBadRequest, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSession(t)
			p := captureFrames(t, s, 1)[0]
			handler := NewBoothHandler(testSessionManager(), testLogger())

			req := requestWithSession(t, http.MethodPut, "/", strings.NewReader(tc.body), s)
			recorder := httptest.NewRecorder()
			handler.EditFilters(recorder, requestWithChiParams(req, map[string]string{"id": p.ID}))

			assertStatusCode(t, recorder, tc.status)
			got, _ := s.Photo(p.ID)
			if got.Edited != tc.edited {
				t.Errorf("Edited = %v, want %v", got.Edited, tc.edited)
			}
		})
	}
}

func TestBoothHandler_ResetAndDelete(t *testing.T) {
	s := newTestSession(t)
	photos := captureFrames(t, s, 3)
	handler := NewBoothHandler(testSessionManager(), testLogger())

	recorder := httptest.NewRecorder()
	handler.ResetFilters(recorder, requestWithChiParams(requestWithSession(t, http.MethodDelete, "/", nil, s), map[string]string{"id": photos[0].ID}))
	assertStatusCode(t, recorder, http.StatusOK)

	recorder = httptest.NewRecorder()
	handler.DeletePhoto(recorder, requestWithChiParams(requestWithSession(t, http.MethodDelete, "/", nil, s), map[string]string{"id": photos[1].ID}))
	assertStatusCode(t, recorder, http.StatusNoContent)
	if len(s.Photos()) != 2 {
		t.Errorf("expected 2 photos, got %d", len(s.Photos()))
	}

	recorder = httptest.NewRecorder()
	handler.DeletePhoto(recorder, requestWithChiParams(requestWithSession(t, http.MethodDelete, "/", nil, s), map[string]string{"id": photos[1].ID}))
	assertStatusCode(t, recorder, http.StatusNotFound)

	recorder = httptest.NewRecorder()
	handler.ResetPhotos(recorder, requestWithSession(t, http.MethodDelete, "/", nil, s))
	assertStatusCode(t, recorder, http.StatusOK)
	if len(s.Photos()) != 0 {
		t.Error("expected no photos after reset")
	}
}

func TestBoothHandler_End(t *testing.T) {
	sm := testSessionManager()
	s := sm.CreateSession()
	handler := NewBoothHandler(sm, testLogger())

	recorder := httptest.NewRecorder()
	handler.End(recorder, requestWithSession(t, http.MethodDelete, "/api/v1/session", nil, s))

	assertStatusCode(t, recorder, http.StatusNoContent)
	if sm.GetSession(s.ID) != nil {
		t.Error("session should be deleted")
	}
}
