package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/kozaktomas/photobooth/internal/collage"
)

// eventSource is what streamSSEEvents needs from a broadcaster.
type eventSource interface {
	AddListener() chan collage.Event
	RemoveListener(ch chan collage.Event)
}

// setupSSEConnection sets up SSE headers. On failure it writes an error
// response and returns false.
func setupSSEConnection(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return flusher, true
}

// streamSSEEvents sends an initial "status" event and then every event from src
// until the client disconnects or the source closes the channel.
func streamSSEEvents(w http.ResponseWriter, r *http.Request, src eventSource, getInitialData func() any) {
	flusher, ok := setupSSEConnection(w)
	if !ok {
		return
	}

	eventCh := src.AddListener()
	defer src.RemoveListener(eventCh)

	sendSSEEvent(w, flusher, "status", getInitialData())

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, string(event.Type), event)
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}
