package collage

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/kozaktomas/photobooth/internal/catalog"
)

// ErrSuperseded is returned by Generator.Request when a newer request was issued
// while this one was composing. Its result is discarded.
var ErrSuperseded = errors.New("collage request superseded")

// EventType names a generator lifecycle event.
type EventType string

// Generator events.
const (
	EventStarted    EventType = "started"
	EventReady      EventType = "ready"
	EventFailed     EventType = "failed"
	EventSuperseded EventType = "superseded"
)

// Event describes a change in a generator's state.
type Event struct {
	Type        EventType `json:"type"`
	Version     uint64    `json:"version"`
	LayoutID    string    `json:"layout_id"`
	Photos      int       `json:"photos"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Status is a snapshot of a generator.
type Status struct {
	Version uint64  // newest request issued
	Pending bool    // the newest request has not finished yet
	Latest  *Result // nil until the newest request succeeds
	Err     error   // failure of the newest request
}

// Generator serializes collage requests by version. Every Request gets a new,
// strictly increasing version; only the result of the newest one is published.
// Older requests still run to completion but their output is dropped.
type Generator struct {
	comp   *Compositor
	notify func(Event)
	log    *zap.Logger

	mu      sync.Mutex
	version uint64
	done    uint64 // version of the last finished newest request
	latest  *Result
	lastErr error
}

// NewGenerator wraps a compositor. notify, if non-nil, receives every event
// synchronously and must not block.
func NewGenerator(comp *Compositor, notify func(Event)) *Generator {
	return &Generator{
		comp:   comp,
		notify: notify,
		log:    comp.log,
	}
}

// Request composes inputs onto layout. Issuing a request invalidates the
// previously published result. If another request is issued before this one
// finishes, Request returns ErrSuperseded and publishes nothing. An empty input
// is a no-op that emits no events.
func (g *Generator) Request(ctx context.Context, inputs []Input, layout catalog.Layout) (*Result, error) {
	g.mu.Lock()
	g.version++
	v := g.version
	g.latest = nil
	g.lastErr = nil
	g.mu.Unlock()

	photos := max(0, min(len(inputs), layout.Cells()))
	if len(inputs) > 0 {
		g.emit(Event{Type: EventStarted, Version: v, LayoutID: layout.ID, Photos: photos})
	}

	res, err := g.comp.Compose(ctx, inputs, layout)

	g.mu.Lock()
	if v != g.version {
		g.mu.Unlock()
		g.log.Debug("discarding stale collage", zap.Uint64("version", v))
		g.emit(Event{Type: EventSuperseded, Version: v, LayoutID: layout.ID, Photos: photos})
		return nil, ErrSuperseded
	}
	g.done = v
	if err != nil {
		g.lastErr = err
		g.mu.Unlock()
		g.emit(Event{Type: EventFailed, Version: v, LayoutID: layout.ID, Photos: photos, Error: err.Error()})
		return nil, err
	}
	if res == nil {
		g.mu.Unlock()
		return nil, nil
	}
	res.Version = v
	g.latest = res
	g.mu.Unlock()

	g.emit(Event{Type: EventReady, Version: v, LayoutID: layout.ID, Photos: photos, Fingerprint: res.Fingerprint})
	return res, nil
}

// Invalidate drops the published result, e.g. after the photo set changed.
// Any request in flight becomes stale.
func (g *Generator) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.version++
	g.done = g.version
	g.latest = nil
	g.lastErr = nil
}

// Latest returns the published result, or nil.
func (g *Generator) Latest() *Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.latest
}

// Status returns a snapshot of the generator.
func (g *Generator) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Status{
		Version: g.version,
		Pending: g.done != g.version,
		Latest:  g.latest,
		Err:     g.lastErr,
	}
}

func (g *Generator) emit(ev Event) {
	if g.notify != nil {
		g.notify(ev)
	}
}
