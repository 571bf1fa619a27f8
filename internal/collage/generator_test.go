package collage

import (
	"context"
	"errors"
	"image/color"
	"slices"
	"sync"
	"testing"

	"github.com/kozaktomas/photobooth/internal/loader"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func (r *eventRecorder) find(typ EventType, version uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.ContainsFunc(r.events, func(ev Event) bool {
		return ev.Type == typ && ev.Version == version
	})
}

func TestGenerator_Request(t *testing.T) {
	rec := &eventRecorder{}
	gen := NewGenerator(testCompositor(), rec.record)

	res, err := gen.Request(context.Background(), fourPhotos(t), layout(t, "2x2"))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if res.Version != 1 {
		t.Errorf("Version = %d; want 1", res.Version)
	}
	if gen.Latest() != res {
		t.Error("Latest() should return the published result")
	}

	st := gen.Status()
	if st.Pending || st.Err != nil || st.Version != 1 {
		t.Errorf("unexpected status %+v", st)
	}

	want := []EventType{EventStarted, EventReady}
	if got := rec.types(); !slices.Equal(got, want) {
		t.Errorf("events = %v; want %v", got, want)
	}
}

func TestGenerator_StaleResultDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	dec := decoderFunc(func(ctx context.Context, src loader.Source) (*loader.Bitmap, error) {
		if string(src.Data) == "slow" {
			once.Do(func() { close(started) })
			<-release
			return solidBitmap(color.Black), nil
		}
		return solidBitmap(color.White), nil
	})

	rec := &eventRecorder{}
	gen := NewGenerator(NewCompositor(dec), rec.record)
	l := layout(t, "2x2")

	var errA error
	doneA := make(chan struct{})
	go func() {
		defer close(doneA)
		_, errA = gen.Request(context.Background(), []Input{{ID: "a", Source: loader.FromBytes([]byte("slow"))}}, l)
	}()

	<-started
	if st := gen.Status(); !st.Pending || st.Latest != nil {
		t.Errorf("status during first request = %+v; want pending without result", st)
	}

	resB, err := gen.Request(context.Background(), []Input{{ID: "b", Source: loader.FromBytes([]byte("fast"))}}, l)
	if err != nil {
		t.Fatalf("second Request failed: %v", err)
	}
	if resB.Version != 2 {
		t.Errorf("second Version = %d; want 2", resB.Version)
	}

	close(release)
	<-doneA

	if !errors.Is(errA, ErrSuperseded) {
		t.Errorf("first request: expected ErrSuperseded, got %v", errA)
	}
	if gen.Latest() != resB {
		t.Error("stale result overwrote the newer one")
	}
	if gen.Status().Pending {
		t.Error("generator should be idle")
	}
	if !rec.find(EventSuperseded, 1) || !rec.find(EventReady, 2) {
		t.Errorf("events = %+v", rec.events)
	}
	if rec.find(EventReady, 1) {
		t.Error("stale request must not announce a result")
	}
}

func TestGenerator_Failure(t *testing.T) {
	rec := &eventRecorder{}
	gen := NewGenerator(testCompositor(), rec.record)

	inputs := []Input{{ID: "x", Source: loader.FromBytes([]byte("junk"))}}
	if _, err := gen.Request(context.Background(), inputs, layout(t, "2x2")); !errors.Is(err, loader.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}

	st := gen.Status()
	if st.Latest != nil || !errors.Is(st.Err, loader.ErrDecode) {
		t.Errorf("unexpected status %+v", st)
	}
	if !rec.find(EventFailed, 1) {
		t.Errorf("expected failed event, got %v", rec.types())
	}
}

func TestGenerator_Invalidate(t *testing.T) {
	gen := NewGenerator(testCompositor(), nil)
	if _, err := gen.Request(context.Background(), fourPhotos(t), layout(t, "2x2")); err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	gen.Invalidate()
	if gen.Latest() != nil {
		t.Error("Invalidate should drop the published result")
	}
	st := gen.Status()
	if st.Pending || st.Version != 2 {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestGenerator_EmptyInput(t *testing.T) {
	rec := &eventRecorder{}
	gen := NewGenerator(testCompositor(), rec.record)
	if _, err := gen.Request(context.Background(), fourPhotos(t), layout(t, "2x2")); err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	res, err := gen.Request(context.Background(), nil, layout(t, "2x2"))
	if err != nil || res != nil {
		t.Fatalf("empty request = (%v, %v); want (nil, nil)", res, err)
	}

	want := []EventType{EventStarted, EventReady}
	if got := rec.types(); !slices.Equal(got, want) {
		t.Errorf("events = %v; want %v", got, want)
	}
	if rec.find(EventReady, 2) {
		t.Error("an empty request must not announce a result")
	}
	st := gen.Status()
	if st.Pending || st.Latest != nil || st.Version != 2 {
		t.Errorf("unexpected status %+v", st)
	}
}
