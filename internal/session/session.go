// Package session keeps the state of a photo booth visit: the captured photos,
// their per-photo filters, the capture limit and the latest collage.
//
// Everything lives in memory. A Session is safe for concurrent use; every
// accessor returns copies so callers never observe a photo mid-update.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kozaktomas/photobooth/internal/catalog"
	"github.com/kozaktomas/photobooth/internal/collage"
	"github.com/kozaktomas/photobooth/internal/constants"
	"github.com/kozaktomas/photobooth/internal/filter"
	"github.com/kozaktomas/photobooth/internal/fingerprint"
	"github.com/kozaktomas/photobooth/internal/loader"
)

// Errors returned by sessions.
var (
	ErrNotFound          = errors.New("not found")
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	ErrCaptureLimit      = errors.New("capture limit reached")
	ErrNotReady          = errors.New("not enough photos for a collage")
	ErrInvalidMaxPhotos  = errors.New("invalid max photos")
	ErrUnknownLayout     = errors.New("unknown layout")
	ErrEditSuperseded    = errors.New("photo edit superseded")
)

// Photo is one captured frame. Rendered always equals Original with Filter
// applied; an unfiltered photo renders to its original bytes.
type Photo struct {
	ID           string                 `json:"id"`
	Original     []byte                 `json:"-"`
	OriginalMIME string                 `json:"-"`
	Rendered     []byte                 `json:"-"`
	RenderedMIME string                 `json:"-"`
	Width        int                    `json:"width"`
	Height       int                    `json:"height"`
	CapturedAt   time.Time              `json:"captured_at"`
	Filter       *filter.Adjustments    `json:"filter,omitempty"`
	Edited       bool                   `json:"edited"`
	Duplicate    bool                   `json:"duplicate"`
	Hash         fingerprint.HashResult `json:"-"`

	editSeq uint64 // bumped by every edit and reset
}

func (p *Photo) clone() Photo {
	c := *p
	if p.Filter != nil {
		f := *p.Filter
		c.Filter = &f
	}
	return c
}

// Session is one booth visit.
type Session struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time

	decoder  Decoder
	renderer *filter.Renderer
	now      func() time.Time
	log      *zap.Logger
	gen      *collage.Generator
	events   Broadcaster

	mu        sync.RWMutex
	photos    []*Photo
	maxPhotos int
}

// Events returns the broadcaster carrying this session's collage events.
func (s *Session) Events() *Broadcaster {
	return &s.events
}

// Photos returns the captured photos in capture order.
func (s *Session) Photos() []Photo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Photo, len(s.photos))
	for i, p := range s.photos {
		out[i] = p.clone()
	}
	return out
}

// Photo returns a captured photo by ID.
func (s *Session) Photo(id string) (Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return Photo{}, fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	return s.photos[i].clone(), nil
}

// MaxPhotos returns the capture limit.
func (s *Session) MaxPhotos() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxPhotos
}

// SetMaxPhotos changes the capture limit. Photos already taken beyond a lowered
// limit are kept; further captures are refused.
func (s *Session) SetMaxPhotos(n int) error {
	if !slices.Contains(constants.AllowedMaxPhotos, n) {
		return fmt.Errorf("%w: %d (allowed %v)", ErrInvalidMaxPhotos, n, constants.AllowedMaxPhotos)
	}
	s.mu.Lock()
	s.maxPhotos = n
	s.mu.Unlock()
	return nil
}

// CanCapture reports whether another photo may be taken.
func (s *Session) CanCapture() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.photos) < s.maxPhotos
}

// CanComplete reports whether the photos can be turned into a collage: at least
// two of them and an even count.
func (s *Session) CanComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return canComplete(len(s.photos))
}

func canComplete(n int) bool {
	return n >= constants.MinCollagePhotos && n%2 == 0
}

// Capture stores an encoded frame. An empty frame means the camera produced
// nothing and yields ErrDeviceUnavailable.
func (s *Session) Capture(ctx context.Context, data []byte) (Photo, error) {
	if len(data) == 0 {
		return Photo{}, ErrDeviceUnavailable
	}
	if !s.CanCapture() {
		return Photo{}, fmt.Errorf("%w: %d photos", ErrCaptureLimit, s.MaxPhotos())
	}

	bm, err := s.decoder.Decode(ctx, loader.FromBytes(data))
	if err != nil {
		return Photo{}, err
	}

	original := slices.Clone(data)
	mime := "image/" + bm.Format
	p := &Photo{
		ID:           uuid.New().String(),
		Original:     original,
		OriginalMIME: mime,
		Rendered:     original,
		RenderedMIME: mime,
		Width:        bm.Width,
		Height:       bm.Height,
		CapturedAt:   s.now(),
		Hash:         fingerprint.ComputeHashes(bm.Image),
	}

	s.mu.Lock()
	// The limit may have been reached while decoding.
	if len(s.photos) >= s.maxPhotos {
		s.mu.Unlock()
		return Photo{}, fmt.Errorf("%w: %d photos", ErrCaptureLimit, s.maxPhotos)
	}
	if n := len(s.photos); n > 0 && fingerprint.Duplicate(s.photos[n-1].Hash, p.Hash) {
		p.Duplicate = true
	}
	s.photos = append(s.photos, p)
	count := len(s.photos)
	s.mu.Unlock()

	s.gen.Invalidate()
	s.log.Info("photo captured",
		zap.String("session", s.ID),
		zap.String("photo", p.ID),
		zap.Int("count", count),
		zap.Int("width", p.Width),
		zap.Int("height", p.Height),
		zap.Bool("duplicate", p.Duplicate))
	return p.clone(), nil
}

// Edit re-renders a photo from its original with adj. The photo keeps its own
// copy of adj.
func (s *Session) Edit(ctx context.Context, id string, adj filter.Adjustments) (Photo, error) {
	if err := adj.Validate(); err != nil {
		return Photo{}, err
	}
	if adj.IsDefault() {
		return s.ResetFilter(id)
	}

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Photo{}, fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	s.photos[i].editSeq++
	seq := s.photos[i].editSeq
	original := s.photos[i].Original
	s.mu.Unlock()

	rendered, err := s.renderer.Render(ctx, original, adj)
	if err != nil {
		return Photo{}, fmt.Errorf("rendering photo %s: %w", id, err)
	}

	s.mu.Lock()
	i = s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Photo{}, fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	// A later edit or reset of this photo owns the rendering now.
	if s.photos[i].editSeq != seq {
		s.mu.Unlock()
		return Photo{}, fmt.Errorf("photo %s: %w", id, ErrEditSuperseded)
	}
	cur := s.photos[i]
	cur.Rendered = rendered
	cur.RenderedMIME = s.renderer.Format().MIME()
	cur.Filter = &adj
	cur.Edited = true
	out := cur.clone()
	s.mu.Unlock()

	s.gen.Invalidate()
	s.log.Debug("photo edited",
		zap.String("session", s.ID),
		zap.String("photo", id),
		zap.String("filter", adj.Effect))
	return out, nil
}

// ResetFilter restores a photo to its original rendering.
func (s *Session) ResetFilter(id string) (Photo, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Photo{}, fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	p := s.photos[i]
	p.editSeq++
	p.Rendered = p.Original
	p.RenderedMIME = p.OriginalMIME
	p.Filter = nil
	p.Edited = false
	out := p.clone()
	s.mu.Unlock()

	s.gen.Invalidate()
	return out, nil
}

// DeletePhoto removes a photo.
func (s *Session) DeletePhoto(id string) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	s.photos = slices.Delete(s.photos, i, i+1)
	s.mu.Unlock()

	s.gen.Invalidate()
	return nil
}

// Reset discards every photo and the collage; the capture limit is kept.
func (s *Session) Reset() {
	s.mu.Lock()
	s.photos = nil
	s.mu.Unlock()
	s.gen.Invalidate()
}

// Compose builds a collage from the rendered photos in capture order. Only the
// newest of overlapping calls publishes its result; older ones get
// collage.ErrSuperseded.
func (s *Session) Compose(ctx context.Context, layoutID string) (*collage.Result, error) {
	if layoutID == "" {
		layoutID = catalog.DefaultLayoutID
	}
	layout, ok := catalog.LayoutByID(layoutID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayout, layoutID)
	}

	photos := s.Photos()
	if !canComplete(len(photos)) {
		return nil, fmt.Errorf("%w: have %d, need an even count of at least %d",
			ErrNotReady, len(photos), constants.MinCollagePhotos)
	}

	inputs := make([]collage.Input, len(photos))
	for i, p := range photos {
		inputs[i] = collage.Input{ID: p.ID, Source: loader.FromBytes(p.Rendered)}
	}
	return s.gen.Request(ctx, inputs, layout)
}

// Collage returns the collage generator state.
func (s *Session) Collage() collage.Status {
	return s.gen.Status()
}

func (s *Session) indexOf(id string) int {
	return slices.IndexFunc(s.photos, func(p *Photo) bool { return p.ID == id })
}
