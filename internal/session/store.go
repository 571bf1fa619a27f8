package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kozaktomas/photobooth/internal/collage"
	"github.com/kozaktomas/photobooth/internal/constants"
	"github.com/kozaktomas/photobooth/internal/filter"
	"github.com/kozaktomas/photobooth/internal/loader"
)

// DefaultTTL is how long a booth session lives after it was created.
const DefaultTTL = 24 * time.Hour

// Decoder decodes an image source.
type Decoder interface {
	Decode(ctx context.Context, src loader.Source) (*loader.Bitmap, error)
}

// Store holds the live sessions.
type Store struct {
	decoder    Decoder
	renderer   *filter.Renderer
	compositor *collage.Compositor
	maxPhotos  int
	ttl        time.Duration
	now        func() time.Time
	log        *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Option configures a Store.
type Option func(*Store)

// WithMaxPhotos sets the capture limit of new sessions.
func WithMaxPhotos(n int) Option {
	return func(s *Store) { s.maxPhotos = n }
}

// WithTTL sets the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

// NewStore creates an empty store. Captures are validated with decoder, edits
// rendered with renderer and collages built with compositor.
func NewStore(decoder Decoder, renderer *filter.Renderer, compositor *collage.Compositor, opts ...Option) *Store {
	s := &Store{
		decoder:    decoder,
		renderer:   renderer,
		compositor: compositor,
		maxPhotos:  constants.DefaultMaxPhotos,
		ttl:        DefaultTTL,
		now:        time.Now,
		log:        zap.NewNop(),
		sessions:   make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a new session.
func (st *Store) Create() *Session {
	now := st.now()
	s := &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		ExpiresAt: now.Add(st.ttl),
		decoder:   st.decoder,
		renderer:  st.renderer,
		now:       st.now,
		log:       st.log,
		maxPhotos: st.maxPhotos,
	}
	s.gen = collage.NewGenerator(st.compositor, s.events.SendEvent)

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	if n := st.Prune(); n > 0 {
		st.log.Debug("expired sessions pruned", zap.Int("count", n))
	}
	st.log.Info("session created", zap.String("session", s.ID), zap.Int("max_photos", s.maxPhotos))
	return s
}

// Get returns a live session.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if st.now().After(s.ExpiresAt) {
		st.Delete(id)
		return nil, fmt.Errorf("session %s expired: %w", id, ErrNotFound)
	}
	return s, nil
}

// Delete ends a session and closes its event streams.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		s.events.closeAll()
	}
}

// Prune removes expired sessions and returns how many were removed.
func (st *Store) Prune() int {
	now := st.now()
	var expired []*Session

	st.mu.Lock()
	for id, s := range st.sessions {
		if now.After(s.ExpiresAt) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.events.closeAll()
	}
	return len(expired)
}

// Len returns the number of sessions held.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
