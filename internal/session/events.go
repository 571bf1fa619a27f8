package session

import (
	"sync"

	"github.com/kozaktomas/photobooth/internal/collage"
	"github.com/kozaktomas/photobooth/internal/constants"
)

// Broadcaster fans collage events out to any number of listeners.
type Broadcaster struct {
	listeners []chan collage.Event
	mu        sync.RWMutex
}

// AddListener adds an event listener.
func (b *Broadcaster) AddListener() chan collage.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan collage.Event, constants.EventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes and closes an event listener.
func (b *Broadcaster) RemoveListener(ch chan collage.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// SendEvent sends an event to all listeners without blocking.
func (b *Broadcaster) SendEvent(event collage.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}

// closeAll closes every listener, ending their streams.
func (b *Broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.listeners {
		close(ch)
	}
	b.listeners = nil
}
