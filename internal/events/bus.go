// Package events carries the "cart changed" signal between the surfaces of a
// storefront: sessions of the same shopper, websocket tabs and, through
// RedisBridge, other cartview instances.
package events

import (
	"sync"

	"cartview/internal/logger"

	"go.uber.org/zap"
)

// CartChanged says "refresh": it names whose cart changed and which session
// caused it, nothing about what changed.
type CartChanged struct {
	UserID   string `json:"user_id"`
	Origin   string `json:"origin"`
	Instance string `json:"instance,omitempty"`

	// Remote marks events replayed from another instance.
	Remote bool `json:"-"`
}

type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]chan CartChanged
	next   uint64
	buffer int
}

func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 16
	}
	return &Bus{subs: make(map[uint64]chan CartChanged), buffer: buffer}
}

// Subscribe returns a buffered channel of events and a cancel func that
// closes it. Cancel is idempotent.
func (b *Bus) Subscribe() (<-chan CartChanged, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan CartChanged, b.buffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// Publish fans ev out without blocking. A subscriber with a full buffer
// misses the event.
func (b *Bus) Publish(ev CartChanged) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			logger.L().Warn("cart event dropped for slow subscriber",
				zap.Uint64("subscriber", id),
				zap.String("user_id", ev.UserID),
			)
		}
	}
}

func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
