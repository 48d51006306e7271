// Package bus provides the typed intent channel through which non-chat
// dashboard regions inject assistant-equivalent commands.
package bus

import (
	"log/slog"
	"sync"
)

// Intent carries one assistant-equivalent command published by an
// external UI region. It is processed exactly as if the operator had
// typed the message.
type Intent struct {
	Message string `json:"message"`
}

// Bus is a publish/subscribe channel for Intents. It is owned by the
// composition root and injected into both publishers and subscribers;
// there is no ambient process-wide instance.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int64]*Subscription
	nextID int64
}

// Subscription is one live attachment to the Bus. Intents are delivered
// on C until Cancel is called.
type Subscription struct {
	C chan Intent

	id   int64
	bus  *Bus
	once sync.Once
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		subs: make(map[int64]*Subscription),
	}
}

// Subscribe registers a new subscriber with the given delivery buffer.
func (b *Bus) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 16
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		C:   make(chan Intent, buffer),
		id:  b.nextID,
		bus: b,
	}
	b.subs[sub.id] = sub
	return sub
}

// Publish delivers an intent to every live subscriber. Delivery is
// non-blocking: a subscriber whose buffer is full misses the intent.
// The read lock is held across the sends; Cancel closes the channel
// under the write lock, so a send never overlaps a close.
func (b *Bus) Publish(in Intent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, s := range b.subs {
		select {
		case s.C <- in:
		default:
			slog.Warn("intent dropped, subscriber buffer full", "subscriber_id", s.id)
		}
	}
}

// Cancel detaches the subscription and closes its channel. Safe to call
// more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		delete(s.bus.subs, s.id)
		close(s.C)
	})
}
