package notify

import (
	"context"
	"sync"
)

// Bus is an in-process Publisher. Delivery is synchronous and in registration
// order.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
}

// NewBus creates an empty in-memory bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Publish delivers the event to every subscribed handler.
func (b *Bus) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, h := range b.handlers {
		h(ev)
	}
	return nil
}

// Subscribe registers a handler and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) (cancel func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}
