package pubsub

import (
	"context"
	"sync"
)

// Handler reacts to a payload published on a channel.
type Handler func(payload []byte)

// Bus is an in-process publisher with per-channel subscriber fan-out. It
// backs deployments without redis and keeps delivery semantics identical:
// at-most-once, no durability, subscribers that are not listening miss the
// message.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a channel.
func (b *Bus) Subscribe(channel string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[channel] = append(b.subscribers[channel], handler)
}

// Publish delivers payload to current subscribers of the channel.
// Handlers run synchronously; the caller decides the concurrency model.
func (b *Bus) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[channel]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(payload)
	}
	return nil
}
