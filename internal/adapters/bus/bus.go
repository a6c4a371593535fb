// Package bus carries room broadcasts to every instance that may hold
// members of that room.
package bus

import (
	"context"
	"errors"
	"sync"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/core"
)

var ErrClosed = errors.New("bus: closed")

type Handler = func(core.RoomEnvelope)

// LocalBus delivers synchronously in the publishing goroutine, so frames for
// a room keep the order in which they were emitted.
type LocalBus struct {
	mu       sync.RWMutex
	handlers []Handler
	closed   bool
}

func NewLocalBus() *LocalBus {
	return &LocalBus{}
}

func (b *LocalBus) Publish(ctx context.Context, env core.RoomEnvelope) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	for _, h := range b.handlers {
		h(env)
	}
	return nil
}

func (b *LocalBus) Subscribe(h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.handlers = append(b.handlers, h)
	return nil
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = nil
	return nil
}

// New picks the NATS bus when url is set and the in-process one otherwise.
func New(url, prefix string) (core.RoomBus, error) {
	if url == "" {
		return NewLocalBus(), nil
	}
	return NewNatsBus(url, prefix)
}
