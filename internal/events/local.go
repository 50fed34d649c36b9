package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/falcrise/omnivision/internal/shared"
)

const subscriberBuffer = 32

type LocalBus struct {
	logger *slog.Logger

	mu     sync.RWMutex
	subs   map[string]chan Event
	closed bool

	dropped atomic.Uint64
}

func NewLocalBus(logger *slog.Logger) *LocalBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalBus{
		logger: logger.With("component", "event-bus"),
		subs:   make(map[string]chan Event),
	}
}

func (b *LocalBus) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
			b.logger.Warn("subscriber buffer full, dropping event", "subscriber", id, "type", ev.Type)
		}
	}
	return nil
}

// Subscribe registers a subscriber until ctx is done or the returned cancel func is called.
func (b *LocalBus) Subscribe(ctx context.Context) (<-chan Event, func()) {
	id := shared.NewID("sub_")
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subs[id] = ch
	b.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			b.remove(id)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	return ch, cancel
}

func (b *LocalBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *LocalBus) Dropped() uint64 {
	return b.dropped.Load()
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
	return nil
}

func (b *LocalBus) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}
