package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultOutboxSize     = 64
	defaultPublishTimeout = 2 * time.Second
)

// Outbox hands events to a Bus from a single goroutine so callers never wait on the bus.
// Events are published in the order they were enqueued.
type Outbox struct {
	bus     Bus
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	queue  chan Event
	closed bool
	done   chan struct{}

	dropped atomic.Uint64
}

func NewOutbox(bus Bus, size int, logger *slog.Logger) *Outbox {
	if logger == nil {
		logger = slog.Default()
	}
	if size <= 0 {
		size = DefaultOutboxSize
	}

	o := &Outbox{
		bus:     bus,
		timeout: defaultPublishTimeout,
		logger:  logger.With("component", "event-outbox"),
		queue:   make(chan Event, size),
		done:    make(chan struct{}),
	}
	go o.drain()
	return o
}

// Enqueue reports false when the event was dropped because the queue is full or closed.
func (o *Outbox) Enqueue(ev Event) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.closed {
		return false
	}
	select {
	case o.queue <- ev:
		return true
	default:
		o.dropped.Add(1)
		o.logger.Warn("outbox full, dropping event", "type", ev.Type)
		return false
	}
}

func (o *Outbox) Dropped() uint64 {
	return o.dropped.Load()
}

// Close stops accepting events and waits until the queued ones are published.
func (o *Outbox) Close() {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.queue)
	}
	o.mu.Unlock()
	<-o.done
}

func (o *Outbox) drain() {
	defer close(o.done)

	for ev := range o.queue {
		ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
		if err := o.bus.Publish(ctx, ev); err != nil {
			o.logger.Warn("publish event failed", "type", ev.Type, "error", err)
		}
		cancel()
	}
}
