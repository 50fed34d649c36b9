package events

import (
	"context"
	"testing"
	"time"
)

// gatedBus holds every publish until open is closed.
type gatedBus struct {
	*LocalBus
	open chan struct{}
}

func (b *gatedBus) Publish(ctx context.Context, ev Event) error {
	select {
	case <-b.open:
	case <-ctx.Done():
		return ctx.Err()
	}
	return b.LocalBus.Publish(ctx, ev)
}

func TestOutbox_PublishesInOrder(t *testing.T) {
	bus := NewLocalBus(quietLogger())
	defer bus.Close()
	ch, cancel := bus.Subscribe(context.Background())
	defer cancel()

	out := NewOutbox(bus, 8, quietLogger())
	defer out.Close()

	states := []string{"RUNNING", "IDLE", "RUNNING"}
	for _, s := range states {
		out.Enqueue(StateEvent(s, time.Now()))
	}

	for i, want := range states {
		select {
		case ev := <-ch:
			if ev.State != want {
				t.Errorf("event %d: expected %s, got %s", i, want, ev.State)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestOutbox_EnqueueDoesNotWaitForBus(t *testing.T) {
	bus := &gatedBus{LocalBus: NewLocalBus(quietLogger()), open: make(chan struct{})}
	defer bus.Close()

	out := NewOutbox(bus, 2, quietLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 10 {
			out.Enqueue(SceneEvent("a hallway", time.Now()))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a stalled bus")
	}

	// one event is held by the drain goroutine, two sit in the queue
	if got := out.Dropped(); got < 7 {
		t.Errorf("expected at least 7 dropped events, got %d", got)
	}

	close(bus.open)
	out.Close()
}

func TestOutbox_CloseFlushes(t *testing.T) {
	bus := NewLocalBus(quietLogger())
	defer bus.Close()
	ch, cancel := bus.Subscribe(context.Background())
	defer cancel()

	out := NewOutbox(bus, 8, quietLogger())
	for range 5 {
		out.Enqueue(StateEvent("IDLE", time.Now()))
	}
	out.Close()

	if len(ch) != 5 {
		t.Errorf("expected 5 events delivered before Close returned, got %d", len(ch))
	}
	if out.Enqueue(StateEvent("RUNNING", time.Now())) {
		t.Error("Enqueue after Close should report false")
	}
	out.Close()
}
