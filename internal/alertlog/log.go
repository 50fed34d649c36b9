package alertlog

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/falcrise/omnivision/internal/shared"
)

const DefaultMaxAlerts = 10

type Kind string

const (
	KindInfo    Kind = "INFO"
	KindWarning Kind = "WARNING"
	KindError   Kind = "ERROR"
)

// Event is immutable once added to a Log.
type Event struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Log is a bounded, newest-first event buffer. Adding to a full log evicts the oldest event.
type Log struct {
	clock clock.Clock

	mu     sync.RWMutex
	events []Event
	max    int
}

func New(max int, clk clock.Clock) *Log {
	if max <= 0 {
		max = DefaultMaxAlerts
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Log{
		clock:  clk,
		events: make([]Event, 0, max),
		max:    max,
	}
}

func (l *Log) Add(kind Kind, message string) Event {
	ev := Event{
		ID:        shared.NewID("alt_"),
		Kind:      kind,
		Message:   message,
		Timestamp: l.clock.Now().UTC(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.events) >= l.max {
		l.events = l.events[:l.max-1]
	}
	l.events = append(l.events, Event{})
	copy(l.events[1:], l.events)
	l.events[0] = ev

	return ev
}

// List returns a copy of the events, newest first.
func (l *Log) List() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

func (l *Log) Max() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.max
}

// Resize changes the cap and returns how many of the oldest events were evicted.
func (l *Log) Resize(max int) int {
	if max <= 0 {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.max = max
	evicted := 0
	if len(l.events) > max {
		evicted = len(l.events) - max
		for i := max; i < len(l.events); i++ {
			l.events[i] = Event{}
		}
		l.events = l.events[:max]
	}
	return evicted
}

func (l *Log) Clear() {
	l.mu.Lock()
	l.events = l.events[:0]
	l.mu.Unlock()
}
