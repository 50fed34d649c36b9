package events

import (
	"context"
	"time"

	"github.com/falcrise/omnivision/internal/alertlog"
)

type Type string

const (
	TypeAlert Type = "alert"
	TypeScene Type = "scene"
	TypeState Type = "state"
)

type Event struct {
	Type      Type            `json:"type"`
	Alert     *alertlog.Event `json:"alert,omitempty"`
	Scene     string          `json:"scene,omitempty"`
	State     string          `json:"state,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func AlertEvent(ev alertlog.Event) Event {
	return Event{Type: TypeAlert, Alert: &ev, Timestamp: ev.Timestamp}
}

func SceneEvent(scene string, at time.Time) Event {
	return Event{Type: TypeScene, Scene: scene, Timestamp: at}
}

func StateEvent(state string, at time.Time) Event {
	return Event{Type: TypeState, State: state, Timestamp: at}
}

// Bus fans events out to subscribers. Publish never blocks on a slow subscriber.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context) (<-chan Event, func())
	Subscribers() int
	Close() error
}
