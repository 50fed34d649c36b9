package monitor

import "time"

type Status string

const (
	StatusIdle    Status = "IDLE"
	StatusRunning Status = "RUNNING"
)

// State is the loop's application state. It is only ever replaced by the
// transition methods below, which never mutate the receiver.
type State struct {
	Status          Status
	Epoch           uint64
	Condition       string
	FrozenCondition string
	Credential      string
	Scene           string
	Ticks           uint64
	StartedAt       time.Time
	LastTickAt      time.Time
	LastError       string
}

func (s State) Begin(condition, credential string, at time.Time) State {
	s.Status = StatusRunning
	s.Epoch++
	s.Condition = condition
	s.FrozenCondition = condition
	s.Credential = credential
	s.StartedAt = at
	s.LastError = ""
	return s
}

// Halt drops the credential; it is only held while running.
func (s State) Halt(reason string) State {
	s.Status = StatusIdle
	s.Epoch++
	s.Credential = ""
	s.LastError = reason
	return s
}

func (s State) WithCondition(condition string) State {
	s.Condition = condition
	return s
}

func (s State) WithScene(scene string) State {
	s.Scene = scene
	return s
}

func (s State) WithTick(at time.Time) State {
	s.Ticks++
	s.LastTickAt = at
	return s
}

func (s State) ActiveCondition(dynamic bool) string {
	if dynamic {
		return s.Condition
	}
	return s.FrozenCondition
}

// Current reports whether a tick scheduled in epoch still belongs to the live run.
func (s State) Current(epoch uint64) bool {
	return s.Status == StatusRunning && s.Epoch == epoch
}
