package monitor

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Task is a pending scheduled call.
type Task interface {
	// Cancel prevents the call from running and reports whether it was still pending.
	Cancel() bool
}

type Scheduler interface {
	Schedule(d time.Duration, fn func()) Task
}

type ClockScheduler struct {
	clock clock.Clock
}

func NewClockScheduler(clk clock.Clock) *ClockScheduler {
	if clk == nil {
		clk = clock.New()
	}
	return &ClockScheduler{clock: clk}
}

func (s *ClockScheduler) Schedule(d time.Duration, fn func()) Task {
	return &timerTask{timer: s.clock.AfterFunc(d, fn)}
}

type timerTask struct {
	timer *clock.Timer
}

func (t *timerTask) Cancel() bool {
	return t.timer.Stop()
}
