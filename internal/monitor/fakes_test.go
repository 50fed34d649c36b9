package monitor

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/falcrise/omnivision/internal/vision"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTask struct {
	delay     time.Duration
	fn        func()
	fired     bool
	cancelled bool
}

func (t *fakeTask) Cancel() bool {
	if t.fired || t.cancelled {
		return false
	}
	t.cancelled = true
	return true
}

// manualScheduler records tasks and runs them only when the test says so.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*fakeTask
}

func (s *manualScheduler) Schedule(d time.Duration, fn func()) Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTask{delay: d, fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

func (s *manualScheduler) pending() []*fakeTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTask
	for _, t := range s.tasks {
		if !t.fired && !t.cancelled {
			out = append(out, t)
		}
	}
	return out
}

func (s *manualScheduler) all() []*fakeTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*fakeTask(nil), s.tasks...)
}

// runNext fires the oldest pending task synchronously.
func (s *manualScheduler) runNext() bool {
	pending := s.pending()
	if len(pending) == 0 {
		return false
	}
	t := pending[0]
	s.mu.Lock()
	t.fired = true
	s.mu.Unlock()
	t.fn()
	return true
}

type fakeResult struct {
	analysis *vision.Analysis
	err      error
}

type fakeAnalyzer struct {
	mu       sync.Mutex
	availErr error
	results  []fakeResult
	requests []vision.AnalyzeRequest
	during   func()
}

func (a *fakeAnalyzer) Available() error {
	return a.availErr
}

func (a *fakeAnalyzer) Analyze(_ context.Context, req vision.AnalyzeRequest) (*vision.Analysis, error) {
	a.mu.Lock()
	a.requests = append(a.requests, req)
	var res fakeResult
	if len(a.results) > 0 {
		res = a.results[0]
		a.results = a.results[1:]
	} else {
		res = fakeResult{analysis: analysisOf(vision.AlertNo, "nothing happening")}
	}
	during := a.during
	a.mu.Unlock()

	if during != nil {
		during()
	}
	return res.analysis, res.err
}

func (a *fakeAnalyzer) calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

func (a *fakeAnalyzer) push(results ...fakeResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = append(a.results, results...)
}

func analysisOf(alert vision.AlertSignal, description string) *vision.Analysis {
	return &vision.Analysis{
		Result:  vision.ParsedResult{Description: description, Alert: alert},
		Latency: 50 * time.Millisecond,
	}
}

type countingRecorder struct {
	mu     sync.Mutex
	ticks  map[string]int
	alerts map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{ticks: map[string]int{}, alerts: map[string]int{}}
}

func (r *countingRecorder) ObserveTick(outcome string, _ time.Duration) {
	r.mu.Lock()
	r.ticks[outcome]++
	r.mu.Unlock()
}

func (r *countingRecorder) ObserveAlert(kind string) {
	r.mu.Lock()
	r.alerts[kind]++
	r.mu.Unlock()
}
