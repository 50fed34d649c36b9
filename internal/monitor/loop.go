package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/falcrise/omnivision/internal/alertlog"
	"github.com/falcrise/omnivision/internal/events"
	"github.com/falcrise/omnivision/internal/vision"
)

const (
	msgDetected      = "Condition detected: %s"
	msgHeartbeat     = "Still monitoring: %s not detected"
	msgUninterpreted = "Could not interpret model response"
	msgEmptyResponse = "Model returned an empty response"
	msgFailed        = "Analysis failed: "
)

type Analyzer interface {
	Available() error
	Analyze(ctx context.Context, req vision.AnalyzeRequest) (*vision.Analysis, error)
}

type Recorder interface {
	ObserveTick(outcome string, latency time.Duration)
	ObserveAlert(kind string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveTick(string, time.Duration) {}
func (nopRecorder) ObserveAlert(string)               {}

type Options struct {
	Analyzer  Analyzer
	Alerts    *alertlog.Log
	Bus       events.Bus
	Scheduler Scheduler
	Clock     clock.Clock
	Recorder  Recorder
	Logger    *slog.Logger
	Settings  Settings
	Condition string
	// Rand returns values in [0, 1) and decides heartbeat sampling.
	Rand func() float64
}

// Loop drives capture, inference, parsing and rendering. At most one tick is
// in flight and the next one is scheduled only after the previous completes.
type Loop struct {
	analyzer  Analyzer
	alerts    *alertlog.Log
	outbox    *events.Outbox
	scheduler Scheduler
	clock     clock.Clock
	recorder  Recorder
	logger    *slog.Logger
	rand      func() float64

	mu        sync.Mutex
	state     State
	settings  Settings
	pending   Task
	cancelRun context.CancelFunc

	epoch atomic.Uint64
}

func New(opts Options) *Loop {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = NewClockScheduler(opts.Clock)
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Rand == nil {
		opts.Rand = rand.Float64
	}
	if opts.Settings == (Settings{}) {
		opts.Settings = DefaultSettings()
	}
	if opts.Alerts == nil {
		opts.Alerts = alertlog.New(opts.Settings.MaxAlerts, opts.Clock)
	}

	var outbox *events.Outbox
	if opts.Bus != nil {
		outbox = events.NewOutbox(opts.Bus, events.DefaultOutboxSize, opts.Logger)
	}

	return &Loop{
		analyzer:  opts.Analyzer,
		alerts:    opts.Alerts,
		outbox:    outbox,
		scheduler: opts.Scheduler,
		clock:     opts.Clock,
		recorder:  opts.Recorder,
		logger:    opts.Logger.With("component", "analysis-loop"),
		rand:      opts.Rand,
		state:     State{Status: StatusIdle, Condition: strings.TrimSpace(opts.Condition)},
		settings:  opts.Settings,
	}
}

// Start validates input, moves the loop to RUNNING and fires the first tick immediately.
// A zero interval keeps the configured one.
func (l *Loop) Start(condition, credential string, interval time.Duration) error {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return &ValidationError{Field: "condition", Message: "condition is required"}
	}
	if strings.TrimSpace(credential) == "" {
		return &ValidationError{Field: "credential", Message: "credential is required"}
	}
	if interval != 0 && !ValidInterval(interval) {
		return &ValidationError{Field: "interval_ms", Message: "interval is not one of the allowed values"}
	}

	l.mu.Lock()
	if l.state.Status == StatusRunning {
		l.mu.Unlock()
		return ErrAlreadyRunning
	}
	if l.analyzer == nil {
		l.mu.Unlock()
		return &vision.ResourceError{Op: "lookup", Err: vision.ErrNoFrameSource}
	}
	if err := l.analyzer.Available(); err != nil {
		l.mu.Unlock()
		return err
	}

	if interval != 0 {
		l.settings.Interval = interval
	}
	now := l.clock.Now()
	l.state = l.state.Begin(condition, credential, now)
	l.epoch.Store(l.state.Epoch)

	ctx, cancel := context.WithCancel(context.Background())
	l.cancelRun = cancel
	epoch := l.state.Epoch
	interval = l.settings.Interval
	l.mu.Unlock()

	l.logger.Info("monitoring started", "condition", condition, "interval", interval)
	l.emit(alertlog.KindInfo, "Monitoring started: "+condition)
	l.publish(events.StateEvent(string(StatusRunning), now))

	// The first tick may finish before Start returns, so it is scheduled only
	// after the start notice is out.
	l.scheduleTick(ctx, epoch, 0)
	return nil
}

// Stop is a no-op when idle and reports whether a running loop was stopped.
func (l *Loop) Stop() bool {
	l.mu.Lock()
	if l.state.Status != StatusRunning {
		l.mu.Unlock()
		return false
	}
	l.haltLocked("")
	l.mu.Unlock()

	l.logger.Info("monitoring stopped")
	l.emit(alertlog.KindInfo, "Monitoring stopped")
	l.publish(events.StateEvent(string(StatusIdle), l.clock.Now()))
	return true
}

func (l *Loop) SetCondition(condition string) error {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return &ValidationError{Field: "condition", Message: "condition is required"}
	}

	l.mu.Lock()
	l.state = l.state.WithCondition(condition)
	dynamic := l.settings.DynamicCondition
	running := l.state.Status == StatusRunning
	l.mu.Unlock()

	l.logger.Debug("condition updated", "condition", condition, "applies_now", dynamic || !running)
	return nil
}

// UpdateSettings applies fn to a copy of the settings and keeps the result only if it validates.
func (l *Loop) UpdateSettings(fn func(*Settings)) (Settings, error) {
	l.mu.Lock()
	next := l.settings
	fn(&next)
	if err := next.Validate(); err != nil {
		current := l.settings
		l.mu.Unlock()
		return current, err
	}
	resize := next.MaxAlerts != l.settings.MaxAlerts
	l.settings = next
	l.mu.Unlock()

	if resize {
		if evicted := l.alerts.Resize(next.MaxAlerts); evicted > 0 {
			l.logger.Debug("alert log shrunk", "max_alerts", next.MaxAlerts, "evicted", evicted)
		}
	}
	return next, nil
}

type Snapshot struct {
	Status     Status
	Condition  string
	Scene      string
	Ticks      uint64
	StartedAt  time.Time
	LastTickAt time.Time
	LastError  string
	Settings   Settings
}

func (l *Loop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Snapshot{
		Status:     l.state.Status,
		Condition:  l.state.ActiveCondition(l.settings.DynamicCondition || l.state.Status != StatusRunning),
		Scene:      l.state.Scene,
		Ticks:      l.state.Ticks,
		StartedAt:  l.state.StartedAt,
		LastTickAt: l.state.LastTickAt,
		LastError:  l.state.LastError,
		Settings:   l.settings,
	}
}

func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Status == StatusRunning
}

func (l *Loop) Alerts() []alertlog.Event {
	return l.alerts.List()
}

func (l *Loop) AlertLog() *alertlog.Log {
	return l.alerts
}

func (l *Loop) ClearAlerts() {
	l.alerts.Clear()
	l.logger.Debug("alert log cleared")
}

// PublishDropped counts events that never reached the bus because the outbox was full.
func (l *Loop) PublishDropped() uint64 {
	if l.outbox == nil {
		return 0
	}
	return l.outbox.Dropped()
}

// Close flushes pending events. The loop must not be started again afterwards.
func (l *Loop) Close() {
	if l.outbox != nil {
		l.outbox.Close()
	}
}

func (l *Loop) tick(ctx context.Context, epoch uint64) {
	if l.epoch.Load() != epoch {
		return
	}

	l.mu.Lock()
	if !l.state.Current(epoch) {
		l.mu.Unlock()
		return
	}
	l.pending = nil
	req := vision.AnalyzeRequest{
		Condition:  l.state.ActiveCondition(l.settings.DynamicCondition),
		Credential: l.state.Credential,
		Quality:    l.settings.JPEGQuality,
		Params:     l.settings.Model,
	}
	heartbeatRate := l.settings.HeartbeatRate
	l.mu.Unlock()

	analysis, err := l.analyzer.Analyze(ctx, req)

	var latency time.Duration
	if analysis != nil {
		latency = analysis.Latency
	}

	l.mu.Lock()
	if !l.state.Current(epoch) {
		l.mu.Unlock()
		l.logger.Debug("discarding result of stopped run")
		return
	}
	now := l.clock.Now()
	l.state = l.state.WithTick(now)

	fatal := err != nil && !errors.Is(err, vision.ErrEmptyResponse)
	if fatal {
		l.haltLocked(err.Error())
	} else if err == nil {
		l.state = l.state.WithScene(analysis.Result.Description)
	}
	l.mu.Unlock()

	switch {
	case fatal:
		outcome := "capture_error"
		if vision.IsRequestError(err) {
			outcome = "request_error"
		}
		l.recorder.ObserveTick(outcome, latency)
		l.logger.Error("analysis failed, stopping", "error", err)
		l.emit(alertlog.KindError, msgFailed+err.Error())
		l.publish(events.StateEvent(string(StatusIdle), now))
		return
	case err != nil:
		l.recorder.ObserveTick("parse_error", latency)
		l.logger.Warn("empty model response")
		l.emit(alertlog.KindError, msgEmptyResponse)
	default:
		l.recorder.ObserveTick(strings.ToLower(string(analysis.Result.Alert)), latency)
		l.render(analysis.Result, req.Condition, heartbeatRate)
		l.publish(events.SceneEvent(analysis.Result.Description, now))
	}

	l.scheduleNext(ctx, epoch)
}

func (l *Loop) render(result vision.ParsedResult, condition string, heartbeatRate float64) {
	switch result.Alert {
	case vision.AlertYes:
		l.emit(alertlog.KindWarning, fmt.Sprintf(msgDetected, condition))
	case vision.AlertNo:
		if l.rand() < heartbeatRate {
			l.emit(alertlog.KindInfo, fmt.Sprintf(msgHeartbeat, condition))
		}
	default:
		l.emit(alertlog.KindError, msgUninterpreted)
	}
}

func (l *Loop) scheduleNext(ctx context.Context, epoch uint64) {
	l.mu.Lock()
	interval := l.settings.Interval
	l.mu.Unlock()

	l.scheduleTick(ctx, epoch, interval)
}

// scheduleTick arms the next tick unless the run identified by epoch has ended.
func (l *Loop) scheduleTick(ctx context.Context, epoch uint64, delay time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.state.Current(epoch) {
		return
	}
	l.pending = l.scheduler.Schedule(delay, func() { l.tick(ctx, epoch) })
}

// haltLocked must be called with l.mu held.
func (l *Loop) haltLocked(reason string) {
	l.state = l.state.Halt(reason)
	l.epoch.Store(l.state.Epoch)

	if l.pending != nil {
		l.pending.Cancel()
		l.pending = nil
	}
	if l.cancelRun != nil {
		l.cancelRun()
		l.cancelRun = nil
	}
}

func (l *Loop) emit(kind alertlog.Kind, message string) {
	ev := l.alerts.Add(kind, message)
	l.recorder.ObserveAlert(string(kind))
	l.publish(events.AlertEvent(ev))
}

func (l *Loop) publish(ev events.Event) {
	if l.outbox == nil {
		return
	}
	l.outbox.Enqueue(ev)
}
