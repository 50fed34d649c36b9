package health

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/falcrise/omnivision/internal/events"
	"github.com/falcrise/omnivision/internal/monitor"
	"github.com/falcrise/omnivision/internal/vision"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

type ComponentStatus struct {
	Status    Status `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type RuntimeStats struct {
	Goroutines         int    `json:"goroutines"`
	MemoryAllocMB      uint64 `json:"memory_alloc_mb"`
	MemoryTotalAllocMB uint64 `json:"memory_total_alloc_mb"`
	MemorySysMB        uint64 `json:"memory_sys_mb"`
	NumGC              uint32 `json:"num_gc"`
}

type MonitorStats struct {
	Status     string `json:"status"`
	Ticks      uint64 `json:"ticks"`
	AlertCount int    `json:"alert_count"`
	LastError  string `json:"last_error,omitempty"`
}

type FrameStats struct {
	Received       uint64 `json:"received"`
	LastFrameAgeMs *int64 `json:"last_frame_age_ms,omitempty"`
}

type EventStats struct {
	Subscribers   int    `json:"subscribers"`
	Dropped       uint64 `json:"dropped"`
	Undelivered   uint64 `json:"undelivered"`
	MQTTPublished uint64 `json:"mqtt_published"`
	MQTTFailures  uint64 `json:"mqtt_failures"`
}

type RequestStats struct {
	TotalRequests     uint64 `json:"total_requests"`
	ActiveConnections int64  `json:"active_connections"`
}

type Stats struct {
	Monitor  MonitorStats `json:"monitor"`
	Frames   FrameStats   `json:"frames"`
	Events   EventStats   `json:"events"`
	Requests RequestStats `json:"requests"`
	Runtime  RuntimeStats `json:"runtime"`
}

type HealthResponse struct {
	Status        Status                     `json:"status"`
	Timestamp     time.Time                  `json:"timestamp"`
	Version       string                     `json:"version"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
	Stats         Stats                      `json:"stats"`
	Components    map[string]ComponentStatus `json:"components"`
}

// FrameChecker reports nil when a frame can be captured right now.
type FrameChecker interface {
	Available() error
}

type dropCounter interface {
	Dropped() uint64
}

type Dependencies struct {
	Frames FrameChecker
	Slot   *vision.SlotSource
	Client *vision.Client
	Loop   *monitor.Loop
	Bus    events.Bus
	Redis  *redis.Client
	MQTT   *events.MQTTForwarder
}

type componentCheck struct {
	name string
	fn   func(context.Context) ComponentStatus
}

type Handler struct {
	deps      Dependencies
	version   string
	startTime time.Time

	totalRequests     uint64
	activeConnections int64
}

func NewHandler(deps Dependencies, version string) *Handler {
	return &Handler{
		deps:      deps,
		version:   version,
		startTime: time.Now(),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Liveness)
	e.GET("/health/ready", h.Readiness)
}

func (h *Handler) IncrementRequests() {
	atomic.AddUint64(&h.totalRequests, 1)
}

func (h *Handler) IncrementConnections() {
	atomic.AddInt64(&h.activeConnections, 1)
}

func (h *Handler) DecrementConnections() {
	atomic.AddInt64(&h.activeConnections, -1)
}

func (h *Handler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *Handler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	components := make(map[string]ComponentStatus)
	var mu sync.Mutex
	var wg sync.WaitGroup

	checks := []componentCheck{
		{"frame_source", h.checkFrameSource},
		{"inference_endpoint", h.checkEndpoint},
	}
	if h.deps.Redis != nil {
		checks = append(checks, componentCheck{"redis", h.checkRedis})
	}
	if h.deps.MQTT != nil {
		checks = append(checks, componentCheck{"mqtt", h.checkMQTT})
	}

	wg.Add(len(checks))
	for _, check := range checks {
		go func(name string, fn func(context.Context) ComponentStatus) {
			defer wg.Done()
			status := fn(ctx)
			mu.Lock()
			components[name] = status
			mu.Unlock()
		}(check.name, check.fn)
	}
	wg.Wait()

	overallStatus := h.computeOverallStatus(components)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	resp := HealthResponse{
		Status:        overallStatus,
		Timestamp:     time.Now().UTC(),
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Stats: Stats{
			Monitor: h.monitorStats(),
			Frames:  h.frameStats(),
			Events:  h.eventStats(),
			Requests: RequestStats{
				TotalRequests:     atomic.LoadUint64(&h.totalRequests),
				ActiveConnections: atomic.LoadInt64(&h.activeConnections),
			},
			Runtime: RuntimeStats{
				Goroutines:         runtime.NumGoroutine(),
				MemoryAllocMB:      memStats.Alloc / 1024 / 1024,
				MemoryTotalAllocMB: memStats.TotalAlloc / 1024 / 1024,
				MemorySysMB:        memStats.Sys / 1024 / 1024,
				NumGC:              memStats.NumGC,
			},
		},
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	return c.JSON(statusCode, resp)
}

func (h *Handler) monitorStats() MonitorStats {
	if h.deps.Loop == nil {
		return MonitorStats{Status: string(monitor.StatusIdle)}
	}
	snap := h.deps.Loop.Snapshot()
	return MonitorStats{
		Status:     string(snap.Status),
		Ticks:      snap.Ticks,
		AlertCount: h.deps.Loop.AlertLog().Len(),
		LastError:  snap.LastError,
	}
}

func (h *Handler) frameStats() FrameStats {
	if h.deps.Slot == nil {
		return FrameStats{}
	}
	stats := FrameStats{Received: h.deps.Slot.Received()}
	if age, ok := h.deps.Slot.Age(); ok {
		ms := age.Milliseconds()
		stats.LastFrameAgeMs = &ms
	}
	return stats
}

func (h *Handler) eventStats() EventStats {
	var stats EventStats
	if h.deps.Bus != nil {
		stats.Subscribers = h.deps.Bus.Subscribers()
		if dc, ok := h.deps.Bus.(dropCounter); ok {
			stats.Dropped = dc.Dropped()
		}
	}
	if h.deps.Loop != nil {
		stats.Undelivered = h.deps.Loop.PublishDropped()
	}
	if h.deps.MQTT != nil {
		stats.MQTTPublished = h.deps.MQTT.Published()
		stats.MQTTFailures = h.deps.MQTT.Failures()
	}
	return stats
}

// A frame source without a current frame degrades readiness; a browser may simply not be connected yet.
func (h *Handler) checkFrameSource(ctx context.Context) ComponentStatus {
	start := time.Now()
	if h.deps.Frames == nil {
		return ComponentStatus{
			Status:    StatusUnhealthy,
			LatencyMs: time.Since(start).Milliseconds(),
			Error:     "frame source not configured",
		}
	}

	if err := h.deps.Frames.Available(); err != nil {
		return ComponentStatus{
			Status:    StatusDegraded,
			LatencyMs: time.Since(start).Milliseconds(),
			Error:     err.Error(),
		}
	}

	return ComponentStatus{
		Status:    StatusHealthy,
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

func (h *Handler) checkEndpoint(ctx context.Context) ComponentStatus {
	start := time.Now()
	if h.deps.Client == nil || !h.deps.Client.IsAvailable() {
		return ComponentStatus{
			Status:    StatusUnhealthy,
			LatencyMs: time.Since(start).Milliseconds(),
			Error:     "endpoint url not configured",
		}
	}

	return ComponentStatus{
		Status:    StatusHealthy,
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

func (h *Handler) checkRedis(ctx context.Context) ComponentStatus {
	start := time.Now()
	if err := h.deps.Redis.Ping(ctx).Err(); err != nil {
		return ComponentStatus{
			Status:    StatusUnhealthy,
			LatencyMs: time.Since(start).Milliseconds(),
			Error:     "ping failed",
		}
	}

	return ComponentStatus{
		Status:    StatusHealthy,
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

func (h *Handler) checkMQTT(ctx context.Context) ComponentStatus {
	start := time.Now()
	if !h.deps.MQTT.Connected() {
		return ComponentStatus{
			Status:    StatusDegraded,
			LatencyMs: time.Since(start).Milliseconds(),
			Error:     "not connected",
		}
	}

	return ComponentStatus{
		Status:    StatusHealthy,
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

func (h *Handler) computeOverallStatus(components map[string]ComponentStatus) Status {
	criticalComponents := []string{"inference_endpoint", "redis"}

	for _, name := range criticalComponents {
		if status, ok := components[name]; ok && status.Status == StatusUnhealthy {
			return StatusUnhealthy
		}
	}

	hasUnhealthy := false
	hasDegraded := false
	for _, status := range components {
		if status.Status == StatusUnhealthy {
			hasUnhealthy = true
		}
		if status.Status == StatusDegraded {
			hasDegraded = true
		}
	}

	if hasUnhealthy || hasDegraded {
		return StatusDegraded
	}

	return StatusHealthy
}
