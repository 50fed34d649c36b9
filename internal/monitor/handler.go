package monitor

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/falcrise/omnivision/internal/alertlog"
	"github.com/falcrise/omnivision/internal/dto"
	"github.com/falcrise/omnivision/internal/events"
	"github.com/falcrise/omnivision/internal/shared"
	"github.com/falcrise/omnivision/internal/vision"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

const sseKeepAliveInterval = 30 * time.Second

type Handler struct {
	loop   *Loop
	bus    events.Bus
	logger *slog.Logger
}

func NewHandler(loop *Loop, bus events.Bus, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		loop:   loop,
		bus:    bus,
		logger: logger.With("component", "monitor-handler"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/monitor/start", h.Start)
	g.POST("/monitor/stop", h.Stop)
	g.GET("/monitor/status", h.Status)
	g.PUT("/monitor/condition", h.SetCondition)
	g.PUT("/monitor/settings", h.UpdateSettings)
	g.GET("/monitor/alerts", h.Alerts)
	g.DELETE("/monitor/alerts", h.ClearAlerts)
	g.GET("/monitor/events", h.Events)
}

// @Summary      Start monitoring
// @Description  Validates the condition and credential, moves the loop to RUNNING and fires the first analysis immediately
// @Tags         monitor
// @Accept       json
// @Produce      json
// @Param        request  body      dto.StartRequest  true  "Condition, credential and optional interval"
// @Success      202      {object}  dto.StatusResponse
// @Failure      400      {object}  shared.APIError
// @Failure      409      {object}  shared.APIError  "Already running"
// @Failure      503      {object}  shared.APIError  "No frame source"
// @Router       /monitor/start [post]
func (h *Handler) Start(c echo.Context) error {
	var req dto.StartRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	interval := time.Duration(req.IntervalMs) * time.Millisecond
	if err := h.loop.Start(req.Condition, req.Credential, interval); err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusAccepted, h.status())
}

// @Summary      Stop monitoring
// @Tags         monitor
// @Produce      json
// @Success      200  {object}  dto.StatusResponse
// @Router       /monitor/stop [post]
func (h *Handler) Stop(c echo.Context) error {
	h.loop.Stop()
	return c.JSON(http.StatusOK, h.status())
}

// @Summary      Get monitor status
// @Tags         monitor
// @Produce      json
// @Success      200  {object}  dto.StatusResponse
// @Router       /monitor/status [get]
func (h *Handler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.status())
}

// @Summary      Update the watched condition
// @Tags         monitor
// @Accept       json
// @Produce      json
// @Param        request  body      dto.ConditionRequest  true  "New condition"
// @Success      200      {object}  dto.StatusResponse
// @Failure      400      {object}  shared.APIError
// @Router       /monitor/condition [put]
func (h *Handler) SetCondition(c echo.Context) error {
	var req dto.ConditionRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	if err := h.loop.SetCondition(req.Condition); err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, h.status())
}

// @Summary      Update loop settings
// @Description  Only the fields present are changed. The update is rejected as a whole if any field is invalid.
// @Tags         monitor
// @Accept       json
// @Produce      json
// @Param        request  body      dto.SettingsRequest  true  "Settings to change"
// @Success      200      {object}  dto.SettingsResponse
// @Failure      400      {object}  shared.APIError
// @Router       /monitor/settings [put]
func (h *Handler) UpdateSettings(c echo.Context) error {
	var req dto.SettingsRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	settings, err := h.loop.UpdateSettings(func(s *Settings) {
		applySettings(s, req)
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, settingsResponse(settings))
}

// @Summary      List alerts
// @Description  Newest first. Pass format=msgpack for a MessagePack body.
// @Tags         monitor
// @Produce      json,application/msgpack
// @Param        format  query     string  false  "json or msgpack"
// @Success      200     {object}  dto.AlertsResponse
// @Router       /monitor/alerts [get]
func (h *Handler) Alerts(c echo.Context) error {
	alerts := h.loop.Alerts()
	resp := dto.AlertsResponse{
		Total:  len(alerts),
		Alerts: make([]dto.AlertResponse, len(alerts)),
	}
	for i, a := range alerts {
		resp.Alerts[i] = alertResponse(a)
	}

	if c.QueryParam("format") != "msgpack" {
		return c.JSON(http.StatusOK, resp)
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(resp); err != nil {
		h.logger.Error("encode alerts", "error", err)
		return shared.InternalError("encode_failed", "failed to encode msgpack")
	}

	return c.Blob(http.StatusOK, "application/msgpack", buf.Bytes())
}

// @Summary      Clear alerts
// @Tags         monitor
// @Success      204
// @Router       /monitor/alerts [delete]
func (h *Handler) ClearAlerts(c echo.Context) error {
	h.loop.ClearAlerts()
	return c.NoContent(http.StatusNoContent)
}

// Events streams bus events as server-sent events until the client disconnects.
//
// @Summary      Stream events
// @Description  Server-sent events carrying alert, scene and state updates
// @Tags         monitor
// @Produce      text/event-stream
// @Success      200
// @Failure      503  {object}  shared.APIError  "Event stream disabled"
// @Router       /monitor/events [get]
func (h *Handler) Events(c echo.Context) error {
	if h.bus == nil {
		return shared.ServiceUnavailable("events_disabled", "event stream is not available")
	}

	w := c.Response()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	ctx := c.Request().Context()
	ch, cancel := h.bus.Subscribe(ctx)
	defer cancel()

	ticker := time.NewTicker(sseKeepAliveInterval)
	defer ticker.Stop()

	if err := writeSSE(w, events.StateEvent(string(h.loop.Snapshot().Status), time.Now().UTC())); err != nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if err := writeSSE(w, ev); err != nil {
				h.logger.Debug("event stream write failed", "error", err)
				return nil
			}
		case <-ticker.C:
			if _, err := w.Write([]byte(":keepalive\n\n")); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

func writeSSE(w *echo.Response, ev events.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("event: " + string(ev.Type) + "\ndata: ")); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\n\n")); err != nil {
		return err
	}
	w.Flush()
	return nil
}

func (h *Handler) status() dto.StatusResponse {
	snap := h.loop.Snapshot()
	resp := dto.StatusResponse{
		Status:     string(snap.Status),
		Condition:  snap.Condition,
		Scene:      snap.Scene,
		Ticks:      snap.Ticks,
		LastError:  snap.LastError,
		AlertCount: h.loop.AlertLog().Len(),
		Settings:   settingsResponse(snap.Settings),
	}
	if !snap.StartedAt.IsZero() {
		resp.StartedAt = &snap.StartedAt
	}
	if !snap.LastTickAt.IsZero() {
		resp.LastTickAt = &snap.LastTickAt
	}
	return resp
}

func applySettings(s *Settings, req dto.SettingsRequest) {
	if req.IntervalMs != nil {
		s.Interval = time.Duration(*req.IntervalMs) * time.Millisecond
	}
	if req.JPEGQuality != nil {
		s.JPEGQuality = *req.JPEGQuality
	}
	if req.MaxAlerts != nil {
		s.MaxAlerts = *req.MaxAlerts
	}
	if req.DynamicCondition != nil {
		s.DynamicCondition = *req.DynamicCondition
	}
	if req.HeartbeatRate != nil {
		s.HeartbeatRate = *req.HeartbeatRate
	}
	if req.MaxTokens != nil {
		s.Model.MaxTokens = *req.MaxTokens
	}
	if req.Temperature != nil {
		s.Model.Temperature = *req.Temperature
	}
	if req.TopP != nil {
		s.Model.TopP = *req.TopP
	}
	if req.TopK != nil {
		s.Model.TopK = *req.TopK
	}
}

func settingsResponse(s Settings) dto.SettingsResponse {
	return dto.SettingsResponse{
		IntervalMs:       int(s.Interval.Milliseconds()),
		AllowedIntervals: AllowedIntervalsMs(),
		JPEGQuality:      s.JPEGQuality,
		MaxAlerts:        s.MaxAlerts,
		DynamicCondition: s.DynamicCondition,
		HeartbeatRate:    s.HeartbeatRate,
		MaxTokens:        s.Model.MaxTokens,
		Temperature:      s.Model.Temperature,
		TopP:             s.Model.TopP,
		TopK:             s.Model.TopK,
	}
}

func alertResponse(a alertlog.Event) dto.AlertResponse {
	return dto.AlertResponse{
		ID:        a.ID,
		Kind:      string(a.Kind),
		Message:   a.Message,
		Timestamp: a.Timestamp,
	}
}

func toHTTPError(err error) error {
	var verr *ValidationError
	var rerr *vision.ResourceError
	switch {
	case errors.As(err, &verr):
		return shared.NewAPIError("validation_failed", verr.Error()).
			WithDetails([]dto.ValidationError{{Field: verr.Field, Message: verr.Message}}).
			ToHTTP(http.StatusBadRequest)
	case errors.Is(err, ErrAlreadyRunning):
		return shared.Conflict("already_running", "monitor is already running")
	case errors.As(err, &rerr):
		return shared.ServiceUnavailable("frame_source_unavailable", rerr.Error())
	default:
		return shared.InternalError("internal_error", "unexpected error")
	}
}
