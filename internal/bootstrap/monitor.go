package bootstrap

import (
	"context"
	"log/slog"

	"github.com/falcrise/omnivision/internal/events"
	"github.com/falcrise/omnivision/internal/metrics"
	"github.com/falcrise/omnivision/internal/monitor"
	"github.com/falcrise/omnivision/internal/vision"
	"go.uber.org/fx"
)

func ProvideLoop(
	lc fx.Lifecycle,
	cfg *Config,
	analyzer *vision.Analyzer,
	bus events.Bus,
	m *metrics.Metrics,
	logger *slog.Logger,
) *monitor.Loop {
	loop := monitor.New(monitor.Options{
		Analyzer:  analyzer,
		Bus:       bus,
		Recorder:  m,
		Logger:    logger,
		Settings:  cfg.Settings(),
		Condition: cfg.Condition,
	})

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if loop.Stop() {
				logger.Info("analysis loop stopped on shutdown")
			}
			loop.Close()
			return nil
		},
	})
	return loop
}

func ProvideMonitorHandler(loop *monitor.Loop, bus events.Bus, logger *slog.Logger) *monitor.Handler {
	return monitor.NewHandler(loop, bus, logger)
}

func RegisterMonitorGauges(m *metrics.Metrics, loop *monitor.Loop, bus events.Bus, slot *vision.SlotSource) {
	m.RegisterGauge("omnivision_loop_running", "1 while the analysis loop is running", func() float64 {
		if loop.Running() {
			return 1
		}
		return 0
	})
	m.RegisterGauge("omnivision_alert_log_size", "Alerts currently retained", func() float64 {
		return float64(loop.AlertLog().Len())
	})
	m.RegisterGauge("omnivision_event_subscribers", "Active event stream subscribers", func() float64 {
		return float64(bus.Subscribers())
	})
	if slot != nil {
		m.RegisterGauge("omnivision_frames_received", "Frames pushed by clients since start", func() float64 {
			return float64(slot.Received())
		})
	}
}

var MonitorModule = fx.Options(
	fx.Provide(
		ProvideLoop,
		ProvideMonitorHandler,
	),
	fx.Invoke(RegisterMonitorGauges),
)
