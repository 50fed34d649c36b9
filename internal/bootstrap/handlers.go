package bootstrap

import (
	"log/slog"
	"os"
	"time"

	"github.com/falcrise/omnivision/internal/metrics"
	"github.com/falcrise/omnivision/internal/monitor"
	"github.com/falcrise/omnivision/internal/vision"
	"github.com/labstack/echo/v4"
	"github.com/lmittmann/tint"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/fx"
)

type HandlerParams struct {
	fx.In

	MonitorHandler *monitor.Handler
	IngestHandler  *vision.IngestHandler
	Metrics        *metrics.Metrics
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	api := e.Group("/api/v1")
	params.MonitorHandler.RegisterRoutes(api)
	params.IngestHandler.RegisterRoutes(api)

	e.GET("/metrics", echo.WrapHandler(params.Metrics.Handler()))
	e.GET("/swagger/*", echoSwagger.EchoWrapHandlerV3())
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	level := parseLogLevel(cfg.LogLevel)
	if cfg.LogFormat == "text" {
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

var HandlersModule = fx.Options(
	fx.Invoke(RegisterRoutes),
)
