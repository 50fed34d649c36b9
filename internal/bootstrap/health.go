package bootstrap

import (
	"github.com/falcrise/omnivision/internal/events"
	"github.com/falcrise/omnivision/internal/health"
	"github.com/falcrise/omnivision/internal/monitor"
	"github.com/falcrise/omnivision/internal/vision"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const version = "0.3.0"

type HealthParams struct {
	fx.In

	Capturer *vision.Capturer
	Slot     *vision.SlotSource
	Client   *vision.Client
	Loop     *monitor.Loop
	Bus      events.Bus
	Redis    *redis.Client
	MQTT     *events.MQTTForwarder
}

func ProvideHealthHandler(params HealthParams) *health.Handler {
	return health.NewHandler(health.Dependencies{
		Frames: params.Capturer,
		Slot:   params.Slot,
		Client: params.Client,
		Loop:   params.Loop,
		Bus:    params.Bus,
		Redis:  params.Redis,
		MQTT:   params.MQTT,
	}, version)
}

func metricsMiddleware(h *health.Handler) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h.IncrementRequests()
			h.IncrementConnections()
			defer h.DecrementConnections()
			return next(c)
		}
	}
}

func RegisterHealthRoutes(e *echo.Echo, h *health.Handler) {
	e.Use(metricsMiddleware(h))
	h.RegisterRoutes(e)
}

var HealthModule = fx.Options(
	fx.Provide(ProvideHealthHandler),
	fx.Invoke(RegisterHealthRoutes),
)
