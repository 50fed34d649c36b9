package bootstrap

import (
	"context"
	"log/slog"

	"github.com/falcrise/omnivision/internal/events"
	"github.com/falcrise/omnivision/internal/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// ProvideRedisClient returns nil when REDIS_ADDR is unset; events then stay in process.
func ProvideRedisClient(lc fx.Lifecycle, cfg *Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client
}

func ProvideEventBus(lc fx.Lifecycle, cfg *Config, client *redis.Client, logger *slog.Logger) events.Bus {
	var bus events.Bus
	if client != nil {
		bus = events.NewRedisBus(client, cfg.RedisChannel, logger)
		logger.Info("using redis event bus", "addr", cfg.RedisAddr, "channel", cfg.RedisChannel)
	} else {
		bus = events.NewLocalBus(logger)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return bus.Close()
		},
	})
	return bus
}

// ProvideMQTTForwarder returns nil when MQTT_BROKER is unset.
func ProvideMQTTForwarder(lc fx.Lifecycle, cfg *Config, bus events.Bus, logger *slog.Logger) *events.MQTTForwarder {
	if cfg.MQTTBroker == "" {
		return nil
	}

	fwd := events.NewMQTTForwarder(events.MQTTConfig{
		Broker:   cfg.MQTTBroker,
		Topic:    cfg.MQTTTopic,
		ClientID: cfg.MQTTClientID,
	}, logger)

	runCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := fwd.Connect(ctx); err != nil {
				logger.Warn("mqtt broker unreachable, retrying in background", "broker", cfg.MQTTBroker, "error", err)
			}
			go fwd.Run(runCtx, bus)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			fwd.Close()
			return nil
		},
	})
	return fwd
}

func ProvideMetrics() *metrics.Metrics {
	return metrics.New()
}

var InfrastructureModule = fx.Options(
	fx.Provide(
		ProvideRedisClient,
		ProvideEventBus,
		ProvideMQTTForwarder,
		ProvideMetrics,
	),
)
