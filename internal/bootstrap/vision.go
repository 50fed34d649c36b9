package bootstrap

import (
	"log/slog"

	"github.com/falcrise/omnivision/internal/vision"
	"go.uber.org/fx"
)

func ProvideVisionConfig(cfg *Config) vision.Config {
	return vision.Config{
		EndpointURL:    cfg.EndpointURL,
		Timeout:        cfg.InferenceTimeout,
		MaxFrameWidth:  cfg.FrameMaxWidth,
		MaxFramePixels: cfg.FrameMaxPixels,
		FrameMaxAge:    cfg.FrameMaxAge,
	}
}

// ProvideSlotSource returns nil unless frames are pushed by clients.
func ProvideSlotSource(cfg *Config, vcfg vision.Config) *vision.SlotSource {
	if cfg.FrameSource != FrameSourceIngest {
		return nil
	}
	return vision.NewSlotSource(vcfg.FrameMaxAge, nil)
}

func ProvideFrameSource(cfg *Config, slot *vision.SlotSource, logger *slog.Logger) vision.FrameSource {
	if cfg.FrameSource == FrameSourcePattern {
		logger.Info("using synthetic test pattern frame source")
		return vision.NewPatternSource(0, 0, nil)
	}
	return slot
}

func ProvideCapturer(source vision.FrameSource, vcfg vision.Config, logger *slog.Logger) *vision.Capturer {
	return vision.NewCapturer(vision.CapturerConfig{
		Source:   source,
		MaxWidth: vcfg.MaxFrameWidth,
		Logger:   logger,
	})
}

func ProvideVisionClient(vcfg vision.Config, logger *slog.Logger) *vision.Client {
	client := vision.NewClient(vcfg)
	if !client.IsAvailable() {
		logger.Warn("inference endpoint not configured; set ENDPOINT_URL or PROJECT_ID, REGION and ENDPOINT_ID")
	}
	return client
}

func ProvideAnalyzer(capturer *vision.Capturer, client *vision.Client, logger *slog.Logger) *vision.Analyzer {
	return vision.NewAnalyzer(capturer, client, logger)
}

func ProvideIngestHandler(slot *vision.SlotSource, vcfg vision.Config, logger *slog.Logger) *vision.IngestHandler {
	return vision.NewIngestHandler(slot, vcfg.MaxFramePixels, logger)
}

var VisionModule = fx.Options(
	fx.Provide(
		ProvideVisionConfig,
		ProvideSlotSource,
		ProvideFrameSource,
		ProvideCapturer,
		ProvideVisionClient,
		ProvideAnalyzer,
		ProvideIngestHandler,
	),
)
