package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/falcrise/omnivision/internal/bootstrap"
	"github.com/falcrise/omnivision/internal/vision"
	"github.com/lmittmann/tint"
)

// checkdeploy runs a single capture, inference and parse pass and prints the outcome.
func main() {
	imagePath := flag.String("image", "", "JPEG, PNG or WebP file to analyze (default: synthetic test pattern)")
	condition := flag.String("condition", "", "condition to check (default: CONDITION from config)")
	token := flag.String("token", os.Getenv("ACCESS_TOKEN"), "bearer token for the endpoint")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
	}))

	if err := run(logger, *imagePath, *condition, *token); err != nil {
		logger.Error("deployment check failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, imagePath, condition, token string) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	if condition == "" {
		condition = cfg.Condition
	}
	if condition == "" {
		return errors.New("no condition given; use -condition or CONDITION")
	}
	if token == "" {
		return errors.New("no credential given; use -token or ACCESS_TOKEN")
	}

	source, err := frameSource(imagePath)
	if err != nil {
		return err
	}

	capturer := vision.NewCapturer(vision.CapturerConfig{
		Source:   source,
		MaxWidth: cfg.FrameMaxWidth,
		Logger:   logger,
	})
	client := vision.NewClient(vision.Config{
		EndpointURL: cfg.EndpointURL,
		Timeout:     cfg.InferenceTimeout,
	})
	if !client.IsAvailable() {
		return errors.New("inference endpoint not configured; set ENDPOINT_URL or PROJECT_ID, REGION and ENDPOINT_ID")
	}

	analyzer := vision.NewAnalyzer(capturer, client, logger)
	logger.Info("analyzing frame", "endpoint", client.EndpointURL(), "condition", condition)

	analysis, err := analyzer.Analyze(context.Background(), vision.AnalyzeRequest{
		Condition:  condition,
		Credential: token,
		Quality:    cfg.JPEGQuality,
		Params:     cfg.Model,
	})
	if err != nil {
		if analysis != nil {
			fmt.Printf("raw reply: %q\n", analysis.Raw)
		}
		return err
	}

	fmt.Printf("scene:   %s\n", analysis.Result.Description)
	fmt.Printf("alert:   %s\n", analysis.Result.Alert)
	fmt.Printf("latency: %s\n", analysis.Latency)
	fmt.Printf("frame:   %d bytes\n", analysis.FrameBytes)
	logger.Debug("raw reply", "text", analysis.Raw)
	return nil
}

func frameSource(path string) (vision.FrameSource, error) {
	if path == "" {
		return vision.NewPatternSource(0, 0, nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	img, _, err := vision.DecodeFrame(data, 0)
	if err != nil {
		return nil, err
	}

	slot := vision.NewSlotSource(0, nil)
	slot.Put(img)
	return slot, nil
}
