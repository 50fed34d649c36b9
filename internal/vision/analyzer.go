package vision

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type Analyzer struct {
	capturer *Capturer
	client   *Client
	parser   *Parser
	logger   *slog.Logger
}

func NewAnalyzer(capturer *Capturer, client *Client, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		capturer: capturer,
		client:   client,
		parser:   NewParser(),
		logger:   logger.With("component", "vision-analyzer"),
	}
}

func (a *Analyzer) Available() error {
	return a.capturer.Available()
}

// Analyze runs one capture, request and parse pass. A non-nil Analysis is returned together
// with ErrEmptyResponse so callers still see the raw reply and latency.
func (a *Analyzer) Analyze(ctx context.Context, req AnalyzeRequest) (*Analysis, error) {
	frame, err := a.capturer.Capture(req.Quality)
	if err != nil {
		return nil, err
	}

	payload, err := BuildRequest(frame, req.Condition, req.Params)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	raw, err := a.client.Send(ctx, payload, req.Credential)
	latency := time.Since(start)
	if err != nil {
		a.logger.Debug("inference request failed", "error", err, "latency_ms", latency.Milliseconds())
		return nil, err
	}

	analysis := &Analysis{
		Raw:        raw,
		FrameBytes: len(frame),
		Latency:    latency,
	}

	result, err := a.parser.Parse(raw, req.Condition)
	if err != nil {
		return analysis, err
	}
	analysis.Result = result

	if result.Alert == AlertUnknown {
		a.logger.Debug("no alert signal in reply", "strategies", a.parser.Strategies(), "raw_len", len(raw))
	}
	a.logger.Debug("analysis complete",
		"alert", result.Alert,
		"frame_bytes", len(frame),
		"latency_ms", latency.Milliseconds(),
		"description_len", len(result.Description))

	return analysis, nil
}
