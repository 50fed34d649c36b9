package monitor

import (
	"slices"
	"time"

	"github.com/falcrise/omnivision/internal/alertlog"
	"github.com/falcrise/omnivision/internal/vision"
)

const DefaultHeartbeatRate = 0.03

var AllowedIntervals = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	3 * time.Second,
	5 * time.Second,
	10 * time.Second,
	30 * time.Second,
}

type Settings struct {
	Interval         time.Duration
	JPEGQuality      float64
	MaxAlerts        int
	DynamicCondition bool
	HeartbeatRate    float64
	Model            vision.ModelParams
}

func DefaultSettings() Settings {
	return Settings{
		Interval:         3 * time.Second,
		JPEGQuality:      0.8,
		MaxAlerts:        alertlog.DefaultMaxAlerts,
		DynamicCondition: true,
		HeartbeatRate:    DefaultHeartbeatRate,
		Model:            vision.DefaultModelParams(),
	}
}

func ValidInterval(d time.Duration) bool {
	return slices.Contains(AllowedIntervals, d)
}

func AllowedIntervalsMs() []int {
	out := make([]int, len(AllowedIntervals))
	for i, d := range AllowedIntervals {
		out[i] = int(d.Milliseconds())
	}
	return out
}

func (s Settings) Validate() error {
	switch {
	case !ValidInterval(s.Interval):
		return &ValidationError{Field: "interval_ms", Message: "interval is not one of the allowed values"}
	case s.JPEGQuality < 0 || s.JPEGQuality > 1:
		return &ValidationError{Field: "jpeg_quality", Message: "must be between 0 and 1"}
	case s.MaxAlerts <= 0:
		return &ValidationError{Field: "max_alerts", Message: "must be positive"}
	case s.HeartbeatRate < 0 || s.HeartbeatRate > 1:
		return &ValidationError{Field: "heartbeat_rate", Message: "must be between 0 and 1"}
	case s.Model.MaxTokens <= 0:
		return &ValidationError{Field: "max_tokens", Message: "must be positive"}
	case s.Model.Temperature < 0:
		return &ValidationError{Field: "temperature", Message: "must not be negative"}
	case s.Model.TopP <= 0 || s.Model.TopP > 1:
		return &ValidationError{Field: "top_p", Message: "must be greater than 0 and at most 1"}
	case s.Model.TopK < 0:
		return &ValidationError{Field: "top_k", Message: "must not be negative"}
	}
	return nil
}
