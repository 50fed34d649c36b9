package monitor

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultSettings_Valid(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("default settings should validate: %v", err)
	}
	if s.HeartbeatRate != 0.03 {
		t.Errorf("expected heartbeat rate 0.03, got %v", s.HeartbeatRate)
	}
	if s.MaxAlerts != 10 {
		t.Errorf("expected max alerts 10, got %d", s.MaxAlerts)
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		field  string
	}{
		{"interval", func(s *Settings) { s.Interval = 1500 * time.Millisecond }, "interval_ms"},
		{"quality negative", func(s *Settings) { s.JPEGQuality = -0.1 }, "jpeg_quality"},
		{"quality above one", func(s *Settings) { s.JPEGQuality = 1.2 }, "jpeg_quality"},
		{"max alerts", func(s *Settings) { s.MaxAlerts = 0 }, "max_alerts"},
		{"heartbeat", func(s *Settings) { s.HeartbeatRate = -0.1 }, "heartbeat_rate"},
		{"max tokens", func(s *Settings) { s.Model.MaxTokens = 0 }, "max_tokens"},
		{"temperature", func(s *Settings) { s.Model.Temperature = -1 }, "temperature"},
		{"top p", func(s *Settings) { s.Model.TopP = 0 }, "top_p"},
		{"top k", func(s *Settings) { s.Model.TopK = -1 }, "top_k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)

			var verr *ValidationError
			if err := s.Validate(); !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, verr.Field)
			}
		})
	}
}

func TestSettings_Validate_QualityBounds(t *testing.T) {
	for _, q := range []float64{0, 0.5, 1} {
		s := DefaultSettings()
		s.JPEGQuality = q
		if err := s.Validate(); err != nil {
			t.Errorf("quality %v should be accepted: %v", q, err)
		}
	}
}

func TestAllowedIntervalsMs(t *testing.T) {
	got := AllowedIntervalsMs()
	want := []int{1000, 2000, 3000, 5000, 10000, 30000}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %d at %d, got %d", want[i], i, got[i])
		}
	}
	if ValidInterval(4 * time.Second) {
		t.Error("4s should not be allowed")
	}
}
