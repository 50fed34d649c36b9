package vision

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestAnalyzer(t *testing.T, source FrameSource, handler http.HandlerFunc) *Analyzer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	capturer := NewCapturer(CapturerConfig{Source: source, Logger: quietLogger()})
	client := NewClient(Config{EndpointURL: server.URL, Timeout: 2 * time.Second})
	return NewAnalyzer(capturer, client, quietLogger())
}

func analyzeRequest() AnalyzeRequest {
	return AnalyzeRequest{
		Condition:  "person present",
		Credential: "tok",
		Quality:    0.8,
		Params:     DefaultModelParams(),
	}
}

func TestAnalyzer_Analyze(t *testing.T) {
	a := newTestAnalyzer(t, &stubSource{width: 16, height: 16, fill: color.White},
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"predictions":[{"content":"SCENE: A person at a desk\nALERT: YES"}]}`))
		})

	analysis, err := a.Analyze(context.Background(), analyzeRequest())
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if analysis.Result != (ParsedResult{Description: "A person at a desk", Alert: AlertYes}) {
		t.Errorf("unexpected result %+v", analysis.Result)
	}
	if analysis.FrameBytes == 0 {
		t.Error("expected frame size to be recorded")
	}
	if analysis.Raw == "" {
		t.Error("expected raw reply to be kept")
	}
}

func TestAnalyzer_EmptyResponse(t *testing.T) {
	a := newTestAnalyzer(t, &stubSource{width: 8, height: 8, fill: color.Black},
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"predictions":[{"content":"   "}]}`))
		})

	analysis, err := a.Analyze(context.Background(), analyzeRequest())
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
	if analysis == nil || analysis.Raw != "   " {
		t.Error("expected analysis with raw text alongside the error")
	}
}

func TestAnalyzer_CaptureFailure(t *testing.T) {
	called := false
	a := newTestAnalyzer(t, &stubSource{dimErr: ErrNoFrame}, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := a.Analyze(context.Background(), analyzeRequest())
	var resErr *ResourceError
	if !errors.As(err, &resErr) {
		t.Errorf("expected ResourceError, got %v", err)
	}
	if called {
		t.Error("endpoint must not be called without a frame")
	}
	if !errors.Is(a.Available(), ErrNoFrame) {
		t.Error("Available should report the frame source error")
	}
}

func TestAnalyzer_RequestFailure(t *testing.T) {
	a := newTestAnalyzer(t, &stubSource{width: 8, height: 8, fill: color.White},
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
		})

	analysis, err := a.Analyze(context.Background(), analyzeRequest())
	if analysis != nil {
		t.Error("expected no analysis on request failure")
	}
	if !IsRequestError(err) {
		t.Errorf("expected request error, got %v", err)
	}
}

func TestAnalyzer_LogsStrategiesWhenUninterpreted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"predictions":[{"content":"The room looks ordinary and quiet today"}]}`))
	}))
	defer server.Close()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	capturer := NewCapturer(CapturerConfig{Source: &stubSource{width: 8, height: 8, fill: color.White}, Logger: quietLogger()})
	a := NewAnalyzer(capturer, NewClient(Config{EndpointURL: server.URL, Timeout: 2 * time.Second}), logger)

	analysis, err := a.Analyze(context.Background(), analyzeRequest())
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if analysis.Result.Alert != AlertUnknown {
		t.Fatalf("expected UNKNOWN, got %s", analysis.Result.Alert)
	}
	if !strings.Contains(logs.String(), "no alert signal in reply") || !strings.Contains(logs.String(), "labeled-fields") {
		t.Errorf("expected strategy names in debug log, got %q", logs.String())
	}
}
