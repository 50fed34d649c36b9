package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveTick(t *testing.T) {
	m := New()

	m.ObserveTick("yes", 2*time.Second)
	m.ObserveTick("yes", time.Second)
	m.ObserveTick("request_error", 0)

	if got := testutil.ToFloat64(m.ticks.WithLabelValues("yes")); got != 2 {
		t.Errorf("expected 2 yes ticks, got %v", got)
	}
	if got := testutil.ToFloat64(m.ticks.WithLabelValues("request_error")); got != 1 {
		t.Errorf("expected 1 request_error tick, got %v", got)
	}
	if got := testutil.CollectAndCount(m.inferenceLatency); got != 1 {
		t.Errorf("expected histogram to be collected once, got %d", got)
	}
}

func TestMetrics_ObserveAlert(t *testing.T) {
	m := New()
	m.ObserveAlert("WARNING")
	m.ObserveAlert("WARNING")
	m.ObserveAlert("ERROR")

	if got := testutil.ToFloat64(m.alerts.WithLabelValues("WARNING")); got != 2 {
		t.Errorf("expected 2 warnings, got %v", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	running := 1.0
	m.RegisterGauge("omnivision_running", "Whether the loop is running", func() float64 { return running })
	m.ObserveAlert("INFO")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		"omnivision_running 1",
		`omnivision_alerts_total{kind="INFO"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected metrics output to contain %q", want)
		}
	}
}
