package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the analysis loop collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ticks            *prometheus.CounterVec
	alerts           *prometheus.CounterVec
	inferenceLatency prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "omnivision_ticks_total",
			Help: "Analysis ticks by outcome",
		}, []string{"outcome"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "omnivision_alerts_total",
			Help: "Alert events by kind",
		}, []string{"kind"}),
		inferenceLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "omnivision_inference_latency_seconds",
			Help:    "Inference endpoint round trip latency",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
	}

	m.registry.MustRegister(m.ticks, m.alerts, m.inferenceLatency)
	m.registry.MustRegister(collectors.NewGoCollector())

	return m
}

func (m *Metrics) ObserveTick(outcome string, latency time.Duration) {
	m.ticks.WithLabelValues(outcome).Inc()
	if latency > 0 {
		m.inferenceLatency.Observe(latency.Seconds())
	}
}

func (m *Metrics) ObserveAlert(kind string) {
	m.alerts.WithLabelValues(kind).Inc()
}

// RegisterGauge exposes a value read at scrape time.
func (m *Metrics) RegisterGauge(name, help string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: name, Help: help},
		fn,
	))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
