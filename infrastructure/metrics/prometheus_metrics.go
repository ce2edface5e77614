// Package metrics provides Prometheus-backed implementations of the
// observability ports.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/slushpile/slush/internal/ports"
)

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements ports.MetricsCollector on the global
// Prometheus registry. It tracks judge latency, tournament progress, and
// LLM transport usage.
type PrometheusMetrics struct {
	operationLatency *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	tokenCounter     *prometheus.CounterVec
	stateGauges      *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a collector and registers its metrics in
// the global Prometheus registry. Call it at most once per process.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		operationLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "slush_operation_duration_seconds",
				Help:    "Latency of judge picks and LLM requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "provider", "model", "status"},
		),
		operationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slush_operations_total",
				Help: "Count of tournament and transport operations.",
			},
			[]string{"operation", "provider", "model", "status"},
		),
		tokenCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slush_llm_tokens_total",
				Help: "Tokens consumed by LLM requests.",
			},
			[]string{"provider", "model", "token_type"},
		),
		stateGauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "slush_tournament_state",
				Help: "Current tournament state values such as round population.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency records operation duration in a histogram.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.operationLatency.WithLabelValues(
		operation,
		labelOr(labels, "provider"),
		labelOr(labels, "model"),
		labelOr(labels, "status"),
	).Observe(duration.Seconds())
}

// RecordCounter increments the matching counter.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	if metric == "llm_tokens_total" {
		pm.tokenCounter.WithLabelValues(
			labelOr(labels, "provider"),
			labelOr(labels, "model"),
			labelOr(labels, "token_type"),
		).Add(value)
		return
	}

	pm.operationCounter.WithLabelValues(
		metric,
		labelOr(labels, "provider"),
		labelOr(labels, "model"),
		labelOr(labels, "status"),
	).Add(value)
}

// RecordGauge sets the named state gauge.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	pm.stateGauges.WithLabelValues(metric).Set(value)
}

func labelOr(labels map[string]string, key string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return "unknown"
}
