// Package prometheus implements ports.MetricsCollector with client_golang.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements MetricsCollector using Prometheus
type Collector struct {
	llmCalls        *prometheus.CounterVec
	llmLatency      *prometheus.HistogramVec
	normalizations  *prometheus.CounterVec
	operations      *prometheus.CounterVec
	operationTime   *prometheus.HistogramVec
	palettesSaved   *prometheus.CounterVec
	clientInstances prometheus.Gauge
	callPoolBusy    prometheus.Gauge
	callPoolIdle    prometheus.Gauge
}

// NewCollector registers the studiomuse metrics with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		llmCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studiomuse_llm_calls_total",
				Help: "Total number of LLM API calls",
			},
			[]string{"provider", "status"},
		),
		llmLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "studiomuse_llm_latency_seconds",
				Help:    "LLM API call latency in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 60},
			},
			[]string{"provider"},
		),
		normalizations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studiomuse_normalizations_total",
				Help: "LLM responses normalized, by expected shape and result",
			},
			[]string{"shape", "status"},
		),
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studiomuse_operations_total",
				Help: "Palette operations completed",
			},
			[]string{"operation", "status"},
		),
		operationTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "studiomuse_operation_duration_seconds",
				Help:    "Palette operation duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"operation"},
		),
		palettesSaved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studiomuse_palettes_saved_total",
				Help: "Physical palettes persisted, by provider",
			},
			[]string{"source"},
		),
		clientInstances: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "studiomuse_llm_client_instances",
				Help: "Number of cached LLM client instances",
			},
		),
		callPoolBusy: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "studiomuse_call_pool_busy",
				Help: "LLM calls currently in flight",
			},
		),
		callPoolIdle: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "studiomuse_call_pool_idle",
				Help: "Free LLM call slots",
			},
		),
	}
}

// RecordLLMCall records one provider call and its latency
func (c *Collector) RecordLLMCall(provider, status string, duration time.Duration) {
	c.llmCalls.WithLabelValues(provider, status).Inc()
	c.llmLatency.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordNormalization records a normalizer outcome
func (c *Collector) RecordNormalization(shape, status string) {
	c.normalizations.WithLabelValues(shape, status).Inc()
}

// RecordOperation records a completed demystify or create operation
func (c *Collector) RecordOperation(operation, status string, duration time.Duration) {
	c.operations.WithLabelValues(operation, status).Inc()
	c.operationTime.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordPaletteSaved records a persisted palette
func (c *Collector) RecordPaletteSaved(source string) {
	c.palettesSaved.WithLabelValues(source).Inc()
}

// RecordClientInstances sets the registry cache size
func (c *Collector) RecordClientInstances(count int) {
	c.clientInstances.Set(float64(count))
}

// RecordCallPoolStatus records call pool saturation
func (c *Collector) RecordCallPoolStatus(inFlight, capacity int) {
	c.callPoolBusy.Set(float64(inFlight))
	c.callPoolIdle.Set(float64(capacity - inFlight))
}
