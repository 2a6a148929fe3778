package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the collection of all Prometheus metrics for the pipeline.
type Metrics struct {
	OrdersProcessed     *prometheus.CounterVec
	ComponentsProcessed *prometheus.CounterVec
	ParametersApplied   *prometheus.CounterVec
	ProgramsEmitted     prometheus.Counter
	CounterFallbacks    prometheus.Counter
	RegenDuration       prometheus.Histogram
	PostDuration        prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics on the default
// registry.
func NewMetrics() *Metrics {
	return NewMetricsOn(prometheus.DefaultRegisterer)
}

// NewMetricsOn registers the pipeline metrics on the given registerer.
// Tests pass an isolated registry to avoid duplicate-registration panics.
func NewMetricsOn(reg prometheus.Registerer) *Metrics {
	m := &Metrics{}

	m.OrdersProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_processed_total",
			Help: "Total number of orders processed, by final status",
		},
		[]string{"status"},
	)

	m.ComponentsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "components_processed_total",
			Help: "Total number of components processed, by outcome",
		},
		[]string{"status"},
	)

	m.ParametersApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parameters_applied_total",
			Help: "Total number of parameter updates attempted, by outcome",
		},
		[]string{"status"},
	)

	m.ProgramsEmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "programs_emitted_total",
			Help: "Total number of NC programs generated",
		},
	)

	m.CounterFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "program_counter_fallbacks_total",
			Help: "Times program numbering fell back to time-derived values",
		},
	)

	m.RegenDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "toolpath_regen_duration_seconds",
			Help:    "Duration of toolpath regeneration per component",
			Buckets: prometheus.DefBuckets,
		},
	)

	m.PostDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "post_process_duration_seconds",
			Help:    "Duration of post processing per component",
			Buckets: prometheus.DefBuckets,
		},
	)

	reg.MustRegister(
		m.OrdersProcessed,
		m.ComponentsProcessed,
		m.ParametersApplied,
		m.ProgramsEmitted,
		m.CounterFallbacks,
		m.RegenDuration,
		m.PostDuration,
	)

	return m
}

// StartMetricsServer starts a HTTP server exposing Prometheus metrics.
func StartMetricsServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
