// Package metrics exposes Prometheus collectors for vagrant invocations
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Invocation outcomes used as label values
const (
	OutcomeOK        = "ok"
	OutcomeExitError = "exit_nonzero"
	OutcomeTimeout   = "timeout"
	OutcomeError     = "error"
)

// Recorder collects Prometheus counters and histograms for the binding.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry           *prometheus.Registry
	invocationsTotal   *prometheus.CounterVec
	invocationDuration *prometheus.HistogramVec
	parseWarningsTotal *prometheus.CounterVec
}

// New constructs a private registry and registers all collectors
func New() *Recorder {
	registry := prometheus.NewRegistry()

	invocationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "govagrant",
			Subsystem: "invocation",
			Name:      "total",
			Help:      "Total number of vagrant invocations by subcommand and outcome.",
		},
		[]string{"subcommand", "outcome"},
	)
	invocationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "govagrant",
			Subsystem: "invocation",
			Name:      "duration_seconds",
			Help:      "Wall time of vagrant invocations.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"subcommand"},
	)
	parseWarningsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "govagrant",
			Subsystem: "parser",
			Name:      "warnings_total",
			Help:      "Malformed output lines skipped by lenient parsing.",
		},
		[]string{"view"},
	)

	registry.MustRegister(invocationsTotal, invocationDuration, parseWarningsTotal)

	return &Recorder{
		registry:           registry,
		invocationsTotal:   invocationsTotal,
		invocationDuration: invocationDuration,
		parseWarningsTotal: parseWarningsTotal,
	}
}

// Handler returns an HTTP handler that serves the registry
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveInvocation records one finished vagrant invocation
func (r *Recorder) ObserveInvocation(subcommand, outcome string, duration time.Duration) {
	if r == nil {
		return
	}
	r.invocationsTotal.WithLabelValues(subcommand, outcome).Inc()
	r.invocationDuration.WithLabelValues(subcommand).Observe(duration.Seconds())
}

// AddParseWarnings counts lines skipped while building view
func (r *Recorder) AddParseWarnings(view string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.parseWarningsTotal.WithLabelValues(view).Add(float64(n))
}
