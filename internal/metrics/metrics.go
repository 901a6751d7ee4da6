// Package metrics records validator and run measurements in a private
// Prometheus registry and writes them in the text exposition format.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/roach88/nomina/internal/engine"
	"github.com/roach88/nomina/internal/ir"
)

// Metrics implements engine.Observer. A nil *Metrics observes nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Validator run latencies by agent
	ValidatorDuration *prometheus.HistogramVec

	// Results by agent and severity
	Results *prometheus.CounterVec

	// Validators replaced by a SYSTEM_ERROR, by agent
	Failures *prometheus.CounterVec

	// Runs by final state
	Runs *prometheus.CounterVec

	// Whole-run latency
	RunDuration prometheus.Histogram
}

var _ engine.Observer = (*Metrics)(nil)

// New creates a Metrics instance registered in its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,

		ValidatorDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nomina_validator_duration_seconds",
			Help:    "Duration of a validator run by agent",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}, []string{"agent"}),

		Results: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nomina_validation_results_total",
			Help: "Validation results by agent and severity",
		}, []string{"agent", "severity"}),

		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nomina_validator_failures_total",
			Help: "Validators that errored, panicked or timed out",
		}, []string{"agent"}),

		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nomina_runs_total",
			Help: "Validation runs by final state",
		}, []string{"state"}),

		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "nomina_run_duration_seconds",
			Help:    "Duration of a whole validation run",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
	}
}

// ObserveValidator records one validator run.
func (m *Metrics) ObserveValidator(agent string, d time.Duration, results []ir.ValidationResult, err error) {
	if m == nil {
		return
	}
	m.ValidatorDuration.WithLabelValues(agent).Observe(d.Seconds())
	for _, r := range results {
		m.Results.WithLabelValues(agent, string(r.Severity)).Inc()
	}
	if err != nil {
		m.Failures.WithLabelValues(agent).Inc()
	}
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(state engine.State, d time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(string(state)).Inc()
	m.RunDuration.Observe(d.Seconds())
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteText writes every metric family in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	if m == nil {
		return nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
