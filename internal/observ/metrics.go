package observ

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "scenecheck"

// Fix outcomes recorded by RecordFix.
const (
	FixApplied  = "applied"
	FixStale    = "stale"
	FixRejected = "rejected"
	FixFailed   = "failed"
)

// Metrics holds the Prometheus collectors for check runs and fixes.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	issues   *prometheus.GaugeVec
	fixes    *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "check_runs_total",
				Help:      "Detection passes by check and resulting status",
			},
			[]string{"check", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "check_duration_seconds",
				Help:      "Time spent in one detection pass",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"check"},
		),
		issues: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "check_issues",
				Help:      "Issues found by the latest detection pass",
			},
			[]string{"check", "severity"},
		),
		fixes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fixes_total",
				Help:      "Fix attempts by check and outcome",
			},
			[]string{"check", "outcome"},
		),
	}
}

// Registry exposes the underlying registry for HTTP export.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRun records one detection pass.
func (m *Metrics) RecordRun(checkID, status string, dur time.Duration, warnings, errs int) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(checkID, status).Inc()
	m.duration.WithLabelValues(checkID).Observe(dur.Seconds())
	m.issues.WithLabelValues(checkID, "warning").Set(float64(warnings))
	m.issues.WithLabelValues(checkID, "error").Set(float64(errs))
}

// RecordFix records one fix attempt.
func (m *Metrics) RecordFix(checkID, outcome string) {
	if m == nil {
		return
	}
	m.fixes.WithLabelValues(checkID, outcome).Inc()
}
