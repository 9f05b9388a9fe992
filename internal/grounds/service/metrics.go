package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the grounds module. All methods are
// nil-safe so wiring without metrics stays possible in tests.
type Metrics struct {
	// Build latency by mode, fetch included
	BuildLatency *prometheus.HistogramVec

	// Build outcomes by mode and result
	BuildOutcome *prometheus.CounterVec

	// Validation findings by kind
	ValidationFindings *prometheus.CounterVec

	// Change-report entries per reconciliation run
	DiffEntries prometheus.Histogram
}

// NewMetrics registers the grounds module metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		BuildLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bidrag_grounds_build_duration_seconds",
			Help:    "Duration of grounds builds by mode, including collaborator fetch",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"mode"}),

		BuildOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bidrag_grounds_builds_total",
			Help: "Total grounds builds by mode and outcome",
		}, []string{"mode", "outcome"}),

		ValidationFindings: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bidrag_grounds_validation_findings_total",
			Help: "Total period validation findings by kind",
		}, []string{"kind"}),

		DiffEntries: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "bidrag_grounds_diff_entries",
			Help:    "Change-report entries per reconciliation run",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
		}),
	}
}

func (m *Metrics) ObserveBuild(mode string, d time.Duration) {
	if m != nil {
		m.BuildLatency.WithLabelValues(mode).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementBuild(mode, outcome string) {
	if m != nil {
		m.BuildOutcome.WithLabelValues(mode, outcome).Inc()
	}
}

func (m *Metrics) IncrementFinding(kind string) {
	if m != nil {
		m.ValidationFindings.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) ObserveDiffEntries(n int) {
	if m != nil {
		m.DiffEntries.Observe(float64(n))
	}
}
