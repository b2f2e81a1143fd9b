package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	domain "github.com/openbaseline/compliance/internal/domain/service"
)

// Metrics manages the Prometheus metrics and implements the domain
// MetricsRecorder.
type Metrics struct {
	ResultsIngested   *prometheus.CounterVec
	ResultsDeleted    prometheus.Counter
	RecomputeLatency  prometheus.Histogram
	RulesAdded        prometheus.Counter
	RulesRemoved      prometheus.Counter
	DatastreamImports *prometheus.CounterVec
}

// NewMetrics creates and registers the Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		ResultsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "compliance_results_ingested_total",
				Help: "Total number of test result ingestion attempts by outcome.",
			},
			[]string{"outcome"},
		),
		ResultsDeleted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "compliance_results_deleted_total",
				Help: "Total number of deleted test results.",
			},
		),
		RecomputeLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "compliance_cache_recompute_seconds",
				Help:    "Latency of profile score and policy counter recomputation.",
				Buckets: prometheus.DefBuckets,
			},
		),
		RulesAdded: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "compliance_profile_rules_added_total",
				Help: "Total number of rules added across profile rule updates.",
			},
		),
		RulesRemoved: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "compliance_profile_rules_removed_total",
				Help: "Total number of rules removed across profile rule updates.",
			},
		),
		DatastreamImports: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "compliance_datastream_imports_total",
				Help: "Total number of datastream import attempts by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

var _ domain.MetricsRecorder = (*Metrics)(nil)

func (m *Metrics) RecordResultIngested(outcome string) {
	m.ResultsIngested.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordResultDeleted() {
	m.ResultsDeleted.Inc()
}

func (m *Metrics) RecordRecomputeDuration(d time.Duration) {
	m.RecomputeLatency.Observe(d.Seconds())
}

func (m *Metrics) RecordRulesUpdated(added, removed int) {
	m.RulesAdded.Add(float64(added))
	m.RulesRemoved.Add(float64(removed))
}

func (m *Metrics) RecordDatastreamImport(outcome string) {
	m.DatastreamImports.WithLabelValues(outcome).Inc()
}
