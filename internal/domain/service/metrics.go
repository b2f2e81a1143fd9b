package service

import "time"

// MetricsRecorder is the instrumentation hook used by the application layer.
// The Prometheus implementation lives in infrastructure/monitoring.
type MetricsRecorder interface {
	RecordResultIngested(outcome string)
	RecordResultDeleted()
	RecordRecomputeDuration(d time.Duration)
	RecordRulesUpdated(added, removed int)
	RecordDatastreamImport(outcome string)
}

type nopMetrics struct{}

// NewNopMetrics returns a MetricsRecorder that records nothing.
func NewNopMetrics() MetricsRecorder {
	return &nopMetrics{}
}

func (nopMetrics) RecordResultIngested(outcome string)        {}
func (nopMetrics) RecordResultDeleted()                       {}
func (nopMetrics) RecordRecomputeDuration(d time.Duration)    {}
func (nopMetrics) RecordRulesUpdated(added, removed int)      {}
func (nopMetrics) RecordDatastreamImport(outcome string)      {}
