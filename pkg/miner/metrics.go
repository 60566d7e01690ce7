package miner

import "time"

// MetricsSink receives counters and timing observations for one mining run.
// Implementations must be safe for sequential use by the Driver's single
// processing loop; nothing in this package calls a MetricsSink concurrently.
type MetricsSink interface {
	CandidateSelected()
	RecordEmitted()
	RecordSkipped()
	Warning()
	ObserveAssembleDuration(d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) CandidateSelected()                    {}
func (noopMetrics) RecordEmitted()                        {}
func (noopMetrics) RecordSkipped()                        {}
func (noopMetrics) Warning()                              {}
func (noopMetrics) ObserveAssembleDuration(time.Duration) {}

// NoopMetrics discards every observation; it is the default when a caller
// has no metrics backend wired in.
var NoopMetrics MetricsSink = noopMetrics{}
