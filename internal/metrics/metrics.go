// Package metrics instruments a mining run with Prometheus counters and a
// histogram, following the batch-job idiom: a one-shot process accumulates
// metrics in a private registry for the run's lifetime, then either pushes
// them to a Pushgateway or dumps them to a text file, since a process that
// exits after one run has no scrape window for a pull-based /metrics
// endpoint.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/prometheus/common/expfmt"
)

const namespace = "adlminer"

// durationBuckets covers a single record's assembly time: sub-millisecond
// path lookups up to multi-second histories on churn-heavy files.
var durationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Recorder accumulates counters and a duration histogram for one mining run.
type Recorder struct {
	registry          *prometheus.Registry
	candidatesTotal   prometheus.Counter
	recordsEmitted    prometheus.Counter
	recordsSkipped    prometheus.Counter
	warningsTotal     prometheus.Counter
	assembleHistogram prometheus.Histogram
}

// New builds a Recorder with its own private registry.
func New() *Recorder {
	registry := prometheus.NewRegistry()

	r := &Recorder{
		registry: registry,
		candidatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_selected_total",
			Help:      "Commits whose first-parent patch touched the ADL path.",
		}),
		recordsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_emitted_total",
			Help:      "Training records written to the output sink.",
		}),
		recordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Candidate commits that produced no emittable record.",
		}),
		warningsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Recoverable per-item warnings logged during assembly.",
		}),
		assembleHistogram: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "record_assemble_duration_seconds",
			Help:      "Wall time to assemble one candidate commit into a record.",
			Buckets:   durationBuckets,
		}),
	}

	registry.MustRegister(r.candidatesTotal, r.recordsEmitted, r.recordsSkipped, r.warningsTotal, r.assembleHistogram)

	return r
}

// CandidateSelected implements miner.MetricsSink.
func (r *Recorder) CandidateSelected() { r.candidatesTotal.Inc() }

// RecordEmitted implements miner.MetricsSink.
func (r *Recorder) RecordEmitted() { r.recordsEmitted.Inc() }

// RecordSkipped implements miner.MetricsSink.
func (r *Recorder) RecordSkipped() { r.recordsSkipped.Inc() }

// Warning implements miner.MetricsSink.
func (r *Recorder) Warning() { r.warningsTotal.Inc() }

// ObserveAssembleDuration implements miner.MetricsSink.
func (r *Recorder) ObserveAssembleDuration(d time.Duration) {
	r.assembleHistogram.Observe(d.Seconds())
}

// WriteText renders the accumulated metrics in the Prometheus text exposition
// format, for a "--metrics-file" sink that a textfile collector can pick up.
func (r *Recorder) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(w, family); err != nil {
			return fmt.Errorf("encode metric family %s: %w", family.GetName(), err)
		}
	}

	return nil
}

// PushToGateway pushes the accumulated metrics to a Prometheus Pushgateway
// under the given job name, the standard pattern for a batch job that exits
// before any scrape could otherwise reach it.
func (r *Recorder) PushToGateway(url, job string) error {
	if err := push.New(url, job).Gatherer(r.registry).Push(); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}

	return nil
}
