// Package metrics exports reconciliation pass metrics to prometheus.
package metrics

import (
	"lesson-sync/core/reconcile"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Observer records finished passes. It implements reconcile.Observer.
type Observer struct {
	passes     *prometheus.CounterVec
	records    *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	lastSynced *prometheus.GaugeVec
}

var _ reconcile.Observer = (*Observer)(nil)

// NewObserver registers the sync metrics with reg.
func NewObserver(reg prometheus.Registerer) *Observer {
	factory := promauto.With(reg)
	return &Observer{
		passes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lesson_sync",
			Name:      "passes_total",
			Help:      "Sync passes by collection and outcome",
		}, []string{"collection", "outcome"}),
		records: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lesson_sync",
			Name:      "records_total",
			Help:      "Records handled by sync passes, by collection and action",
		}, []string{"collection", "action"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lesson_sync",
			Name:      "pass_duration_seconds",
			Help:      "Duration of sync passes that were not throttled",
			Buckets:   prometheus.DefBuckets,
		}, []string{"collection"}),
		lastSynced: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "lesson_sync",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last pass without failures",
		}, []string{"collection"}),
	}
}

// ObservePass records one finished pass.
func (o *Observer) ObservePass(report *reconcile.Report, _ error) {
	if report == nil {
		return
	}
	c := report.Collection
	o.passes.WithLabelValues(c, string(report.Outcome)).Inc()
	if report.Outcome == reconcile.OutcomeThrottled {
		return
	}

	o.duration.WithLabelValues(c).Observe(report.Duration.Seconds())

	counts := map[string]int{
		string(reconcile.ActionCreateRemote): report.Created,
		string(reconcile.ActionUpdateRemote): report.Updated,
		string(reconcile.ActionUnchanged):    report.Unchanged,
		string(reconcile.ActionSuppressed):   report.Suppressed,
		string(reconcile.ActionRemoteOnly):   report.RemoteOnly,
		"skipped_duplicate":                  report.SkippedDuplicate,
		"failed":                             report.FailedCount(),
	}
	for action, n := range counts {
		if n > 0 {
			o.records.WithLabelValues(c, action).Add(float64(n))
		}
	}

	if report.Outcome == reconcile.OutcomeCompleted {
		o.lastSynced.WithLabelValues(c).Set(float64(report.StartedAt.Add(report.Duration).Unix()))
	}
}
