package metrics

import (
	"testing"
	"time"

	"lesson-sync/core/reconcile"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserver_ObservePass(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := NewObserver(reg)
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	o.ObservePass(&reconcile.Report{
		Collection: "lessons",
		Outcome:    reconcile.OutcomeCompleted,
		Created:    2,
		Updated:    1,
		Suppressed: 1,
		StartedAt:  started,
		Duration:   2 * time.Second,
	}, nil)
	o.ObservePass(&reconcile.Report{
		Collection: "lessons",
		Outcome:    reconcile.OutcomePartial,
		Created:    1,
		Failed:     1,
		Failures:   []reconcile.Failure{{Identity: "lesson-4", Reason: "timeout"}},
		StartedAt:  started.Add(time.Minute),
	}, nil)
	o.ObservePass(&reconcile.Report{Collection: "lessons", Outcome: reconcile.OutcomeThrottled}, nil)
	o.ObservePass(nil, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(o.passes.WithLabelValues("lessons", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.passes.WithLabelValues("lessons", "partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.passes.WithLabelValues("lessons", "throttled")))

	assert.Equal(t, 3.0, testutil.ToFloat64(o.records.WithLabelValues("lessons", "create_remote")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.records.WithLabelValues("lessons", "update_remote")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.records.WithLabelValues("lessons", "failed")))

	assert.Equal(t, float64(started.Add(2*time.Second).Unix()), testutil.ToFloat64(o.lastSynced.WithLabelValues("lessons")))
	assert.Equal(t, 1, testutil.CollectAndCount(o.duration), "one series per collection")
}
