package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.EntryAppended("expense")
	r.EntryAppended("expense")
	r.EntryAppended("settlement")
	r.IdempotentReplay("expense")
	r.LockTimedOut()
	r.ConsistencyViolation()
	r.AuditCompleted(7)
	r.PublishFailed("expense.created")
	r.LockWaited(3 * time.Millisecond)
	r.LockHeld(time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.entries.WithLabelValues("expense")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.entries.WithLabelValues("settlement")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.replays.WithLabelValues("expense")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.lockTimeouts))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.violations))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.auditRuns))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.auditedGroups))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.publishFailure.WithLabelValues("expense.created")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.lockWait))

	n, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.Positive(t, n)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.EntryAppended("expense")
		r.IdempotentReplay("expense")
		r.LockWaited(time.Second)
		r.LockHeld(time.Second)
		r.LockTimedOut()
		r.ConsistencyViolation()
		r.AuditCompleted(1)
		r.PublishFailed("x")
	})
}
