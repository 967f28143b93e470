// Package metrics exposes ledger instrumentation as Prometheus collectors.
//
// A nil *Recorder is valid and records nothing, so components can take one
// unconditionally and tests can pass nil.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "splitledger"

// Recorder holds the ledger's collectors.
type Recorder struct {
	lockWait       prometheus.Histogram
	lockHeld       prometheus.Histogram
	lockTimeouts   prometheus.Counter
	entries        *prometheus.CounterVec
	replays        *prometheus.CounterVec
	violations     prometheus.Counter
	auditRuns      prometheus.Counter
	auditedGroups  prometheus.Gauge
	publishFailure *prometheus.CounterVec
}

// New creates a Recorder and registers its collectors with reg.
// Registration panics on duplicate names, as prometheus.MustRegister does.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "write_section_wait_seconds",
			Help:      "Time spent waiting for a group's write section.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 2, 5},
		}),
		lockHeld: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "write_section_held_seconds",
			Help:      "Time a group's write section was held.",
			Buckets:   prometheus.DefBuckets,
		}),
		lockTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_section_timeouts_total",
			Help:      "Writes rejected because the group's write section stayed busy.",
		}),
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_appended_total",
			Help:      "Ledger entries appended, by kind.",
		}, []string{"kind"}),
		replays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idempotent_replays_total",
			Help:      "Requests answered with an existing entry because the idempotency key matched.",
		}, []string{"kind"}),
		violations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consistency_violations_total",
			Help:      "Ledgers found violating the zero-sum invariant.",
		}),
		auditRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_runs_total",
			Help:      "Completed consistency audits.",
		}),
		auditedGroups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audit_groups_checked",
			Help:      "Groups checked by the most recent consistency audit.",
		}),
		publishFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Ledger events that could not be published, by event type.",
		}, []string{"event"}),
	}
	reg.MustRegister(
		r.lockWait, r.lockHeld, r.lockTimeouts,
		r.entries, r.replays, r.violations,
		r.auditRuns, r.auditedGroups, r.publishFailure,
	)
	return r
}

func (r *Recorder) LockWaited(d time.Duration) {
	if r == nil {
		return
	}
	r.lockWait.Observe(d.Seconds())
}

func (r *Recorder) LockHeld(d time.Duration) {
	if r == nil {
		return
	}
	r.lockHeld.Observe(d.Seconds())
}

func (r *Recorder) LockTimedOut() {
	if r == nil {
		return
	}
	r.lockTimeouts.Inc()
}

// EntryAppended counts a new ledger entry; kind is "expense" or "settlement".
func (r *Recorder) EntryAppended(kind string) {
	if r == nil {
		return
	}
	r.entries.WithLabelValues(kind).Inc()
}

func (r *Recorder) IdempotentReplay(kind string) {
	if r == nil {
		return
	}
	r.replays.WithLabelValues(kind).Inc()
}

func (r *Recorder) ConsistencyViolation() {
	if r == nil {
		return
	}
	r.violations.Inc()
}

// AuditCompleted records one finished audit pass over n groups.
func (r *Recorder) AuditCompleted(n int) {
	if r == nil {
		return
	}
	r.auditRuns.Inc()
	r.auditedGroups.Set(float64(n))
}

func (r *Recorder) PublishFailed(event string) {
	if r == nil {
		return
	}
	r.publishFailure.WithLabelValues(event).Inc()
}
