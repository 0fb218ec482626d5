// Package metrics exposes Prometheus counters for reconciliation and dispatch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reconcile outcomes
const (
	OutcomeApplied = "applied"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

var (
	ReconcileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discosync_reconcile_total",
		Help: "Reconciliation handler invocations by outcome",
	}, []string{"handler", "outcome"})

	BatchCommitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discosync_batch_commits_total",
		Help: "Atomic multi-record batches committed",
	}, []string{"handler"})

	DispatchChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discosync_dispatch_changes_total",
		Help: "Captured changes handed to reconcilers",
	}, []string{"collection", "kind"})

	DroppedChangesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "discosync_dispatch_dropped_total",
		Help: "Changes dropped after exhausting delivery attempts",
	})
)
