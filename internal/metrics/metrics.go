// Package metrics exposes Prometheus counters for the production
// ledger, served on the ops listener's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EntriesCommitted counts ledger entries accepted and stored.
	EntriesCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wagonerp",
		Subsystem: "ledger",
		Name:      "entries_committed_total",
		Help:      "Daily production entries committed to the ledger.",
	})

	// EntriesRejected counts submissions rejected before commit, by
	// reason (negative_balance, duplicate, validation).
	EntriesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wagonerp",
		Subsystem: "ledger",
		Name:      "entries_rejected_total",
		Help:      "Daily production entries rejected before commit.",
	}, []string{"reason"})

	// ProjectionsComputed counts full balance projections, cache
	// misses included.
	ProjectionsComputed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wagonerp",
		Subsystem: "inventory",
		Name:      "projections_computed_total",
		Help:      "Full ledger-fold balance projections computed.",
	})
)
