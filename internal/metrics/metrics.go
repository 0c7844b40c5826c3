// Package metrics holds the prometheus collectors shared by the engine.
// They register against the default registry; cmd/server exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "feedsync"

var (
	// MutationSettlements counts mutation lifecycle transitions by mutation and status
	MutationSettlements = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "mutations",
		Name:      "settlements_total",
		Help:      "Mutation lifecycle events published on the bus.",
	}, []string{"mutation", "status"})

	// BusDeliveries counts callbacks invoked by the mutation bus
	BusDeliveries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "mutations",
		Name:      "deliveries_total",
		Help:      "Subscriber callbacks invoked by the mutation bus.",
	})

	// CachePatches counts patch attempts by target and whether the slot existed
	CachePatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "patches_total",
		Help:      "Cache patch attempts by target (entity, feed) and result (applied, missing).",
	}, []string{"target", "result"})

	// CacheEvictions counts entries dropped by the LRU bound
	CacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "evictions_total",
		Help:      "Entries evicted from session caches by the size bound.",
	})

	// ActiveSessions tracks engines currently held by the registry
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sessions",
		Name:      "active",
		Help:      "Session engines currently held in memory.",
	})

	// AnalyticsDropped counts analytics events discarded because the writer was behind
	AnalyticsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "analytics",
		Name:      "dropped_total",
		Help:      "Analytics events dropped because the persistence queue was full.",
	})
)
