package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fpl",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Upstream FPL API requests by resource and outcome.",
	}, []string{"resource", "outcome"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fpl",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Cache lookups answered from a fresh entry.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fpl",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Cache lookups that required a loader call.",
	})

	CacheStaleServed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fpl",
		Subsystem: "cache",
		Name:      "stale_served_total",
		Help:      "Lookups served from an expired entry after a loader failure.",
	})

	SingleFlightShared = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fpl",
		Subsystem: "cache",
		Name:      "singleflight_shared_total",
		Help:      "Lookups that piggybacked on another caller's in-flight load.",
	})

	FinalizedConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fpl",
		Subsystem: "ingest",
		Name:      "finalized_conflicts_total",
		Help:      "Rejected writes that would have mutated a finalized gameweek record.",
	})
)
