package content

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aggregateFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "golos_aggregate_recompute_failures_total",
			Help: "Derived counter recomputations that failed and may have left a stale value.",
		},
		[]string{"aggregate"},
	)

	blobCleanupFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "golos_blob_cleanup_failures_total",
			Help: "Best-effort blob deletions that failed, leaving orphaned objects.",
		},
		[]string{"kind"},
	)

	deliveryFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "golos_delivery_failures_total",
			Help: "Notification fan-out steps that failed.",
		},
		[]string{"stage"},
	)

	userCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "golos_user_cache_hits_total",
		Help: "User lookups served from the in-memory cache.",
	})

	userCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "golos_user_cache_misses_total",
		Help: "User lookups that had to go to the store.",
	})
)
