package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vectra_cache_hits_total",
			Help: "Total number of Vectra response cache hits",
		},
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vectra_cache_misses_total",
			Help: "Total number of Vectra response cache misses",
		},
	)

	// CacheWrittenBytes tracks bytes written to the cache
	CacheWrittenBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vectra_cache_written_bytes_total",
			Help: "Total bytes written to the Vectra response cache",
		},
	)

	// CacheInvalidations tracks keys removed after writes
	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vectra_cache_invalidations_total",
			Help: "Total number of cache keys removed by invalidation",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vectra_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "invalidate"
	)
)
