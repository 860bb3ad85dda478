// Package cache provides an optional Redis-backed cache for Vectra API
// GET responses.
//
// Responses are stored verbatim together with their content type and
// expire after a fixed TTL (VECTRA_CACHE_TTL). Writes through the client
// invalidate every cached response of the affected collection, so deleting
// assignment/5 drops cached assignments and assignments/5 reads.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient, 5*time.Minute)
//
//	key := cache.Key{
//		Scope:    "brain.example.com",
//		Endpoint: "detections",
//		Params:   url.Values{"state": []string{"active"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API, then manager.Set(ctx, key, entry)
//	}
//
//	// after a DELETE on assignment/5
//	write := cache.Key{Scope: "brain.example.com", Endpoint: "assignment/5"}
//	for _, prefix := range write.InvalidationPrefixes() {
//		_, _ = manager.InvalidatePrefix(ctx, prefix)
//	}
//
// # Metrics
//
//   - vectra_cache_hits_total - Cache hits
//   - vectra_cache_misses_total - Cache misses
//   - vectra_cache_written_bytes_total - Bytes written to the cache
//   - vectra_cache_invalidations_total - Keys removed by invalidation
//   - vectra_cache_errors_total{operation} - Cache operation errors
package cache
