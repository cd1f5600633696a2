// Package cache provides the Redis page cache for enriched pioneers.
//
// Each page of enriched pioneers is stored as a JSON array under a
// deterministic key ("pioneers:<page>") with a fixed TTL. There is no
// invalidation other than expiry.
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create cache manager
//	manager := cache.NewManager(redisClient)
//
//	// Get from cache
//	items, err := manager.Get(ctx, cache.PageKey(1))
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// Cache miss - load from the store and enrich
//	}
//
//	// Store in cache
//	if err := manager.Set(ctx, cache.PageKey(1), items, cache.DefaultTTL); err != nil {
//		return err
//	}
//
// # Metrics
//
// The cache manager exports Prometheus metrics:
//
//   - pioneers_cache_hits_total - Cache hits
//   - pioneers_cache_misses_total - Cache misses
//   - pioneers_cache_size_bytes - Size of the last written payload
//   - pioneers_cache_errors_total{operation} - Cache operation errors
//
// Callers are expected to treat every error from this package as a cache
// miss; Redis being unavailable must never fail a page load.
package cache
