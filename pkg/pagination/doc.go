// Package pagination loads pages of enriched pioneers using the cache-aside
// pattern.
//
// A page-number request first consults the page cache under the key
// "pioneers:<page>". On a miss the relational store is queried, every row is
// enriched concurrently and the surviving records are written back to the
// cache with a fixed TTL. Cursor requests ("load more" after a known id) skip
// the cache entirely.
//
// Example usage:
//
//	loader := pagination.NewLoader(st, enricher, cache.NewManager(rdb), pagination.DefaultConfig())
//	items, err := loader.Load(ctx, pagination.Params{})
//
// Failure handling:
//   - Cache read or write errors degrade to a miss and never fail a request
//   - A pioneer whose enrichment fails is dropped from the page
//   - Only store errors are returned, as a *LoadError
package pagination
