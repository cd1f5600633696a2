package cache

import (
	"strconv"
	"strings"
)

// KeyNamespace prefixes every page cache key.
const KeyNamespace = "pioneers"

// CacheKey identifies one cached page of enriched pioneers.
type CacheKey struct {
	// Namespace is the key prefix (default "pioneers")
	Namespace string

	// Page is the 1-based page number
	Page int
}

// PageKey returns the canonical key for a page number.
func PageKey(page int) CacheKey {
	return CacheKey{Namespace: KeyNamespace, Page: page}
}

// String generates the Redis key.
// Format: namespace:page
//
// Example:
//
//	pioneers:3
func (k CacheKey) String() string {
	ns := strings.Trim(k.Namespace, ":")
	if ns == "" {
		ns = KeyNamespace
	}
	return ns + ":" + strconv.Itoa(k.Page)
}
