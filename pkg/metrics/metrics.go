// Package metrics exposes the Prometheus registry used by the pioneers
// service. Metrics are defined next to the code that updates them (cache,
// client, enrich, pagination) and registered through promauto.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every package registers its metrics with.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects everything registered with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - pioneers_cache_hits_total (Counter): Page cache hits
//   - pioneers_cache_misses_total (Counter): Page cache misses
//   - pioneers_cache_size_bytes (Gauge): Size of the last page written
//   - pioneers_cache_errors_total{operation} (Counter): Cache operation errors
//
// Loader Metrics (pkg/pagination):
//   - pioneers_loads_total{source} (Counter): Page loads served from cache or store
//   - pioneers_loader_cache_fallbacks_total{operation} (Counter): Cache failures bypassed by the loader
//   - pioneers_loader_store_failures_total (Counter): Loads that failed in the store
//   - pioneers_loader_dropped_items_total (Counter): Pioneers dropped from a page
//   - pioneers_loader_fanout_duration_seconds (Histogram): Enrichment fan-out duration per page
//
// Enrichment Metrics (pkg/enrich):
//   - pioneers_enrichments_total{outcome} (Counter): Enrichments by outcome
//   - pioneers_enrichment_duration_seconds (Histogram): Duration of one enrichment
//   - pioneers_enrichment_dropped_labels_total{property} (Counter): Unresolved labels
//
// Wikimedia Request Metrics (pkg/client):
//   - wiki_requests_total{api, status} (Counter): Requests by API and HTTP status
//   - wiki_request_duration_seconds{api} (Histogram): Request duration by API
//   - wiki_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//   - wiki_retries_total{error_class} (Counter): Retry attempts by error class
//   - wiki_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - wiki_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Example Prometheus Queries:
//
//   # Page Cache Hit Rate
//   sum(rate(pioneers_cache_hits_total[5m])) /
//   (sum(rate(pioneers_cache_hits_total[5m])) + sum(rate(pioneers_cache_misses_total[5m])))
//
//   # Share of pioneers dropped per page load
//   rate(pioneers_loader_dropped_items_total[5m]) / rate(pioneers_loads_total{source="store"}[5m])
//
//   # P95 Wikimedia Latency
//   histogram_quantile(0.95, rate(wiki_request_duration_seconds_bucket[5m]))
