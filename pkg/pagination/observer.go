package pagination

import (
	"time"

	"github.com/Sternrassler/pioneers/pkg/logging"
	"github.com/Sternrassler/pioneers/pkg/pioneer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for the loader.
var (
	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pioneers_loads_total",
		Help: "Total page loads by source",
	}, []string{"source"}) // "cache", "store"

	cacheFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pioneers_loader_cache_fallbacks_total",
		Help: "Cache operations that failed and were bypassed, by operation",
	}, []string{"operation"})

	storeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pioneers_loader_store_failures_total",
		Help: "Total page loads that failed in the relational store",
	})

	droppedItemsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pioneers_loader_dropped_items_total",
		Help: "Total pioneers dropped from a page because enrichment failed",
	})

	fanOutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pioneers_loader_fanout_duration_seconds",
		Help:    "Duration of the enrichment fan-out for one page",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})
)

// Observer receives loader events. Implementations must be safe for
// concurrent use.
type Observer interface {
	// CacheHit is called when a page is served from cache.
	CacheHit(key string, items int)
	// CacheMiss is called when a page is not in cache. err is non-nil when the
	// cache could not be read at all.
	CacheMiss(key string, err error)
	// CacheWriteFailed is called when an enriched page could not be cached.
	CacheWriteFailed(key string, err error)
	// StoreFailed is called before Load returns a *LoadError.
	StoreFailed(query pioneer.PageQuery, err error)
	// EnrichmentCompleted is called after every fan-out.
	EnrichmentCompleted(requested, enriched int, elapsed time.Duration)
}

// LogObserver reports loader events as zerolog events and Prometheus metrics.
type LogObserver struct {
	logger zerolog.Logger
}

// NewLogObserver creates an observer writing to the global logger.
func NewLogObserver() *LogObserver {
	return &LogObserver{logger: logging.NewLogger("pagination")}
}

func (o *LogObserver) CacheHit(key string, items int) {
	loadsTotal.WithLabelValues("cache").Inc()
	o.logger.Debug().Str("key", key).Int("items", items).Bool("cache_hit", true).Msg("Page served from cache")
}

func (o *LogObserver) CacheMiss(key string, err error) {
	if err != nil {
		cacheFallbacksTotal.WithLabelValues("get").Inc()
		o.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed, loading from store")
		return
	}
	o.logger.Debug().Str("key", key).Bool("cache_hit", false).Msg("Cache miss")
}

func (o *LogObserver) CacheWriteFailed(key string, err error) {
	cacheFallbacksTotal.WithLabelValues("set").Inc()
	o.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
}

func (o *LogObserver) StoreFailed(query pioneer.PageQuery, err error) {
	storeFailuresTotal.Inc()
	event := o.logger.Error().Err(err).Int("offset", query.Offset).Int("limit", query.Limit)
	if query.AfterID != nil {
		event = event.Int64("last_id", *query.AfterID)
	}
	event.Msg("Store query failed")
}

func (o *LogObserver) EnrichmentCompleted(requested, enriched int, elapsed time.Duration) {
	loadsTotal.WithLabelValues("store").Inc()
	fanOutDuration.Observe(elapsed.Seconds())

	dropped := requested - enriched
	if dropped > 0 {
		droppedItemsTotal.Add(float64(dropped))
		o.logger.Warn().
			Int("requested", requested).
			Int("dropped", dropped).
			Dur("duration", elapsed).
			Msg("Some pioneers could not be enriched")
		return
	}
	o.logger.Debug().Int("enriched", enriched).Dur("duration", elapsed).Msg("Page enriched")
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) CacheHit(string, int) {}
func (NopObserver) CacheMiss(string, error) {}
func (NopObserver) CacheWriteFailed(string, error) {}
func (NopObserver) StoreFailed(pioneer.PageQuery, error) {}
func (NopObserver) EnrichmentCompleted(int, int, time.Duration) {}
