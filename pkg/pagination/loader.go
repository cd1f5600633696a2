package pagination

import (
	"context"
	"errors"
	"time"

	"github.com/Sternrassler/pioneers/pkg/cache"
	"github.com/Sternrassler/pioneers/pkg/logging"
	"github.com/Sternrassler/pioneers/pkg/pioneer"
	"github.com/rs/zerolog"
)

// PageCache is the cache the loader reads and fills.
// Get must return cache.ErrCacheMiss for absent keys.
type PageCache interface {
	Get(ctx context.Context, key cache.CacheKey) ([]pioneer.EnrichedPioneer, error)
	Set(ctx context.Context, key cache.CacheKey, items []pioneer.EnrichedPioneer, ttl time.Duration) error
}

// Store returns pages of pioneer rows.
type Store interface {
	ListPage(ctx context.Context, q pioneer.PageQuery) ([]pioneer.Pioneer, error)
}

// Enricher turns a row into its enriched record, or nil if it cannot.
type Enricher interface {
	Enrich(ctx context.Context, p pioneer.Pioneer) *pioneer.EnrichedPioneer
}

// Config holds loader configuration.
type Config struct {
	// PageSize is the number of rows per page.
	PageSize int
	// CacheTTL is the lifetime of a cached page.
	CacheTTL time.Duration
	// MaxConcurrency bounds parallel enrichments per page; <= 0 means one
	// goroutine per row.
	MaxConcurrency int
}

// DefaultConfig returns the standard page size and cache TTL.
func DefaultConfig() Config {
	return Config{
		PageSize: pioneer.PageSize,
		CacheTTL: cache.DefaultTTL,
	}
}

// Params selects a page. LastID takes precedence over Page.
type Params struct {
	Page   *int
	LastID *int64
}

// PageNumber returns the requested page, defaulting to 1.
func (p Params) PageNumber() int {
	if p.Page == nil || *p.Page < 1 {
		return 1
	}
	return *p.Page
}

// Loader serves pages of enriched pioneers.
type Loader struct {
	cache    PageCache
	store    Store
	enricher Enricher
	config   Config
	observer Observer
	logger   zerolog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithObserver replaces the default LogObserver.
func WithObserver(o Observer) Option {
	return func(l *Loader) {
		if o != nil {
			l.observer = o
		}
	}
}

// NewLoader creates a loader. pageCache may be nil, in which case every
// request goes to the store and nothing is cached.
func NewLoader(store Store, enricher Enricher, pageCache PageCache, config Config, opts ...Option) *Loader {
	if store == nil {
		panic("store cannot be nil")
	}
	if enricher == nil {
		panic("enricher cannot be nil")
	}
	if config.PageSize <= 0 {
		config.PageSize = pioneer.PageSize
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = cache.DefaultTTL
	}

	l := &Loader{
		cache:    pageCache,
		store:    store,
		enricher: enricher,
		config:   config,
		observer: NewLogObserver(),
		logger:   logging.NewLogger("pagination"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns one page of enriched pioneers. The result is never nil on
// success; an empty slice means there are no more pioneers.
//
// Cancellation of ctx is not propagated: once started, a load runs to
// completion so that the page can still be cached.
func (l *Loader) Load(ctx context.Context, params Params) ([]pioneer.EnrichedPioneer, error) {
	ctx = context.WithoutCancel(ctx)

	if params.LastID != nil {
		return l.loadAfter(ctx, *params.LastID)
	}
	return l.loadPage(ctx, params.PageNumber())
}

func (l *Loader) loadPage(ctx context.Context, page int) ([]pioneer.EnrichedPioneer, error) {
	key := cache.PageKey(page)

	if l.cache != nil {
		items, err := l.cache.Get(ctx, key)
		if err == nil {
			l.observer.CacheHit(key.String(), len(items))
			return items, nil
		}
		if errors.Is(err, cache.ErrCacheMiss) {
			err = nil
		}
		l.observer.CacheMiss(key.String(), err)
	}

	query := pioneer.PageQuery{
		Offset: (page - 1) * l.config.PageSize,
		Limit:  l.config.PageSize,
	}
	rows, err := l.store.ListPage(ctx, query)
	if err != nil {
		l.observer.StoreFailed(query, err)
		return nil, &LoadError{Page: page, Err: err}
	}
	if len(rows) == 0 {
		return []pioneer.EnrichedPioneer{}, nil
	}

	items := l.enrich(ctx, rows)

	if l.cache != nil {
		if err := l.cache.Set(ctx, key, items, l.config.CacheTTL); err != nil {
			l.observer.CacheWriteFailed(key.String(), err)
		}
	}
	return items, nil
}

// loadAfter serves a "load more" request. Cursor pages are never cached.
func (l *Loader) loadAfter(ctx context.Context, lastID int64) ([]pioneer.EnrichedPioneer, error) {
	query := pioneer.PageQuery{
		AfterID: &lastID,
		Limit:   l.config.PageSize,
	}
	rows, err := l.store.ListPage(ctx, query)
	if err != nil {
		l.observer.StoreFailed(query, err)
		return nil, &LoadError{LastID: &lastID, Err: err}
	}
	if len(rows) == 0 {
		return []pioneer.EnrichedPioneer{}, nil
	}
	return l.enrich(ctx, rows), nil
}

func (l *Loader) enrich(ctx context.Context, rows []pioneer.Pioneer) []pioneer.EnrichedPioneer {
	start := time.Now()
	items := enrichAll(ctx, l.enricher, rows, l.config.MaxConcurrency, l.logger)
	l.observer.EnrichmentCompleted(len(rows), len(items), time.Since(start))
	return items
}
