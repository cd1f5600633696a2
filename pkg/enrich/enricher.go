package enrich

import (
	"context"
	"sync"
	"time"

	"github.com/Sternrassler/pioneers/pkg/pioneer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for enrichment.
var (
	enrichmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pioneers_enrichments_total",
		Help: "Total pioneer enrichments by outcome",
	}, []string{"outcome"}) // "ok", "no_article", "no_entity", "claims_failed"

	enrichmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pioneers_enrichment_duration_seconds",
		Help:    "Duration of a single pioneer enrichment",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	droppedLabelsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pioneers_enrichment_dropped_labels_total",
		Help: "Total referenced entities whose label could not be resolved, by property",
	}, []string{"property"})
)

// Enricher builds EnrichedPioneer records from an EntityResolver.
// It is safe for concurrent use; each call shares no mutable state.
type Enricher struct {
	resolver EntityResolver
	logger   zerolog.Logger
}

// New creates an Enricher.
func New(resolver EntityResolver) *Enricher {
	if resolver == nil {
		panic("entity resolver cannot be nil")
	}
	return &Enricher{
		resolver: resolver,
		logger:   log.With().Str("component", "enricher").Logger(),
	}
}

// Enrich returns the enriched record for p, or nil when the pioneer cannot be
// enriched. It never fails: every resolver error is logged and converted to
// either nil (article, entity or claims unavailable) or a dropped field value
// (labels, image).
func (e *Enricher) Enrich(ctx context.Context, p pioneer.Pioneer) *pioneer.EnrichedPioneer {
	start := time.Now()
	defer func() {
		enrichmentDuration.Observe(time.Since(start).Seconds())
	}()

	logger := e.logger.With().Int64("pioneer_id", p.ID).Str("name", p.Name).Logger()

	article, err := e.resolver.LookupArticle(ctx, p.Name)
	if err != nil {
		logger.Warn().Err(err).Msg("Article lookup failed")
		enrichmentsTotal.WithLabelValues("no_article").Inc()
		return nil
	}
	if article.EntityID == "" {
		logger.Warn().Msg("Article has no linked entity")
		enrichmentsTotal.WithLabelValues("no_entity").Inc()
		return nil
	}

	claims, err := e.resolver.FetchClaims(ctx, article.EntityID)
	if err != nil {
		logger.Warn().Err(err).Str("entity_id", article.EntityID).Msg("Claims fetch failed")
		enrichmentsTotal.WithLabelValues("claims_failed").Inc()
		return nil
	}

	var (
		wg           sync.WaitGroup
		fieldOfWork  []string
		notableWorks []string
		imageURL     string
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		fieldOfWork = e.resolveLabels(ctx, logger, PropertyFieldOfWork, claims[PropertyFieldOfWork])
	}()
	go func() {
		defer wg.Done()
		notableWorks = e.resolveLabels(ctx, logger, PropertyNotableWork, claims[PropertyNotableWork])
	}()
	go func() {
		defer wg.Done()
		imageURL = e.resolveImage(ctx, logger, p.ImageFile)
	}()
	wg.Wait()

	name := article.Title
	if name == "" {
		name = p.Name
	}

	enrichmentsTotal.WithLabelValues("ok").Inc()
	logger.Debug().
		Int("field_of_work", len(fieldOfWork)).
		Int("notable_works", len(notableWorks)).
		Dur("duration", time.Since(start)).
		Msg("Pioneer enriched")

	return &pioneer.EnrichedPioneer{
		ID:            p.ID,
		Name:          name,
		Description:   Truncate(article.Extract, pioneer.DescriptionLimit),
		ImageURL:      imageURL,
		FieldOfWork:   fieldOfWork,
		NotableWorks:  notableWorks,
		WikipediaLink: p.WikipediaLink,
	}
}

// resolveLabels dereferences ids concurrently and returns the labels that
// resolved, in the order of ids. The result is never nil.
func (e *Enricher) resolveLabels(ctx context.Context, logger zerolog.Logger, property string, ids []string) []string {
	labels := make([]string, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			label, err := e.resolver.FetchLabel(ctx, id)
			if err != nil {
				logger.Debug().Err(err).Str("property", property).Str("entity_id", id).Msg("Label dropped")
				droppedLabelsTotal.WithLabelValues(property).Inc()
				return
			}
			labels[i] = label
		}(i, id)
	}
	wg.Wait()

	out := make([]string, 0, len(labels))
	for _, label := range labels {
		if label != "" {
			out = append(out, label)
		}
	}
	return out
}

func (e *Enricher) resolveImage(ctx context.Context, logger zerolog.Logger, fileName string) string {
	if fileName == "" {
		return ""
	}
	url, err := e.resolver.FetchImageURL(ctx, fileName)
	if err != nil {
		logger.Debug().Err(err).Str("file", fileName).Msg("Image URL unavailable")
		return ""
	}
	return url
}

// Truncate returns the first limit characters of s.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
