package pagination

import (
	"context"
	"sync"

	"github.com/Sternrassler/pioneers/pkg/pioneer"
	"github.com/rs/zerolog"
)

// enrichAll enriches every row concurrently and waits for all of them to
// settle. Rows that enrich to nil, or whose enrichment panics, are dropped;
// survivors keep the order of rows. maxConcurrency <= 0 starts one goroutine
// per row at once.
func enrichAll(ctx context.Context, enricher Enricher, rows []pioneer.Pioneer, maxConcurrency int, logger zerolog.Logger) []pioneer.EnrichedPioneer {
	results := make([]*pioneer.EnrichedPioneer, len(rows))

	var slots chan struct{}
	if maxConcurrency > 0 && maxConcurrency < len(rows) {
		slots = make(chan struct{}, maxConcurrency)
	}

	var wg sync.WaitGroup
	for i, row := range rows {
		wg.Add(1)
		go func(i int, row pioneer.Pioneer) {
			defer wg.Done()

			if slots != nil {
				slots <- struct{}{}
				defer func() { <-slots }()
			}

			defer func() {
				if r := recover(); r != nil {
					logger.Error().
						Interface("panic", r).
						Int64("pioneer_id", row.ID).
						Msg("Enrichment panicked, dropping pioneer")
				}
			}()

			results[i] = enricher.Enrich(ctx, row)
		}(i, row)
	}
	wg.Wait()

	out := make([]pioneer.EnrichedPioneer, 0, len(rows))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}
