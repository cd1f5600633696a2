// Package pioneer defines the records shared by the store, cache, enrichment
// and pagination layers.
package pioneer

import "time"

// PageSize is the number of pioneers per page.
const PageSize = 10

// DescriptionLimit is the number of characters kept from an article extract.
// The UI shows a "Read More" link for descriptions of exactly 250 characters,
// so the limit must not be lowered without changing that contract.
const DescriptionLimit = 251

// Pioneer is the relational record for a notable person.
type Pioneer struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ImageFile     string `json:"imageFile"`
	WikipediaLink string `json:"wikipediaLink"`
}

// EnrichedPioneer is a Pioneer combined with encyclopedia data.
// It is never persisted to the relational store.
type EnrichedPioneer struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	ImageURL      string   `json:"image_url"`
	FieldOfWork   []string `json:"fieldOfWork"`
	NotableWorks  []string `json:"notableWorks"`
	WikipediaLink string   `json:"wikipedia_link"`
}

// PageQuery addresses one page of pioneers in (name, id) order.
// AfterID selects cursor mode and takes precedence over Offset.
type PageQuery struct {
	Offset  int
	AfterID *int64
	Limit   int
}

// IsCursor reports whether the query seeks past a known row.
func (q PageQuery) IsCursor() bool {
	return q.AfterID != nil
}

// Suggestion is a visitor-submitted proposal for a new pioneer.
type Suggestion struct {
	ID            int64     `json:"id"`
	Message       string    `json:"message"`
	WikipediaLink string    `json:"wikipediaLink"`
	CreatedAt     time.Time `json:"createdAt"`
}
