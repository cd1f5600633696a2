// Package enrich turns stored pioneers into enriched pioneers using an
// encyclopedia article and its linked knowledge-base entity.
package enrich

import "context"

// Knowledge-base properties resolved into labels.
const (
	// PropertyFieldOfWork is the Wikidata "field of work" property.
	PropertyFieldOfWork = "P101"

	// PropertyNotableWork is the Wikidata "notable work" property.
	PropertyNotableWork = "P800"
)

// Article is the encyclopedia entry found for a pioneer's name.
type Article struct {
	// Title is the canonical article title (after redirects)
	Title string

	// Extract is the plain-text introduction
	Extract string

	// EntityID is the linked knowledge-base identifier (e.g. "Q7259"); empty when unlinked
	EntityID string
}

// Claims maps a property id to the entity ids it references, in statement order.
type Claims map[string][]string

// EntityResolver is the external knowledge API the Enricher depends on.
// Implementations return an error for any lookup that did not produce a value.
type EntityResolver interface {
	// LookupArticle finds the article with the given title.
	LookupArticle(ctx context.Context, title string) (Article, error)

	// FetchClaims returns the entity-valued claims of an entity.
	FetchClaims(ctx context.Context, entityID string) (Claims, error)

	// FetchLabel returns the human-readable label of an entity.
	FetchLabel(ctx context.Context, entityID string) (string, error)

	// FetchImageURL resolves a media file name to its URL.
	FetchImageURL(ctx context.Context, fileName string) (string, error)
}
