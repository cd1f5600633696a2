package store

import (
	"time"

	"github.com/Sternrassler/pioneers/pkg/pioneer"
)

// pioneerRow is the persisted form of a pioneer. The (name, id) index backs
// both offset and cursor paging.
type pioneerRow struct {
	ID            int64  `gorm:"primaryKey;autoIncrement:false;index:idx_pioneers_name_id,priority:2"`
	Name          string `gorm:"size:255;not null;index:idx_pioneers_name_id,priority:1"`
	ImageFile     string `gorm:"size:255"`
	WikipediaLink string `gorm:"size:255"`
}

func (pioneerRow) TableName() string { return "pioneers" }

func (r pioneerRow) toPioneer() pioneer.Pioneer {
	return pioneer.Pioneer{
		ID:            r.ID,
		Name:          r.Name,
		ImageFile:     r.ImageFile,
		WikipediaLink: r.WikipediaLink,
	}
}

func fromPioneer(p pioneer.Pioneer) pioneerRow {
	return pioneerRow{
		ID:            p.ID,
		Name:          p.Name,
		ImageFile:     p.ImageFile,
		WikipediaLink: p.WikipediaLink,
	}
}

// suggestionRow stores an empty link as NULL so the unique index only
// applies to suggestions that carry a link.
type suggestionRow struct {
	ID            int64   `gorm:"primaryKey"`
	Message       string  `gorm:"size:500;not null"`
	WikipediaLink *string `gorm:"size:75;uniqueIndex:idx_suggestions_wikipedia_link"`
	CreatedAt     time.Time
}

func (suggestionRow) TableName() string { return "suggestions" }

func (r suggestionRow) toSuggestion() pioneer.Suggestion {
	s := pioneer.Suggestion{
		ID:        r.ID,
		Message:   r.Message,
		CreatedAt: r.CreatedAt,
	}
	if r.WikipediaLink != nil {
		s.WikipediaLink = *r.WikipediaLink
	}
	return s
}
