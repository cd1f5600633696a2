// Package store is the relational adapter for pioneers and suggestions,
// backed by gorm over SQLite or PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/pioneers/pkg/logging"
	"github.com/Sternrassler/pioneers/pkg/pioneer"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store reads pioneer pages and records suggestions.
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// New wraps an open database handle.
func New(db *gorm.DB) *Store {
	if db == nil {
		panic("database handle cannot be nil")
	}
	return &Store{
		db:     db,
		logger: logging.NewLogger("store"),
	}
}

// AutoMigrate creates or updates the schema.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&pioneerRow{}, &suggestionRow{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", ErrStoreFailure, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ListPage returns at most q.Limit pioneers ordered by (name, id).
//
// In cursor mode the page starts strictly after the row whose id is
// *q.AfterID; an unknown id yields an empty page. Otherwise q.Offset rows
// are skipped.
func (s *Store) ListPage(ctx context.Context, q pioneer.PageQuery) ([]pioneer.Pioneer, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = pioneer.PageSize
	}

	tx := s.db.WithContext(ctx).
		Model(&pioneerRow{}).
		Order("name ASC").
		Order("id ASC").
		Limit(limit)

	if q.IsCursor() {
		var anchor pioneerRow
		err := s.db.WithContext(ctx).
			Select("id", "name").
			Where("id = ?", *q.AfterID).
			Take(&anchor).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Debug().Int64("last_id", *q.AfterID).Msg("Cursor row not found")
			return []pioneer.Pioneer{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: resolve cursor %d: %w", ErrStoreFailure, *q.AfterID, err)
		}
		tx = tx.Where("name > ? OR (name = ? AND id > ?)", anchor.Name, anchor.Name, anchor.ID)
	} else if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}

	var rows []pioneerRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: list pioneers: %w", ErrStoreFailure, err)
	}

	out := make([]pioneer.Pioneer, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toPioneer())
	}
	return out, nil
}

// AddPioneers inserts pioneers, replacing rows that share an id.
func (s *Store) AddPioneers(ctx context.Context, pioneers []pioneer.Pioneer) error {
	if len(pioneers) == 0 {
		return nil
	}

	rows := make([]pioneerRow, 0, len(pioneers))
	for _, p := range pioneers {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("pioneer %d: name must be non-empty", p.ID)
		}
		rows = append(rows, fromPioneer(p))
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("%w: add pioneers: %w", ErrStoreFailure, err)
	}
	return nil
}

// CreateSuggestion stores a suggestion and returns it with its id and
// creation time. A link that was already suggested yields
// ErrDuplicateSuggestion.
func (s *Store) CreateSuggestion(ctx context.Context, sg pioneer.Suggestion) (pioneer.Suggestion, error) {
	row := suggestionRow{Message: sg.Message}
	if link := strings.TrimSpace(sg.WikipediaLink); link != "" {
		row.WikipediaLink = &link
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueConstraintError(err) {
			return pioneer.Suggestion{}, ErrDuplicateSuggestion
		}
		return pioneer.Suggestion{}, fmt.Errorf("%w: create suggestion: %w", ErrStoreFailure, err)
	}
	return row.toSuggestion(), nil
}
