package store

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrStoreFailure wraps every query or connection failure.
	ErrStoreFailure = errors.New("store failure")

	// ErrDuplicateSuggestion is returned when a suggestion link already exists.
	ErrDuplicateSuggestion = errors.New("suggestion already exists")
)

// isUniqueConstraintError detects uniqueness violations for SQLite and PostgreSQL.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") ||
		strings.Contains(lower, "duplicate key")
}
