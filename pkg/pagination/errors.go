package pagination

import (
	"errors"
	"fmt"
)

// ErrLoadFailed matches every error returned by Loader.Load.
var ErrLoadFailed = errors.New("failed to load pioneers")

// LoadError reports a page that could not be read from the store.
type LoadError struct {
	Page   int    // requested page, 0 in cursor mode
	LastID *int64 // cursor, nil in page mode
	Err    error
}

func (e *LoadError) Error() string {
	if e.LastID != nil {
		return fmt.Sprintf("%s after id %d: %v", ErrLoadFailed, *e.LastID, e.Err)
	}
	return fmt.Sprintf("%s (page %d): %v", ErrLoadFailed, e.Page, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrLoadFailed) succeed for any *LoadError.
func (e *LoadError) Is(target error) bool {
	return target == ErrLoadFailed
}
