// Package suggestion accepts visitor proposals for new pioneers.
package suggestion

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Sternrassler/pioneers/pkg/logging"
	"github.com/Sternrassler/pioneers/pkg/pioneer"
	"github.com/Sternrassler/pioneers/pkg/store"
	"github.com/rs/zerolog"
)

// Length limits of the submission form.
const (
	MaxMessageLength = 500
	MaxLinkLength    = 75
)

// Status messages returned to the submitter.
const (
	MessageSubmitted = "Suggestion submitted!"
	MessageDuplicate = "This pioneer has already been suggested."
	MessageInternal  = "Internal Server Error"
)

// Request is a suggestion as submitted by the form.
type Request struct {
	Message       string `json:"message" validate:"required,max=500"`
	WikipediaLink string `json:"wikipediaLink" validate:"omitempty,max=75,url"`
}

// Result is the outcome reported to the submitter. Status mirrors the HTTP
// status code.
type Result struct {
	Status        int    `json:"status"`
	StatusMessage string `json:"statusMessage"`
}

// Repository persists suggestions.
type Repository interface {
	CreateSuggestion(ctx context.Context, s pioneer.Suggestion) (pioneer.Suggestion, error)
}

// Service validates and records suggestions.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a suggestion service.
func NewService(repo Repository) *Service {
	if repo == nil {
		panic("suggestion repository cannot be nil")
	}
	return &Service{
		repo:   repo,
		logger: logging.NewLogger("suggestion"),
	}
}

// Submit validates req and stores it. It never returns an error; failures
// are expressed in the Result.
func (s *Service) Submit(ctx context.Context, req Request) Result {
	req.Message = strings.TrimSpace(req.Message)
	req.WikipediaLink = strings.TrimSpace(req.WikipediaLink)

	if err := validateRequest(req); err != nil {
		return Result{Status: http.StatusBadRequest, StatusMessage: err.Error()}
	}

	created, err := s.repo.CreateSuggestion(ctx, pioneer.Suggestion{
		Message:       req.Message,
		WikipediaLink: req.WikipediaLink,
	})
	switch {
	case errors.Is(err, store.ErrDuplicateSuggestion):
		s.logger.Info().Str("link", req.WikipediaLink).Msg("Duplicate suggestion rejected")
		return Result{Status: http.StatusConflict, StatusMessage: MessageDuplicate}
	case err != nil:
		s.logger.Error().Err(err).Msg("Failed to store suggestion")
		return Result{Status: http.StatusInternalServerError, StatusMessage: MessageInternal}
	}

	s.logger.Info().Int64("suggestion_id", created.ID).Msg("Suggestion stored")
	return Result{Status: http.StatusOK, StatusMessage: MessageSubmitted}
}
