package suggestion

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sternrassler/pioneers/pkg/pioneer"
	"github.com/Sternrassler/pioneers/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	err   error
	saved []pioneer.Suggestion
}

func (r *stubRepo) CreateSuggestion(_ context.Context, s pioneer.Suggestion) (pioneer.Suggestion, error) {
	if r.err != nil {
		return pioneer.Suggestion{}, r.err
	}
	s.ID = int64(len(r.saved) + 1)
	r.saved = append(r.saved, s)
	return s, nil
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name       string
		req        Request
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "valid with link",
			req:        Request{Message: "Add Grace Hopper", WikipediaLink: "https://en.wikipedia.org/wiki/Grace_Hopper"},
			wantStatus: http.StatusOK,
			wantMsg:    MessageSubmitted,
		},
		{
			name:       "valid without link",
			req:        Request{Message: "Add Grace Hopper"},
			wantStatus: http.StatusOK,
			wantMsg:    MessageSubmitted,
		},
		{
			name:       "message at limit",
			req:        Request{Message: strings.Repeat("m", MaxMessageLength)},
			wantStatus: http.StatusOK,
			wantMsg:    MessageSubmitted,
		},
		{
			name:       "missing message",
			req:        Request{Message: "   "},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "message is required",
		},
		{
			name:       "message too long",
			req:        Request{Message: strings.Repeat("m", MaxMessageLength+1)},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "message must be at most 500 characters",
		},
		{
			name:       "link too long",
			req:        Request{Message: "x", WikipediaLink: "https://en.wikipedia.org/wiki/" + strings.Repeat("a", 50)},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "wikipediaLink must be at most 75 characters",
		},
		{
			name:       "link not a url",
			req:        Request{Message: "x", WikipediaLink: "grace hopper"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "wikipediaLink must be a valid URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&stubRepo{})
			got := svc.Submit(context.Background(), tt.req)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Contains(t, got.StatusMessage, tt.wantMsg)
		})
	}
}

func TestSubmit_TrimsInput(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	got := svc.Submit(context.Background(), Request{Message: "  Add Linus  ", WikipediaLink: " https://en.wikipedia.org/wiki/Linus_Torvalds "})
	require.Equal(t, http.StatusOK, got.Status)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, "Add Linus", repo.saved[0].Message)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Linus_Torvalds", repo.saved[0].WikipediaLink)
}

func TestSubmit_RepositoryErrors(t *testing.T) {
	svc := NewService(&stubRepo{err: store.ErrDuplicateSuggestion})
	got := svc.Submit(context.Background(), Request{Message: "x", WikipediaLink: "https://en.wikipedia.org/wiki/X"})
	assert.Equal(t, Result{Status: http.StatusConflict, StatusMessage: MessageDuplicate}, got)

	svc = NewService(&stubRepo{err: errors.New("disk full")})
	got = svc.Submit(context.Background(), Request{Message: "x"})
	assert.Equal(t, Result{Status: http.StatusInternalServerError, StatusMessage: MessageInternal}, got)
}

func TestSubmit_WithStore(t *testing.T) {
	db, err := store.Open(store.Config{Path: filepath.Join(t.TempDir(), "suggestions.db")})
	require.NoError(t, err)
	st := store.New(db)
	require.NoError(t, st.AutoMigrate())
	t.Cleanup(func() { _ = st.Close() })

	svc := NewService(st)
	req := Request{Message: "Add Dennis Ritchie", WikipediaLink: "https://en.wikipedia.org/wiki/Dennis_Ritchie"}

	assert.Equal(t, http.StatusOK, svc.Submit(context.Background(), req).Status)
	assert.Equal(t, http.StatusConflict, svc.Submit(context.Background(), req).Status)
}

func TestNewService_NilRepository(t *testing.T) {
	assert.Panics(t, func() { NewService(nil) })
}
