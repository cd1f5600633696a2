package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Sternrassler/pioneers/pkg/pagination"
	"github.com/Sternrassler/pioneers/pkg/suggestion"
)

// LoadFailedMessage is the only detail a client sees when a page cannot be
// loaded.
const LoadFailedMessage = "Failed to load pioneers. Please try again later."

const maxSuggestionBody = 16 << 10

type errorResponse struct {
	Error string `json:"error"`
}

// handlePioneers serves GET /api/pioneers?page=N&lastId=M.
func (s *Server) handlePioneers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var params pagination.Params
	if raw := strings.TrimSpace(query.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "page must be an integer"})
			return
		}
		params.Page = &page
	}
	if raw := strings.TrimSpace(query.Get("lastId")); raw != "" {
		lastID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "lastId must be an integer"})
			return
		}
		params.LastID = &lastID
	}

	items, err := s.deps.Loader.Load(r.Context(), params)
	if err != nil {
		if !errors.Is(err, pagination.ErrLoadFailed) {
			s.logger.Error().Err(err).Msg("Unexpected loader error")
		}
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: LoadFailedMessage})
		return
	}

	s.writeJSON(w, http.StatusOK, items)
}

// handleSuggestion serves POST /api/suggestion. The JSON body always
// carries the status and message shown to the submitter.
func (s *Server) handleSuggestion(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSuggestionBody)

	var req suggestion.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, suggestion.Result{
			Status:        http.StatusBadRequest,
			StatusMessage: "invalid JSON payload",
		})
		return
	}

	result := s.deps.Suggestions.Submit(r.Context(), req)
	s.writeJSON(w, result.Status, result)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to encode response")
	}
}
