// Package server exposes the pioneers loader and suggestion service over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Sternrassler/pioneers/pkg/logging"
	"github.com/Sternrassler/pioneers/pkg/metrics"
	"github.com/Sternrassler/pioneers/pkg/pagination"
	"github.com/Sternrassler/pioneers/pkg/pioneer"
	"github.com/Sternrassler/pioneers/pkg/suggestion"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// PageLoader serves pages of enriched pioneers.
type PageLoader interface {
	Load(ctx context.Context, params pagination.Params) ([]pioneer.EnrichedPioneer, error)
}

// SuggestionSubmitter records visitor suggestions.
type SuggestionSubmitter interface {
	Submit(ctx context.Context, req suggestion.Request) suggestion.Result
}

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the HTTP layer depends on.
type Deps struct {
	Loader      PageLoader
	Suggestions SuggestionSubmitter
	// Checks are pinged by /ready, keyed by a short name such as "database".
	Checks map[string]Pinger
}

// Server is the pioneers HTTP server.
type Server struct {
	deps       Deps
	httpServer *http.Server
	logger     zerolog.Logger
}

// New creates a server listening on addr.
func New(addr string, deps Deps) *Server {
	if deps.Loader == nil || deps.Suggestions == nil {
		panic("server requires a loader and a suggestion service")
	}

	s := &Server{
		deps:   deps,
		logger: logging.NewLogger("server"),
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(accessLog(s.logger))
	r.Use(chiMiddleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/pioneers", s.handlePioneers)
		r.Post("/suggestion", s.handleSuggestion)
	})

	return r
}

// ListenAndServe blocks until the server stops. It returns nil after a
// graceful Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
