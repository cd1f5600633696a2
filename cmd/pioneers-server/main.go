package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/pioneers/internal/config"
	"github.com/Sternrassler/pioneers/internal/server"
	"github.com/Sternrassler/pioneers/pkg/cache"
	"github.com/Sternrassler/pioneers/pkg/client"
	"github.com/Sternrassler/pioneers/pkg/enrich"
	"github.com/Sternrassler/pioneers/pkg/logging"
	"github.com/Sternrassler/pioneers/pkg/pagination"
	"github.com/Sternrassler/pioneers/pkg/store"
	"github.com/Sternrassler/pioneers/pkg/suggestion"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.LoggingConfig())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// app holds the adapters created once at startup.
type app struct {
	server  *server.Server
	store   *store.Store
	redis   *redis.Client
	wiki    *client.Client
	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	checks := map[string]server.Pinger{}

	db, err := store.Open(cfg.StoreConfig())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.store = store.New(db)
	a.closers = append(a.closers, a.store.Close)
	checks["database"] = a.store

	if err := a.store.AutoMigrate(); err != nil {
		_ = a.close()
		return nil, err
	}

	if cfg.Seed.File != "" {
		pioneers, err := store.LoadSeedFile(cfg.Seed.File)
		if err != nil {
			_ = a.close()
			return nil, err
		}
		if err := a.store.AddPioneers(ctx, pioneers); err != nil {
			_ = a.close()
			return nil, fmt.Errorf("seed pioneers: %w", err)
		}
		log.Info().Int("pioneers", len(pioneers)).Str("file", cfg.Seed.File).Msg("Seeded pioneers")
	}

	var pageCache pagination.PageCache
	if cfg.Redis.Enabled {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, a.redis.Close)

		manager := cache.NewManager(a.redis)
		if err := manager.Ping(ctx); err != nil {
			// Pages are served from the store until Redis comes up.
			log.Warn().Err(err).Str("address", cfg.Redis.Address).Msg("Redis unreachable at startup")
		} else {
			log.Info().Str("address", cfg.Redis.Address).Msg("Connected to Redis")
		}
		pageCache = manager
		checks["redis"] = manager
	} else {
		log.Info().Msg("Redis disabled, page cache off")
	}

	a.wiki, err = client.New(cfg.ClientConfig())
	if err != nil {
		_ = a.close()
		return nil, fmt.Errorf("create wiki client: %w", err)
	}
	a.closers = append(a.closers, a.wiki.Close)

	loader := pagination.NewLoader(a.store, enrich.New(a.wiki), pageCache, cfg.LoaderConfig())

	a.server = server.New(fmt.Sprintf(":%d", cfg.Server.Port), server.Deps{
		Loader:      loader,
		Suggestions: suggestion.NewService(a.store),
		Checks:      checks,
	})
	return a, nil
}

// close releases adapters in reverse order of creation.
func (a *app) close() error {
	var errs error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	a.closers = nil
	return errs
}

// run serves until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			log.Warn().Err(err).Msg("Error while closing adapters")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
