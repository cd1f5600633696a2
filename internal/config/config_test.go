package config

import (
	"testing"
	"time"

	"github.com/Sternrassler/pioneers/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, "https://en.wikipedia.org/w/api.php", cfg.Wiki.WikipediaURL)
	assert.Equal(t, 15*time.Second, cfg.Wiki.Timeout)
	assert.Equal(t, 10, cfg.Pagination.PageSize)
	assert.Equal(t, 300*time.Second, cfg.Pagination.CacheTTL)
	assert.Equal(t, 0, cfg.Pagination.MaxConcurrency)
	assert.Empty(t, cfg.Seed.File)
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := Load("testdata")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.True(t, cfg.Server.LogPretty)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	assert.Equal(t, 6543, cfg.Database.Postgres.Port)

	assert.Equal(t, "redis.example.com:6380", cfg.Redis.Address)
	assert.Equal(t, 2, cfg.Redis.DB)

	assert.Equal(t, "pioneers-test/0.1", cfg.Wiki.UserAgent)
	assert.Equal(t, "de", cfg.Wiki.Language)
	assert.Equal(t, 5*time.Second, cfg.Wiki.Timeout)
	assert.Equal(t, 5, cfg.Wiki.MaxRetries)

	assert.Equal(t, 20, cfg.Pagination.PageSize)
	assert.Equal(t, 2*time.Minute, cfg.Pagination.CacheTTL)
	assert.Equal(t, 4, cfg.Pagination.MaxConcurrency)
	assert.Equal(t, "./seed/pioneers.json", cfg.Seed.File)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PIONEERS_SERVER_PORT", "7070")
	t.Setenv("PIONEERS_REDIS_ENABLED", "false")
	t.Setenv("PIONEERS_PAGINATION_CACHE_TTL", "30s")
	t.Setenv("PIONEERS_DATABASE_PATH", ":memory:")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Pagination.CacheTTL)
	assert.Equal(t, ":memory:", cfg.Database.Path)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "log level", env: map[string]string{"PIONEERS_SERVER_LOG_LEVEL": "verbose"}, want: "server.log_level"},
		{name: "port", env: map[string]string{"PIONEERS_SERVER_PORT": "0"}, want: "server.port"},
		{name: "driver", env: map[string]string{"PIONEERS_DATABASE_DRIVER": "oracle"}, want: "database.driver"},
		{name: "postgres credentials", env: map[string]string{"PIONEERS_DATABASE_DRIVER": "postgres"}, want: "database.postgres.username"},
		{name: "redis address", env: map[string]string{"PIONEERS_REDIS_ADDRESS": " "}, want: "redis.address"},
		{name: "user agent", env: map[string]string{"PIONEERS_WIKI_USER_AGENT": " "}, want: "wiki.user_agent"},
		{name: "wiki url", env: map[string]string{"PIONEERS_WIKI_WIKIDATA_URL": "not a url"}, want: "wiki.wikidata_url"},
		{name: "page size", env: map[string]string{"PIONEERS_PAGINATION_PAGE_SIZE": "0"}, want: "pagination.page_size"},
		{name: "cache ttl", env: map[string]string{"PIONEERS_PAGINATION_CACHE_TTL": "0s"}, want: "pagination.cache_ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(t.TempDir())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAdapters(t *testing.T) {
	cfg, err := Load("testdata")
	require.NoError(t, err)

	sc := cfg.StoreConfig()
	assert.Equal(t, "postgres", sc.Driver)
	assert.Equal(t, "db.example.com", sc.Host)
	assert.Equal(t, 6543, sc.Port)
	assert.Equal(t, "pioneers", sc.User)
	assert.Equal(t, "pioneers_test", sc.Name)
	assert.Equal(t, map[string]string{"sslmode": "require"}, sc.Options)

	cc := cfg.ClientConfig()
	assert.Equal(t, "pioneers-test/0.1", cc.UserAgent)
	assert.Equal(t, "de", cc.Language)
	assert.Equal(t, 5*time.Second, cc.Timeout)
	assert.Equal(t, 5, cc.MaxRetries)

	lc := cfg.LoaderConfig()
	assert.Equal(t, 20, lc.PageSize)
	assert.Equal(t, 2*time.Minute, lc.CacheTTL)
	assert.Equal(t, 4, lc.MaxConcurrency)

	logCfg := cfg.LoggingConfig()
	assert.Equal(t, logging.LevelDebug, logCfg.Level)
	assert.True(t, logCfg.Pretty)
}
