// Package config loads runtime configuration from an optional config.yaml and
// PIONEERS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Sternrassler/pioneers/pkg/cache"
	"github.com/Sternrassler/pioneers/pkg/client"
	"github.com/Sternrassler/pioneers/pkg/logging"
	"github.com/Sternrassler/pioneers/pkg/pagination"
	"github.com/Sternrassler/pioneers/pkg/pioneer"
	"github.com/Sternrassler/pioneers/pkg/store"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// PIONEERS_REDIS_ADDRESS for redis.address.
const EnvPrefix = "PIONEERS"

// Config represents the runtime configuration of the pioneers server.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Wiki       WikiConfig       `mapstructure:"wiki"`
	Pagination PaginationConfig `mapstructure:"pagination"`
	Seed       SeedConfig       `mapstructure:"seed"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	LogLevel        string        `mapstructure:"log_level"`
	LogPretty       bool          `mapstructure:"log_pretty"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig describes connection options for the relational store.
type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	Path     string         `mapstructure:"path"`
	DSN      string         `mapstructure:"dsn"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds host based PostgreSQL parameters.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig holds Redis connection options. A disabled cache sends every
// page request to the store.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WikiConfig configures the Wikipedia and Wikidata client.
type WikiConfig struct {
	UserAgent    string        `mapstructure:"user_agent"`
	WikipediaURL string        `mapstructure:"wikipedia_url"`
	WikidataURL  string        `mapstructure:"wikidata_url"`
	Language     string        `mapstructure:"language"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

// PaginationConfig configures the page loader.
type PaginationConfig struct {
	PageSize       int           `mapstructure:"page_size"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
}

// SeedConfig points at an optional JSON file of pioneers loaded at startup.
type SeedConfig struct {
	File string `mapstructure:"file"`
}

// Load reads configuration from config.yaml in ./config, the working
// directory or any of paths, then applies environment overrides. A missing
// file is not an error.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_pretty", false)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/pioneers.sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "pioneers")
	v.SetDefault("database.postgres.username", "")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.sslmode", "disable")

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("wiki.user_agent", "pioneers/1.0 (https://github.com/Sternrassler/pioneers)")
	v.SetDefault("wiki.wikipedia_url", "https://en.wikipedia.org/w/api.php")
	v.SetDefault("wiki.wikidata_url", "https://www.wikidata.org/w/api.php")
	v.SetDefault("wiki.language", "en")
	v.SetDefault("wiki.timeout", "15s")
	v.SetDefault("wiki.max_retries", 3)

	v.SetDefault("pagination.page_size", pioneer.PageSize)
	v.SetDefault("pagination.cache_ttl", cache.DefaultTTL.String())
	v.SetDefault("pagination.max_concurrency", 0)

	v.SetDefault("seed.file", "")
}

// Validate checks values that have no usable fallback.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be between 1 and 65535 (got %d)", c.Server.Port)
	}

	if _, err := logging.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("config: server.log_level: %w", err)
	}

	switch strings.ToLower(c.Database.Driver) {
	case "sqlite":
	case "postgres", "postgresql":
		if c.Database.DSN == "" && (c.Database.Postgres.Username == "" || c.Database.Postgres.Database == "") {
			return errors.New("config: database.postgres.username and database.postgres.database are required when database.dsn is empty")
		}
	default:
		return fmt.Errorf("config: unsupported database.driver %q", c.Database.Driver)
	}

	if c.Redis.Enabled && strings.TrimSpace(c.Redis.Address) == "" {
		return errors.New("config: redis.address is required when redis is enabled")
	}

	if strings.TrimSpace(c.Wiki.UserAgent) == "" {
		return errors.New("config: wiki.user_agent is required")
	}
	for key, raw := range map[string]string{"wiki.wikipedia_url": c.Wiki.WikipediaURL, "wiki.wikidata_url": c.Wiki.WikidataURL} {
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() {
			return fmt.Errorf("config: %s must be an absolute URL (got %q)", key, raw)
		}
	}

	if c.Pagination.PageSize <= 0 {
		return fmt.Errorf("config: pagination.page_size must be positive (got %d)", c.Pagination.PageSize)
	}
	if c.Pagination.CacheTTL <= 0 {
		return fmt.Errorf("config: pagination.cache_ttl must be positive (got %s)", c.Pagination.CacheTTL)
	}
	return nil
}

// StoreConfig adapts the database settings for store.Open.
func (c *Config) StoreConfig() store.Config {
	cfg := store.Config{
		Driver: c.Database.Driver,
		Path:   c.Database.Path,
		DSN:    c.Database.DSN,
	}
	if d := strings.ToLower(c.Database.Driver); d == "postgres" || d == "postgresql" {
		pg := c.Database.Postgres
		cfg.Host = pg.Host
		cfg.Port = pg.Port
		cfg.User = pg.Username
		cfg.Password = pg.Password
		cfg.Name = pg.Database
		if pg.SSLMode != "" {
			cfg.Options = map[string]string{"sslmode": pg.SSLMode}
		}
	}
	return cfg
}

// ClientConfig adapts the wiki settings for client.New.
func (c *Config) ClientConfig() client.Config {
	cfg := client.DefaultConfig(c.Wiki.UserAgent)
	cfg.WikipediaURL = c.Wiki.WikipediaURL
	cfg.WikidataURL = c.Wiki.WikidataURL
	cfg.Language = c.Wiki.Language
	cfg.Timeout = c.Wiki.Timeout
	cfg.MaxRetries = c.Wiki.MaxRetries
	return cfg
}

// LoaderConfig adapts the pagination settings for pagination.NewLoader.
func (c *Config) LoaderConfig() pagination.Config {
	return pagination.Config{
		PageSize:       c.Pagination.PageSize,
		CacheTTL:       c.Pagination.CacheTTL,
		MaxConcurrency: c.Pagination.MaxConcurrency,
	}
}

// LoggingConfig adapts the server log settings for logging.Setup.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level, _ = logging.ParseLevel(c.Server.LogLevel)
	cfg.Service = "pioneers"
	cfg.Pretty = c.Server.LogPretty
	return cfg
}
