package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every variable name: PORT is read from
// STOREFRONT_PORT.
const Prefix = "STOREFRONT"

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Upstream catalog API base URL; the product and roster endpoints hang off it.
	CatalogURL      string        `envconfig:"CATALOG_URL" default:"http://localhost/api/"`
	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s"`
	UpstreamRetries int           `envconfig:"UPSTREAM_RETRIES" default:"1"`
	DefaultCategory int64         `envconfig:"DEFAULT_CATEGORY" default:"1"`

	CORSAllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`

	CartKey         string        `envconfig:"CART_KEY" default:"carrito"`
	PollInterval    time.Duration `envconfig:"POLL_INTERVAL" default:"1s"`
	StreamKeepAlive time.Duration `envconfig:"STREAM_KEEPALIVE" default:"15s"`
	// Open carts unused this long are dropped from memory. Zero keeps them.
	CartIdleTTL time.Duration `envconfig:"CART_IDLE_TTL" default:"30m"`

	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"memory"`
	FileDir        string `envconfig:"FILE_DIR" default:"./data/carts"`
	SQLitePath     string `envconfig:"SQLITE_PATH" default:"./data/storefront.db"`
	RedisURL       string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	RedisPrefix    string `envconfig:"REDIS_PREFIX" default:"storefront"`
	DatabaseDSN    string `envconfig:"DATABASE_DSN"`
	RunMigrations  bool   `envconfig:"RUN_MIGRATIONS" default:"true"`

	// Empty disables cart events.
	RabbitMQURL string `envconfig:"RABBITMQ_URL"`
	InstanceID  string `envconfig:"INSTANCE_ID"`
}

// Load reads an optional .env file and then the environment. Variables
// already set in the environment win over .env entries.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	cfg.CORSAllowOrigins = splitCSV(cfg.CORSAllowOrigins)
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory, BackendFile, BackendSQLite, BackendRedis:
	case BackendPostgres:
		if c.DatabaseDSN == "" {
			return errors.New("STOREFRONT_DATABASE_DSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if c.UpstreamRetries < 0 {
		return errors.New("upstream retries must not be negative")
	}
	if c.CatalogURL == "" {
		return errors.New("STOREFRONT_CATALOG_URL is required")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func splitCSV(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
