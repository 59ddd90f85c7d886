package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, BackendMemory, cfg.StorageBackend)
	require.Equal(t, time.Second, cfg.PollInterval)
	require.Equal(t, 30*time.Minute, cfg.CartIdleTTL)
	require.Equal(t, int64(1), cfg.DefaultCategory)
	require.Equal(t, "carrito", cfg.CartKey)
	require.Equal(t, []string{"*"}, cfg.CORSAllowOrigins)
	require.Empty(t, cfg.RabbitMQURL)
	require.False(t, cfg.IsProduction())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STOREFRONT_PORT", "9090")
	t.Setenv("STOREFRONT_POLL_INTERVAL", "250ms")
	t.Setenv("STOREFRONT_STORAGE_BACKEND", " Redis ")
	t.Setenv("STOREFRONT_CORS_ALLOW_ORIGINS", "http://a.example, ,http://b.example")
	t.Setenv("STOREFRONT_ENVIRONMENT", "production")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	require.Equal(t, BackendRedis, cfg.StorageBackend)
	require.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSAllowOrigins)
	require.True(t, cfg.IsProduction())
}

func TestLoadDotEnvDoesNotOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("STOREFRONT_CART_KEY=tienda\nSTOREFRONT_PORT=7000\n"), 0o600))
	t.Setenv("STOREFRONT_PORT", "9090")
	// godotenv sets variables directly; restore them after the test.
	t.Cleanup(func() { os.Unsetenv("STOREFRONT_CART_KEY") })

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "tienda", cfg.CartKey)
	require.Equal(t, "9090", cfg.Port)
}

func TestValidate(t *testing.T) {
	base := Config{StorageBackend: BackendMemory, PollInterval: time.Second, CatalogURL: "http://x/"}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.StorageBackend = "mongo" }},
		{"postgres without dsn", func(c *Config) { c.StorageBackend = BackendPostgres }},
		{"zero poll", func(c *Config) { c.PollInterval = 0 }},
		{"negative retries", func(c *Config) { c.UpstreamRetries = -1 }},
		{"no catalog url", func(c *Config) { c.CatalogURL = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			require.Error(t, c.Validate())
		})
	}
}
