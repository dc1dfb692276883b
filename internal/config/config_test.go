package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes the working directory for the duration of the test,
// standing in for testing.T.Chdir on toolchains older than Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"SERVER_ADDR", "ENVIRONMENT", "LOG_FORMAT", "DB_DRIVER", "DB_DSN", "REDIS_URL", "ROUTING_MAX_RETRIES", "PLANNER_API_KEY", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, "text", cfg.Server.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.Routing.Timeout)
	assert.Equal(t, 2, cfg.Routing.MaxRetries)
	assert.Equal(t, 400*time.Millisecond, cfg.Routing.BaseDelay)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Empty(t, cfg.Cache.RedisURL)
	assert.False(t, cfg.PlannerEnabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("ROUTING_MAX_RETRIES", "5")
	t.Setenv("ROUTING_BASE_DELAY_MS", "not-a-number")
	t.Setenv("ROUTE_CACHE_TTL_MINUTES", "15")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("PLANNER_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Server.LogFormat)
	assert.Equal(t, 5, cfg.Routing.MaxRetries)
	assert.Equal(t, 400*time.Millisecond, cfg.Routing.BaseDelay, "invalid integers fall back to the default")
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.PlannerEnabled())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Routing:  RoutingConfig{Timeout: time.Second, MaxRetries: 2},
			Database: DatabaseConfig{Driver: "sqlite", DSN: "data.db"},
		}
	}

	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"pgx with file path", func(c *Config) { c.Database.Driver = "pgx" }},
		{"negative retries", func(c *Config) { c.Routing.MaxRetries = -1 }},
		{"zero timeout", func(c *Config) { c.Routing.Timeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := base()
	cfg.Database = DatabaseConfig{Driver: "pgx", DSN: "postgres://u:p@localhost:5432/trips"}
	assert.NoError(t, cfg.Validate())
}
