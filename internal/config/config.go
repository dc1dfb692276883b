// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all configuration for the service
type Config struct {
	Server   ServerConfig
	Routing  RoutingConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Places   ProviderConfig
	Planner  ProviderConfig
	CORS     CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Addr        string
	Environment string // development, production
	LogLevel    string
	LogFormat   string // text or json
}

// RoutingConfig holds the route engine settings
type RoutingConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
}

// DatabaseConfig selects the store driver
type DatabaseConfig struct {
	Driver string // sqlite or pgx
	DSN    string
}

// CacheConfig holds route-result cache settings. An empty RedisURL keeps
// the cache in the database.
type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

// ProviderConfig holds an external API endpoint
type ProviderConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads .env when present and then the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, using environment variables")
	}

	env := getEnv("ENVIRONMENT", "development")
	defaultFormat := "text"
	if env == "production" {
		defaultFormat = "json"
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:        getEnv("SERVER_ADDR", "127.0.0.1:8080"),
			Environment: env,
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", defaultFormat),
		},
		Routing: RoutingConfig{
			BaseURL:    getEnv("OSRM_BASE_URL", "https://router.project-osrm.org"),
			Timeout:    time.Duration(getEnvAsInt("ROUTING_TIMEOUT_SECONDS", 30)) * time.Second,
			MaxRetries: getEnvAsInt("ROUTING_MAX_RETRIES", 2),
			BaseDelay:  time.Duration(getEnvAsInt("ROUTING_BASE_DELAY_MS", 400)) * time.Millisecond,
		},
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			DSN:    getEnv("DB_DSN", "~/.itinerary-router/data.db"),
		},
		Cache: CacheConfig{
			RedisURL: getEnv("REDIS_URL", ""),
			TTL:      time.Duration(getEnvAsInt("ROUTE_CACHE_TTL_MINUTES", 60)) * time.Minute,
		},
		Places: ProviderConfig{
			BaseURL: getEnv("PLACES_BASE_URL", "https://api.foursquare.com/v3"),
			APIKey:  getEnv("PLACES_API_KEY", ""),
			Timeout: time.Duration(getEnvAsInt("PLACES_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Planner: ProviderConfig{
			BaseURL: getEnv("PLANNER_BASE_URL", "https://api.openai.com/v1"),
			APIKey:  getEnv("PLANNER_API_KEY", ""),
			Model:   getEnv("PLANNER_MODEL", "gpt-4o-mini"),
			Timeout: time.Duration(getEnvAsInt("PLANNER_TIMEOUT_SECONDS", 45)) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("invalid DB_DRIVER %q (must be 'sqlite' or 'pgx')", c.Database.Driver)
	}
	if c.Database.Driver == "pgx" && !strings.Contains(c.Database.DSN, "://") && !strings.Contains(c.Database.DSN, "=") {
		return fmt.Errorf("DB_DSN must be a postgres connection string when DB_DRIVER is pgx")
	}
	if c.Routing.MaxRetries < 0 {
		return fmt.Errorf("ROUTING_MAX_RETRIES must not be negative")
	}
	if c.Routing.Timeout <= 0 {
		return fmt.Errorf("ROUTING_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

// PlannerEnabled reports whether a planner API key is configured
func (c *Config) PlannerEnabled() bool {
	return c.Planner.APIKey != ""
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logrus.Warnf("invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
