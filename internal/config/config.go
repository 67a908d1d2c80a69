package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/storewatch/storewatch/pkg/models"
)

// Config holds all configuration for the storewatch server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Reports  ReportsConfig
}

type ServerConfig struct {
	Port              int
	Env               string
	RequestsPerMinute int
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// ReportsConfig controls report generation.
//
// AssumedPriorStatus is the state attributed to a window when no event exists
// before its start. The observed deployments disagreed on this (one assumed
// always-active, one assumed inactive); inactive is the default here because
// "no observation" should not count as uptime.
type ReportsConfig struct {
	Workers            int
	QueueCapacity      int
	DefaultTimezone    string
	AssumedPriorStatus string
}

// Load reads configuration from the environment (and an optional .env file)
// and returns a validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:              envInt("STOREWATCH_PORT", 8080),
			Env:               envString("STOREWATCH_ENV", "development"),
			RequestsPerMinute: envInt("STOREWATCH_REQUESTS_PER_MINUTE", 60),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Reports: ReportsConfig{
			Workers:            envInt("STOREWATCH_REPORT_WORKERS", 4),
			QueueCapacity:      envInt("STOREWATCH_REPORT_QUEUE_CAPACITY", 64),
			DefaultTimezone:    envString("STOREWATCH_DEFAULT_TIMEZONE", "America/Chicago"),
			AssumedPriorStatus: envString("STOREWATCH_ASSUMED_PRIOR_STATUS", models.StatusInactive),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Reports.Workers <= 0 {
		return fmt.Errorf("STOREWATCH_REPORT_WORKERS must be positive, got %d", c.Reports.Workers)
	}
	if c.Reports.QueueCapacity <= 0 {
		return fmt.Errorf("STOREWATCH_REPORT_QUEUE_CAPACITY must be positive, got %d", c.Reports.QueueCapacity)
	}

	if s := c.Reports.AssumedPriorStatus; s != models.StatusActive && s != models.StatusInactive {
		return fmt.Errorf("STOREWATCH_ASSUMED_PRIOR_STATUS must be active or inactive, got %q", s)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
