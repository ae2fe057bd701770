package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Pipeline  PipelineConfig
	Reports   ReportsConfig
	Logging   LoggingConfig
	Metrics   MetricsConfig
	Admin     AdminConfig
	Redis     RedisConfig
	Notify    NotifyConfig
	Providers ProvidersConfig
}

type ServerConfig struct {
	Host                    string
	Port                    int
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	IdleTimeout             time.Duration
	GracefulShutdownTimeout time.Duration
	RequestsPerMinute       int
	AllowedOrigins          []string
}

type DatabaseConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	AutoMigrate     bool
}

// PipelineConfig controls feed polling, fetching and caching.
type PipelineConfig struct {
	PollInterval       time.Duration
	FetchTimeout       time.Duration
	MaxItems           int
	Concurrency        int
	RateLimit          float64
	CacheTTL           time.Duration
	CacheSweepInterval time.Duration
	RetryAttempts      int
	RetryDelay         time.Duration
	SummaryWindow      int
}

// ReportsConfig controls user-submitted reports.
type ReportsConfig struct {
	Retention       time.Duration
	RateWindow      time.Duration
	RecentWindow    time.Duration
	CleanupInterval time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string // json or text
}

type MetricsConfig struct {
	Enabled bool
	Port    int
	Path    string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type AdminConfig struct {
	AdminSecret string
}

// NotifyConfig configures status-change notifications.
type NotifyConfig struct {
	SlackWebhookURL string
	SlackChannel    string
}

// ProvidersConfig points at an optional provider catalog file.
type ProvidersConfig struct {
	CatalogPath string
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:                    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:                    getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:             getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:            getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:             getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			GracefulShutdownTimeout: getEnvDuration("SERVER_GRACEFUL_SHUTDOWN_TIMEOUT", 30*time.Second),
			RequestsPerMinute:       getEnvInt("SERVER_REQUESTS_PER_MINUTE", 120),
			AllowedOrigins:          getEnvList("SERVER_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvDuration("DB_MAX_CONN_LIFETIME", 1*time.Hour),
			MaxConnIdleTime: getEnvDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Pipeline: PipelineConfig{
			PollInterval:       getEnvDuration("PIPELINE_POLL_INTERVAL", 2*time.Minute),
			FetchTimeout:       getEnvDuration("PIPELINE_FETCH_TIMEOUT", 10*time.Second),
			MaxItems:           getEnvInt("PIPELINE_MAX_ITEMS", 20),
			Concurrency:        getEnvInt("PIPELINE_CONCURRENCY", 8),
			RateLimit:          getEnvFloat("PIPELINE_RATE_LIMIT", 10.0),
			CacheTTL:           getEnvDuration("PIPELINE_CACHE_TTL", 60*time.Second),
			CacheSweepInterval: getEnvDuration("PIPELINE_CACHE_SWEEP_INTERVAL", 5*time.Minute),
			RetryAttempts:      getEnvInt("PIPELINE_RETRY_ATTEMPTS", 2),
			RetryDelay:         getEnvDuration("PIPELINE_RETRY_DELAY", 5*time.Second),
			SummaryWindow:      getEnvInt("PIPELINE_SUMMARY_WINDOW", 5),
		},
		Reports: ReportsConfig{
			Retention:       getEnvDuration("REPORTS_RETENTION", 8*24*time.Hour),
			RateWindow:      getEnvDuration("REPORTS_RATE_WINDOW", time.Hour),
			RecentWindow:    getEnvDuration("REPORTS_RECENT_WINDOW", 24*time.Hour),
			CleanupInterval: getEnvDuration("REPORTS_CLEANUP_INTERVAL", 6*time.Hour),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Port:    getEnvInt("METRICS_PORT", 9090),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Admin: AdminConfig{
			AdminSecret: getEnv("ADMIN_SECRET", ""),
		},
		Notify: NotifyConfig{
			SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
			SlackChannel:    getEnv("SLACK_CHANNEL", ""),
		},
		Providers: ProvidersConfig{
			CatalogPath: getEnv("PROVIDERS_CATALOG", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}
	if c.Pipeline.Concurrency < 1 {
		return fmt.Errorf("pipeline concurrency must be at least 1")
	}
	if c.Pipeline.MaxItems < 1 {
		return fmt.Errorf("pipeline max items must be at least 1")
	}
	if c.Pipeline.FetchTimeout <= 0 {
		return fmt.Errorf("pipeline fetch timeout must be positive")
	}
	if c.Pipeline.SummaryWindow < 1 {
		return fmt.Errorf("pipeline summary window must be at least 1")
	}
	if c.Reports.Retention <= 0 {
		return fmt.Errorf("reports retention must be positive")
	}
	if c.Reports.RateWindow <= 0 {
		return fmt.Errorf("reports rate window must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
