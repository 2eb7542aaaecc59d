package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Queue     QueueConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// StorageConfig holds object store settings for signed URL issuing
type StorageConfig struct {
	DefaultBucket     string
	DefaultExpiration time.Duration
	MaxExpiration     time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// QueueConfig holds message queue settings
type QueueConfig struct {
	Type    string // "memory" for dev, "kafka" for production
	Brokers []string
	Topic   string
}

// RateLimitConfig holds API rate limiting settings
type RateLimitConfig struct {
	Enabled     bool
	GlobalLimit int64
	ClientLimit int64
	WindowSec   int
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof bool
	PprofPort   int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "console"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvInt("DB_PORT", 5432),
			Database:    getEnv("DB_NAME", "assets"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			MaxConns:    getEnvInt("DB_MAX_CONNS", 20),
			MinConns:    getEnvInt("DB_MIN_CONNS", 2),
			MaxIdleTime: getEnvDuration("DB_MAX_IDLE_TIME", 5*time.Minute),
			MaxLifetime: getEnvDuration("DB_MAX_LIFETIME", time.Hour),
		},
		Storage: StorageConfig{
			DefaultBucket:     getEnv("STORAGE_DEFAULT_BUCKET", "ericborczuk"),
			DefaultExpiration: getEnvDuration("STORAGE_DEFAULT_EXPIRATION", time.Minute),
			MaxExpiration:     getEnvDuration("STORAGE_MAX_EXPIRATION", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Queue: QueueConfig{
			Type:    getEnv("QUEUE_TYPE", "memory"),
			Brokers: getEnvList("QUEUE_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("QUEUE_TOPIC", "asset-events"),
		},
		RateLimit: RateLimitConfig{
			Enabled:     getEnvBool("RATE_LIMIT_ENABLED", false),
			GlobalLimit: int64(getEnvInt("RATE_LIMIT_GLOBAL", 100)),
			ClientLimit: int64(getEnvInt("RATE_LIMIT_CLIENT", 30)),
			WindowSec:   getEnvInt("RATE_LIMIT_WINDOW_SEC", 60),
		},
		Telemetry: TelemetryConfig{
			EnablePprof: getEnvBool("ENABLE_PPROF", false),
			PprofPort:   getEnvInt("PPROF_PORT", 6060),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that configuration values are usable
func (c *Config) validate() error {
	if c.Storage.DefaultBucket == "" {
		return fmt.Errorf("STORAGE_DEFAULT_BUCKET must not be empty")
	}
	if c.Storage.DefaultExpiration <= 0 {
		return fmt.Errorf("STORAGE_DEFAULT_EXPIRATION must be positive")
	}
	if c.Storage.MaxExpiration < c.Storage.DefaultExpiration {
		return fmt.Errorf("STORAGE_MAX_EXPIRATION must be >= STORAGE_DEFAULT_EXPIRATION")
	}
	switch c.Queue.Type {
	case "memory", "kafka":
	default:
		return fmt.Errorf("unknown queue type: %s", c.Queue.Type)
	}
	return nil
}

// DatabaseURL builds a Postgres connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr builds the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// getEnv gets an environment variable or returns a default
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
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
