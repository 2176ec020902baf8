// Package config loads application configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	Environment string
	LogLevel    string
	LogFormat   string

	// HTTP API
	HTTPAddr string

	// Database. An empty DatabaseURL selects local SQLite.
	DatabaseURL    string
	DatabaseDriver string
	SQLitePath     string

	// Redis. Empty keeps the transition lock in-process.
	RedisURL string

	// RabbitMQ. Empty keeps event delivery in-process.
	RabbitMQURL string

	// Outbox
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxStatsInterval    time.Duration
	OutboxRetentionDays    int
	OutboxCleanupInterval  time.Duration
	OutboxProcessorEnabled bool

	// Worker
	WorkerHealthAddr string

	// Approvals
	ApproverRoles   []string
	RoleAssignments string

	// Actor is the identity recorded on CLI-driven changes.
	Actor string

	// Record lock
	RecordLockTTL time.Duration
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),

		HTTPAddr: getEnv("HTTP_ADDR", "0.0.0.0:8080"),

		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "auto"),
		SQLitePath:     getEnv("SQLITE_PATH", getDefaultSQLitePath()),

		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		OutboxPollInterval:     getDurationEnv("OUTBOX_POLL_INTERVAL", 100*time.Millisecond),
		OutboxBatchSize:        getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxStatsInterval:    getDurationEnv("OUTBOX_STATS_INTERVAL", 30*time.Second),
		OutboxRetentionDays:    getIntEnv("OUTBOX_RETENTION_DAYS", 14),
		OutboxCleanupInterval:  getDurationEnv("OUTBOX_CLEANUP_INTERVAL", 24*time.Hour),
		OutboxProcessorEnabled: getBoolEnv("OUTBOX_PROCESSOR_ENABLED", true),

		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),

		ApproverRoles:   getListEnv("QUALITY_APPROVER_ROLES", "quality_manager,admin"),
		RoleAssignments: getEnv("QUALITY_ROLE_ASSIGNMENTS", ""),

		Actor: getEnv("VERITRAIL_ACTOR", ""),

		RecordLockTTL: getDurationEnv("RECORD_LOCK_TTL", 30*time.Second),
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getListEnv(key, defaultValue string) []string {
	value := getEnv(key, defaultValue)
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func getDefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".veritrail/data.db"
	}
	return home + "/.veritrail/data.db"
}
