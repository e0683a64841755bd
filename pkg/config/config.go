package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the ETRM back-office services.
type Config struct {
	Env string // development, staging, production

	// Database
	Database DatabaseConfig

	// Event bus
	NATS NATSConfig

	// Object store
	S3 S3Config

	// Importer worker
	Importer ImporterConfig

	// Position aggregation
	Aggregation AggregationConfig

	// Ops HTTP server; empty disables it
	OpsPort string

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// NATSConfig holds event bus configuration.
type NATSConfig struct {
	URL string
}

// S3Config holds object store configuration. Path-style addressing is assumed
// (MinIO-compatible endpoints).
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ImporterConfig controls synthetic trade and price generation cadence.
type ImporterConfig struct {
	// Interval between trade batches, drawn uniformly from [Min, Max) seconds.
	MinTradeIntervalSeconds int
	MaxTradeIntervalSeconds int

	// Trades per batch, drawn uniformly from [Min, Max] inclusive.
	MinTradesPerBatch int
	MaxTradesPerBatch int

	// Hour of day (UTC, 0-23) at which EOD prices are published, at most once
	// per calendar day.
	EodPricePublishHour int

	// When enabled, the trade interval is scaled by the multiplier during
	// business hours (08:00-17:00 UTC). A multiplier < 1 means more frequent
	// trading.
	UseBusinessHoursPattern          bool
	BusinessHoursFrequencyMultiplier float64
}

// AggregationConfig controls the position aggregation job.
type AggregationConfig struct {
	// Upper bound on the number of trades read per run, most recent first.
	MaxTrades int

	// Cron schedule used by the scheduler command.
	Schedule string
}

// Load reads configuration from environment variables, with .env support.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		NATS: NATSConfig{
			URL: getEnv("NATS_URL", "nats://localhost:4222"),
		},

		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("S3_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("S3_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("S3_BUCKET", "etrm-raw"),
			UseSSL:    getEnvAsBool("S3_USE_SSL", false),
		},

		Importer: ImporterConfig{
			MinTradeIntervalSeconds:          getEnvAsInt("IMPORTER_MIN_INTERVAL_SECONDS", 30),
			MaxTradeIntervalSeconds:          getEnvAsInt("IMPORTER_MAX_INTERVAL_SECONDS", 300),
			MinTradesPerBatch:                getEnvAsInt("IMPORTER_MIN_TRADES_PER_BATCH", 1),
			MaxTradesPerBatch:                getEnvAsInt("IMPORTER_MAX_TRADES_PER_BATCH", 10),
			EodPricePublishHour:              getEnvAsInt("IMPORTER_EOD_PUBLISH_HOUR", 16),
			UseBusinessHoursPattern:          getEnvAsBool("IMPORTER_BUSINESS_HOURS", true),
			BusinessHoursFrequencyMultiplier: getEnvAsFloat("IMPORTER_BUSINESS_HOURS_MULTIPLIER", 0.5),
		},

		Aggregation: AggregationConfig{
			MaxTrades: getEnvAsInt("AGGREGATION_MAX_TRADES", 1000),
			Schedule:  getEnv("AGGREGATION_SCHEDULE", "0 0 * * * *"),
		},

		OpsPort: getEnv("OPS_PORT", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are consistent.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	imp := c.Importer
	if imp.MinTradeIntervalSeconds <= 0 || imp.MaxTradeIntervalSeconds < imp.MinTradeIntervalSeconds {
		return fmt.Errorf("invalid trade interval range [%d, %d]",
			imp.MinTradeIntervalSeconds, imp.MaxTradeIntervalSeconds)
	}
	if imp.MinTradesPerBatch <= 0 || imp.MaxTradesPerBatch < imp.MinTradesPerBatch {
		return fmt.Errorf("invalid trades-per-batch range [%d, %d]",
			imp.MinTradesPerBatch, imp.MaxTradesPerBatch)
	}
	if imp.EodPricePublishHour < 0 || imp.EodPricePublishHour > 23 {
		return fmt.Errorf("IMPORTER_EOD_PUBLISH_HOUR must be 0-23, got %d", imp.EodPricePublishHour)
	}
	if imp.BusinessHoursFrequencyMultiplier <= 0 {
		return fmt.Errorf("IMPORTER_BUSINESS_HOURS_MULTIPLIER must be positive")
	}

	if c.Aggregation.MaxTrades <= 0 {
		return fmt.Errorf("AGGREGATION_MAX_TRADES must be positive")
	}

	return nil
}

// RequireDatabase returns an error unless a database URL is configured.
// Commands that touch the relational store call this; the importer does not
// need a database at all.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// loadEnvFile tries to load .env from a few likely locations.
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
