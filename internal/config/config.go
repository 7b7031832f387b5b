// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the databases (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	// Redis is optional. When set it backs the calculation cache and the
	// per-invoice lock so several instances can share one ledger.
	RedisAddr     string
	RedisPassword string

	OverdueSweepSchedule  string
	WALCheckpointSchedule string

	// Defaults for settings that were never stored.
	DefaultTaxRate string
	DefaultDueDays int

	Archive *ArchiveConfig
}

// ArchiveConfig holds the S3-compatible export archive configuration.
type ArchiveConfig struct {
	Bucket          string
	Endpoint        string // Empty for AWS; set for R2, MinIO and the like
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	Schedule        string
}

// Enabled reports whether exports should be archived.
func (a *ArchiveConfig) Enabled() bool {
	return a != nil && a.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("LEDGER_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:               absDataDir,
		Port:                  getEnvAsInt("LEDGER_PORT", 8010),
		DevMode:               getEnvAsBool("DEV_MODE", false),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		RedisAddr:             getEnv("REDIS_ADDR", ""),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		OverdueSweepSchedule:  getEnv("OVERDUE_SWEEP_SCHEDULE", "0 0 7 * * *"),
		WALCheckpointSchedule: getEnv("WAL_CHECKPOINT_SCHEDULE", "0 */30 * * * *"),
		DefaultTaxRate:        getEnv("DEFAULT_TAX_RATE", "0"),
		DefaultDueDays:        getEnvAsInt("DEFAULT_DUE_DAYS", 30),
		Archive:               loadArchiveConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks ranges and schedules.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("LEDGER_PORT %d out of range", c.Port)
	}

	rate, err := decimal.NewFromString(c.DefaultTaxRate)
	if err != nil {
		return fmt.Errorf("DEFAULT_TAX_RATE %q is not a number", c.DefaultTaxRate)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("DEFAULT_TAX_RATE %s must be a fraction between 0 and 1", rate)
	}

	if c.DefaultDueDays < 0 || c.DefaultDueDays > 365 {
		return fmt.Errorf("DEFAULT_DUE_DAYS %d must be between 0 and 365", c.DefaultDueDays)
	}

	schedules := map[string]string{
		"OVERDUE_SWEEP_SCHEDULE":  c.OverdueSweepSchedule,
		"WAL_CHECKPOINT_SCHEDULE": c.WALCheckpointSchedule,
	}
	if c.Archive.Enabled() {
		schedules["ARCHIVE_SCHEDULE"] = c.Archive.Schedule
		if (c.Archive.AccessKeyID == "") != (c.Archive.SecretAccessKey == "") {
			return fmt.Errorf("ARCHIVE_S3_ACCESS_KEY_ID and ARCHIVE_S3_SECRET_ACCESS_KEY must be set together")
		}
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range schedules {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s %q: %w", name, spec, err)
		}
	}

	return nil
}

// SettingsOverrides returns the environment defaults for runtime settings.
func (c *Config) SettingsOverrides() map[string]interface{} {
	return map[string]interface{}{
		"invoice_tax_rate": c.DefaultTaxRate,
		"default_due_days": c.DefaultDueDays,
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func loadArchiveConfig() *ArchiveConfig {
	return &ArchiveConfig{
		Bucket:          getEnv("ARCHIVE_S3_BUCKET", ""),
		Endpoint:        getEnv("ARCHIVE_S3_ENDPOINT", ""),
		Region:          getEnv("ARCHIVE_S3_REGION", "auto"),
		AccessKeyID:     getEnv("ARCHIVE_S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("ARCHIVE_S3_SECRET_ACCESS_KEY", ""),
		Prefix:          getEnv("ARCHIVE_S3_PREFIX", "dealerledger/"),
		Schedule:        getEnv("ARCHIVE_SCHEDULE", "0 0 2 * * *"),
	}
}
