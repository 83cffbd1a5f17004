// Package config provides configuration management for the portfolio core.
//
// Configuration is loaded from environment variables (.env file supported)
// and can be refreshed later from the settings repository, which takes
// precedence over environment variables. This lets provider credentials and
// the base currency be managed through a settings UI instead of requiring
// process restarts.
//
// Loading order:
// 1. Load .env file (if present)
// 2. Read environment variables with defaults
// 3. Refresh from the settings repository (takes precedence)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// SettingsStore is the minimal settings-repository contract Config needs to
// refresh itself. A full implementation lives in internal/storage.
type SettingsStore interface {
	Get(key string) (string, bool, error)
}

// Config holds application configuration for the portfolio core service.
type Config struct {
	DataDir      string // base directory for the SQLite database files
	BaseCurrency string // the user's chosen base currency, e.g. "USD"
	Port         int    // HTTP server port
	LogLevel     string // debug, info, warn, error
	DevMode      bool

	// Provider credentials. An empty AlphaVantageAPIKey means cmd/server
	// leaves the AlphaVantage provider out of the registry rather than
	// treating it as an error; the other two keys are loaded but no
	// provider reads them.
	AlphaVantageAPIKey string
	OpenFIGIAPIKey     string
	ExchangeRateAPIKey string

	// Rate limiting defaults; providers may override individually.
	DefaultRateLimitPerMinute int
	DefaultRateLimitBurst     int

	// Circuit breaker defaults.
	CircuitBreakerFailureThreshold int
	CircuitBreakerCoolOff          time.Duration

	// Cloud backup (optional, R2/S3 upload).
	Backup BackupConfig
}

// BackupConfig configures the optional S3-compatible upload of local backups.
type BackupConfig struct {
	Enabled         bool
	Bucket          string
	Endpoint        string // non-empty for R2 / S3-compatible endpoints
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Load reads configuration from environment variables.
//
// dataDirOverride, if non-empty, takes priority over the
// PORTFOLIO_DATA_DIR environment variable and the built-in default.
func Load(dataDirOverride ...string) (*Config, error) {
	_ = godotenv.Load()

	var dataDir string
	if len(dataDirOverride) > 0 && dataDirOverride[0] != "" {
		dataDir = dataDirOverride[0]
	} else {
		dataDir = getEnv("PORTFOLIO_DATA_DIR", "")
		if dataDir == "" {
			dataDir = "./data"
		}
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:                        absDataDir,
		BaseCurrency:                   getEnv("PORTFOLIO_BASE_CURRENCY", "USD"),
		Port:                           getEnvAsInt("PORTFOLIO_PORT", 8080),
		LogLevel:                       getEnv("LOG_LEVEL", "info"),
		DevMode:                        getEnvAsBool("DEV_MODE", false),
		AlphaVantageAPIKey:             getEnv("ALPHAVANTAGE_API_KEY", ""),
		OpenFIGIAPIKey:                 getEnv("OPENFIGI_API_KEY", ""),
		ExchangeRateAPIKey:             getEnv("EXCHANGERATE_API_KEY", ""),
		DefaultRateLimitPerMinute:      getEnvAsInt("PORTFOLIO_RATE_LIMIT_RPM", 60),
		DefaultRateLimitBurst:          getEnvAsInt("PORTFOLIO_RATE_LIMIT_BURST", 10),
		CircuitBreakerFailureThreshold: getEnvAsInt("PORTFOLIO_CIRCUIT_FAILURE_THRESHOLD", 5),
		CircuitBreakerCoolOff:          time.Duration(getEnvAsInt("PORTFOLIO_CIRCUIT_COOLOFF_SECONDS", 60)) * time.Second,
		Backup: BackupConfig{
			Enabled:         getEnvAsBool("PORTFOLIO_BACKUP_ENABLED", false),
			Bucket:          getEnv("PORTFOLIO_BACKUP_BUCKET", ""),
			Endpoint:        getEnv("PORTFOLIO_BACKUP_ENDPOINT", ""),
			Region:          getEnv("PORTFOLIO_BACKUP_REGION", "auto"),
			AccessKeyID:     getEnv("PORTFOLIO_BACKUP_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("PORTFOLIO_BACKUP_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RefreshFromSettings overlays configuration values held in the settings
// repository on top of the environment-derived defaults. Settings values
// take precedence when present and non-empty.
func (c *Config) RefreshFromSettings(store SettingsStore) error {
	if store == nil {
		return nil
	}
	overlay := func(key string, dst *string) error {
		v, ok, err := store.Get(key)
		if err != nil {
			return fmt.Errorf("failed to read setting %q: %w", key, err)
		}
		if ok && v != "" {
			*dst = v
		}
		return nil
	}
	if err := overlay("base_currency", &c.BaseCurrency); err != nil {
		return err
	}
	if err := overlay("alphavantage_api_key", &c.AlphaVantageAPIKey); err != nil {
		return err
	}
	if err := overlay("openfigi_api_key", &c.OpenFIGIAPIKey); err != nil {
		return err
	}
	if err := overlay("exchangerate_api_key", &c.ExchangeRateAPIKey); err != nil {
		return err
	}
	return nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.BaseCurrency == "" {
		return fmt.Errorf("base currency must not be empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
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
