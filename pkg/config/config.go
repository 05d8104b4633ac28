package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the service.
// ⭐ SSOT: every environment variable is read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External data sources
	Yahoo YahooConfig
	EDGAR EDGARConfig

	// Event-study tuning
	Study StudyConfig

	// Scheduler
	Watchlist []string // symbols refreshed by the nightly job
	Benchmark string   // default benchmark symbol

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

// RedisConfig holds Redis configuration for the provider-response cache and
// the per-provider rate limiter.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// YahooConfig holds the price/earnings chart API configuration.
type YahooConfig struct {
	BaseURL        string
	RequestsPerSec float64
}

// EDGARConfig holds the SEC data API configuration. The SEC requires a
// descriptive User-Agent with a contact address.
type EDGARConfig struct {
	BaseURL        string
	UserAgent      string
	RequestsPerSec float64
}

// StudyConfig holds the event-study tuning knobs. The reference thresholds
// vary by deployment mode, so none of these are hard-coded in the algorithms.
type StudyConfig struct {
	EPSThreshold           float64
	RevThreshold           float64
	ProximityToleranceDays int
	FactToleranceDays      int
	FactRelaxedDays        int
	EstimationDays         int
	MinEstimationObs       int
	AllowVendorEPS         bool
}

// Load reads configuration from environment variables.
// ⭐ SSOT: this is the only function that calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8094"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		Yahoo: YahooConfig{
			BaseURL:        getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			RequestsPerSec: getEnvAsFloat("YAHOO_RPS", 2),
		},

		EDGAR: EDGARConfig{
			BaseURL:        getEnv("EDGAR_BASE_URL", "https://data.sec.gov"),
			UserAgent:      getEnv("EDGAR_USER_AGENT", ""),
			RequestsPerSec: getEnvAsFloat("EDGAR_RPS", 5),
		},

		Study: StudyConfig{
			EPSThreshold:           getEnvAsFloat("STUDY_EPS_THRESHOLD", 0.15),
			RevThreshold:           getEnvAsFloat("STUDY_REV_THRESHOLD", 0.15),
			ProximityToleranceDays: getEnvAsInt("STUDY_PROXIMITY_TOLERANCE_DAYS", 60),
			FactToleranceDays:      getEnvAsInt("STUDY_FACT_TOLERANCE_DAYS", 120),
			FactRelaxedDays:        getEnvAsInt("STUDY_FACT_RELAXED_DAYS", 180),
			EstimationDays:         getEnvAsInt("STUDY_ESTIMATION_DAYS", 252),
			MinEstimationObs:       getEnvAsInt("STUDY_MIN_ESTIMATION_OBS", 20),
			AllowVendorEPS:         getEnvAsBool("STUDY_ALLOW_VENDOR_EPS", false),
		},

		Watchlist: getEnvAsList("WATCHLIST", nil),
		Benchmark: getEnv("BENCHMARK", "SPY"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// validate checks required configuration values.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}
	if c.Study.EPSThreshold < 0 || c.Study.RevThreshold < 0 {
		return fmt.Errorf("study thresholds must be non-negative")
	}
	if c.Study.FactRelaxedDays < c.Study.FactToleranceDays {
		return fmt.Errorf("STUDY_FACT_RELAXED_DAYS must be >= STUDY_FACT_TOLERANCE_DAYS")
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

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}
