// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// scraper targets, data directories, and retrieval settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Department source URLs. The pipeline scrapes these sequentially.
const (
	DefaultDMBaseURL = "https://web.dm.uba.ar/"
	DefaultDCBaseURL = "https://www.dc.uba.ar/"
	DefaultICBaseURL = "https://ic.fcen.uba.ar/"
	DefaultLCDURL    = "https://lcd.exactas.uba.ar/materias-obligatorias/"
)

// Config holds all application configuration
type Config struct {
	// Embeddings Configuration
	GeminiAPIKey string // Gemini API key for embedding generation (empty = BM25-only retrieval)

	// Logging
	LogLevel string

	// Data Configuration
	DataDir  string        // Data directory for SQLite cache, snapshots and the vector store
	CacheTTL time.Duration // Absolute expiration for cached course records (default: 7 days)

	// Scraper Configuration
	ScraperTimeout    time.Duration
	ScraperMaxRetries int
	ScraperMinDelay   time.Duration // Minimum delay between requests to the same site
	ScraperMaxDelay   time.Duration // Maximum delay between requests to the same site
	ScraperBaseURLs   map[string]string
	DCScheduleURL     string // Full DC announcement post URL; empty = derived from base URL and period

	// Academic period being scraped
	Year     int // e.g. 2025
	Semester int // cuatrimestre: 1 or 2

	// Retrieval Configuration
	SearchTopK int     // Default number of results per query
	BM25Weight float64 // BM25 weight in RRF fusion (vector weight is the complement)

	// Discovery Configuration
	DiscoveryMaxPages int // Page budget for the site discovery crawler
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataDir:  getEnv("DATA_DIR", "./data"),
		CacheTTL: getDurationEnv("CACHE_TTL", 168*time.Hour), // 7 days

		ScraperTimeout:    getDurationEnv("SCRAPER_TIMEOUT", 30*time.Second),
		ScraperMaxRetries: getIntEnv("SCRAPER_MAX_RETRIES", 5),
		ScraperMinDelay:   getDurationEnv("SCRAPER_MIN_DELAY", 1*time.Second),
		ScraperMaxDelay:   getDurationEnv("SCRAPER_MAX_DELAY", 3*time.Second),
		ScraperBaseURLs: map[string]string{
			"dm":  getEnv("DM_BASE_URL", DefaultDMBaseURL),
			"dc":  getEnv("DC_BASE_URL", DefaultDCBaseURL),
			"ic":  getEnv("IC_BASE_URL", DefaultICBaseURL),
			"lcd": getEnv("LCD_MATERIAS_URL", DefaultLCDURL),
		},
		DCScheduleURL: getEnv("DC_SCHEDULE_URL", ""),

		Year:     getIntEnv("ACADEMIC_YEAR", 2025),
		Semester: getIntEnv("ACADEMIC_SEMESTER", 2),

		SearchTopK: getIntEnv("SEARCH_TOP_K", 3),
		BM25Weight: getFloatEnv("BM25_WEIGHT", 0.4),

		DiscoveryMaxPages: getIntEnv("DISCOVERY_MAX_PAGES", 50),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR is required"))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("CACHE_TTL must be positive, got %v", c.CacheTTL))
	}
	if c.ScraperTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SCRAPER_TIMEOUT must be positive, got %v", c.ScraperTimeout))
	}
	if c.ScraperMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("SCRAPER_MAX_RETRIES cannot be negative, got %d", c.ScraperMaxRetries))
	}
	if c.ScraperMinDelay > c.ScraperMaxDelay {
		errs = append(errs, fmt.Errorf("SCRAPER_MIN_DELAY (%v) exceeds SCRAPER_MAX_DELAY (%v)", c.ScraperMinDelay, c.ScraperMaxDelay))
	}
	if c.Semester != 1 && c.Semester != 2 {
		errs = append(errs, fmt.Errorf("ACADEMIC_SEMESTER must be 1 or 2, got %d", c.Semester))
	}
	if c.SearchTopK <= 0 {
		errs = append(errs, fmt.Errorf("SEARCH_TOP_K must be positive, got %d", c.SearchTopK))
	}
	if c.BM25Weight < 0 || c.BM25Weight > 1 {
		errs = append(errs, fmt.Errorf("BM25_WEIGHT must be in [0,1], got %v", c.BM25Weight))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// CatalogPath returns the full path to the authoritative course list file
func (c *Config) CatalogPath() string {
	return filepath.Join(c.DataDir, "materias.json")
}

// PeriodCode returns the period label used in record IDs and snapshots, e.g. "2C 2025"
func (c *Config) PeriodCode() string {
	return fmt.Sprintf("%dC %d", c.Semester, c.Year)
}

// HasEmbeddings returns true if an embeddings provider is configured.
func (c *Config) HasEmbeddings() bool {
	return c.GeminiAPIKey != ""
}
