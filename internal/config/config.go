package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":8080"`

	// CORS — the playback UI is served from a different origin, so the
	// contributions endpoint answers with permissive headers by default.
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"*"`

	// Scrape
	ScrapeBaseURL    string        `envconfig:"SCRAPE_BASE_URL" default:"https://github.com"`
	ScrapeUserAgent  string        `envconfig:"SCRAPE_USER_AGENT" default:"githubtune/1.0 (+https://githubtune.com)"`
	ScrapeTimeout    time.Duration `envconfig:"SCRAPE_TIMEOUT" default:"15s"`
	ScrapeBatchSize  int           `envconfig:"SCRAPE_BATCH_SIZE" default:"5"`
	ScrapeBatchDelay time.Duration `envconfig:"SCRAPE_BATCH_DELAY" default:"50ms"`
	// ScrapeFloorYear bounds the history walk; GitHub launched in 2008.
	ScrapeFloorYear int `envconfig:"SCRAPE_FLOOR_YEAR" default:"2008"`
	// ScrapeKeepInactiveYears keeps zero-activity years in the walk instead
	// of treating them as the end of history. A user with a gap year would
	// otherwise have their older activity silently truncated.
	ScrapeKeepInactiveYears bool `envconfig:"SCRAPE_KEEP_INACTIVE_YEARS" default:"false"`

	// Response cache
	CacheSize int           `envconfig:"CACHE_SIZE" default:"256"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"10m"`
}

// Validate checks invariants that envconfig defaults alone cannot guarantee.
func (c *Config) Validate() error {
	if c.ScrapeBatchSize < 1 {
		return fmt.Errorf("SCRAPE_BATCH_SIZE must be >= 1, got %d", c.ScrapeBatchSize)
	}
	if c.ScrapeFloorYear < 2008 {
		return fmt.Errorf("SCRAPE_FLOOR_YEAR must be >= 2008, got %d", c.ScrapeFloorYear)
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("CACHE_SIZE must be >= 1, got %d", c.CacheSize)
	}
	return nil
}

// CacheEnabled returns true if the response cache should be used.
func (c *Config) CacheEnabled() bool {
	return c.CacheTTL > 0
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}
