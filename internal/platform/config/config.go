package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	errInvalidPort           = errors.New("config: invalid PORT number")
	errConcurrencyOutOfRange = errors.New("config: MAX_CONCURRENT_ANALYSES must be 1-100")
	errCacheSizeOutOfRange   = errors.New("config: CACHE_MAX_ENTRIES must be positive")
	errTimeoutOutOfRange     = errors.New("config: timeouts must be positive")
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port     string
	LogLevel string

	// CacheTTL bounds how long a completed report is served from cache.
	CacheTTL        time.Duration
	CacheMaxEntries int

	// JobTTL bounds how long terminal job records stay queryable before they
	// are pruned from memory.
	JobTTL time.Duration

	// MaxConcurrentAnalyses caps overview fetch+analyze pipelines running at
	// once. Requests beyond the cap are rejected, not queued.
	MaxConcurrentAnalyses int

	// FetchTimeout applies per resource (page, robots.txt, sitemap, llms.txt).
	FetchTimeout time.Duration

	// InsightTimeout applies to external AI-generation calls, which depend on
	// third-party latency and need a generous budget.
	InsightTimeout time.Duration

	OpenAIAPIKey string
	OpenAIModel  string
}

// Load reads configuration from the environment with sensible defaults.
// A .env file in the working directory is honored when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		LogLevel:              getEnv("LOG_LEVEL", "INFO"),
		CacheTTL:              getEnvAsDuration("CACHE_TTL", time.Hour),
		CacheMaxEntries:       getEnvAsInt("CACHE_MAX_ENTRIES", 1024),
		JobTTL:                getEnvAsDuration("JOB_TTL", 24*time.Hour),
		MaxConcurrentAnalyses: getEnvAsInt("MAX_CONCURRENT_ANALYSES", 5),
		FetchTimeout:          getEnvAsDuration("FETCH_TIMEOUT", 12*time.Second),
		InsightTimeout:        getEnvAsDuration("INSIGHT_TIMEOUT", 90*time.Second),
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", errInvalidPort, c.Port)
	}

	if c.MaxConcurrentAnalyses < 1 || c.MaxConcurrentAnalyses > 100 {
		return fmt.Errorf("%w: got %d", errConcurrencyOutOfRange, c.MaxConcurrentAnalyses)
	}

	if c.CacheMaxEntries < 1 {
		return fmt.Errorf("%w: got %d", errCacheSizeOutOfRange, c.CacheMaxEntries)
	}

	if c.FetchTimeout <= 0 || c.InsightTimeout <= 0 || c.CacheTTL <= 0 || c.JobTTL <= 0 {
		return errTimeoutOutOfRange
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	// Accept either a Go duration ("90s") or a bare number of seconds.
	if v, err := time.ParseDuration(s); err == nil {
		return v
	}
	if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
