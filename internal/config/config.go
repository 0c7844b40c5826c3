package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config validation errors
var (
	// ErrMissingGraphQLURL is returned when GraphQLURL is empty
	ErrMissingGraphQLURL = errors.New("GraphQLURL is required")
	// ErrInvalidGraphQLURL is returned when GraphQLURL is not an absolute http(s) URL
	ErrInvalidGraphQLURL = errors.New("GraphQLURL must be an absolute http(s) URL")
	// ErrShortSessionSecret is returned when SessionSecret is under 32 bytes
	ErrShortSessionSecret = errors.New("SessionSecret must be at least 32 bytes")
	// ErrInvalidSessionTTL is returned when SessionTTL is not positive
	ErrInvalidSessionTTL = errors.New("SessionTTL must be positive")
	// ErrInvalidMaxSessions is returned when MaxSessions is not positive
	ErrInvalidMaxSessions = errors.New("MaxSessions must be positive")
	// ErrInvalidCacheEntries is returned when CacheEntries is not positive
	ErrInvalidCacheEntries = errors.New("CacheEntries must be positive")
	// ErrInvalidRequestTimeout is returned when RequestTimeout is not positive
	ErrInvalidRequestTimeout = errors.New("RequestTimeout must be positive")
	// ErrInvalidRetryMax is returned when RetryMax is negative
	ErrInvalidRetryMax = errors.New("RetryMax cannot be negative")
	// ErrInvalidRateLimit is returned when RateLimit or RateWindow is not positive
	ErrInvalidRateLimit = errors.New("RateLimit and RateWindow must be positive")
)

// Config holds the server configuration
type Config struct {
	// GraphQLURL is the upstream API every mutation and query goes to
	GraphQLURL string `env:"FEEDSYNC_GRAPHQL_URL"`

	// SessionSecret signs the session cookie
	SessionSecret string `env:"FEEDSYNC_SESSION_SECRET"`

	// DatabaseURL enables the Postgres analytics sink when set
	DatabaseURL string `env:"FEEDSYNC_DATABASE_URL"`

	// SecureCookies marks the session cookie HTTPS-only
	SecureCookies bool `env:"FEEDSYNC_SECURE_COOKIES" envDefault:"true"`

	LogLevel string `env:"FEEDSYNC_LOG_LEVEL" envDefault:"info"`

	// FeatureFlags lists enabled flags; a leading "-" disables a flag that
	// is on by default
	FeatureFlags []string `env:"FEEDSYNC_FEATURE_FLAGS" envSeparator:","`

	Port int `env:"FEEDSYNC_PORT" envDefault:"8080"`

	// SessionTTL is how long an idle session keeps its cache
	SessionTTL time.Duration `env:"FEEDSYNC_SESSION_TTL" envDefault:"30m"`

	MaxSessions int `env:"FEEDSYNC_MAX_SESSIONS" envDefault:"10000"`

	// CacheEntries bounds each session's cache
	CacheEntries int `env:"FEEDSYNC_CACHE_ENTRIES" envDefault:"2048"`

	RequestTimeout time.Duration `env:"FEEDSYNC_REQUEST_TIMEOUT" envDefault:"10s"`

	RetryMax int `env:"FEEDSYNC_RETRY_MAX" envDefault:"3"`

	// RateLimit requests per RateWindow per session
	RateLimit  int           `env:"FEEDSYNC_RATE_LIMIT" envDefault:"120"`
	RateWindow time.Duration `env:"FEEDSYNC_RATE_WINDOW" envDefault:"1m"`
}

// DefaultConfig returns a Config with sensible default values.
// GraphQLURL and SessionSecret have no default.
func DefaultConfig() Config {
	return Config{
		LogLevel:       "info",
		SecureCookies:  true,
		Port:           8080,
		SessionTTL:     30 * time.Minute,
		MaxSessions:    10000,
		CacheEntries:   2048,
		RequestTimeout: 10 * time.Second,
		RetryMax:       3,
		RateLimit:      120,
		RateWindow:     time.Minute,
	}
}

// Load reads the configuration from the environment and validates it
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values
func (c Config) Validate() error {
	if c.GraphQLURL == "" {
		return ErrMissingGraphQLURL
	}
	u, err := url.Parse(c.GraphQLURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: got %q", ErrInvalidGraphQLURL, c.GraphQLURL)
	}
	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("%w: got %d", ErrShortSessionSecret, len(c.SessionSecret))
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidSessionTTL, c.SessionTTL)
	}
	if c.MaxSessions <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxSessions, c.MaxSessions)
	}
	if c.CacheEntries <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidCacheEntries, c.CacheEntries)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidRequestTimeout, c.RequestTimeout)
	}
	if c.RetryMax < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidRetryMax, c.RetryMax)
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		return fmt.Errorf("%w: got %d per %v", ErrInvalidRateLimit, c.RateLimit, c.RateWindow)
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
