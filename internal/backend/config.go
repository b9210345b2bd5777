package backend

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"golang.org/x/mod/semver"
)

// Config holds backend client configuration.
type Config struct {
	// BaseURL is the backend root, e.g. "http://localhost:8000".
	BaseURL string

	// Username identifies the learner to the backend.
	Username string

	// Timeout bounds a single request. Zero leaves requests bounded only by
	// the caller's context and the transport defaults.
	Timeout time.Duration

	// HealthTimeout bounds a liveness probe. Default: 5s.
	HealthTimeout time.Duration

	// HealthInterval is the re-probe interval while the backend is offline.
	// Default: 15s.
	HealthInterval time.Duration

	// MinBackendVersion, when set, is the oldest backend version (semver)
	// the client accepts.
	MinBackendVersion string

	Retry RetryConfig
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://localhost:8000",
		Username:       "student",
		HealthTimeout:  5 * time.Second,
		HealthInterval: 15 * time.Second,
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     5 * time.Second,
			Multiplier:  2.0,
		},
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset or unparsable values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if u := os.Getenv("WHISPER_API_URL"); u != "" {
		cfg.BaseURL = u
	}
	if u := os.Getenv("WHISPER_USER"); u != "" {
		cfg.Username = u
	}
	if d, err := time.ParseDuration(os.Getenv("WHISPER_TIMEOUT")); err == nil {
		cfg.Timeout = d
	}
	if d, err := time.ParseDuration(os.Getenv("WHISPER_HEALTH_INTERVAL")); err == nil && d > 0 {
		cfg.HealthInterval = d
	}
	if v := os.Getenv("WHISPER_MIN_BACKEND_VERSION"); v != "" {
		cfg.MinBackendVersion = v
	}
	if n, err := strconv.Atoi(os.Getenv("WHISPER_RETRY_ATTEMPTS")); err == nil && n > 0 {
		cfg.Retry.MaxAttempts = n
	}

	return cfg
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("WHISPER_API_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("WHISPER_API_URL must be an http(s) URL, got %q", c.BaseURL)
	}
	if c.Username == "" {
		return fmt.Errorf("WHISPER_USER is required")
	}
	if c.MinBackendVersion != "" && !semver.IsValid(canonicalVersion(c.MinBackendVersion)) {
		return fmt.Errorf("WHISPER_MIN_BACKEND_VERSION %q is not a semantic version", c.MinBackendVersion)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1")
	}
	return nil
}

// canonicalVersion adds the "v" prefix semver expects.
func canonicalVersion(v string) string {
	if v == "" || v[0] == 'v' {
		return v
	}
	return "v" + v
}
