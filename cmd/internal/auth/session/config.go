package session

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config defines runtime configuration for the session registry.
type Config struct {
	// TTL is how long a session stays valid after issue. Whole seconds only.
	TTL time.Duration

	// ClockSkew is how far in the future an issue time may lie before the
	// session is treated as invalid (wall clock stepped backwards).
	ClockSkew time.Duration

	// TokenLength is the number of alphanumeric characters per token.
	TokenLength int

	// CleanupInterval is the janitor period.
	CleanupInterval time.Duration
}

const (
	minTokenLength = 32
	maxTokenLength = 128
)

// DefaultConfig returns the defaults: one hour sessions, 32-character tokens.
func DefaultConfig() Config {
	return Config{
		TTL:             time.Hour,
		ClockSkew:       30 * time.Second,
		TokenLength:     32,
		CleanupInterval: time.Minute,
	}
}

// Validate reports ErrConfig (wrapped with the offending field) for unusable values.
func (c Config) Validate() error {
	switch {
	case c.TTL < time.Second || c.TTL%time.Second != 0:
		return fmt.Errorf("%w: ttl must be a positive whole number of seconds", ErrConfig)
	case c.ClockSkew < 0:
		return fmt.Errorf("%w: clock skew must not be negative", ErrConfig)
	case c.TokenLength < minTokenLength || c.TokenLength > maxTokenLength:
		return fmt.Errorf("%w: token length must be in [%d..%d]", ErrConfig, minTokenLength, maxTokenLength)
	case c.CleanupInterval <= 0:
		return fmt.Errorf("%w: cleanup interval must be positive", ErrConfig)
	}
	return nil
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Optional (durations must be valid Go duration strings):
//   - GATEHOUSE_SESSION_TTL
//   - GATEHOUSE_SESSION_CLOCK_SKEW
//   - GATEHOUSE_SESSION_TOKEN_LENGTH
//   - GATEHOUSE_SESSION_CLEANUP_INTERVAL
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("GATEHOUSE_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: GATEHOUSE_SESSION_TTL: %v", ErrConfig, err)
		}
		cfg.TTL = d
	}

	if v := os.Getenv("GATEHOUSE_SESSION_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: GATEHOUSE_SESSION_CLOCK_SKEW: %v", ErrConfig, err)
		}
		cfg.ClockSkew = d
	}

	if v := os.Getenv("GATEHOUSE_SESSION_TOKEN_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: GATEHOUSE_SESSION_TOKEN_LENGTH: %v", ErrConfig, err)
		}
		cfg.TokenLength = n
	}

	if v := os.Getenv("GATEHOUSE_SESSION_CLEANUP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: GATEHOUSE_SESSION_CLEANUP_INTERVAL: %v", ErrConfig, err)
		}
		cfg.CleanupInterval = d
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
