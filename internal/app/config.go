package app

import (
	"fmt"
	"time"
)

// Default engine configuration values.
const (
	DefaultInstanceTimeout = 10 * time.Second
	DefaultMaxConcurrency  = 8
	DefaultRecentLimit     = 40
)

// Config controls fan-out and truncation behavior of the engine.
type Config struct {
	// InstanceTimeout bounds every individual call against an instance.
	// The refreshes issued by Downloading share one such budget per
	// instance, so an instance holds that listing for at most twice this.
	InstanceTimeout time.Duration

	// MaxConcurrency caps the number of instances queried at once
	MaxConcurrency int

	// RecentLimit is both the per-instance and the global cap of the
	// recently-completed listing
	RecentLimit int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		InstanceTimeout: DefaultInstanceTimeout,
		MaxConcurrency:  DefaultMaxConcurrency,
		RecentLimit:     DefaultRecentLimit,
	}
}

// SetDefaults fills zero fields with default values.
func (c *Config) SetDefaults() {
	if c.InstanceTimeout == 0 {
		c.InstanceTimeout = DefaultInstanceTimeout
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = DefaultMaxConcurrency
	}
	if c.RecentLimit == 0 {
		c.RecentLimit = DefaultRecentLimit
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.InstanceTimeout <= 0 {
		return fmt.Errorf("instance timeout must be positive")
	}
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max concurrency must be positive")
	}
	if c.RecentLimit <= 0 {
		return fmt.Errorf("recent limit must be positive")
	}
	return nil
}
