package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Directory sources.
const (
	DirectoryFromFile  = "file"
	DirectoryFromRedis = "redis"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// DefaultRedisKeyPrefix is the key namespace of the Redis directory.
const DefaultRedisKeyPrefix = "torrentfleet"

// Config holds CLI configuration for torrentfleet.
type Config struct {
	DataDir string

	DirectorySource string
	DirectoryFile   string
	RedisAddrs      []string
	RedisPassword   string
	RedisKeyPrefix  string

	CatalogDB  string
	EventLogDB string

	InstanceTimeout time.Duration
	HTTPTimeout     time.Duration
	MaxConcurrency  int
	RecentLimit     int

	LogLevel string
	Output   string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		DataDir:         DefaultDataDir(),
		DirectorySource: DirectoryFromFile,
		RedisKeyPrefix:  DefaultRedisKeyPrefix,
		InstanceTimeout: 10 * time.Second,
		HTTPTimeout:     15 * time.Second,
		MaxConcurrency:  8,
		RecentLimit:     40,
		LogLevel:        "info",
		Output:          OutputTable,
		RedisPassword:   os.Getenv("TORRENTFLEET_REDIS_PASSWORD"),
	}
}

// DefaultDataDir returns ~/.torrentfleet, or "" when the home directory is
// unknown.
func DefaultDataDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".torrentfleet")
	}
	return ""
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.DataDir == "" && (c.DirectoryFile == "" || c.CatalogDB == "" || c.EventLogDB == "") {
		return fmt.Errorf("data-dir is required unless directory-file, catalog-db and event-log-db are all set")
	}
	if c.DirectoryFile == "" {
		c.DirectoryFile = filepath.Join(c.DataDir, "directory.toml")
	}
	if c.CatalogDB == "" {
		c.CatalogDB = filepath.Join(c.DataDir, "catalog.db")
	}
	if c.EventLogDB == "" {
		c.EventLogDB = filepath.Join(c.DataDir, "events.db")
	}

	switch c.DirectorySource {
	case DirectoryFromFile:
	case DirectoryFromRedis:
		if len(c.RedisAddrs) == 0 {
			return fmt.Errorf("redis-addr is required for the redis directory")
		}
		if c.RedisKeyPrefix == "" {
			c.RedisKeyPrefix = DefaultRedisKeyPrefix
		}
	default:
		return fmt.Errorf("unknown directory source %q (want %s or %s)", c.DirectorySource, DirectoryFromFile, DirectoryFromRedis)
	}

	if c.InstanceTimeout <= 0 {
		return fmt.Errorf("instance timeout must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max concurrency must be positive")
	}
	if c.RecentLimit <= 0 {
		return fmt.Errorf("recent limit must be positive")
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	if c.Output != OutputTable && c.Output != OutputJSON {
		return fmt.Errorf("unknown output format %q (want %s or %s)", c.Output, OutputTable, OutputJSON)
	}

	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a list value if not empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setStringsFromString splits a comma-separated list and sets the destination.
// Used for environment variables that come as strings.
func (s *configSetter) setStringsFromString(flag, value string, dst *[]string) {
	s.setStrings(flag, splitList(value), dst)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
