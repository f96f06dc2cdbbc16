package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	DataDir         string   `toml:"data_dir"`
	DirectorySource string   `toml:"directory_source"`
	DirectoryFile   string   `toml:"directory_file"`
	RedisAddrs      []string `toml:"redis_addrs"`
	RedisPassword   string   `toml:"redis_password"`
	RedisKeyPrefix  string   `toml:"redis_key_prefix"`
	CatalogDB       string   `toml:"catalog_db"`
	EventLogDB      string   `toml:"event_log_db"`
	InstanceTimeout string   `toml:"instance_timeout"`
	HTTPTimeout     string   `toml:"http_timeout"`
	MaxConcurrency  int      `toml:"max_concurrency"`
	RecentLimit     int      `toml:"recent_limit"`
	LogLevel        string   `toml:"log_level"`
	Output          string   `toml:"output"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.torrentfleet/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".torrentfleet", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("data-dir", fc.DataDir, &cfg.DataDir)
	s.setString("directory", fc.DirectorySource, &cfg.DirectorySource)
	s.setString("directory-file", fc.DirectoryFile, &cfg.DirectoryFile)
	s.setStrings("redis-addr", fc.RedisAddrs, &cfg.RedisAddrs)
	s.setString("redis-password", fc.RedisPassword, &cfg.RedisPassword)
	s.setString("redis-prefix", fc.RedisKeyPrefix, &cfg.RedisKeyPrefix)
	s.setString("catalog-db", fc.CatalogDB, &cfg.CatalogDB)
	s.setString("event-log-db", fc.EventLogDB, &cfg.EventLogDB)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("output", fc.Output, &cfg.Output)

	if err := s.setDuration("instance-timeout", fc.InstanceTimeout, &cfg.InstanceTimeout); err != nil {
		return err
	}
	if err := s.setDuration("http-timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setInt("max-concurrency", fc.MaxConcurrency, &cfg.MaxConcurrency)
	s.setInt("recent-limit", fc.RecentLimit, &cfg.RecentLimit)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
