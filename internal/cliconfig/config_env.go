package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (TORRENTFLEET_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("data-dir", os.Getenv("TORRENTFLEET_DATA_DIR"), &cfg.DataDir)
	s.setString("directory", os.Getenv("TORRENTFLEET_DIRECTORY"), &cfg.DirectorySource)
	s.setString("directory-file", os.Getenv("TORRENTFLEET_DIRECTORY_FILE"), &cfg.DirectoryFile)
	s.setStringsFromString("redis-addr", os.Getenv("TORRENTFLEET_REDIS_ADDRS"), &cfg.RedisAddrs)
	s.setString("redis-password", os.Getenv("TORRENTFLEET_REDIS_PASSWORD"), &cfg.RedisPassword)
	s.setString("redis-prefix", os.Getenv("TORRENTFLEET_REDIS_PREFIX"), &cfg.RedisKeyPrefix)
	s.setString("catalog-db", os.Getenv("TORRENTFLEET_CATALOG_DB"), &cfg.CatalogDB)
	s.setString("event-log-db", os.Getenv("TORRENTFLEET_EVENT_LOG_DB"), &cfg.EventLogDB)
	s.setString("log-level", os.Getenv("TORRENTFLEET_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("output", os.Getenv("TORRENTFLEET_OUTPUT"), &cfg.Output)

	if err := s.setDuration("instance-timeout", os.Getenv("TORRENTFLEET_INSTANCE_TIMEOUT"), &cfg.InstanceTimeout); err != nil {
		return err
	}
	if err := s.setDuration("http-timeout", os.Getenv("TORRENTFLEET_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}

	if err := s.setIntFromString("max-concurrency", os.Getenv("TORRENTFLEET_MAX_CONCURRENCY"), &cfg.MaxConcurrency); err != nil {
		return err
	}
	if err := s.setIntFromString("recent-limit", os.Getenv("TORRENTFLEET_RECENT_LIMIT"), &cfg.RecentLimit); err != nil {
		return err
	}

	return nil
}
