package torrentfleet

import (
	"errors"
	"time"
)

// Directory sources.
const (
	DirectoryFile  = "file"
	DirectoryRedis = "redis"
)

// Config configures a Fleet.
type Config struct {
	// DirectorySource selects the instance directory: DirectoryFile or
	// DirectoryRedis. Ignored when WithDirectory is used.
	DirectorySource string

	// DirectoryFile is the TOML directory path for DirectoryFile.
	DirectoryFile string

	// WatchDirectory keeps the file directory in memory and reloads it on
	// change instead of reading it on every call.
	WatchDirectory bool

	// RedisAddrs, RedisPassword and RedisKeyPrefix configure DirectoryRedis.
	RedisAddrs     []string
	RedisPassword  string
	RedisKeyPrefix string

	// CatalogDB and EventLogDB are SQLite database paths. They may be equal.
	CatalogDB  string
	EventLogDB string

	// InstanceTimeout bounds every call to one instance.
	// Default: 10s
	InstanceTimeout time.Duration

	// HTTPTimeout is the timeout of the default HTTP client.
	// Default: 15s
	HTTPTimeout time.Duration

	// MaxConcurrency bounds concurrent instance calls.
	// Default: 8
	MaxConcurrency int

	// RecentLimit caps the recent-transfers listing.
	// Default: 40
	RecentLimit int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	cfg := Config{DirectorySource: DirectoryFile}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	if c.DirectorySource == "" {
		c.DirectorySource = DirectoryFile
	}
	if c.InstanceTimeout == 0 {
		c.InstanceTimeout = 10 * time.Second
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 15 * time.Second
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = 8
	}
	if c.RecentLimit == 0 {
		c.RecentLimit = 40
	}
}

// Validate checks the configuration for the collaborators that are not
// injected through options.
func (c Config) Validate() error {
	return c.validate(options{})
}

func (c Config) validate(o options) error {
	var errs []error
	if o.directory == nil {
		switch c.DirectorySource {
		case DirectoryFile:
			if c.DirectoryFile == "" {
				errs = append(errs, errors.New("directory file is required"))
			}
		case DirectoryRedis:
			if len(c.RedisAddrs) == 0 {
				errs = append(errs, errors.New("redis addrs are required"))
			}
		default:
			errs = append(errs, errors.New("unknown directory source "+c.DirectorySource))
		}
	}
	if o.catalog == nil && c.CatalogDB == "" {
		errs = append(errs, errors.New("catalog database path is required"))
	}
	if o.events == nil && c.EventLogDB == "" {
		errs = append(errs, errors.New("event log database path is required"))
	}
	if c.InstanceTimeout < 0 || c.HTTPTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if c.MaxConcurrency < 0 || c.RecentLimit < 0 {
		errs = append(errs, errors.New("max concurrency and recent limit must not be negative"))
	}
	return errors.Join(errs...)
}
