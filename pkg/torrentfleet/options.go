package torrentfleet

import (
	"github.com/bft-labs/torrentfleet/internal/ports"
	"github.com/bft-labs/torrentfleet/pkg/log"
)

// HTTPClient is the interface for making HTTP requests.
// *http.Client satisfies this interface.
type HTTPClient = ports.HTTPClient

// Logger is the interface for structured logging.
type Logger = log.Logger

// InstanceDirectory resolves the master replica set and its members.
type InstanceDirectory = ports.InstanceDirectory

// CatalogStore provides full-text search and keyed lookup over the catalog.
type CatalogStore = ports.CatalogStore

// EventLog reads the operational event log.
type EventLog = ports.EventLog

// Option configures optional behavior of a Fleet.
type Option func(*options)

type options struct {
	httpClient ports.HTTPClient
	logger     ports.Logger
	directory  ports.InstanceDirectory
	catalog    ports.CatalogStore
	events     ports.EventLog
}

func defaultOptions() options {
	return options{logger: log.NewNoopLogger()}
}

// WithHTTPClient sets the HTTP client used to reach Transmission instances.
// If not provided, a client with the configured HTTPTimeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDirectory replaces the configured instance directory.
func WithDirectory(directory InstanceDirectory) Option {
	return func(o *options) {
		o.directory = directory
	}
}

// WithCatalog replaces the SQLite catalog store.
func WithCatalog(catalog CatalogStore) Option {
	return func(o *options) {
		o.catalog = catalog
	}
}

// WithEventLog replaces the SQLite event log.
func WithEventLog(events EventLog) Option {
	return func(o *options) {
		o.events = events
	}
}
