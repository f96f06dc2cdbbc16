// Package torrentfleet is a thin entry point to the fleet view in
// pkg/torrentfleet.
//
// Example usage:
//
//	cfg := torrentfleet.DefaultConfig()
//	cfg.DirectoryFile = "/etc/torrentfleet/directory.toml"
//	cfg.CatalogDB = "/var/lib/torrentfleet/fleet.db"
//	cfg.EventLogDB = cfg.CatalogDB
//	f, err := torrentfleet.Open(context.Background(), cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
package torrentfleet

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/bft-labs/torrentfleet/internal/cliconfig"
	"github.com/bft-labs/torrentfleet/pkg/log"
	"github.com/bft-labs/torrentfleet/pkg/torrentfleet"
)

// Config configures a Fleet. Use DefaultConfig() to get defaults.
type Config = torrentfleet.Config

// Fleet is an open view over a fleet of Transmission instances.
type Fleet = torrentfleet.Fleet

// Option configures optional behavior of a Fleet.
type Option = torrentfleet.Option

// Open wires a Fleet from cfg.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Fleet, error) {
	return torrentfleet.Open(ctx, cfg, opts...)
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return torrentfleet.DefaultConfig()
}

// Logger returns the console zerolog logger used by the command line tool.
func Logger() zerolog.Logger {
	return cliconfig.Logger()
}

// WithZerolog routes Fleet logging to logger.
func WithZerolog(logger zerolog.Logger) Option {
	return torrentfleet.WithLogger(log.NewZerologAdapterWithLogger(logger))
}
