// Package torrentfleet provides an embeddable view over a fleet of
// Transmission instances.
//
// A fleet is described by an instance directory (a TOML file or Redis) that
// names the master replica set and its members. Every read fans out to all
// members concurrently, each under its own timeout, and merges the answers.
// Members that fail are reported next to the merged result instead of
// failing the whole read.
//
// # Basic Usage
//
//	cfg := torrentfleet.DefaultConfig()
//	cfg.DirectoryFile = "/etc/torrentfleet/directory.toml"
//	cfg.CatalogDB = "/var/lib/torrentfleet/catalog.db"
//	cfg.EventLogDB = "/var/lib/torrentfleet/events.db"
//
//	f, err := torrentfleet.Open(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
//
//	listing, err := f.Downloading(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, inst := range listing.Partial.Instances() {
//	    log.Printf("%s did not answer", inst)
//	}
//
// # Dependency Injection
//
// Every collaborator can be replaced, which is how tests run without a
// network or database:
//
//	f, err := torrentfleet.Open(ctx, cfg,
//	    torrentfleet.WithDirectory(myDirectory),
//	    torrentfleet.WithHTTPClient(mockClient),
//	    torrentfleet.WithLogger(customLogger),
//	)
//
// # Operations
//
//   - [Fleet.Downloading]: incomplete transfers, refreshed, oldest first
//   - [Fleet.Recent]: newest completed transfers, capped
//   - [Fleet.Errored]: transfers reporting an error
//   - [Fleet.Stats]: aggregated live session counters
//   - [Fleet.Search]: relevance-ranked catalog search
//   - [Fleet.RecentLog] and [Fleet.ViewLog]: typed event-log reads
//   - [Fleet.Summary]: the master replica set and its members
package torrentfleet
