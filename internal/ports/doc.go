// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// aggregation engine needs from external systems without specifying how those
// needs are fulfilled.
//
// # Port Interfaces
//
//   - [InstanceDirectory]: Resolves the replica-set master and its members
//   - [InstanceClient]: Queries one download-client instance
//   - [ClientFactory]: Builds an InstanceClient for an instance handle
//   - [CatalogStore]: Full-text search and keyed lookup over the catalog
//   - [EventLog]: Typed, bounded reads from the operational event log
//   - [Logger]: Structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement these interfaces
// with concrete implementations (Transmission RPC, SQLite, Redis, files).
package ports
