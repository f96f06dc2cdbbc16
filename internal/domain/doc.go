// Package domain contains the core entities and value objects for torrentfleet.
//
// This package is the innermost layer of the Clean Architecture. It has no
// dependencies on infrastructure concerns (HTTP, databases, logging) and
// contains only the data contracts and reduction rules of the aggregation
// engine.
//
// # Entities
//
//   - [TransferRecord]: one torrent's state as reported by one instance
//   - [ReplicaSet] and [Instance]: the master and its download-client members
//   - [LiveSessionSnapshot]: point-in-time session counters of one instance
//   - [AggregateStats]: the reduction of all snapshots of a replica set
//   - [SearchHit] and [ContentRecord]: full-text matches and catalog entries
//   - [LogEntry]: an immutable, typed operational event
//
// # Design Principles
//
// Domain values are:
//   - Copied, never mutated, once reported by a collaborator
//   - Free of infrastructure dependencies
//   - Explicitly typed so reducers need no field-presence checks
package domain
