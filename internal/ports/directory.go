package ports

import (
	"context"

	"github.com/bft-labs/torrentfleet/internal/domain"
)

// InstanceDirectory resolves the authoritative replica set and enumerates its
// members. Implementations are pure reads; callers invoke them on every
// operation so membership is never cached by the engine.
type InstanceDirectory interface {
	// ResolveMaster returns the master replica set.
	// Returns an error matching domain.ErrNotConfigured if none is configured.
	ResolveMaster(ctx context.Context) (domain.ReplicaSet, error)

	// ListInstances returns the members of rs. Order is not significant and
	// the result may be empty.
	ListInstances(ctx context.Context, rs domain.ReplicaSet) ([]domain.Instance, error)
}
