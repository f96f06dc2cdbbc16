package ports

import (
	"context"

	"github.com/bft-labs/torrentfleet/internal/domain"
)

// InstanceClient queries a single download-client instance.
// Implementations are not required to be safe for concurrent use.
type InstanceClient interface {
	// ListTransfers returns the instance's records matching q, ordered and
	// limited as q requests.
	ListTransfers(ctx context.Context, q domain.TransferQuery) ([]domain.TransferRecord, error)

	// RefreshTransfer re-reads the live state of one record.
	RefreshTransfer(ctx context.Context, rec domain.TransferRecord) (domain.TransferRecord, error)

	// SessionSnapshot returns the instance's live session counters.
	// The snapshot is validated before it is returned.
	SessionSnapshot(ctx context.Context) (domain.LiveSessionSnapshot, error)
}

// ClientFactory maps an instance handle to a client for it.
type ClientFactory interface {
	Client(inst domain.Instance) (InstanceClient, error)
}

// ClientFactoryFunc adapts a function to ClientFactory.
type ClientFactoryFunc func(inst domain.Instance) (InstanceClient, error)

// Client calls f(inst).
func (f ClientFactoryFunc) Client(inst domain.Instance) (InstanceClient, error) {
	return f(inst)
}
