package ports

import (
	"context"

	"github.com/bft-labs/torrentfleet/internal/domain"
)

// EventLog reads the operational event log.
type EventLog interface {
	// QueryByType returns at most limit entries whose type is in types,
	// newest first.
	QueryByType(ctx context.Context, types []string, limit int) ([]domain.LogEntry, error)
}
