package app

import (
	"context"
	"fmt"

	"github.com/bft-labs/torrentfleet/internal/domain"
	"github.com/bft-labs/torrentfleet/internal/ports"
)

// LogFilter performs bounded, typed reads from the event log.
type LogFilter struct {
	events ports.EventLog
}

// NewLogFilter creates a LogFilter.
func NewLogFilter(events ports.EventLog) *LogFilter {
	return &LogFilter{events: events}
}

// RecentLog returns the count newest entries whose type is in types.
func (f *LogFilter) RecentLog(ctx context.Context, types []string, count int) ([]domain.LogEntry, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("%w: no log types requested", domain.ErrInvalidArgument)
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: log count must be positive, got %d", domain.ErrInvalidArgument, count)
	}

	entries, err := f.events.QueryByType(ctx, types, count)
	if err != nil {
		return nil, fmt.Errorf("query event log: %w", err)
	}
	if len(entries) > count {
		entries = entries[:count]
	}
	return entries, nil
}
