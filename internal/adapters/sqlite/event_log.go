package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/torrentfleet/internal/domain"
)

const eventLogSchema = `
CREATE TABLE IF NOT EXISTS log_entries (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	time INTEGER NOT NULL,
	type TEXT NOT NULL,
	message TEXT NOT NULL,
	traceback TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS log_entries_type_time ON log_entries (type, time DESC);
`

// EventLog implements ports.EventLog in a SQLite table.
type EventLog struct {
	db *sql.DB
}

// NewEventLog creates the event-log schema if needed.
func NewEventLog(ctx context.Context, db *sql.DB) (*EventLog, error) {
	if _, err := db.ExecContext(ctx, eventLogSchema); err != nil {
		return nil, fmt.Errorf("initialize event log schema: %w", err)
	}
	return &EventLog{db: db}, nil
}

// Append stores e, assigning an ID and timestamp when they are unset.
func (l *EventLog) Append(ctx context.Context, e domain.LogEntry) (domain.LogEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.Time = e.Time.UTC()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO log_entries (id, time, type, message, traceback) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Time.UnixNano(), e.Type, e.Message, e.Traceback)
	if err != nil {
		return e, fmt.Errorf("append log entry: %w", err)
	}
	return e, nil
}

// QueryByType implements ports.EventLog. Entries with equal timestamps come
// back in reverse insertion order.
func (l *EventLog) QueryByType(ctx context.Context, types []string, limit int) ([]domain.LogEntry, error) {
	if len(types) == 0 || limit <= 0 {
		return nil, nil
	}
	args := make([]any, 0, len(types)+1)
	for _, t := range types {
		args = append(args, t)
	}
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, time, type, message, traceback
		FROM log_entries
		WHERE type IN (`+placeholders(len(types))+`)
		ORDER BY time DESC, seq DESC
		LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("query event log: %w", err)
	}
	defer rows.Close()

	var out []domain.LogEntry
	for rows.Next() {
		var e domain.LogEntry
		var ts int64
		if err := rows.Scan(&e.ID, &ts, &e.Type, &e.Message, &e.Traceback); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		e.Time = time.Unix(0, ts).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
