package domain

import "time"

// Well-known log entry types.
const (
	LogTypeInfo  = "info"
	LogTypeWarn  = "warn"
	LogTypeError = "error"
)

// LogEntry is an immutable, timestamped operational event.
type LogEntry struct {
	ID        string
	Time      time.Time
	Type      string
	Message   string
	Traceback string
}

// PermissionDeniedLogEntry is the placeholder shown in place of the event log
// to callers without viewing rights.
func PermissionDeniedLogEntry() LogEntry {
	return LogEntry{
		Type:    LogTypeInfo,
		Message: "You don't have permission to view logs.",
	}
}
