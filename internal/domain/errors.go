package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the torrentfleet domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrNotConfigured is returned when no replica-set master can be resolved.
	ErrNotConfigured = errors.New("torrentfleet: no master replica set configured")

	// ErrInstanceUnreachable is returned when an instance call fails.
	ErrInstanceUnreachable = errors.New("torrentfleet: instance unreachable")

	// ErrInstanceTimeout is returned when an instance call exceeds its deadline.
	ErrInstanceTimeout = errors.New("torrentfleet: instance timeout")

	// ErrRefresh is returned when a single transfer record cannot be refreshed.
	ErrRefresh = errors.New("torrentfleet: transfer refresh failed")

	// ErrIndexConsistency is returned when the full-text index references a
	// record the catalog does not hold.
	ErrIndexConsistency = errors.New("torrentfleet: catalog index inconsistent")

	// ErrPermissionDenied marks an operation the caller may not view.
	ErrPermissionDenied = errors.New("torrentfleet: permission denied")

	// ErrInvalidArgument is returned for malformed operation input.
	ErrInvalidArgument = errors.New("torrentfleet: invalid argument")

	// ErrInvalidSnapshot is returned by adapters that receive malformed counters.
	ErrInvalidSnapshot = errors.New("torrentfleet: invalid session snapshot")
)

// ConfigurationError reports that the replica set could not be resolved.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return ErrNotConfigured.Error()
	}
	return fmt.Sprintf("%s: %s", ErrNotConfigured, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrNotConfigured }

// InstanceError wraps a failed call against one instance.
// Kind is either ErrInstanceUnreachable or ErrInstanceTimeout.
type InstanceError struct {
	Instance string
	Op       string
	Kind     error
	Err      error
}

func (e *InstanceError) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Instance, e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *InstanceError) Unwrap() []error { return []error{e.Kind, e.Err} }

// RefreshError reports that one transfer record could not be refreshed.
type RefreshError struct {
	Instance string
	ID       int64
	Err      error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("%s: refresh transfer %d: %v", e.Instance, e.ID, e.Err)
}

func (e *RefreshError) Unwrap() []error { return []error{ErrRefresh, e.Err} }

// IndexConsistencyError reports identifiers returned by the full-text search
// that the bulk lookup did not resolve.
type IndexConsistencyError struct {
	Missing []int64
}

func (e *IndexConsistencyError) Error() string {
	return fmt.Sprintf("%s: missing records %v", ErrIndexConsistency, e.Missing)
}

func (e *IndexConsistencyError) Unwrap() error { return ErrIndexConsistency }
