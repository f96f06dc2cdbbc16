package app

import (
	"errors"

	"github.com/bft-labs/torrentfleet/internal/domain"
)

// OutcomeKind tags the result of an operation at the presentation boundary.
type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	OutcomePermissionDenied
	OutcomeConfigurationError
	OutcomeFailed
)

// String returns a human-readable representation of the kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "OK"
	case OutcomePermissionDenied:
		return "PermissionDenied"
	case OutcomeConfigurationError:
		return "ConfigurationError"
	case OutcomeFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Outcome is the tagged result of one operation. Value is meaningful only
// when Kind is OutcomeOK.
type Outcome[T any] struct {
	Kind  OutcomeKind
	Value T
	Err   error
}

// Guard runs fn only when allowed, and tags the result.
// Authorization is decided by the caller; a denied call never reaches fn.
func Guard[T any](allowed bool, fn func() (T, error)) Outcome[T] {
	if !allowed {
		return Outcome[T]{Kind: OutcomePermissionDenied, Err: domain.ErrPermissionDenied}
	}
	v, err := fn()
	switch {
	case err == nil:
		return Outcome[T]{Kind: OutcomeOK, Value: v}
	case errors.Is(err, domain.ErrPermissionDenied):
		return Outcome[T]{Kind: OutcomePermissionDenied, Err: err}
	case errors.Is(err, domain.ErrNotConfigured):
		return Outcome[T]{Kind: OutcomeConfigurationError, Err: err}
	default:
		return Outcome[T]{Kind: OutcomeFailed, Err: err}
	}
}
