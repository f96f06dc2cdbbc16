package ports

import "github.com/bft-labs/torrentfleet/pkg/log"

// Logger provides structured logging capabilities.
type Logger = log.Logger

// Field represents a key-value pair for structured logging.
type Field = log.Field

// Field constructors, re-exported so the application layer only imports ports.
var (
	Instance   = log.Instance
	Op         = log.Op
	ContentIDs = log.ContentIDs
	String     = log.String
	Int        = log.Int
	Err        = log.Err
)
