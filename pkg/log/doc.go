// Package log provides the logging abstraction used by torrentfleet components.
//
// The aggregation engine logs through the Logger interface so it can be
// embedded in services that already own a logging stack. A zerolog adapter
// and a no-op logger are provided.
//
// # Usage
//
//	logger, err := log.NewZerologAdapterWithLevel(os.Stderr, "debug")
//
// Or, in tests:
//
//	logger := log.NewNoopLogger()
package log
