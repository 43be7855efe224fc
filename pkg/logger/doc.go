// Package logger provides the structured logging interface used across lucida-flow.
//
// It wraps zerolog: a colored console writer on stderr by default, JSON lines
// when the format is "json", and an additional append-only file when a log file
// is configured. Components receive a Logger explicitly; GetLogger is only the
// fallback when none is supplied.
//
//	log, err := logger.New(&cfg.Logging)
//	log.WithField("service", "qobuz").Info("Searching")
//
// NewTestLogger captures messages for assertions and NewNopLogger discards them.
package logger
