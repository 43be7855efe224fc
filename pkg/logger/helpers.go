package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs one outbound HTTP exchange at debug level, or warn for failures
func LogRequest(log Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":   method,
		"url":      url,
		"status":   statusCode,
		"duration": duration,
	}

	switch {
	case statusCode == 429 || statusCode >= 500:
		log.WarnWithFields("HTTP request failed", fields)
	default:
		log.DebugWithFields("HTTP request completed", fields)
	}
}

// LogRateLimit logs a limiter sleep and the policy that caused it
func LogRateLimit(log Logger, policy string, wait time.Duration) {
	fields := map[string]interface{}{
		"policy": policy,
		"wait":   wait,
	}

	// Routine spacing is noise at info level
	if policy == "min_delay" {
		log.DebugWithFields("Rate limiter sleeping", fields)
		return
	}
	log.WarnWithFields("Rate limiter sleeping", fields)
}

// LogDownload logs the outcome of a track download
func LogDownload(log Logger, trackURL, path string, size int64, err error) {
	l := log.WithFields(map[string]interface{}{
		"track_url": trackURL,
		"path":      path,
		"size":      size,
	})

	if err != nil {
		l.WithError(err).Error("Download failed")
		return
	}
	l.Info("Download completed")
}

// LogComponentStart logs when a long-running component starts
func LogComponentStart(log Logger, component string, config map[string]interface{}) {
	l := log.WithField("component", component)
	if len(config) > 0 {
		l = l.WithFields(config)
	}
	l.Info("Component started")
}

// LogComponentStop logs when a long-running component stops
func LogComponentStop(log Logger, component string, reason string) {
	log.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
