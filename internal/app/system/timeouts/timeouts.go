// Package timeouts provides centralized timeout values for handler
// operations. Used with context.WithTimeout around Mongo and blob I/O.
//
// Guidelines:
//   - Ping: health checks and connectivity verification
//   - Short: single-document reads or lookups
//   - Medium: list queries, moderate writes
//   - Long: writes with cleanup across collections or blob storage
package timeouts

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
)

// Ping returns the timeout for health checks.
func Ping() time.Duration { return DefaultPing }

// Short returns the timeout for single-document operations.
func Short() time.Duration { return DefaultShort }

// Medium returns the timeout for list queries and simple writes.
func Medium() time.Duration { return DefaultMedium }

// Long returns the timeout for multi-collection writes with cleanup.
func Long() time.Duration { return DefaultLong }

// WithTimeout creates a context with timeout and returns a cancel
// function that logs a warning when the deadline was exceeded.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
