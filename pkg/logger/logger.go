// Package logger defines the structured logging contract used across the
// service. The production implementation lives in
// internal/infrastructure/monitoring and is backed by zap.
package logger

import "context"

// Fields is a set of structured key/value pairs attached to a log entry.
type Fields map[string]interface{}

// Logger is the structured logging interface. Implementations are expected to
// extract trace and request identifiers from the context.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Fields)
	Info(ctx context.Context, msg string, fields ...Fields)
	Warn(ctx context.Context, msg string, fields ...Fields)
	Error(ctx context.Context, msg string, err error, fields ...Fields)
	Fatal(ctx context.Context, msg string, err error, fields ...Fields)

	// WithFields returns a logger that attaches the given fields to every entry.
	WithFields(fields Fields) Logger

	// WithComponent returns a logger scoped to a named component.
	WithComponent(component string) Logger
}
