// Package logger provides adapters for the logging interface.
package logger

import (
	"context"
)

// Logger defines the logging interface used throughout the application.
// External loggers that implement these methods can be wrapped with ZapAdapter.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]any)
	Debug(ctx context.Context, msg string, fields map[string]any)
	Warn(ctx context.Context, msg string, fields map[string]any)
	Error(ctx context.Context, msg string, err error, fields map[string]any)
}

// ZapAdapter adapts a Logger to the application's logging interface and
// stamps every entry with the emitting component so pipeline stages can be
// told apart in the output.
type ZapAdapter struct {
	log       Logger
	component string
}

// NewZapAdapter creates a new ZapAdapter wrapping the given logger.
func NewZapAdapter(log Logger) *ZapAdapter {
	return &ZapAdapter{log: log}
}

// Component returns a copy of the adapter scoped to the named component.
func (a *ZapAdapter) Component(name string) *ZapAdapter {
	return &ZapAdapter{log: a.log, component: name}
}

func (a *ZapAdapter) stamp(fields map[string]any) map[string]any {
	if a.component == "" {
		return fields
	}
	stamped := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		stamped[k] = v
	}
	stamped["component"] = a.component
	return stamped
}

// Info logs an info message.
func (a *ZapAdapter) Info(ctx context.Context, msg string, fields map[string]any) {
	a.log.Info(ctx, msg, a.stamp(fields))
}

// Debug logs a debug message.
func (a *ZapAdapter) Debug(ctx context.Context, msg string, fields map[string]any) {
	a.log.Debug(ctx, msg, a.stamp(fields))
}

// Warn logs a warning message.
func (a *ZapAdapter) Warn(ctx context.Context, msg string, fields map[string]any) {
	a.log.Warn(ctx, msg, a.stamp(fields))
}

// Error logs an error message.
func (a *ZapAdapter) Error(ctx context.Context, msg string, err error, fields map[string]any) {
	a.log.Error(ctx, msg, err, a.stamp(fields))
}
