package logging

import "context"

// contextKey is a private type so logger context values cannot collide
type contextKey struct{}

var loggerKey contextKey

// WithContext returns a copy of ctx carrying the given logger
func WithContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger stored in ctx.
// If none is present, a discard logger is returned so callers
// never need a nil check.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerKey).(*Logger); ok && logger != nil {
		return logger
	}
	return Discard()
}

// Discard returns a logger that drops every message
func Discard() *Logger {
	return &Logger{
		level:  ErrorLevel + 1,
		format: FormatConsole,
		output: discardWriter{},
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
