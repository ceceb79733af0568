// Package ctxlog carries a charmbracelet logger through context.Context.
package ctxlog

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
)

// key is an unexported type to prevent collisions with other context keys.
type key struct{}

// New creates a logger with timestamp formatting that filters below level.
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// WithLogger returns a new context with l attached.
func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, key{}, l)
}

// FromContext returns the attached logger, or log.Default() if none is set.
func FromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(key{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
