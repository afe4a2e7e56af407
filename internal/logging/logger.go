// Package logging defines the structured-logging interface used across the
// server. Two adapters are provided: zerolog (the default) and log/slog.
package logging

import (
	"context"
	"io"
	"strings"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key-value pairs, e.g.:
//
//	log.Info(ctx, "report analyzed", "report_id", id, "chunks", n)
//
// When ctx carries a request id (see WithRequestID) it is added to every
// record as "request_id".
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}

type requestIDKey struct{}

// WithRequestID returns a copy of ctx carrying the request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// New builds a logger writing to w. format is "json", "console" or "text";
// "text" selects the slog text handler, anything else zerolog.
func New(w io.Writer, format, level string) Logger {
	switch strings.ToLower(format) {
	case "text":
		return NewSlogText(w, level)
	case "console":
		return NewZerologConsole(w, level)
	default:
		return NewZerologJSON(w, level)
	}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return NewZerologJSON(io.Discard, "disabled")
}
