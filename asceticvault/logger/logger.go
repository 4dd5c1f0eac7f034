package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const (
	JSONFormat    = "json"
	ConsoleFormat = "console"

	ContextKeyRequestID     contextKey = "requestID"
	ContextKeyCorrelationID contextKey = "correlationID"
)

// Logger is the zerolog logger shared by adapters, template and repository.
type Logger struct {
	zerolog.Logger
}

func New(level, format string) Logger {
	return NewWithWriter(level, format, os.Stderr)
}

// NewWithWriter builds a logger writing to w. Unknown levels fall back to
// info; any format other than "json" is rendered for the console.
func NewWithWriter(level, format string, w io.Writer) Logger {
	var out io.Writer = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	if strings.EqualFold(format, JSONFormat) {
		out = w
	}
	l := zerolog.New(out).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
	return Logger{Logger: l}
}

func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "warning":
		return zerolog.WarnLevel
	case "":
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// NewNop returns a logger that discards everything. Constructors use it
// when no logger is supplied.
func NewNop() Logger {
	return Logger{Logger: zerolog.Nop()}
}

// Component returns a child logger tagged with the emitting component.
func (l Logger) Component(name string) Logger {
	return Logger{Logger: l.With().Str("component", name).Logger()}
}

// WithContext enriches the logger with request identifiers and the active
// trace span found in ctx.
func (l Logger) WithContext(ctx context.Context) zerolog.Logger {
	c := l.Logger.With()
	if id, ok := ctx.Value(ContextKeyCorrelationID).(string); ok && id != "" {
		c = c.Str("correlation_id", id)
	}
	if id, ok := ctx.Value(ContextKeyRequestID).(string); ok && id != "" {
		c = c.Str("request_id", id)
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		c = c.Str("trace_id", sc.TraceID().String()).
			Str("span_id", sc.SpanID().String())
	}
	return c.Logger()
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, id)
}

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyCorrelationID, id)
}
