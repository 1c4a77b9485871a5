package observability

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// LogOptions configures the process-wide logger
type LogOptions struct {
	ServiceName string
	Environment string
	// Level is a zerolog level name; unknown or empty means info
	Level string
	// Output defaults to stderr so command output on stdout stays parseable
	Output io.Writer
}

// InitLogger installs the global zerolog logger. Development gets a console
// writer, everything else JSON with timestamp and caller.
func InitLogger(opts LogOptions) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	if opts.Environment == "development" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Str("service", opts.ServiceName).
			Logger()
		return
	}

	log.Logger = zerolog.New(out).
		With().
		Timestamp().
		Caller().
		Str("service", opts.ServiceName).
		Logger()
}

// Component returns the global logger tagged with a component name
func Component(name string) *zerolog.Logger {
	l := log.With().Str("component", name).Logger()
	return &l
}

// ComponentFromContext is Component plus the trace and span ids of the active span
func ComponentFromContext(ctx context.Context, name string) *zerolog.Logger {
	c := log.With().Str("component", name)
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		c = c.Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String())
	}
	l := c.Logger()
	return &l
}

// GetLogger returns the global logger
func GetLogger() *zerolog.Logger {
	return &log.Logger
}
