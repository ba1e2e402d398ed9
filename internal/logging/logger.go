// Package logging builds the process logger and threads request loggers
// through context.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type loggerKey struct{}

// New builds the structured process logger. Development gets a console
// writer; everything else emits JSON lines for collection.
func New(appName, env string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if env == "development" {
		out = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339Nano,
		}
	}
	return zerolog.New(out).With().
		Timestamp().
		Str("app", appName).
		Str("env", env).
		Logger()
}

// IntoContext injects a logger into context for downstream use.
func IntoContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored in context, or a no-op logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx == nil {
		return zerolog.Nop()
	}
	if logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}
