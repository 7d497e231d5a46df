// Package logging builds memoryd's process-wide structured logger:
// env-driven level, stdout JSON output.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger writing JSON to stdout, with its level
// controlled by the LOG_LEVEL value (trace/debug/info/warn/error),
// defaulting to info on an unrecognized or empty value.
func New(level string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		l = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(l).With().Timestamp().Logger()
}

// Component returns a child logger tagged with a component field, used by
// background tasks (cleaner, scheduler, GC) so their swallowed errors
// remain observable.
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}
