// Package logger holds the process-wide zerolog logger. Everything in
// the service logs through Log; Init wires it up once at startup from
// the logging config.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Log is the shared logger. Its zero value discards everything, so
// packages may log before Init runs (tests rely on this).
var Log zerolog.Logger

// Init configures Log with the given level and output format. pretty
// switches to the human-readable console writer for local development;
// production keeps plain JSON on stdout.
func Init(level string, pretty bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(ParseLevel(level))

	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	Log = zerolog.New(out).With().Timestamp().Caller().Logger()
}

// ParseLevel maps a config log-level string onto a zerolog level.
// Unknown strings fall back to info; config validation rejects them
// before this is reached in normal operation.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
