// Package logging configures the zerolog loggers used by the TikTok client,
// the signing service and the REST front-end.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel converts a LogLevel to a zerolog.Level. Unknown values map to info.
func ParseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: request flow
//   - signing calls (mode, duration)
//   - fetches (endpoint, content-encoding, bytes)
//   - cache hit/miss, cursor advances
//
// Info: lifecycle
//   - browser signer started/closed
//   - server startup/shutdown
//
// Warn: degraded but working
//   - cache read/write errors (request goes to origin)
//   - non-200 origin status with a parseable body
//
// Error: the caller will see an error
//   - signing failures
//   - transport, empty or malformed responses
//
// Context Fields:
//   - endpoint: origin API path (e.g. /api/item_list/)
//   - request_id: per-fetch identifier
//   - cursor: pagination cursor
//   - collection: trending, uploaded, liked, audio_top, tag_top
//   - encoding: response content-encoding
//   - mode: signer mode (remote, browser)
