package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

const (
	LOG_INFO  = "info"
	LOG_DEBUG = "debug"
	LOG_WARN  = "warn"
	LOG_ERROR = "error"
)

func init() {
	// CLI commands stay quiet unless asked otherwise
	SetSilentMode(true)
}

// SetSilentMode switches between discarding all output and a console writer on stderr
func SetSilentMode(silent bool) {
	if silent {
		SetOutput(io.Discard)
		return
	}

	SetOutput(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})
}

// SetOutput replaces the destination of the package logger
func SetOutput(w io.Writer) {
	logger = zerolog.New(w).With().Timestamp().Logger()
}

// New returns the package logger
func New() zerolog.Logger {
	return logger
}

// Component returns the package logger tagged with a component name
func Component(name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

// SetLevel sets the global log level; unknown levels fall back to info
func SetLevel(level string) {
	zerolog.SetGlobalLevel(ParseLevel(level))
}

// ParseLevel maps a level name onto a zerolog level
func ParseLevel(level string) zerolog.Level {
	switch level {
	case LOG_DEBUG:
		return zerolog.DebugLevel
	case LOG_WARN:
		return zerolog.WarnLevel
	case LOG_ERROR:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
