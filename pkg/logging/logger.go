// Package logging provides structured logging configuration using zerolog.
//
// Every sink configured through Setup is wrapped in a RedactingWriter so
// credentials never reach stderr or the rotating log file.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "DEBUG"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "INFO"

	// LevelWarning logs warning messages and above.
	LevelWarning LogLevel = "WARNING"

	// LevelError logs error messages and above.
	LevelError LogLevel = "ERROR"

	// LevelCritical is accepted for compatibility and behaves like LevelError.
	LevelCritical LogLevel = "CRITICAL"
)

// Format selects the encoding of log lines.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Log file rotation settings.
const (
	fileMaxSizeMB  = 10
	fileMaxBackups = 5
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Format is either json (default) or text.
	Format Format

	// Output is the writer to output logs to (default: os.Stderr).
	// stdout is reserved for the stdio MCP transport.
	Output io.Writer

	// File optionally adds a size-rotated log file next to Output.
	File string
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatJSON,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(string(cfg.Level)))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	writers := []io.Writer{encode(cfg.Format, out, false)}
	if cfg.File != "" {
		writers = append(writers, encode(cfg.Format, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
		}, true))
	}

	var output io.Writer
	if len(writers) == 1 {
		output = writers[0]
	} else {
		output = zerolog.MultiLevelWriter(writers...)
	}

	logger := zerolog.New(NewRedactingWriter(output, StandardPatterns()...)).
		With().Timestamp().Logger()

	log.Logger = logger

	return logger
}

func encode(format Format, w io.Writer, noColor bool) io.Writer {
	if Format(strings.ToLower(string(format))) != FormatText {
		return w
	}
	return zerolog.ConsoleWriter{Out: w, NoColor: noColor}
}

// ParseLevel converts a level name to a zerolog.Level. Unknown names
// fall back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR", "CRITICAL":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Context Fields:
//   - endpoint: API path relative to /api/<version>/
//   - method: HTTP method
//   - status_code: HTTP status code
//   - request_id: per-call identifier shared by all retry attempts
//   - attempt: 1-based attempt counter
//   - tool: MCP tool name
