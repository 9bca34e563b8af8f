// Package logger provides a standardized logging interface for the application
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// contextKey is a private type for context keys
type contextKey int

const (
	// loggerKey is the key for the logger in the context
	loggerKey contextKey = iota
	// invocationIDKey is the key for the invocation ID in the context
	invocationIDKey
)

// LogLevel represents log levels
type LogLevel string

// Log levels
const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// Output formats
const (
	FormatConsole = "console"
	FormatJSON    = "json"
	// FormatAuto picks console when the output is a terminal, JSON otherwise
	FormatAuto = "auto"
)

// Config holds logger configuration
type Config struct {
	// Level is the log level: debug, info, warn, error
	Level LogLevel
	// Format can be "json", "console" or "auto"
	Format string
	// ConsoleTimeFormat is the time format for console output
	ConsoleTimeFormat string
	// CallerInfo determines whether to include caller information
	CallerInfo bool
	// Output defaults to os.Stderr; stdout is reserved for command output and MCP traffic
	Output io.Writer
}

// DefaultConfig returns the default logger configuration
func DefaultConfig() Config {
	return Config{
		Level:             LogInfo,
		Format:            FormatAuto,
		ConsoleTimeFormat: time.RFC3339,
		CallerInfo:        false,
	}
}

// EnvConfig loads logger configuration from environment variables
func EnvConfig() Config {
	config := DefaultConfig()

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Level = LogLevel(level)
	}

	if format := os.Getenv("LOG_FORMAT"); format != "" {
		config.Format = format
	}

	return config
}

// ParseLevel maps a LogLevel onto zerolog, defaulting to info
func ParseLevel(level LogLevel) zerolog.Level {
	switch level {
	case LogDebug:
		return zerolog.DebugLevel
	case LogInfo:
		return zerolog.InfoLevel
	case LogWarn:
		return zerolog.WarnLevel
	case LogError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New builds a logger from config without touching global state
func New(config Config) zerolog.Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	if useConsole(config.Format, out) {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: config.ConsoleTimeFormat,
		}
	}

	ctx := zerolog.New(out).Level(ParseLevel(config.Level)).With().Timestamp()
	if config.CallerInfo {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// Setup configures the global logger
func Setup(config Config) {
	zerolog.SetGlobalLevel(ParseLevel(config.Level))
	log.Logger = New(config)
}

func useConsole(format string, out io.Writer) bool {
	switch format {
	case FormatConsole:
		return true
	case FormatJSON:
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// FromContext returns the logger from the context or the default logger if not found
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx == nil {
		return log.Logger
	}

	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return logger
	}

	return log.Logger
}

// WithContext adds a logger to the context
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithInvocationID tags the context logger with a fresh invocation ID
func WithInvocationID(ctx context.Context) (context.Context, zerolog.Logger) {
	id := uuid.NewString()
	logger := FromContext(ctx).With().Str("invocation_id", id).Logger()
	ctx = WithContext(ctx, logger)
	ctx = context.WithValue(ctx, invocationIDKey, id)
	return ctx, logger
}

// InvocationID returns the ID set by WithInvocationID, or ""
func InvocationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(invocationIDKey).(string)
	return id
}

// WithField adds a field to the logger in the context
func WithField(ctx context.Context, key string, value interface{}) (context.Context, zerolog.Logger) {
	logger := FromContext(ctx).With().Interface(key, value).Logger()
	return WithContext(ctx, logger), logger
}
