package anchor

import (
	"github.com/xraph/anchor/internal/logger"
)

// Logger is the structured logging interface used throughout anchor.
type Logger = logger.Logger

// Field is a structured log field.
type Field = logger.Field

// LoggingConfig contains logger configuration.
type LoggingConfig = logger.LoggingConfig

// LogLevel controls logger verbosity.
type LogLevel = logger.LogLevel

const (
	LevelDebug = logger.LevelDebug
	LevelInfo  = logger.LevelInfo
	LevelWarn  = logger.LevelWarn
	LevelError = logger.LevelError
)

// NewLogger creates a new logger with the given configuration.
func NewLogger(config LoggingConfig) Logger {
	return logger.NewLogger(config)
}

// NewDevelopmentLogger creates a development logger with colored output.
func NewDevelopmentLogger() Logger {
	return logger.NewDevelopmentLogger()
}

// NewProductionLogger creates a production logger.
func NewProductionLogger() Logger {
	return logger.NewProductionLogger()
}

// NewNoopLogger creates a logger that does nothing.
func NewNoopLogger() Logger {
	return logger.NewNoopLogger()
}

// Log field constructors. ErrorField is named to avoid colliding with the
// Error type.
var (
	String     = logger.String
	Int        = logger.Int
	Int64      = logger.Int64
	Float64    = logger.Float64
	Bool       = logger.Bool
	Time       = logger.Time
	Duration   = logger.Duration
	ErrorField = logger.Error
	Any        = logger.Any
)
