package logger

import (
	"github.com/xraph/go-utils/log"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging interface used throughout anchor.
type Logger = log.Logger

// SugarLogger is the printf-style logging interface.
type SugarLogger = log.SugarLogger

// LoggingConfig contains logger configuration.
type LoggingConfig = log.LoggingConfig

type LogLevel = log.LogLevel

const (
	LevelInfo  = log.LevelInfo
	LevelWarn  = log.LevelWarn
	LevelError = log.LevelError
	LevelFatal = log.LevelFatal
	LevelDebug = log.LevelDebug
)

// NewLogger creates a new logger with the given configuration.
func NewLogger(config LoggingConfig) Logger {
	return log.NewLogger(config)
}

// NewDevelopmentLogger creates a development logger with colored output.
func NewDevelopmentLogger() Logger {
	return log.NewDevelopmentLogger()
}

// NewDevelopmentLoggerWithLevel creates a development logger with the specified level.
func NewDevelopmentLoggerWithLevel(level zapcore.Level) Logger {
	return log.NewDevelopmentLoggerWithLevel(level)
}

// NewProductionLogger creates a production logger.
func NewProductionLogger() Logger {
	return log.NewProductionLogger()
}

// NewNoopLogger creates a logger that does nothing.
func NewNoopLogger() Logger {
	return log.NewNoopLogger()
}

// TestLogger provides a test logger implementation.
type TestLogger = log.TestLogger
