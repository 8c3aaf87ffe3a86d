package anchor

import (
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/xraph/anchor/internal/errors"
	"github.com/xraph/anchor/internal/logger"
)

// Config configures an Anchor.
type Config struct {
	// LogLevel is one of debug, info, warn, error. Empty means info.
	LogLevel string `yaml:"log_level"`

	// Development switches the logger to colored console output.
	Development bool `yaml:"development"`

	// SweepInterval is how often expired resources are swept.
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// EventReplaySize bounds the events retained for late subscribers.
	EventReplaySize int `yaml:"event_replay_size"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		LogLevel:        "info",
		SweepInterval:   30 * time.Second,
		EventReplaySize: DefaultReplaySize,
	}
}

// LoadConfig reads a YAML configuration file, filling unset fields from
// DefaultConfig.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, errors.ErrInvalidConfig(path, err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, errors.ErrInvalidConfig(path, err)
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// UnmarshalYAML decodes durations from strings like "30s" and leaves
// fields absent from the document at their current values.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		LogLevel        *string `yaml:"log_level"`
		Development     *bool   `yaml:"development"`
		SweepInterval   *string `yaml:"sweep_interval"`
		EventReplaySize *int    `yaml:"event_replay_size"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	if raw.LogLevel != nil {
		c.LogLevel = *raw.LogLevel
	}
	if raw.Development != nil {
		c.Development = *raw.Development
	}
	if raw.SweepInterval != nil {
		interval, err := time.ParseDuration(*raw.SweepInterval)
		if err != nil {
			return err
		}
		c.SweepInterval = interval
	}
	if raw.EventReplaySize != nil {
		c.EventReplaySize = *raw.EventReplaySize
	}
	return nil
}

// Validate checks the configuration for out-of-range values.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.ErrInvalidConfig("log_level",
			errors.New("must be one of debug, info, warn, error"))
	}
	if c.SweepInterval < 0 {
		return errors.ErrInvalidConfig("sweep_interval",
			errors.New("must not be negative"))
	}
	if c.EventReplaySize < 0 {
		return errors.ErrInvalidConfig("event_replay_size",
			errors.New("must not be negative"))
	}
	return nil
}

// BuildLogger constructs a logger matching the configuration.
func (c Config) BuildLogger() (Logger, error) {
	level := zapcore.InfoLevel
	switch c.LogLevel {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}
	if c.Development {
		return logger.NewDevelopmentLoggerWithLevel(level), nil
	}
	return logger.NewProductionLogger(), nil
}
