package config

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Lunar-Chipter/crystal/internal/interfaces"
)

// Defaults applied when a configuration leaves a field empty
const (
	DefaultLayout    = "%d [%p] %c - %m"
	MainLogger       = "main"
	DefaultLevel     = interfaces.INFO
	DefaultBuffer    = 1000
	DefaultFlushTime = 5 * time.Second
)

// ErrInvalidConfig is wrapped by every Validate failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds configuration for the logging manager
type Config struct {
	// Layout used by loggers that do not set their own
	Layout string `yaml:"layout"`

	// AllowAppenderInjection permits AddAppender after the first event was logged
	AllowAppenderInjection bool `yaml:"allow_appender_injection"`

	// Loggers lists the configured logger tags
	Loggers []LoggerConfig `yaml:"loggers"`

	// Output configuration
	Console  ConsoleConfig   `yaml:"console"`
	File     *FileConfig     `yaml:"file,omitempty"`
	Rotation *RotationConfig `yaml:"rotation,omitempty"`
	Zap      ZapConfig       `yaml:"zap"`

	// SamplingRate keeps one event out of every N for sampled appenders; 1 keeps all
	SamplingRate int `yaml:"sampling_rate"`

	// EnableMetrics registers the Prometheus collector
	EnableMetrics bool `yaml:"enable_metrics"`

	// Appenders are registered in addition to those built from the output sections
	Appenders []interfaces.AppenderFactory `yaml:"-"`

	// ErrorHandler receives appender failures; nil logs them to the status logger
	ErrorHandler func(error) `yaml:"-"`
}

// LoggerConfig configures one logger tag. A zero Level means the default level.
type LoggerConfig struct {
	Tag    string           `yaml:"tag"`
	Level  interfaces.Level `yaml:"level"`
	Layout string           `yaml:"layout,omitempty"`
}

// ConsoleConfig configures the console appender
type ConsoleConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ZapConfig configures the appender forwarding events to a zap logger
type ZapConfig struct {
	Enabled bool `yaml:"enabled"`
}

// FileConfig configures the plain file appender
type FileConfig struct {
	Path          string        `yaml:"path"`
	Buffered      bool          `yaml:"buffered"`
	BufferSize    int           `yaml:"buffer_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// RotationConfig configures the rolling file appender.
// Sizes are in megabytes and ages in days.
type RotationConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	LocalTime  bool   `yaml:"local_time"`
	Compress   bool   `yaml:"compress"`
}

// NewDefaultConfig creates a new default configuration
func NewDefaultConfig() *Config {
	return &Config{
		Layout:                 DefaultLayout,
		AllowAppenderInjection: true,
		Loggers: []LoggerConfig{
			{Tag: MainLogger, Level: DefaultLevel},
		},
		Console:      ConsoleConfig{Enabled: true},
		SamplingRate: 1,
	}
}

// Validate reports the first structural problem in the configuration
func (c *Config) Validate() error {
	if c.SamplingRate < 0 {
		return fmt.Errorf("%w: sampling rate %d is negative", ErrInvalidConfig, c.SamplingRate)
	}
	if c.File != nil {
		if c.File.Path == "" {
			return fmt.Errorf("%w: file path is empty", ErrInvalidConfig)
		}
		if c.File.Buffered && c.File.BufferSize < 0 {
			return fmt.Errorf("%w: buffer size %d is negative", ErrInvalidConfig, c.File.BufferSize)
		}
	}
	if c.Rotation != nil {
		if c.Rotation.Path == "" {
			return fmt.Errorf("%w: rotation path is empty", ErrInvalidConfig)
		}
		if c.Rotation.MaxSize < 0 || c.Rotation.MaxBackups < 0 || c.Rotation.MaxAge < 0 {
			return fmt.Errorf("%w: rotation limits must not be negative", ErrInvalidConfig)
		}
	}

	seen := make(map[string]bool, len(c.Loggers))
	for _, l := range c.Loggers {
		tag := l.Tag
		if tag == "" {
			tag = MainLogger
		}
		if seen[tag] {
			return fmt.Errorf("%w: logger %q configured twice", ErrInvalidConfig, tag)
		}
		seen[tag] = true
	}
	return nil
}

// YAML renders the configuration as YAML
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}
