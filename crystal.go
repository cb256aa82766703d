// Package crystal is a log4j-style logging facade: named loggers dispatch
// events to appenders that render them through layout patterns such as
// "%d{ISO8601} [%p] %c - %m".
// Paket crystal adalah fasad logging bergaya log4j.
package crystal

import (
	"sync"
	"time"

	"github.com/Lunar-Chipter/crystal/internal/config"
	"github.com/Lunar-Chipter/crystal/internal/core"
	"github.com/Lunar-Chipter/crystal/internal/datefmt"
	"github.com/Lunar-Chipter/crystal/internal/interfaces"
	"github.com/Lunar-Chipter/crystal/internal/layout"
	"github.com/Lunar-Chipter/crystal/internal/metrics"
	"github.com/Lunar-Chipter/crystal/internal/outputs"
)

// Type aliases for the public API
type (
	Logger          = core.Logger
	Manager         = core.Manager
	Option          = core.Option
	Level           = interfaces.Level
	LogEvent        = interfaces.LogEvent
	Appender        = interfaces.Appender
	AppenderFactory = interfaces.AppenderFactory
	Config          = config.Config
	LoggerConfig    = config.LoggerConfig
	FileConfig      = config.FileConfig
	RotationConfig  = config.RotationConfig
	Base            = outputs.Base

	// MetricsCollector receives event and appender measurements
	MetricsCollector = metrics.MetricsCollector
	// MemoryMetrics keeps counters and append durations in memory
	MemoryMetrics = metrics.DefaultMetricsCollector
)

// Level constants
const (
	OFF   = interfaces.OFF
	FATAL = interfaces.FATAL
	ERROR = interfaces.ERROR
	WARN  = interfaces.WARN
	INFO  = interfaces.INFO
	DEBUG = interfaces.DEBUG
	TRACE = interfaces.TRACE
	ALL   = interfaces.ALL
)

// Errors returned by the manager
var (
	ErrConfigurationFinalized    = core.ErrConfigurationFinalized
	ErrAppenderInjectionDisabled = core.ErrAppenderInjectionDisabled
	ErrInvalidAppender           = core.ErrInvalidAppender
	ErrInvalidConfig             = config.ErrInvalidConfig
)

// Convenience functions
var (
	NewManager       = core.NewManager
	NewDefaultConfig = config.NewDefaultConfig
	NewBase          = outputs.NewBase
	NewMemoryMetrics = metrics.NewDefaultMetricsCollector
	ParseLevel       = interfaces.ParseLevel

	WithStatusLogger     = core.WithStatusLogger
	WithZapLogger        = core.WithZapLogger
	WithMetrics          = core.WithMetrics
	WithRegisterer       = core.WithRegisterer
	WithContextExtractor = core.WithContextExtractor
	WithClock            = core.WithClock
)

// SetSamplingRate changes the rate of the default manager's sampling appenders
func SetSamplingRate(rate int) int {
	return manager().SetSamplingRate(rate)
}

var (
	defaultMu      sync.RWMutex
	defaultManager = core.NewManager()
)

func manager() *core.Manager {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultManager
}

// SetDefault replaces the manager behind the package-level functions and
// returns the previous one.
func SetDefault(m *Manager) *Manager {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultManager
	defaultManager = m
	return prev
}

// Configure applies cfg to the default manager
func Configure(cfg *Config) error {
	return manager().Configure(cfg)
}

// AddAppender registers an appender factory with the default manager
func AddAppender(factory AppenderFactory) error {
	return manager().AddAppender(factory)
}

// GetLogger returns a logger of the default manager named after owner
func GetLogger(owner interface{}) *Logger {
	return manager().GetLogger(owner)
}

// SetLogLevel changes the level of the tagged loggers, or of all loggers
func SetLogLevel(level Level, tags ...string) {
	manager().SetLogLevel(level, tags...)
}

// Close releases the outputs of the default manager
func Close() error {
	return manager().Close()
}

// Format renders event through a layout pattern
func Format(pattern string, event *LogEvent) string {
	return layout.Format(pattern, event)
}

// PreCompile parses pattern into the layout cache ahead of its first use
func PreCompile(pattern string) {
	layout.PreCompile(pattern)
}

// ClearLayoutCache drops every compiled layout
func ClearLayoutCache() {
	layout.ClearCache()
}

// FormatDate renders t with a date mask or one of the named masks
// (DEFAULT, ABSOLUTE, COMPACT, DATE, ISO8601, ISO8601_BASIC).
func FormatDate(t time.Time, mask string) string {
	return datefmt.Format(t, mask)
}

// DateMasks returns the named date masks accepted by FormatDate and %d{...}
func DateMasks() map[string]string {
	return datefmt.Aliases()
}

// LayoutDirectives maps every directive name accepted in layout patterns to
// the event field it renders.
func LayoutDirectives() map[string]string {
	kinds := layout.Directives()
	out := make(map[string]string, len(kinds))
	for name, kind := range kinds {
		out[name] = kind.String()
	}
	return out
}
