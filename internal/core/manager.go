// Package core ties configuration, appenders and loggers together.
// Paket core menghubungkan konfigurasi, appender dan logger.
package core

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Lunar-Chipter/crystal/internal/config"
	"github.com/Lunar-Chipter/crystal/internal/interfaces"
	"github.com/Lunar-Chipter/crystal/internal/layout"
	"github.com/Lunar-Chipter/crystal/internal/metrics"
	"github.com/Lunar-Chipter/crystal/internal/outputs"
)

var (
	// ErrConfigurationFinalized is returned by Configure once an event was logged
	ErrConfigurationFinalized = errors.New("configuration finalized: logging already in use")

	// ErrAppenderInjectionDisabled is returned by AddAppender after the first
	// event when the configuration does not allow late appenders
	ErrAppenderInjectionDisabled = errors.New("appender injection disabled after first event")

	// ErrInvalidAppender is returned for factories that cannot build a named appender
	ErrInvalidAppender = errors.New("invalid appender")
)

// ContextExtractor pulls structured values out of a context for *Context log calls
type ContextExtractor func(ctx context.Context) map[string]string

// loggerSetting is a configured logger tag with its defaults resolved
type loggerSetting struct {
	tag    string
	level  interfaces.Level
	layout string
}

// Manager owns the registered appender factories and the per-tag appender
// instances every Logger dispatches to.
// Manager memegang factory appender dan instance appender per tag.
type Manager struct {
	mu sync.RWMutex

	// Registry: factories added with AddAppender survive reconfiguration,
	// factories built from a configuration are replaced by the next one.
	injected  []interfaces.AppenderFactory
	factories []interfaces.AppenderFactory
	names     map[string]struct{}
	set       *outputs.Set

	configured     bool
	finalized      atomic.Bool
	allowInjection bool
	layout         string
	settings       []loggerSetting
	loggers        map[string][]interfaces.Appender

	status           *zap.Logger
	zapLogger        *zap.Logger
	errorHandler     func(error)
	metrics          metrics.MetricsCollector
	registerer       prometheus.Registerer
	metricsEnabled   bool
	contextExtractor ContextExtractor
	now              func() time.Time
}

// Option customizes a Manager
type Option func(*Manager)

// WithStatusLogger replaces the logger used for the library's own diagnostics
func WithStatusLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.status = l
		}
	}
}

// WithZapLogger sets the logger backing the zap appender
func WithZapLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.zapLogger = l }
}

// WithMetrics sets the collector notified of every dispatched event
func WithMetrics(c metrics.MetricsCollector) Option {
	return func(m *Manager) {
		if c != nil {
			m.metrics = c
		}
	}
}

// WithRegisterer sets where the Prometheus collector registers when a
// configuration enables metrics. Defaults to prometheus.DefaultRegisterer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(m *Manager) { m.registerer = reg }
}

// WithContextExtractor sets the extractor used by the *Context log methods
func WithContextExtractor(fn ContextExtractor) Option {
	return func(m *Manager) { m.contextExtractor = fn }
}

// WithClock overrides the time source for event dates
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates an unconfigured manager. The first GetLogger call
// applies the default configuration unless Configure ran before.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		names:   make(map[string]struct{}),
		loggers: make(map[string][]interfaces.Appender),
		layout:  config.DefaultLayout,
		status:  NewStatusLogger(nil),
		metrics: metrics.NopCollector{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Configure applies cfg, replacing any previous configuration. It fails with
// ErrConfigurationFinalized once an event has been logged. A nil cfg applies
// the defaults.
func (m *Manager) Configure(cfg *config.Config) error {
	return m.configure(cfg, false)
}

func (m *Manager) configure(cfg *config.Config, onlyIfUnconfigured bool) error {
	if onlyIfUnconfigured {
		m.mu.RLock()
		configured := m.configured
		m.mu.RUnlock()
		if configured {
			return nil
		}
	}
	if m.finalized.Load() {
		m.status.Warn("could not configure: logging already in use")
		return ErrConfigurationFinalized
	}
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	// Outputs replaced below are closed after the lock is released since
	// flushing may report errors through reportError.
	var stale *outputs.Set
	defer func() {
		if stale != nil {
			if err := stale.Close(); err != nil {
				m.status.Warn("closing previous outputs", zap.Error(err))
			}
		}
	}()

	m.mu.Lock()
	defer m.mu.Unlock()
	if onlyIfUnconfigured && m.configured {
		return nil
	}
	if m.finalized.Load() {
		m.status.Warn("could not configure: logging already in use")
		return ErrConfigurationFinalized
	}

	var prom *metrics.PrometheusCollector
	if cfg.EnableMetrics && !m.metricsEnabled {
		c, err := metrics.NewPrometheusCollector(m.registerer)
		if err != nil {
			return err
		}
		prom = c
	}

	set, err := outputs.FromConfig(cfg, m.zapLogger, m.reportError)
	if err != nil {
		return err
	}

	if cfg.Layout != "" {
		m.layout = cfg.Layout
	}
	m.allowInjection = cfg.AllowAppenderInjection
	if cfg.ErrorHandler != nil {
		m.errorHandler = cfg.ErrorHandler
	}
	if prom != nil {
		m.metrics = metrics.Multi{m.metrics, prom}
		m.metricsEnabled = true
	}

	// Rebuild the registry: injected appenders first, then configured outputs
	stale = m.set
	m.set = set
	m.factories = nil
	m.names = make(map[string]struct{})
	for _, f := range m.injected {
		_, _ = m.registerLocked(f)
	}
	for _, f := range set.Factories {
		if _, err := m.registerLocked(f); err != nil {
			m.status.Warn("skipping configured appender", zap.Error(err))
		}
	}

	loggers := cfg.Loggers
	if len(loggers) == 0 {
		loggers = []config.LoggerConfig{{Tag: config.MainLogger}}
	}
	m.settings = m.settings[:0]
	m.loggers = make(map[string][]interfaces.Appender, len(loggers))
	for _, lc := range loggers {
		s := loggerSetting{tag: lc.Tag, level: lc.Level, layout: lc.Layout}
		if s.tag == "" {
			s.tag = config.MainLogger
		}
		if s.level == 0 {
			s.level = config.DefaultLevel
		}
		if s.layout == "" {
			s.layout = m.layout
		}
		layout.PreCompile(s.layout)

		m.settings = append(m.settings, s)
		m.loggers[s.tag] = m.instantiateLocked(s, m.factories)
	}
	m.configured = true
	return nil
}

// AddAppender registers a factory. The first registration of a name wins;
// later ones are ignored. Once configured, the new appender is also added to
// every configured logger.
func (m *Manager) AddAppender(factory interfaces.AppenderFactory) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.finalized.Load() && !m.allowInjection {
		m.status.Warn("could not add appender: configuration finalized")
		return ErrAppenderInjectionDisabled
	}

	added, err := m.registerLocked(factory)
	if err != nil {
		return err
	}
	m.injected = append(m.injected, factory)
	if !added {
		return nil
	}
	for _, s := range m.settings {
		m.loggers[s.tag] = append(m.loggers[s.tag], m.instantiateLocked(s, []interfaces.AppenderFactory{factory})...)
	}
	return nil
}

// registerLocked validates factory and records it unless its name is taken
func (m *Manager) registerLocked(factory interfaces.AppenderFactory) (bool, error) {
	if factory == nil {
		return false, fmt.Errorf("%w: nil factory", ErrInvalidAppender)
	}
	probe := factory()
	if probe == nil {
		return false, fmt.Errorf("%w: factory returned nil", ErrInvalidAppender)
	}
	name := probe.Name()
	if name == "" {
		return false, fmt.Errorf("%w: empty name", ErrInvalidAppender)
	}
	if _, ok := m.names[name]; ok {
		return false, nil
	}
	m.names[name] = struct{}{}
	m.factories = append(m.factories, factory)
	return true, nil
}

func (m *Manager) instantiateLocked(s loggerSetting, factories []interfaces.AppenderFactory) []interfaces.Appender {
	appenders := make([]interfaces.Appender, 0, len(factories))
	for _, f := range factories {
		a := f()
		if a == nil {
			continue
		}
		a.SetLogLevel(s.level)
		a.SetLayout(s.layout)
		appenders = append(appenders, a)
	}
	return appenders
}

// GetLogger returns a logger named after owner: a string is used as is, a
// func by its function name, any other value by its type name, nil as "main".
func (m *Manager) GetLogger(owner interface{}) *Logger {
	if err := m.configure(nil, true); err != nil && !errors.Is(err, ErrConfigurationFinalized) {
		m.reportError(err)
	}
	return newLogger(LoggerName(owner), m)
}

// LoggerName derives a logger name from the value a logger is requested for
func LoggerName(owner interface{}) string {
	switch v := owner.(type) {
	case nil:
		return config.MainLogger
	case string:
		return v
	}

	t := reflect.TypeOf(owner)
	if t.Kind() == reflect.Func {
		return layout.MethodName(owner)
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "anonymous"
	}
	return t.Name()
}

// SetLogLevel changes the level of the named loggers, or of every logger
// when no tag is given.
func (m *Manager) SetLogLevel(level interfaces.Level, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	match := func(tag string) bool {
		if len(tags) == 0 {
			return true
		}
		for _, t := range tags {
			if t == tag {
				return true
			}
		}
		return false
	}

	for i := range m.settings {
		if !match(m.settings[i].tag) {
			continue
		}
		m.settings[i].level = level
		for _, a := range m.loggers[m.settings[i].tag] {
			a.SetLogLevel(level)
		}
	}
}

// SetSamplingRate changes the rate of every sampling appender. Appenders
// built from one factory share a sampler, so the change applies across
// logger tags. It returns the number of appenders updated.
func (m *Manager) SetSamplingRate(rate int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	updated := 0
	for _, appenders := range m.loggers {
		for _, a := range appenders {
			if s, ok := a.(*outputs.SamplingAppender); ok {
				s.Sampler().SetRate(rate)
				updated++
			}
		}
	}
	return updated
}

// Appenders returns the appenders of the logger tag
func (m *Manager) Appenders(tag string) []interfaces.Appender {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]interfaces.Appender(nil), m.loggers[tag]...)
}

// Finalized reports whether an event has been dispatched
func (m *Manager) Finalized() bool {
	return m.finalized.Load()
}

// Close releases the outputs opened by the current configuration
func (m *Manager) Close() error {
	m.mu.Lock()
	set := m.set
	m.set = nil
	m.mu.Unlock()

	var err error
	if set != nil {
		err = set.Close()
	}
	_ = m.status.Sync()
	return err
}

// dispatch sends event to every active appender of its logger tag, falling
// back to the main logger for unconfigured tags.
func (m *Manager) dispatch(event *interfaces.LogEvent) {
	m.finalized.Store(true)

	m.mu.RLock()
	appenders, ok := m.loggers[event.Logger]
	if !ok {
		appenders = m.loggers[config.MainLogger]
	}
	collector := m.metrics
	m.mu.RUnlock()

	collector.IncrementEvent(event.Level)
	for _, a := range appenders {
		if !a.IsActive(event.Level) {
			continue
		}
		start := time.Now()
		err := a.Append(event)
		collector.RecordAppend(a.Name(), time.Since(start), err)
		if err != nil {
			m.reportError(fmt.Errorf("appender %s: %w", a.Name(), err))
		}
	}
	collector.RecordCacheSize(layout.Default.Len())
}

// reportError hands err to the configured ErrorHandler or the status logger
func (m *Manager) reportError(err error) {
	m.mu.RLock()
	handler := m.errorHandler
	m.mu.RUnlock()

	if handler != nil {
		handler(err)
		return
	}
	m.status.Error("logging failure", zap.Error(err))
}
