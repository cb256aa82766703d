package core

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Lunar-Chipter/crystal/internal/config"
	"github.com/Lunar-Chipter/crystal/internal/interfaces"
	"github.com/Lunar-Chipter/crystal/internal/metrics"
	"github.com/Lunar-Chipter/crystal/internal/outputs"
)

var fixedTime = time.Date(2023, time.January, 5, 10, 0, 0, 0, time.UTC)

// syncBuffer is a bytes.Buffer safe for concurrent appenders
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := strings.TrimSuffix(s.buf.String(), "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

type failingAppender struct {
	*outputs.Base
}

func (failingAppender) Name() string { return "failing" }

func (failingAppender) Append(*interfaces.LogEvent) error {
	return errors.New("sink unavailable")
}

// newTestManager returns a manager whose only appender writes to the returned buffer
func newTestManager(t *testing.T, cfg *config.Config, opts ...Option) (*Manager, *syncBuffer, *observer.ObservedLogs) {
	t.Helper()
	statusCore, status := observer.New(zapcore.WarnLevel)
	opts = append([]Option{
		WithStatusLogger(zap.New(statusCore)),
		WithClock(func() time.Time { return fixedTime }),
	}, opts...)
	m := NewManager(opts...)

	buf := &syncBuffer{}
	require.NoError(t, m.AddAppender(outputs.NewOutput("memory", buf).Factory()))

	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	cfg.Console.Enabled = false
	require.NoError(t, m.Configure(cfg))
	return m, buf, status
}

func TestManagerDefaults(t *testing.T) {
	m, buf, _ := newTestManager(t, nil)

	appenders := m.Appenders(config.MainLogger)
	require.Len(t, appenders, 1)
	assert.Equal(t, "memory", appenders[0].Name())

	log := m.GetLogger("main")
	log.Info("started")
	log.Debug("hidden")

	assert.Equal(t, []string{"2023-01-05 10:00:00,0 [INFO] main - started"}, buf.Lines())
	assert.True(t, m.Finalized())
}

func TestManagerConfigureAfterFirstEvent(t *testing.T) {
	m, _, status := newTestManager(t, nil)
	m.GetLogger(nil).Info("first")

	err := m.Configure(config.NewDefaultConfig())
	assert.True(t, errors.Is(err, ErrConfigurationFinalized))
	assert.Equal(t, 1, status.FilterMessageSnippet("could not configure").Len())
}

func TestManagerConfigureRacingFirstEvent(t *testing.T) {
	m, buf, _ := newTestManager(t, layoutConfig("%m"))
	log := m.GetLogger(nil)

	// Configure gets past its first finalized check, then waits for the lock
	// while the first event is dispatched.
	m.mu.Lock()
	result := make(chan error, 1)
	go func() { result <- m.Configure(layoutConfig("replaced %m")) }()
	time.Sleep(20 * time.Millisecond)

	logged := make(chan struct{})
	go func() {
		log.Info("first")
		close(logged)
	}()
	require.Eventually(t, m.Finalized, time.Second, time.Millisecond)
	m.mu.Unlock()

	<-logged
	assert.True(t, errors.Is(<-result, ErrConfigurationFinalized))
	log.Info("second")
	assert.Equal(t, []string{"first", "second"}, buf.Lines())
}

func TestManagerLoggerTags(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Layout = "%c %p %m"
	cfg.Loggers = []config.LoggerConfig{
		{Level: interfaces.WARN},
		{Tag: "db", Level: interfaces.DEBUG, Layout: "db:%m"},
	}
	m, buf, _ := newTestManager(t, cfg)

	m.GetLogger("db").Debug("query")
	m.GetLogger("http").Info("dropped by main level")
	m.GetLogger("http").Warn("slow")

	assert.Equal(t, []string{"db:query", "http WARN slow"}, buf.Lines())
}

func TestManagerEmptyLoggersUseMain(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Loggers = nil
	m, _, _ := newTestManager(t, cfg)
	assert.Len(t, m.Appenders(config.MainLogger), 1)
}

func TestManagerConfigureInvalid(t *testing.T) {
	m := NewManager(WithStatusLogger(zap.NewNop()))
	cfg := config.NewDefaultConfig()
	cfg.Loggers = []config.LoggerConfig{{Tag: "a"}, {Tag: "a"}}

	err := m.Configure(cfg)
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
}

func TestManagerReconfigureKeepsInjectedAppenders(t *testing.T) {
	m, buf, _ := newTestManager(t, nil)

	cfg := config.NewDefaultConfig()
	cfg.Console.Enabled = false
	cfg.Layout = "%m"
	require.NoError(t, m.Configure(cfg))

	m.GetLogger(nil).Info("again")
	assert.Equal(t, []string{"again"}, buf.Lines())
}

func TestManagerAddAppenderValidation(t *testing.T) {
	m := NewManager(WithStatusLogger(zap.NewNop()))

	tests := []struct {
		name    string
		factory interfaces.AppenderFactory
	}{
		{"nil factory", nil},
		{"nil instance", func() interfaces.Appender { return nil }},
		{"empty name", outputs.NewOutput("", &bytes.Buffer{}).Factory()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.AddAppender(tt.factory)
			assert.True(t, errors.Is(err, ErrInvalidAppender))
		})
	}
}

func TestManagerAddAppenderFirstNameWins(t *testing.T) {
	m, first, _ := newTestManager(t, nil)

	second := &syncBuffer{}
	require.NoError(t, m.AddAppender(outputs.NewOutput("memory", second).Factory()))

	m.GetLogger(nil).Info("once")
	assert.Len(t, first.Lines(), 1)
	assert.Empty(t, second.Lines())
}

func TestManagerAddAppenderAfterFirstEvent(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.AllowAppenderInjection = false
	m, _, status := newTestManager(t, cfg)
	m.GetLogger(nil).Info("first")

	err := m.AddAppender(outputs.NewOutput("late", &syncBuffer{}).Factory())
	assert.True(t, errors.Is(err, ErrAppenderInjectionDisabled))
	assert.Equal(t, 1, status.FilterMessageSnippet("could not add appender").Len())
}

func TestManagerAddAppenderInjectionAllowed(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Layout = "%m"
	m, _, _ := newTestManager(t, cfg)
	log := m.GetLogger(nil)
	log.Info("first")

	late := &syncBuffer{}
	require.NoError(t, m.AddAppender(outputs.NewOutput("late", late).Factory()))
	log.Info("second")

	assert.Equal(t, []string{"second"}, late.Lines())
	assert.Len(t, m.Appenders(config.MainLogger), 2)
}

func TestManagerSetLogLevel(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Layout = "%c:%m"
	cfg.Loggers = []config.LoggerConfig{{Tag: "main"}, {Tag: "db"}}
	m, buf, _ := newTestManager(t, cfg)

	m.SetLogLevel(interfaces.DEBUG, "db")
	m.GetLogger("db").Debug("a")
	m.GetLogger("main").Debug("b")

	m.SetLogLevel(interfaces.TRACE)
	m.GetLogger("main").Trace("c")

	assert.Equal(t, []string{"db:a", "main:c"}, buf.Lines())
}

func TestManagerSetSamplingRate(t *testing.T) {
	cfg := layoutConfig("%sn")
	cfg.SamplingRate = 2
	cfg.File = &config.FileConfig{Path: t.TempDir() + "/sampled.log"}
	m, _, _ := newTestManager(t, cfg)
	t.Cleanup(func() { _ = m.Close() })

	var sampled *outputs.SamplingAppender
	for _, a := range m.Appenders(config.MainLogger) {
		if s, ok := a.(*outputs.SamplingAppender); ok {
			sampled = s
		}
	}
	require.NotNil(t, sampled)
	assert.Equal(t, 2, sampled.Sampler().Rate())

	assert.Equal(t, 1, m.SetSamplingRate(5))
	assert.Equal(t, 5, sampled.Sampler().Rate())
}

func TestManagerAppenderErrors(t *testing.T) {
	t.Run("status logger", func(t *testing.T) {
		m, _, status := newTestManager(t, nil)
		require.NoError(t, m.AddAppender(func() interfaces.Appender {
			return failingAppender{Base: outputs.NewBase()}
		}))

		m.GetLogger(nil).Error("boom")
		entries := status.FilterMessage("logging failure").All()
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].ContextMap()["error"], "appender failing: sink unavailable")
	})

	t.Run("error handler", func(t *testing.T) {
		var got []error
		cfg := config.NewDefaultConfig()
		cfg.ErrorHandler = func(err error) { got = append(got, err) }
		cfg.Appenders = []interfaces.AppenderFactory{func() interfaces.Appender {
			return failingAppender{Base: outputs.NewBase()}
		}}
		m, _, status := newTestManager(t, cfg)

		m.GetLogger(nil).Error("boom")
		require.Len(t, got, 1)
		assert.Contains(t, got[0].Error(), "sink unavailable")
		assert.Zero(t, status.FilterMessage("logging failure").Len())
	})
}

func TestManagerMetrics(t *testing.T) {
	collector := metrics.NewDefaultMetricsCollector()
	m, _, _ := newTestManager(t, nil, WithMetrics(collector))

	log := m.GetLogger(nil)
	log.Info("a")
	log.Warn("b")
	log.Debug("filtered")

	assert.Equal(t, int64(1), collector.GetCounter(metrics.EventsPrefix+"info"))
	assert.Equal(t, int64(1), collector.GetCounter(metrics.EventsPrefix+"warn"))
	assert.Equal(t, int64(1), collector.GetCounter(metrics.EventsPrefix+"debug"))
	assert.Equal(t, int64(2), collector.GetCounter(metrics.AppendsPrefix+"memory"))
	assert.Positive(t, collector.CacheSize())
}

func TestManagerPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := config.NewDefaultConfig()
	cfg.EnableMetrics = true
	m, _, _ := newTestManager(t, cfg, WithRegisterer(reg))

	m.GetLogger(nil).Error("counted")
	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "crystal_events_total")
	assert.Contains(t, names, "crystal_appends_total")
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "crystal_events_total"))
}

func TestManagerPrometheusMetricsSharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := func() *config.Config {
		c := config.NewDefaultConfig()
		c.EnableMetrics = true
		return c
	}
	first, _, _ := newTestManager(t, cfg(), WithRegisterer(reg))
	second, _, _ := newTestManager(t, cfg(), WithRegisterer(reg))

	first.GetLogger(nil).Error("a")
	second.GetLogger(nil).Error("b")

	assert.Equal(t, 1, testutil.CollectAndCount(reg, "crystal_appends_total"))
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "crystal_events_total" {
			require.Len(t, f.GetMetric(), 1)
			assert.Equal(t, 2.0, f.GetMetric()[0].GetCounter().GetValue())
		}
	}
}

func TestManagerPrometheusMetricsConflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{Name: "crystal_appends_total", Help: "other"}))

	m := NewManager(WithStatusLogger(zap.NewNop()), WithRegisterer(reg))
	cfg := config.NewDefaultConfig()
	cfg.Console.Enabled = false
	cfg.EnableMetrics = true
	err := m.Configure(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register metrics")
}

func TestManagerGetLoggerConfiguresDefaults(t *testing.T) {
	m := NewManager(WithStatusLogger(zap.NewNop()))
	log := m.GetLogger("svc")

	assert.Equal(t, "svc", log.Name())
	appenders := m.Appenders(config.MainLogger)
	require.Len(t, appenders, 1)
	assert.Equal(t, outputs.ConsoleName, appenders[0].Name())
}

func TestManagerClose(t *testing.T) {
	dir := t.TempDir()
	cfg := config.NewDefaultConfig()
	cfg.File = &config.FileConfig{Path: dir + "/app.log"}
	m, _, _ := newTestManager(t, cfg)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

type worker struct{}

func namedHandler() {}

func TestLoggerName(t *testing.T) {
	tests := []struct {
		name     string
		context  interface{}
		expected string
	}{
		{"nil", nil, "main"},
		{"string", "payments", "payments"},
		{"function", namedHandler, "namedHandler"},
		{"closure", func() {}, "anonymous"},
		{"pointer", &worker{}, "worker"},
		{"value", worker{}, "worker"},
		{"anonymous struct", struct{ ID int }{}, "anonymous"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LoggerName(tt.context))
		})
	}
}

func TestNewStatusLogger(t *testing.T) {
	buf := &syncBuffer{}
	l := NewStatusLogger(zapcore.AddSync(buf))
	l.Info("ignored")
	l.Warn("configuration rejected")
	require.NoError(t, l.Sync())

	lines := buf.Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "warn")
	assert.Contains(t, lines[0], "crystal")
	assert.Contains(t, lines[0], "configuration rejected")
}
