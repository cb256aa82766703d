package metrics

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Lunar-Chipter/crystal/internal/interfaces"
)

// PrometheusCollector exports pipeline measurements as Prometheus metrics
type PrometheusCollector struct {
	events       *prometheus.CounterVec
	appends      *prometheus.CounterVec
	appendErrors *prometheus.CounterVec
	appendTime   *prometheus.HistogramVec
	cacheEntries prometheus.Gauge
}

// NewPrometheusCollector registers the crystal_* metrics with reg.
// A nil reg uses prometheus.DefaultRegisterer. Metrics already registered by
// an earlier collector are shared, so several managers can report to one
// registry. Registration conflicts with foreign metrics are returned.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	var (
		p   PrometheusCollector
		err error
	)
	if p.events, err = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crystal_events_total",
			Help: "Total log events dispatched to appenders",
		},
		[]string{"level"},
	)); err != nil {
		return nil, err
	}
	if p.appends, err = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crystal_appends_total",
			Help: "Total appender calls",
		},
		[]string{"appender"},
	)); err != nil {
		return nil, err
	}
	if p.appendErrors, err = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crystal_append_errors_total",
			Help: "Total appender calls that returned an error",
		},
		[]string{"appender"},
	)); err != nil {
		return nil, err
	}
	if p.appendTime, err = register(reg, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crystal_append_duration_seconds",
			Help:    "Time spent formatting and writing one event in an appender",
			Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
		},
		[]string{"appender"},
	)); err != nil {
		return nil, err
	}
	if p.cacheEntries, err = register(reg, prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "crystal_layout_cache_entries",
			Help: "Number of compiled layouts held in the layout cache",
		},
	)); err != nil {
		return nil, err
	}
	return &p, nil
}

// register adds c to reg, returning the collector registered before it when
// an identical one already exists.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return c, errors.Wrap(err, "register metrics")
}

func (p *PrometheusCollector) IncrementEvent(level interfaces.Level) {
	p.events.WithLabelValues(strings.ToLower(level.String())).Inc()
}

func (p *PrometheusCollector) RecordAppend(appender string, duration time.Duration, err error) {
	p.appends.WithLabelValues(appender).Inc()
	if err != nil {
		p.appendErrors.WithLabelValues(appender).Inc()
	}
	p.appendTime.WithLabelValues(appender).Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordCacheSize(entries int) {
	p.cacheEntries.Set(float64(entries))
}

// Multi fans measurements out to several collectors
type Multi []MetricsCollector

func (m Multi) IncrementEvent(level interfaces.Level) {
	for _, c := range m {
		c.IncrementEvent(level)
	}
}

func (m Multi) RecordAppend(appender string, duration time.Duration, err error) {
	for _, c := range m {
		c.RecordAppend(appender, duration, err)
	}
}

func (m Multi) RecordCacheSize(entries int) {
	for _, c := range m {
		c.RecordCacheSize(entries)
	}
}
