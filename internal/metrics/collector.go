package metrics

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Lunar-Chipter/crystal/internal/interfaces"
)

// MetricsCollector receives logging pipeline measurements
// MetricsCollector menerima pengukuran pipeline logging
type MetricsCollector interface {
	// IncrementEvent counts one dispatched event at the given level
	// IncrementEvent menghitung satu event yang dikirim pada level tertentu
	IncrementEvent(level interfaces.Level)

	// RecordAppend counts one appender call and records how long it took
	// RecordAppend menghitung satu panggilan appender dan mencatat durasinya
	RecordAppend(appender string, duration time.Duration, err error)

	// RecordCacheSize records the number of compiled layouts held in the cache
	// RecordCacheSize mencatat jumlah layout terkompilasi yang ada di cache
	RecordCacheSize(entries int)
}

// Counter and histogram key prefixes used by DefaultMetricsCollector
const (
	EventsPrefix       = "events."
	AppendsPrefix      = "appends."
	AppendErrorsPrefix = "append_errors."
)

// MaxHistogramSamples bounds the durations kept per histogram; the oldest
// sample is dropped first.
const MaxHistogramSamples = 1024

// NopCollector discards every measurement
type NopCollector struct{}

func (NopCollector) IncrementEvent(interfaces.Level)           {}
func (NopCollector) RecordAppend(string, time.Duration, error) {}
func (NopCollector) RecordCacheSize(int)                       {}

// DefaultMetricsCollector is a simple in-memory metrics collector
type DefaultMetricsCollector struct {
	counters   map[string]int64
	histograms map[string][]float64
	cacheSize  int
	mu         sync.RWMutex
}

// NewDefaultMetricsCollector creates a new DefaultMetricsCollector
func NewDefaultMetricsCollector() *DefaultMetricsCollector {
	return &DefaultMetricsCollector{
		counters:   make(map[string]int64),
		histograms: make(map[string][]float64),
	}
}

// IncrementEvent increments the "events.<level>" counter
func (d *DefaultMetricsCollector) IncrementEvent(level interfaces.Level) {
	key := EventsPrefix + strings.ToLower(level.String())
	d.mu.Lock()
	defer d.mu.Unlock()
	d.counters[key]++
}

// RecordAppend increments "appends.<name>" (and "append_errors.<name>" on
// failure) and records the duration in seconds under "appends.<name>",
// keeping the latest MaxHistogramSamples durations.
func (d *DefaultMetricsCollector) RecordAppend(appender string, duration time.Duration, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.counters[AppendsPrefix+appender]++
	if err != nil {
		d.counters[AppendErrorsPrefix+appender]++
	}
	samples := d.histograms[AppendsPrefix+appender]
	if len(samples) >= MaxHistogramSamples {
		samples = samples[len(samples)-MaxHistogramSamples+1:]
	}
	d.histograms[AppendsPrefix+appender] = append(samples, duration.Seconds())
}

// RecordCacheSize stores the latest layout cache size
func (d *DefaultMetricsCollector) RecordCacheSize(entries int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cacheSize = entries
}

// GetCounter returns the value of a counter metric
func (d *DefaultMetricsCollector) GetCounter(metric string) int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.counters[metric]
}

// GetAllCounters returns all counter metrics
func (d *DefaultMetricsCollector) GetAllCounters() map[string]int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make(map[string]int64, len(d.counters))
	for k, v := range d.counters {
		result[k] = v
	}
	return result
}

// CacheSize returns the last recorded layout cache size
func (d *DefaultMetricsCollector) CacheSize() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cacheSize
}

// GetHistogram returns statistics for a histogram metric
func (d *DefaultMetricsCollector) GetHistogram(metric string) (min, max, avg, p95 float64) {
	d.mu.RLock()
	values := make([]float64, len(d.histograms[metric]))
	copy(values, d.histograms[metric])
	d.mu.RUnlock()

	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	sort.Float64s(values)
	min = values[0]
	max = values[len(values)-1]
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	avg = sum / float64(len(values))
	p95Index := int(math.Ceil(0.95*float64(len(values)))) - 1
	if p95Index < 0 {
		p95Index = 0
	}
	p95 = values[p95Index]
	return min, max, avg, p95
}

// Reset clears every recorded metric
func (d *DefaultMetricsCollector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.counters = make(map[string]int64)
	d.histograms = make(map[string][]float64)
	d.cacheSize = 0
}
