// Package outputs provides the appenders that deliver formatted log events
// to their destinations.
package outputs

import (
	"sync"

	"github.com/Lunar-Chipter/crystal/internal/config"
	"github.com/Lunar-Chipter/crystal/internal/interfaces"
	"github.com/Lunar-Chipter/crystal/internal/layout"
)

// Base holds the level and layout shared by every appender.
// Embed a *Base and implement Name and Append.
type Base struct {
	mu     sync.RWMutex
	level  interfaces.Level
	layout string
}

// NewBase creates a Base with the default level and layout
func NewBase() *Base {
	return &Base{level: config.DefaultLevel, layout: config.DefaultLayout}
}

// IsActive reports whether level is at least as severe as the configured level
func (b *Base) IsActive(level interfaces.Level) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return level <= b.level
}

// SetLogLevel sets the least severe level the appender accepts
func (b *Base) SetLogLevel(level interfaces.Level) {
	b.mu.Lock()
	b.level = level
	b.mu.Unlock()
}

// LogLevel returns the configured level
func (b *Base) LogLevel() interfaces.Level {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.level
}

// SetLayout sets the layout and warms the layout cache for it
func (b *Base) SetLayout(pattern string) {
	layout.PreCompile(pattern)
	b.mu.Lock()
	b.layout = pattern
	b.mu.Unlock()
}

// Layout returns the configured layout
func (b *Base) Layout() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.layout
}

// Format renders event with the configured layout
func (b *Base) Format(event *interfaces.LogEvent) string {
	return layout.Format(b.Layout(), event)
}

// OutputAppender writes one formatted line per event to a shared Output.
// Every logger gets its own OutputAppender so levels and layouts stay independent.
type OutputAppender struct {
	*Base
	out *Output
}

// NewOutputAppender creates an appender writing to out
func NewOutputAppender(out *Output) *OutputAppender {
	return &OutputAppender{Base: NewBase(), out: out}
}

func (a *OutputAppender) Name() string {
	return a.out.Name()
}

func (a *OutputAppender) Append(event *interfaces.LogEvent) error {
	return a.out.WriteLine(a.Format(event))
}
