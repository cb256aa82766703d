package core

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Lunar-Chipter/crystal/internal/interfaces"
)

// callerSkip drops runtime.Callers, Logger.log and the exported log method
// so the first captured frame is the caller of the logger.
const callerSkip = 3

// maxCallers bounds the number of program counters captured per event
const maxCallers = 8

// placeholder is replaced by one argument each in log messages
const placeholder = "{}"

// Logger builds log events for one logger name and hands them to its manager.
// Logger membangun event log untuk satu nama logger.
type Logger struct {
	name     string
	manager  *Manager
	created  time.Time
	sequence atomic.Uint64
}

func newLogger(name string, m *Manager) *Logger {
	return &Logger{
		name:    name,
		manager: m,
		created: m.now(),
	}
}

// Name returns the logger name rendered by %c
func (l *Logger) Name() string {
	return l.name
}

// Fatal logs a message at FATAL level. The process is not terminated.
// Fatal mencatat pesan pada level FATAL tanpa menghentikan proses.
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.log(nil, interfaces.FATAL, msg, args)
}

// Error logs a message at ERROR level
// Error mencatat pesan pada level ERROR
func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(nil, interfaces.ERROR, msg, args)
}

// Warn logs a message at WARN level
// Warn mencatat pesan pada level WARN
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log(nil, interfaces.WARN, msg, args)
}

// Info logs a message at INFO level
// Info mencatat pesan pada level INFO
func (l *Logger) Info(msg string, args ...interface{}) {
	l.log(nil, interfaces.INFO, msg, args)
}

// Debug logs a message at DEBUG level
// Debug mencatat pesan pada level DEBUG
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log(nil, interfaces.DEBUG, msg, args)
}

// Trace logs a message at TRACE level
// Trace mencatat pesan pada level TRACE
func (l *Logger) Trace(msg string, args ...interface{}) {
	l.log(nil, interfaces.TRACE, msg, args)
}

// Log logs a message at the given level
func (l *Logger) Log(level interfaces.Level, msg string, args ...interface{}) {
	l.log(nil, level, msg, args)
}

// FatalContext logs at FATAL level with values extracted from ctx
func (l *Logger) FatalContext(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, interfaces.FATAL, msg, args)
}

// ErrorContext logs at ERROR level with values extracted from ctx
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, interfaces.ERROR, msg, args)
}

// WarnContext logs at WARN level with values extracted from ctx
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, interfaces.WARN, msg, args)
}

// InfoContext logs at INFO level with values extracted from ctx
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, interfaces.INFO, msg, args)
}

// DebugContext logs at DEBUG level with values extracted from ctx
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, interfaces.DEBUG, msg, args)
}

// TraceContext logs at TRACE level with values extracted from ctx
func (l *Logger) TraceContext(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, interfaces.TRACE, msg, args)
}

func (l *Logger) log(ctx context.Context, level interfaces.Level, msg string, args []interface{}) {
	var pcs [maxCallers]uintptr
	n := runtime.Callers(callerSkip, pcs[:])

	now := l.manager.now()
	event := &interfaces.LogEvent{
		Date:     now,
		Level:    level,
		Logger:   l.name,
		Relative: now.Sub(l.created).Milliseconds(),
		Sequence: l.sequence.Add(1),
		Callers:  pcs[:n],
	}
	applyArgs(event, msg, args)
	if ctx != nil {
		l.manager.mergeContext(ctx, event)
	}

	l.manager.dispatch(event)
}

// applyArgs substitutes one argument per {} placeholder, in order. Remaining
// arguments attach an error or a property map to the event.
func applyArgs(event *interfaces.LogEvent, msg string, args []interface{}) {
	stubs := strings.Count(msg, placeholder)
	if stubs == 0 || len(args) == 0 {
		event.Message = msg
	} else {
		var sb strings.Builder
		rest := msg
		for stubs > 0 && len(args) > 0 {
			i := strings.Index(rest, placeholder)
			sb.WriteString(rest[:i])
			sb.WriteString(fmt.Sprint(args[0]))
			rest = rest[i+len(placeholder):]
			args = args[1:]
			stubs--
		}
		sb.WriteString(rest)
		event.Message = sb.String()
	}

	for _, arg := range args {
		switch v := arg.(type) {
		case error:
			event.Error = v
		case map[string]interface{}:
			event.Properties = v
		case map[string]string:
			props := make(map[string]interface{}, len(v))
			for k, val := range v {
				props[k] = val
			}
			event.Properties = props
		}
	}
}

// mergeContext adds extracted context values to the event properties without
// overriding properties passed as arguments.
func (m *Manager) mergeContext(ctx context.Context, event *interfaces.LogEvent) {
	m.mu.RLock()
	extract := m.contextExtractor
	m.mu.RUnlock()
	if extract == nil {
		return
	}

	values := extract(ctx)
	if len(values) == 0 {
		return
	}
	props := make(map[string]interface{}, len(values)+len(event.Properties))
	for k, v := range values {
		props[k] = v
	}
	for k, v := range event.Properties {
		props[k] = v
	}
	event.Properties = props
}
