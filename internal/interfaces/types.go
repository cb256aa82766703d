package interfaces

// Appender delivers formatted log events to a sink
type Appender interface {
	// Name identifies the appender kind (e.g. "console"); factories are registered under it
	Name() string

	// Append formats and writes the event
	Append(event *LogEvent) error

	// IsActive reports whether events at level should reach this appender
	IsActive(level Level) bool

	// SetLogLevel sets the least severe level the appender accepts
	SetLogLevel(level Level)

	// SetLayout sets the layout pattern used to format events
	SetLayout(layout string)
}

// AppenderFactory builds a fresh appender instance for one logger
type AppenderFactory func() Appender
