package interfaces

import (
	"time"
)

// Placeholders used when the origin of an event cannot be determined
const (
	UnknownFile     = "anonymous"
	UnknownPosition = "?"
)

// LogEvent is the record describing one logging call.
// File, LineNumber and Column start empty and are filled in the first time a
// file-location directive renders the event.
type LogEvent struct {
	Date       time.Time              // Time when the event was created
	Level      Level                  // Severity of the event
	Logger     string                 // Name of the originating logger
	Message    string                 // Message with {} placeholders already substituted
	Error      error                  // Error attached to the event, if any
	Properties map[string]interface{} // Structured data; nil means absent
	Method     interface{}            // Calling function: a name, a func value or nil
	File       string                 // Source file, resolved lazily
	LineNumber string                 // Source line, resolved lazily
	Column     string                 // Source column, resolved lazily
	Relative   int64                  // Milliseconds since the owning logger was created
	Sequence   uint64                 // Per-logger sequence number starting at 1
	Callers    []uintptr              // Program counters captured at the logging call
}

// HasLocation reports whether file details have already been resolved
func (e *LogEvent) HasLocation() bool {
	return e.File != "" && e.LineNumber != ""
}

// SetLocation stores resolved file details on the event
func (e *LogEvent) SetLocation(loc Location) {
	e.File = loc.File
	e.LineNumber = loc.Line
	e.Column = loc.Column
}

// Location identifies a position in source code
type Location struct {
	File     string
	Line     string
	Column   string
	Function string
}

// UnknownLocation is used when no location provider could resolve the event
var UnknownLocation = Location{
	File:   UnknownFile,
	Line:   UnknownPosition,
	Column: UnknownPosition,
}
