package interfaces

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Level represents the severity level of a log event. Lower values are more severe.
type Level int32

const (
	// OFF disables every event
	OFF Level = 0

	// FATAL level for very severe error conditions
	FATAL Level = 100

	// ERROR level for error conditions that prevent normal operation
	ERROR Level = 200

	// WARN level for warning conditions that might indicate problems
	WARN Level = 300

	// INFO level for general information about application progress
	INFO Level = 400

	// DEBUG level for debugging information, useful for diagnosing problems
	DEBUG Level = 500

	// TRACE level for very detailed debugging information, typically used during development
	TRACE Level = 600

	// ALL enables every event
	ALL Level = math.MaxInt32
)

// levelNames holds the canonical names in severity order
var levelNames = [...]struct {
	level Level
	name  string
}{
	{OFF, "OFF"},
	{FATAL, "FATAL"},
	{ERROR, "ERROR"},
	{WARN, "WARN"},
	{INFO, "INFO"},
	{DEBUG, "DEBUG"},
	{TRACE, "TRACE"},
	{ALL, "ALL"},
}

// String returns the canonical name of the level, or Level(n) for values outside the table
func (l Level) String() string {
	for _, ln := range levelNames {
		if ln.level == l {
			return ln.name
		}
	}
	return "Level(" + strconv.Itoa(int(l)) + ")"
}

// ParseLevel parses a level name (case-insensitive, WARNING accepted) into a Level.
// Unknown names return INFO together with an error.
func ParseLevel(levelStr string) (Level, error) {
	upper := strings.ToUpper(strings.TrimSpace(levelStr))
	if upper == "WARNING" {
		return WARN, nil
	}
	for _, ln := range levelNames {
		if ln.name == upper {
			return ln.level, nil
		}
	}
	return INFO, fmt.Errorf("invalid log level: %q", levelStr)
}

// MarshalText implements encoding.TextMarshaler
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
