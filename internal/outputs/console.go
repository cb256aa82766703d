package outputs

import (
	"io"
	"os"
	"sync"

	"github.com/Lunar-Chipter/crystal/internal/interfaces"
)

// ConsoleName is the appender name of ConsoleAppender
const ConsoleName = "console"

// consoleMu serializes console writes across every ConsoleAppender instance
var consoleMu sync.Mutex

// ConsoleAppender writes FATAL, ERROR and WARN events to stderr and
// everything else to stdout.
type ConsoleAppender struct {
	*Base
	stdout io.Writer
	stderr io.Writer
}

// NewConsoleAppender creates a console appender using os.Stdout and os.Stderr
func NewConsoleAppender() *ConsoleAppender {
	return NewConsoleAppenderWithWriters(os.Stdout, os.Stderr)
}

// NewConsoleAppenderWithWriters creates a console appender with custom writers
func NewConsoleAppenderWithWriters(stdout, stderr io.Writer) *ConsoleAppender {
	return &ConsoleAppender{
		Base:   NewBase(),
		stdout: stdout,
		stderr: stderr,
	}
}

// ConsoleFactory builds a fresh ConsoleAppender per logger
func ConsoleFactory() interfaces.Appender {
	return NewConsoleAppender()
}

func (c *ConsoleAppender) Name() string {
	return ConsoleName
}

func (c *ConsoleAppender) Append(event *interfaces.LogEvent) error {
	line := c.Format(event) + "\n"

	w := c.stdout
	switch event.Level {
	case interfaces.FATAL, interfaces.ERROR, interfaces.WARN:
		w = c.stderr
	}

	consoleMu.Lock()
	defer consoleMu.Unlock()
	_, err := io.WriteString(w, line)
	return err
}
