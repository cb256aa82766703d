package outputs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/Lunar-Chipter/crystal/internal/interfaces"
)

// Appender names of the built-in outputs
const (
	FileName        = "file"
	RollingFileName = "rollingFile"
)

// ErrOutputClosed is returned when writing to a closed Output
var ErrOutputClosed = errors.New("output closed")

// Output is a named destination shared by the appenders of every logger.
// Writes are serialized so lines from different loggers never interleave.
type Output struct {
	name   string
	mu     sync.Mutex
	writer io.Writer
	closed bool
}

// NewOutput wraps writer as a named Output
func NewOutput(name string, writer io.Writer) *Output {
	return &Output{name: name, writer: writer}
}

// OpenFile opens path for appending, creating it and its directory if needed
func OpenFile(path string) (*Output, error) {
	file, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	return NewOutput(FileName, file), nil
}

func openAppend(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}

// Name returns the appender name used for this output
func (o *Output) Name() string {
	return o.name
}

// WriteLine writes line followed by a newline
func (o *Output) WriteLine(line string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return fmt.Errorf("%s: %w", o.name, ErrOutputClosed)
	}
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	_, err := o.writer.Write(buf)
	return err
}

// Factory returns an AppenderFactory producing appenders bound to this output
func (o *Output) Factory() interfaces.AppenderFactory {
	return func() interfaces.Appender {
		return NewOutputAppender(o)
	}
}

// Rotate asks the underlying writer to start a new file, if it supports rotation
func (o *Output) Rotate() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if r, ok := o.writer.(interface{ Rotate() error }); ok {
		return r.Rotate()
	}
	return nil
}

// Close closes the underlying writer if it implements io.Closer
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	if closer, ok := o.writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
