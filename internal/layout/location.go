package layout

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/Lunar-Chipter/crystal/internal/interfaces"
)

// Locator resolves where a log event was emitted.
// It reports false when the location cannot be determined.
type Locator interface {
	Locate(event *interfaces.LogEvent) (interfaces.Location, bool)
}

// FrameLocator resolves the first frame of the event's captured call stack.
// File paths under Root are reported relative to it.
type FrameLocator struct {
	Root string
}

// NewFrameLocator creates a FrameLocator rooted at the working directory
func NewFrameLocator() *FrameLocator {
	wd, _ := os.Getwd()
	return &FrameLocator{Root: wd}
}

func (l *FrameLocator) Locate(event *interfaces.LogEvent) (interfaces.Location, bool) {
	if event == nil || len(event.Callers) == 0 {
		return interfaces.UnknownLocation, false
	}

	frame, _ := runtime.CallersFrames(event.Callers).Next()
	if frame.File == "" {
		return interfaces.UnknownLocation, false
	}

	return interfaces.Location{
		File:     l.relative(frame.File),
		Line:     strconv.Itoa(frame.Line),
		Column:   interfaces.UnknownPosition, // Go frames carry no column
		Function: frame.Function,
	}, true
}

func (l *FrameLocator) relative(file string) string {
	if l.Root == "" {
		return file
	}
	rel, err := filepath.Rel(l.Root, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return file
	}
	return filepath.ToSlash(rel)
}

// NopLocator never resolves a location
type NopLocator struct{}

func (NopLocator) Locate(*interfaces.LogEvent) (interfaces.Location, bool) {
	return interfaces.UnknownLocation, false
}
