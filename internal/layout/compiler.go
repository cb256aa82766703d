// Package layout compiles log4j-style layout patterns such as
// "%d{yyyy-MM-dd} [%p] %c - %m" and renders log events through them.
//
// Compiled layouts are memoized per exact layout string for the lifetime of
// the Compiler. The package-level functions use a shared Default compiler.
package layout

import (
	"regexp"
	"strings"
	"sync"
)

// Segment is one element of a compiled layout
type Segment struct {
	Kind   Kind     // What the segment renders
	Text   string   // Literal text, or the directive name as written
	Params []string // Contents of each {...} block, in order
	After  string   // Literal text emitted after the directive output
}

// Compiled is the ordered segment list for one layout string
type Compiled struct {
	Layout   string
	Segments []Segment
}

var paramRegex = regexp.MustCompile(`\{([^}]*)\}`)

// Compiler parses layouts and caches the result by exact layout string
type Compiler struct {
	mu      sync.RWMutex
	cache   map[string]*Compiled
	locator Locator
}

// NewCompiler creates a compiler. A nil locator selects a FrameLocator.
func NewCompiler(locator Locator) *Compiler {
	if locator == nil {
		locator = NewFrameLocator()
	}
	return &Compiler{
		cache:   make(map[string]*Compiled),
		locator: locator,
	}
}

// SetLocator replaces the source-location provider used by %F, %L and %M
func (c *Compiler) SetLocator(locator Locator) {
	if locator == nil {
		locator = NopLocator{}
	}
	c.mu.Lock()
	c.locator = locator
	c.mu.Unlock()
}

// Locator returns the current source-location provider
func (c *Compiler) Locator() Locator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.locator
}

// Compile parses layout and stores the result in the cache, replacing any
// previous entry for the same string.
func (c *Compiler) Compile(layout string) *Compiled {
	compiled := parse(layout)
	c.mu.Lock()
	c.cache[layout] = compiled
	c.mu.Unlock()
	return compiled
}

// Get returns the cached compilation of layout, compiling it on first use
func (c *Compiler) Get(layout string) *Compiled {
	c.mu.RLock()
	compiled, ok := c.cache[layout]
	c.mu.RUnlock()
	if ok {
		return compiled
	}

	compiled = parse(layout)
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.cache[layout]; ok {
		return existing
	}
	c.cache[layout] = compiled
	return compiled
}

// PreCompile warms the cache for layout
func (c *Compiler) PreCompile(layout string) {
	c.Get(layout)
}

// ClearCache drops every compiled layout
func (c *Compiler) ClearCache() {
	c.mu.Lock()
	c.cache = make(map[string]*Compiled)
	c.mu.Unlock()
}

// Len reports the number of cached layouts
func (c *Compiler) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// parse splits a layout into literal and directive segments.
// Each directive candidate runs from one '%' up to the next '%' or the end.
func parse(layout string) *Compiled {
	compiled := &Compiled{Layout: layout}

	idx := strings.IndexByte(layout, '%')
	if idx < 0 {
		if layout != "" {
			compiled.Segments = append(compiled.Segments, Segment{Kind: KindLiteral, Text: layout})
		}
		return compiled
	}
	if idx > 0 {
		compiled.Segments = append(compiled.Segments, Segment{Kind: KindLiteral, Text: layout[:idx]})
	}

	for idx >= 0 {
		var candidate string
		next := strings.IndexByte(layout[idx+1:], '%')
		if next < 0 {
			candidate = layout[idx:]
			idx = -1
		} else {
			end := idx + 1 + next
			candidate = layout[idx:end]
			idx = end
		}
		compiled.Segments = append(compiled.Segments, parseCandidate(candidate))
	}
	return compiled
}

// parseCandidate turns "%name{param}after" into a segment.
// A candidate without letters after '%' stays literal.
func parseCandidate(candidate string) Segment {
	letters := leadingLetters(candidate[1:])
	if letters == "" {
		return Segment{Kind: KindLiteral, Text: candidate}
	}

	kind, n := lookupDirective(letters)
	seg := Segment{Kind: kind, Text: letters[:n]}
	if kind == KindUnknown {
		n = len(letters)
		seg.Text = letters
	}

	for _, m := range paramRegex.FindAllStringSubmatch(candidate, -1) {
		seg.Params = append(seg.Params, m[1])
	}

	if last := strings.LastIndexByte(candidate, '}'); last >= 0 {
		seg.After = candidate[last+1:]
	} else {
		seg.After = candidate[1+n:]
	}
	return seg
}

func leadingLetters(s string) string {
	i := 0
	for i < len(s) {
		ch := s[i]
		if (ch < 'a' || ch > 'z') && (ch < 'A' || ch > 'Z') {
			break
		}
		i++
	}
	return s[:i]
}

// Default is the process-wide compiler used by the package-level helpers
var Default = NewCompiler(nil)

// Compile parses layout with the Default compiler
func Compile(layout string) *Compiled {
	return Default.Compile(layout)
}

// PreCompile warms the Default compiler's cache
func PreCompile(layout string) {
	Default.PreCompile(layout)
}

// ClearCache empties the Default compiler's cache
func ClearCache() {
	Default.ClearCache()
}
