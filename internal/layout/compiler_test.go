package layout

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSegments(t *testing.T) {
	tests := []struct {
		layout   string
		expected []Segment
	}{
		{"hello", []Segment{{Kind: KindLiteral, Text: "hello"}}},
		{"", nil},
		{"%d{yyyy-MM-dd} [%p] %c - %m", []Segment{
			{Kind: KindDate, Text: "d", Params: []string{"yyyy-MM-dd"}, After: " ["},
			{Kind: KindLevel, Text: "p", After: "] "},
			{Kind: KindLogger, Text: "c", After: " - "},
			{Kind: KindMessage, Text: "m", After: ""},
		}},
		{"[%p]", []Segment{
			{Kind: KindLiteral, Text: "["},
			{Kind: KindLevel, Text: "p", After: "]"},
		}},
		{"%cX", []Segment{{Kind: KindLogger, Text: "c", After: "X"}}},
		{"%msgs", []Segment{{Kind: KindMessage, Text: "msg", After: "s"}}},
		{"%zzz-tail", []Segment{{Kind: KindUnknown, Text: "zzz", After: "-tail"}}},
		{"100% done", []Segment{
			{Kind: KindLiteral, Text: "100"},
			{Kind: KindLiteral, Text: "% done"},
		}},
		{"%%", []Segment{
			{Kind: KindLiteral, Text: "%"},
			{Kind: KindLiteral, Text: "%"},
		}},
		{"%d{unterminated", []Segment{{Kind: KindDate, Text: "d", After: "{unterminated"}}},
		{"%d{a}{b}tail", []Segment{{Kind: KindDate, Text: "d", Params: []string{"a", "b"}, After: "tail"}}},
		{"%K{user}", []Segment{{Kind: KindMap, Text: "K", Params: []string{"user"}, After: ""}}},
	}

	for _, tt := range tests {
		compiled := parse(tt.layout)
		assert.Equal(t, tt.layout, compiled.Layout)
		assert.Equal(t, tt.expected, compiled.Segments, "parse(%q)", tt.layout)
	}
}

func TestDirectiveAliases(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
	}{
		{"c", KindLogger},
		{"logger", KindLogger},
		{"d", KindDate},
		{"date", KindDate},
		{"ex", KindException},
		{"exception", KindException},
		{"throwable", KindException},
		{"F", KindFile},
		{"file", KindFile},
		{"K", KindMap},
		{"map", KindMap},
		{"MAP", KindMap},
		{"L", KindLine},
		{"line", KindLine},
		{"m", KindMessage},
		{"msg", KindMessage},
		{"message", KindMessage},
		{"M", KindMethod},
		{"method", KindMethod},
		{"n", KindNewline},
		{"p", KindLevel},
		{"level", KindLevel},
		{"r", KindRelative},
		{"relative", KindRelative},
		{"sn", KindSequence},
		{"sequenceNumber", KindSequence},
	}

	for _, tt := range tests {
		kind, n := lookupDirective(tt.name)
		assert.Equal(t, tt.kind, kind, "lookupDirective(%q)", tt.name)
		assert.Equal(t, len(tt.name), n, "lookupDirective(%q)", tt.name)
	}
	assert.Len(t, Directives(), len(tests))
}

func TestDirectiveLookupIsCaseSensitive(t *testing.T) {
	kind, n := lookupDirective("s")
	assert.Equal(t, KindUnknown, kind)
	assert.Zero(t, n)

	kind, _ = lookupDirective("Map")
	assert.Equal(t, KindMethod, kind) // "M" prefix, "ap" becomes trailing text

	kind, _ = lookupDirective("LOGGER")
	assert.Equal(t, KindLine, kind)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "date", KindDate.String())
	assert.Equal(t, "sequenceNumber", KindSequence.String())
	assert.Equal(t, "unknown", Kind(200).String())
}

func TestCompilerCacheIdentity(t *testing.T) {
	c := NewCompiler(NopLocator{})
	first := c.Get("%m")
	second := c.Get("%m")
	assert.Same(t, first, second)
	assert.Equal(t, 1, c.Len())

	c.PreCompile("%m")
	assert.Same(t, first, c.Get("%m"))
	assert.Equal(t, 1, c.Len())
}

func TestCompilerCompileReplacesEntry(t *testing.T) {
	c := NewCompiler(NopLocator{})
	first := c.Get("%p")
	second := c.Compile("%p")
	assert.NotSame(t, first, second)
	assert.Equal(t, first.Segments, second.Segments)
	assert.Same(t, second, c.Get("%p"))
}

func TestCompilerClearCache(t *testing.T) {
	c := NewCompiler(NopLocator{})
	first := c.Get("%c")
	c.PreCompile("%m")
	require.Equal(t, 2, c.Len())

	c.ClearCache()
	assert.Equal(t, 0, c.Len())
	assert.NotSame(t, first, c.Get("%c"))
}

func TestCompilerDistinctLayoutsAreIndependent(t *testing.T) {
	c := NewCompiler(NopLocator{})
	a := c.Get("%c - %m")
	b := c.Get("%m - %c")
	require.NotSame(t, a, b)

	ev := sampleEvent()
	before := c.Format("%m - %c", ev)
	a.Segments[0].After = " changed "
	assert.Equal(t, before, c.Format("%m - %c", ev))
}

func TestCompilerConcurrentGet(t *testing.T) {
	c := NewCompiler(NopLocator{})
	var wg sync.WaitGroup
	results := make([]*Compiled, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Get("%d [%p] %c - %m")
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.Equal(t, 1, c.Len())
}

func TestPackageLevelCompiler(t *testing.T) {
	ClearCache()
	defer ClearCache()

	PreCompile("%c")
	assert.Equal(t, 1, Default.Len())
	assert.Same(t, Default.Get("%c"), Default.Get("%c"))

	compiled := Compile("%m")
	assert.Same(t, compiled, Default.Get("%m"))
}

func BenchmarkCompile(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		parse(fmt.Sprintf("%%d{yyyy-MM-dd} [%%p] %%c - %%m %d", i%4))
	}
}
