package layout

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/Lunar-Chipter/crystal/internal/datefmt"
	"github.com/Lunar-Chipter/crystal/internal/interfaces"
)

// Name rendered for closures, non-function methods and unresolvable callers
const anonymous = "anonymous"

var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// putBuffer keeps only reasonably sized buffers in the pool
func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() < 64*1024 {
		bufferPool.Put(buf)
	}
}

// Format renders event through layout, compiling the layout on first use.
// The result is trimmed of leading and trailing whitespace.
func (c *Compiler) Format(layout string, event *interfaces.LogEvent) string {
	return c.Render(c.Get(layout), event)
}

// Render renders event through an already compiled layout
func (c *Compiler) Render(compiled *Compiled, event *interfaces.LogEvent) string {
	buf := getBuffer()
	defer putBuffer(buf)

	for i := range compiled.Segments {
		seg := &compiled.Segments[i]
		if seg.Kind == KindLiteral {
			buf.WriteString(seg.Text)
			continue
		}
		c.renderDirective(buf, seg, event)
		buf.WriteString(seg.After)
	}
	return strings.TrimSpace(buf.String())
}

func (c *Compiler) renderDirective(buf *bytes.Buffer, seg *Segment, event *interfaces.LogEvent) {
	switch seg.Kind {
	case KindLogger:
		buf.WriteString(event.Logger)
	case KindDate:
		buf.WriteString(datefmt.Format(event.Date, firstParam(seg.Params)))
	case KindException:
		buf.WriteString(formatException(event.Error))
	case KindFile:
		c.fileDetails(event)
		buf.WriteString(event.File)
	case KindMap:
		buf.WriteString(formatProperties(event.Properties, seg.Params))
	case KindLine:
		c.fileDetails(event)
		buf.WriteString(event.LineNumber)
	case KindMessage:
		buf.WriteString(event.Message)
	case KindMethod:
		buf.WriteString(c.methodName(event))
	case KindNewline:
		buf.WriteByte('\n')
	case KindLevel:
		buf.WriteString(levelName(event.Level))
	case KindRelative:
		buf.WriteString(strconv.FormatInt(event.Relative, 10))
	case KindSequence:
		buf.WriteString(strconv.FormatUint(event.Sequence, 10))
	}
}

// fileDetails resolves file, line and column once per event
func (c *Compiler) fileDetails(event *interfaces.LogEvent) {
	if event.HasLocation() {
		return
	}
	loc, ok := c.Locator().Locate(event)
	if !ok {
		loc = interfaces.UnknownLocation
	}
	event.SetLocation(loc)
}

func (c *Compiler) methodName(event *interfaces.LogEvent) string {
	if event.Method != nil {
		return MethodName(event.Method)
	}
	if loc, ok := c.Locator().Locate(event); ok && loc.Function != "" {
		return FunctionName(loc.Function)
	}
	return anonymous
}

func firstParam(params []string) string {
	if len(params) == 0 {
		return ""
	}
	return params[0]
}

func levelName(level interfaces.Level) string {
	switch level {
	case interfaces.FATAL:
		return "FATAL"
	case interfaces.ERROR:
		return "ERROR"
	case interfaces.WARN:
		return "WARN"
	case interfaces.INFO:
		return "INFO"
	case interfaces.DEBUG:
		return "DEBUG"
	default:
		return "TRACE"
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

type namedError interface {
	Name() string
}

// formatException renders err as tab-indented lines. Errors carrying a
// stack trace print their full "%+v" form.
func formatException(err error) string {
	if err == nil {
		return ""
	}

	var tracer stackTracer
	if stderrors.As(err, &tracer) {
		var sb strings.Builder
		for _, line := range strings.Split(fmt.Sprintf("%+v", err), "\n") {
			sb.WriteByte('\t')
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
		return sb.String()
	}

	msg := err.Error()
	if msg == "" {
		return ""
	}
	return "\t" + errorName(err) + ": " + msg + "\n"
}

func errorName(err error) string {
	if named, ok := err.(namedError); ok {
		if name := named.Name(); name != "" {
			return name
		}
	}
	return strings.TrimLeft(fmt.Sprintf("%T", err), "*")
}

// formatProperties renders "{{k1,v1},{k2,v2}}" in key order, or "{v}" for the
// key named by the first param. An empty param renders every key. Nil
// properties render nothing.
func formatProperties(props map[string]interface{}, params []string) string {
	if props == nil {
		return ""
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	content := make([]string, 0, len(keys))
	for _, k := range keys {
		if len(params) > 0 && params[0] != "" {
			if params[0] == k {
				content = append(content, fmt.Sprint(props[k]))
			}
			continue
		}
		content = append(content, "{"+k+","+fmt.Sprint(props[k])+"}")
	}
	return "{" + strings.Join(content, ",") + "}"
}

// MethodName derives a display name from a method value: a string is used
// as is, a func is named through the runtime, anything else is anonymous.
func MethodName(method interface{}) string {
	switch m := method.(type) {
	case nil:
		return anonymous
	case string:
		if m == "" {
			return anonymous
		}
		return m
	}

	v := reflect.ValueOf(method)
	if v.Kind() != reflect.Func || v.IsNil() {
		return anonymous
	}
	fn := runtime.FuncForPC(v.Pointer())
	if fn == nil {
		return anonymous
	}
	return FunctionName(fn.Name())
}

// FunctionName shortens a fully qualified runtime function name such as
// "github.com/x/pkg.(*T).Method-fm" to "Method". Closures are anonymous.
func FunctionName(full string) string {
	name := full
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "-fm")

	parts := strings.Split(name, ".")
	last := parts[len(parts)-1]
	if len(parts) < 2 || last == "" || isClosureName(last) {
		return anonymous
	}
	return last
}

// isClosureName matches the compiler's "funcN" and bare "N" closure suffixes
func isClosureName(s string) bool {
	s = strings.TrimPrefix(s, "func")
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Format renders event through layout with the Default compiler
func Format(layout string, event *interfaces.LogEvent) string {
	return Default.Format(layout, event)
}
