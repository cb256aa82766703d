package layout

import (
	"strings"
)

// Kind identifies what a compiled segment renders
type Kind uint8

const (
	KindLiteral Kind = iota
	KindLogger
	KindDate
	KindException
	KindFile
	KindMap
	KindLine
	KindMessage
	KindMethod
	KindNewline
	KindLevel
	KindRelative
	KindSequence
	KindUnknown
)

var kindNames = [...]string{
	KindLiteral:   "literal",
	KindLogger:    "logger",
	KindDate:      "date",
	KindException: "exception",
	KindFile:      "file",
	KindMap:       "map",
	KindLine:      "line",
	KindMessage:   "message",
	KindMethod:    "method",
	KindNewline:   "newline",
	KindLevel:     "level",
	KindRelative:  "relative",
	KindSequence:  "sequenceNumber",
	KindUnknown:   "unknown",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// directives lists every directive group as "|"-delimited alternative names.
// Names are case-sensitive.
var directives = []struct {
	names string
	kind  Kind
}{
	{"c|logger", KindLogger},
	{"d|date", KindDate},
	{"ex|exception|throwable", KindException},
	{"F|file", KindFile},
	{"K|map|MAP", KindMap},
	{"L|line", KindLine},
	{"m|msg|message", KindMessage},
	{"M|method", KindMethod},
	{"n", KindNewline},
	{"p|level", KindLevel},
	{"r|relative", KindRelative},
	{"sn|sequenceNumber", KindSequence},
}

var (
	aliasKinds   map[string]Kind
	longestAlias int
)

func init() {
	aliasKinds = make(map[string]Kind)
	for _, d := range directives {
		for _, name := range strings.Split(d.names, "|") {
			aliasKinds[name] = d.kind
			if len(name) > longestAlias {
				longestAlias = len(name)
			}
		}
	}
}

// Directives returns the alias table keyed by alternative name
func Directives() map[string]Kind {
	out := make(map[string]Kind, len(aliasKinds))
	for k, v := range aliasKinds {
		out[k] = v
	}
	return out
}

// lookupDirective resolves the longest alias that prefixes letters.
// It returns the kind and the alias length, or KindUnknown and 0.
func lookupDirective(letters string) (Kind, int) {
	n := len(letters)
	if n > longestAlias {
		n = longestAlias
	}
	for ; n > 0; n-- {
		if kind, ok := aliasKinds[letters[:n]]; ok {
			return kind, n
		}
	}
	return KindUnknown, 0
}
