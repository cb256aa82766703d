package interfaces

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{OFF, "OFF"},
		{FATAL, "FATAL"},
		{ERROR, "ERROR"},
		{WARN, "WARN"},
		{INFO, "INFO"},
		{DEBUG, "DEBUG"},
		{TRACE, "TRACE"},
		{ALL, "ALL"},
		{Level(99), "Level(99)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.level.String(), "Level(%d).String()", int(tt.level))
	}
}

func TestLevelOrdering(t *testing.T) {
	assert.Less(t, OFF, FATAL)
	assert.Less(t, FATAL, ERROR)
	assert.Less(t, ERROR, WARN)
	assert.Less(t, WARN, INFO)
	assert.Less(t, INFO, DEBUG)
	assert.Less(t, DEBUG, TRACE)
	assert.Less(t, TRACE, ALL)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		hasError bool
	}{
		{"TRACE", TRACE, false},
		{"debug", DEBUG, false},
		{"INFO", INFO, false},
		{"WARN", WARN, false},
		{"WARNING", WARN, false},
		{"Error", ERROR, false},
		{"FATAL", FATAL, false},
		{"off", OFF, false},
		{"ALL", ALL, false},
		{"INVALID", INFO, true},
		{"", INFO, true},
	}

	for _, tt := range tests {
		result, err := ParseLevel(tt.input)
		if tt.hasError {
			assert.Error(t, err, "ParseLevel(%q)", tt.input)
		} else {
			assert.NoError(t, err, "ParseLevel(%q)", tt.input)
		}
		assert.Equal(t, tt.expected, result, "ParseLevel(%q)", tt.input)
	}
}

func TestLevelTextRoundTrip(t *testing.T) {
	text, err := WARN.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "WARN", string(text))

	var l Level
	require.NoError(t, l.UnmarshalText([]byte("debug")))
	assert.Equal(t, DEBUG, l)

	assert.Error(t, l.UnmarshalText([]byte("loud")))
	assert.Equal(t, DEBUG, l)
}

func TestLogEventLocation(t *testing.T) {
	ev := &LogEvent{}
	assert.False(t, ev.HasLocation())

	ev.SetLocation(UnknownLocation)
	assert.True(t, ev.HasLocation())
	assert.Equal(t, "anonymous", ev.File)
	assert.Equal(t, "?", ev.LineNumber)
	assert.Equal(t, "?", ev.Column)
}
