package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]struct {
		input  string
		level  LogLevel
		exists bool
	}{
		"upper":   {"DEBUG", DebugLevel, true},
		"lower":   {"warn", WarnLevel, true},
		"padded":  {" trace ", TraceLevel, true},
		"unknown": {"verbose", 0, false},
		"empty":   {"", 0, false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			level, ok := ParseLevel(tt.input)
			assert.Equal(t, tt.exists, ok)
			if tt.exists {
				assert.Equal(t, tt.level, level)
			}
		})
	}
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput(&buf, WarnLevel)

	logger.Log(InfoLevel, "hidden %d", 1)
	assert.Empty(t, buf.String())

	logger.Log(WarnLevel, "shown %d\n", 2)
	assert.Contains(t, buf.String(), "WARN: shown 2")

	buf.Reset()
	logger.SetLevel(TraceLevel)
	logger.Log(TraceLevel, "now visible")
	assert.Contains(t, buf.String(), "TRACE: now visible")
}

func TestErrorLogsAndReturns(t *testing.T) {
	var buf bytes.Buffer
	DefaultLogger.SetOutput(&buf)
	t.Cleanup(func() { DefaultLogger = NewLogger() })

	err := Error("reading %s", "config.json")
	require.Error(t, err)
	assert.Equal(t, "reading config.json", err.Error())
	assert.Contains(t, buf.String(), "ERROR: reading config.json")
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "INFO", InfoLevel.String())
	assert.Equal(t, "LEVEL(9)", LogLevel(9).String())
}
