package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require := require.New(t)

	tests := []struct {
		name  string
		level Level
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"", InfoLevel},
		{"warn", WarnLevel},
		{"Warning", WarnLevel},
		{"error", ErrorLevel},
		{"fatal", FatalLevel},
	}
	for _, tt := range tests {
		level, err := ParseLevel(tt.name)
		require.NoError(err, tt.name)
		require.Equal(tt.level, level, tt.name)
	}

	_, err := ParseLevel("verbose")
	require.ErrorContains(err, "unknown level")
}

func TestSlogLogger_JSONOutput(t *testing.T) {
	t.Setenv("ENV", "")
	require := require.New(t)

	var buf bytes.Buffer
	l := NewSlogWriter(&buf, InfoLevel, false)

	l.Debug("hidden")
	require.Zero(buf.Len())

	l.With("station", 2).Info("exchange done", "port", 6668)

	var rec map[string]any
	require.NoError(json.Unmarshal(buf.Bytes(), &rec))
	require.Equal("exchange done", rec["msg"])
	require.Equal("INFO", rec["level"])
	require.EqualValues(2, rec["station"])
	require.EqualValues(6668, rec["port"])
	require.Contains(rec, "ts")
}

func TestSlogLogger_SetLevelSharedWithChild(t *testing.T) {
	t.Setenv("ENV", "")
	require := require.New(t)

	var buf bytes.Buffer
	parent := NewSlogWriter(&buf, ErrorLevel, false)
	child := parent.With("worker", "plc-0")
	require.Equal(ErrorLevel, child.Level())

	parent.SetLevel(DebugLevel)
	require.Equal(DebugLevel, child.Level())

	child.Debug("visible")
	require.Contains(buf.String(), "visible")
}
