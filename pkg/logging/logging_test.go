package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "", want: slog.LevelInfo},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", want: slog.LevelInfo, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatConsole, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, FormatJSON)
	logger.Debug("hidden")
	logger.Info("shown", slog.String("run", "r1"))

	line := bytes.TrimSpace(buf.Bytes())
	require.True(t, gjson.ValidBytes(line), string(line))
	assert.Equal(t, "shown", gjson.GetBytes(line, "message").String())
	assert.Equal(t, "r1", gjson.GetBytes(line, "run").String())
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, slog.LevelWarn, FormatConsole).Warn("careful")
	assert.Contains(t, buf.String(), "careful")
}
