package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNew_ConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), ".log", "gdvm.log")

	logger, closeFn, err := New(Options{Level: slog.LevelInfo, Console: &console, File: file})
	require.NoError(t, err)

	logger.Debug("detail", "step", 1)
	logger.With("release", "4.2-stable").Info("installed")
	require.NoError(t, closeFn())

	assert.NotContains(t, console.String(), "detail")
	assert.Contains(t, console.String(), "installed")
	assert.Contains(t, console.String(), "release=4.2-stable")
	assert.NotContains(t, console.String(), "\x1b[", "non-terminal output is uncolored")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=detail")
	assert.Contains(t, string(data), "release=4.2-stable")
}

func TestNew_FileIsAppended(t *testing.T) {
	file := filepath.Join(t.TempDir(), "gdvm.log")
	for _, msg := range []string{"first", "second"} {
		logger, closeFn, err := New(Options{Console: &bytes.Buffer{}, File: file})
		require.NoError(t, err)
		logger.Info(msg)
		require.NoError(t, closeFn())
	}

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=first")
	assert.Contains(t, string(data), "msg=second")
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
