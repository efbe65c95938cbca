package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zamaforge/zforge/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected config.LogLevel
	}{
		{"off", "off", config.LogLevelOff},
		{"none", "none", config.LogLevelOff},
		{"error uppercase", "ERROR", config.LogLevelError},
		{"debug with whitespace", "  debug  ", config.LogLevelDebug},
		{"unknown falls back to error", "warn", config.LogLevelError},
		{"empty falls back to error", "", config.LogLevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, config.ParseLogLevel(tt.input))
		})
	}
}

func TestLogLevel_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "off", config.LogLevelOff.String())
	assert.Equal(t, "error", config.LogLevelError.String())
	assert.Equal(t, "debug", config.LogLevelDebug.String())
	assert.Equal(t, "error", config.LogLevel(99).String())
}

func TestNewLogger_ValidPath(t *testing.T) {
	t.Parallel()
	logPath := filepath.Join(t.TempDir(), "nested", "zforge.log")

	logger, err := config.NewLogger(config.LogLevelDebug, logPath)
	require.NoError(t, err)
	defer func() { _ = logger.Close() }()

	logger.Debug("session ready for chain %d", 11155111)
	logger.Error("relayer returned %d", 502)

	content := readLogFile(t, logPath)
	assert.Contains(t, content, "session ready for chain 11155111")
	assert.Contains(t, content, "relayer returned 502")
	assert.Contains(t, content, "level=debug")
	assert.Contains(t, content, "level=error")
}

func TestNewLogger_LevelOffOrEmptyPath(t *testing.T) {
	t.Parallel()

	logger, err := config.NewLogger(config.LogLevelOff, "")
	require.NoError(t, err)
	assert.Equal(t, config.LogLevelOff, logger.Level())

	logger, err = config.NewLogger(config.LogLevelDebug, "")
	require.NoError(t, err)
	logger.Debug("discarded")
	logger.Error("discarded")
	require.NoError(t, logger.Close())
}

func TestNewLogger_InvalidPath(t *testing.T) {
	t.Parallel()
	_, err := config.NewLogger(config.LogLevelDebug, "/proc/nonexistent/test.log")
	assert.Error(t, err)
}

func TestLogger_LevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := config.NewWriterLogger(config.LogLevelError, &buf)

	logger.Debug("hidden debug")
	logger.Error("visible error")
	_, err := logger.Writer(config.LogLevelDebug).Write([]byte("hidden writer"))
	require.NoError(t, err)

	assert.NotContains(t, buf.String(), "hidden debug")
	assert.NotContains(t, buf.String(), "hidden writer")
	assert.Contains(t, buf.String(), "visible error")

	logger.SetLevel(config.LogLevelDebug)
	logger.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
	assert.Equal(t, config.LogLevelDebug, logger.Level())

	logger.SetLevel(config.LogLevelOff)
	logger.Error("silenced")
	assert.NotContains(t, buf.String(), "silenced")
}

func TestLogger_WithFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := config.NewWriterLogger(config.LogLevelDebug, &buf)

	logger.WithFields(map[string]any{"contract": "0xabc", "chain_id": 11155111}).Info("submitted")

	out := buf.String()
	assert.Contains(t, out, "submitted")
	assert.Contains(t, out, "contract=0xabc")
	assert.Contains(t, out, "chain_id=11155111")
}

func TestNullLogger(t *testing.T) {
	t.Parallel()
	logger := config.NullLogger()
	assert.Equal(t, config.LogLevelOff, logger.Level())

	logger.Debug("test debug")
	logger.Error("test error")
	logger.WithFields(map[string]any{"k": "v"}).Info("ignored")
	assert.NoError(t, logger.Close())
}

func readLogFile(t *testing.T, path string) string {
	t.Helper()
	// #nosec G304 -- test file path
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
