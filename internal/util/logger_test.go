package util

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("warn", "", false)
	require.NoError(t, err)
	logger.AddOutput(NewConsoleOutput(&buf, FormatText))

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Errorf("error %d", 42)

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "[WARN] warn message")
	assert.Contains(t, out, "[ERROR] error 42")
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("debug", "", false)
	require.NoError(t, err)
	logger.AddOutput(NewConsoleOutput(&buf, FormatText))

	child := logger.With(Field{Key: "channel", Value: "123"})
	child.Info("page fetched", Field{Key: "count", Value: 100})

	assert.Contains(t, buf.String(), "page fetched channel=123 count=100")
}

func TestConsoleOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("info", "", false)
	require.NoError(t, err)
	logger.AddOutput(NewConsoleOutput(&buf, FormatJSON))

	logger.Info("hello", Field{Key: "n", Value: 1})

	var entry LogEntry
	require.NoError(t, sonic.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "hello", entry.Message)
	assert.EqualValues(t, 1, entry.Fields["n"])
}

func TestFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "app.log")
	logger, err := NewLogger("info", logFile, false)
	require.NoError(t, err)

	logger.Info("written to file")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] written to file")
}

func TestNewLoggerBadPath(t *testing.T) {
	_, err := NewLogger("info", filepath.Join(t.TempDir(), "missing", "app.log"), false)
	assert.Error(t, err)
}

func TestGlobalLoggerNoopWhenUnset(t *testing.T) {
	SetLogger(nil)
	assert.NotPanics(t, func() {
		LogInfo("nobody listens")
		LogDebugf("nobody %s", "listens")
		LogWarn("nobody listens")
		LogErrorf("nobody %s", "listens")
	})
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, LevelError, ParseLogLevel("error"))
	assert.Equal(t, LevelInfo, ParseLogLevel("unknown"))
}
