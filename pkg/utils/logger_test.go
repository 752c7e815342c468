package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")
	logger, err := NewLogger(LoggerConfig{Level: "info", OutputPath: path, Format: "json"})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("Sync completed")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Sync completed"`)
	assert.Contains(t, string(data), `"timestamp"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNewLoggerUnknownLevel(t *testing.T) {
	logger, err := NewLogger(LoggerConfig{Level: "chatty", OutputPath: "stderr", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewCLILogger(t *testing.T) {
	quiet, err := NewCLILogger(false)
	require.NoError(t, err)
	assert.False(t, quiet.Core().Enabled(zapcore.InfoLevel))

	verbose, err := NewCLILogger(true)
	require.NoError(t, err)
	assert.True(t, verbose.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLoggerTeesOutputsWithService(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.log")
	b := filepath.Join(dir, "b.log")
	logger, err := NewLogger(LoggerConfig{Level: "debug", OutputPath: a + ", " + b, Format: "console", Service: "timesheet-approval"})
	require.NoError(t, err)

	logger.Warn("Auto-approval run finished")
	require.NoError(t, logger.Sync())

	for _, path := range []string{a, b} {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "Auto-approval run finished")
		assert.Contains(t, string(data), `"service": "timesheet-approval"`)
		assert.NotContains(t, string(data), "\x1b[")
	}
}
