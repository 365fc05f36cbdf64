package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Godatcode/DevFlow-sub004/internal/config"
)

func TestNewLogger_DefaultConfig(t *testing.T) {
	cfg := config.DefaultLoggingConfig()
	cfg.Dir = t.TempDir()

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)

	logger.Info("test message", "key", "value")

	assert.FileExists(t, filepath.Join(cfg.Dir, "devflow.log"))

	Shutdown()
}

func TestNewLogger_JSONFormat(t *testing.T) {
	cfg := config.DefaultLoggingConfig()
	cfg.Format = "json"
	cfg.File.Format = "json"
	cfg.Dir = t.TempDir()

	logger, err := NewLogger(cfg)
	require.NoError(t, err)

	logger.Info("test json", "key", "value")

	content, err := os.ReadFile(filepath.Join(cfg.Dir, "devflow.log"))
	require.NoError(t, err)

	assert.Contains(t, string(content), `"msg":"test json"`)
	assert.Contains(t, string(content), `"key":"value"`)

	Shutdown()
}

func TestNewLogger_ErrorLogSeparation(t *testing.T) {
	cfg := config.DefaultLoggingConfig()
	cfg.Dir = t.TempDir()

	logger, err := NewLogger(cfg)
	require.NoError(t, err)

	logger.Info("info message")
	logger.Warn("warning message")
	logger.Error("error message")

	Shutdown()

	mainContent, err := os.ReadFile(filepath.Join(cfg.Dir, "devflow.log"))
	require.NoError(t, err)

	assert.Contains(t, string(mainContent), "info message")
	assert.Contains(t, string(mainContent), "warning message")
	assert.Contains(t, string(mainContent), "error message")

	// The errors log carries warn and above only.
	errorContent, err := os.ReadFile(filepath.Join(cfg.Dir, "errors.log"))
	require.NoError(t, err)

	assert.NotContains(t, string(errorContent), "info message")
	assert.Contains(t, string(errorContent), "warning message")
	assert.Contains(t, string(errorContent), "error message")
}

func TestNewLogger_ConsoleDisabled(t *testing.T) {
	cfg := config.DefaultLoggingConfig()
	cfg.Console.Enabled = false
	cfg.Dir = t.TempDir()

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)

	logger.Info("test message")

	Shutdown()

	assert.FileExists(t, filepath.Join(cfg.Dir, "devflow.log"))
}

func TestNewLogger_AllOutputsDisabled(t *testing.T) {
	cfg := config.DefaultLoggingConfig()
	cfg.Console.Enabled = false
	cfg.File.Enabled = false

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestInitialize_SetsGlobalLogger(t *testing.T) {
	cfg := config.DefaultLoggingConfig()
	cfg.Dir = t.TempDir()

	require.NoError(t, Initialize(cfg))

	slog.Info("global test message")

	Shutdown()

	content, err := os.ReadFile(filepath.Join(cfg.Dir, "devflow.log"))
	require.NoError(t, err)

	assert.Contains(t, string(content), "global test message")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected slog.Level
	}{
		{name: "debug level", level: "debug", expected: slog.LevelDebug},
		{name: "info level", level: "info", expected: slog.LevelInfo},
		{name: "warn level", level: "warn", expected: slog.LevelWarn},
		{name: "error level", level: "error", expected: slog.LevelError},
		{name: "unknown level defaults to info", level: "invalid", expected: slog.LevelInfo},
		{name: "empty level defaults to info", level: "", expected: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}
