package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Godatcode/DevFlow-sub004/internal/core/pubsub"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, EngineNATS, cfg.Bus.Engine)
	assert.Equal(t, "nats://localhost:4222", cfg.Bus.URL)
	assert.Equal(t, "DEVFLOW_EVENTS", cfg.Bus.Stream)
	assert.Equal(t, "devflow-core", cfg.Bus.ConsumerGroup)
	assert.Equal(t, "localhost:8090", cfg.Realtime.Addr)
	assert.Equal(t, "/ws", cfg.Realtime.Path)
	assert.Equal(t, 3, cfg.Notify.Router.MaxAttempts)
	assert.Equal(t, 3, cfg.Notify.Router.MaxEscalationDepth)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FileLayering(t *testing.T) {
	dir := t.TempDir()
	base := `
bus:
  engine: memory
  stream: TEST_EVENTS
realtime:
  addr: localhost:9999
notify:
  router:
    max_attempts: 5
`
	local := `
bus:
  stream: LOCAL_EVENTS
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(base), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local.yml"), []byte(local), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, EngineMemory, cfg.Bus.Engine)
	// config.local.yml wins over config.yml.
	assert.Equal(t, "LOCAL_EVENTS", cfg.Bus.Stream)
	assert.Equal(t, "localhost:9999", cfg.Realtime.Addr)
	assert.Equal(t, 5, cfg.Notify.Router.MaxAttempts)
	// Untouched sections keep their defaults.
	assert.Equal(t, "devflow-core", cfg.Bus.ConsumerGroup)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DEVFLOW_NATS_URL", "nats://broker:4222")
	t.Setenv("DEVFLOW_LOG_LEVEL", "debug")
	t.Setenv("DEVFLOW_METRICS_ENABLED", "false")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "nats://broker:4222", cfg.Bus.URL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "unknown engine",
			mutate:  func(c *Config) { c.Bus.Engine = "kafka" },
			wantErr: "unknown bus engine",
		},
		{
			name:    "nats engine without url",
			mutate:  func(c *Config) { c.Bus.URL = "" },
			wantErr: "bus url is required",
		},
		{
			name:    "unknown storage",
			mutate:  func(c *Config) { c.Bus.Storage = "tape" },
			wantErr: "unknown bus storage",
		},
		{
			name:    "empty stream",
			mutate:  func(c *Config) { c.Bus.Stream = "" },
			wantErr: "stream name is required",
		},
		{
			name:    "empty consumer group",
			mutate:  func(c *Config) { c.Bus.ConsumerGroup = "" },
			wantErr: "consumer group is required",
		},
		{
			name:    "mongo uri without database",
			mutate:  func(c *Config) { c.Notify.MongoURI = "mongodb://localhost"; c.Notify.MongoDatabase = "" },
			wantErr: "mongo database is required",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestConfig_BusClientConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bus.Stream = "S"
	cfg.Bus.ConsumerGroup = "G"
	cfg.Bus.ChannelBuf = 7

	busCfg := cfg.BusClientConfig()
	assert.Equal(t, "S", busCfg.StreamName)
	assert.Equal(t, "G", busCfg.ConsumerGroup)
	assert.Equal(t, 7, busCfg.ChannelBuf)
	assert.Equal(t, pubsub.FileStorage, busCfg.Storage)

	cfg.Bus.Storage = "memory"
	assert.Equal(t, pubsub.MemoryStorage, cfg.BusClientConfig().Storage)
}

func TestNotifyRouterDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, time.Second, cfg.Notify.Router.BackoffBase)
}
