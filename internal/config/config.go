// Package config loads the layered application configuration: defaults,
// then config/config.yml, then config/config.local.yml, then environment
// overrides, then validation.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Godatcode/DevFlow-sub004/internal/bus"
	"github.com/Godatcode/DevFlow-sub004/internal/core/pubsub"
	"github.com/Godatcode/DevFlow-sub004/internal/notify"
	"github.com/Godatcode/DevFlow-sub004/internal/realtime"
)

// Bus engine selection.
const (
	EngineNATS   = "nats"
	EngineMemory = "memory"
)

// BusConfig configures the event bus client and its broker connection.
type BusConfig struct {
	// Engine selects the broker backend: nats or memory.
	Engine string `yaml:"engine"`

	// URL is the NATS server address. Ignored by the memory engine.
	URL string `yaml:"url"`

	// Storage selects the stream storage backend: memory or file.
	Storage string `yaml:"storage"`

	Stream        string `yaml:"stream"`
	ConsumerGroup string `yaml:"consumer_group"`
	ChannelBuf    int    `yaml:"channel_buf"`
}

// NotifyConfig configures the notification router and its delivery store.
type NotifyConfig struct {
	Router notify.Config `yaml:"router"`

	// MongoURI enables the durable delivery store when set; empty keeps
	// delivery history in memory.
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Config holds the application configuration.
type Config struct {
	Bus      BusConfig       `yaml:"bus"`
	Realtime realtime.Config `yaml:"realtime"`
	Notify   NotifyConfig    `yaml:"notify"`
	Metrics  MetricsConfig   `yaml:"metrics"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// DefaultConfig returns the full default configuration.
func DefaultConfig() *Config {
	return &Config{
		Bus: BusConfig{
			Engine:        EngineNATS,
			URL:           "nats://localhost:4222",
			Storage:       "file",
			Stream:        bus.DefaultConfig().StreamName,
			ConsumerGroup: bus.DefaultConfig().ConsumerGroup,
			ChannelBuf:    bus.DefaultConfig().ChannelBuf,
		},
		Realtime: realtime.DefaultConfig(),
		Notify: NotifyConfig{
			Router:        notify.DefaultConfig(),
			MongoDatabase: "devflow",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    "localhost:9100",
		},
		Logging: DefaultLoggingConfig(),
	}
}

// Load reads the layered configuration rooted at configDir.
// Order: defaults -> config.yml -> config.local.yml -> env -> validate.
func Load(configDir string) (*Config, error) {
	cfg := DefaultConfig()

	loadFile(filepath.Join(configDir, "config.yml"), cfg)
	loadFile(filepath.Join(configDir, "config.local.yml"), cfg)

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(filename string, cfg *Config) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		log.Printf("Warning: Error reading %s: %v", filename, err)
		return
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Printf("Warning: Error parsing %s: %v", filename, err)
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DEVFLOW_BUS_ENGINE"); v != "" {
		c.Bus.Engine = v
	}
	if v := os.Getenv("DEVFLOW_NATS_URL"); v != "" {
		c.Bus.URL = v
	}
	if v := os.Getenv("DEVFLOW_BUS_STORAGE"); v != "" {
		c.Bus.Storage = v
	}
	if v := os.Getenv("DEVFLOW_BUS_STREAM"); v != "" {
		c.Bus.Stream = v
	}
	if v := os.Getenv("DEVFLOW_CONSUMER_GROUP"); v != "" {
		c.Bus.ConsumerGroup = v
	}
	if v := os.Getenv("DEVFLOW_REALTIME_ADDR"); v != "" {
		c.Realtime.Addr = v
	}
	if v := os.Getenv("DEVFLOW_MONGO_URI"); v != "" {
		c.Notify.MongoURI = v
	}
	if v := os.Getenv("DEVFLOW_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("DEVFLOW_METRICS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Metrics.Enabled = enabled
		}
	}
	if v := os.Getenv("DEVFLOW_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate rejects configurations the services cannot start with.
func (c *Config) Validate() error {
	switch c.Bus.Engine {
	case EngineNATS, EngineMemory:
	default:
		return fmt.Errorf("config: unknown bus engine %q", c.Bus.Engine)
	}
	if c.Bus.Engine == EngineNATS && c.Bus.URL == "" {
		return fmt.Errorf("config: bus url is required for the nats engine")
	}
	switch c.Bus.Storage {
	case "memory", "file":
	default:
		return fmt.Errorf("config: unknown bus storage %q", c.Bus.Storage)
	}
	if c.Bus.Stream == "" {
		return fmt.Errorf("config: bus stream name is required")
	}
	if c.Bus.ConsumerGroup == "" {
		return fmt.Errorf("config: bus consumer group is required")
	}
	if c.Realtime.Addr == "" {
		return fmt.Errorf("config: realtime listen address is required")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("config: metrics address is required when metrics are enabled")
	}
	if c.Notify.MongoURI != "" && c.Notify.MongoDatabase == "" {
		return fmt.Errorf("config: mongo database is required when mongo_uri is set")
	}
	return c.Logging.Validate()
}

// BusClientConfig converts the bus section into the bus client's form.
func (c *Config) BusClientConfig() bus.Config {
	storage := pubsub.MemoryStorage
	if c.Bus.Storage == "file" {
		storage = pubsub.FileStorage
	}
	return bus.Config{
		StreamName:    c.Bus.Stream,
		ConsumerGroup: c.Bus.ConsumerGroup,
		ChannelBuf:    c.Bus.ChannelBuf,
		Storage:       storage,
	}
}
