// Package config loads and validates the engine's runtime configuration
// from a YAML file, with sane defaults for every field so an empty file
// yields a working in-memory setup.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the engine and reference server.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Events  EventsConfig  `yaml:"events"`
	Layout  LayoutConfig  `yaml:"layout"`
	Archive ArchiveConfig `yaml:"archive"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the reference persistence server.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Backend is "memory" or "postgres".
	Backend     string `yaml:"backend"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// EventsConfig configures the optional out-of-process event bridge.
type EventsConfig struct {
	// PubAddr is a mangos listen URL such as "tcp://127.0.0.1:5555".
	// Empty disables the bridge.
	PubAddr string `yaml:"pub_addr"`
	// BufferSize is the per-subscriber channel depth.
	BufferSize int `yaml:"buffer_size"`
}

// LayoutConfig configures the local layout cache.
type LayoutConfig struct {
	// CacheDir holds per-project layout files. Empty disables caching.
	CacheDir string `yaml:"cache_dir"`
}

// ArchiveConfig configures the S3 savepoint archiver.
type ArchiveConfig struct {
	// Bucket empty disables archiving.
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given: in-memory
// store, local listener, events and archiving disabled.
func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Backend: "memory",
		},
		Events: EventsConfig{
			BufferSize: 64,
		},
		Archive: ArchiveConfig{
			Prefix: "savepoints",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML file over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv lets deployment-sensitive fields be overridden without
// editing the config file. Secrets like the DSN usually arrive this way.
func (c *Config) applyEnv() {
	if v := os.Getenv("SECUDO_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("SECUDO_STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("SECUDO_POSTGRES_DSN"); v != "" {
		c.Store.PostgresDSN = v
	}
	if v := os.Getenv("SECUDO_ARCHIVE_BUCKET"); v != "" {
		c.Archive.Bucket = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

// Validate checks every field, collecting all problems before reporting.
func (c Config) Validate() error {
	v := newValidator("config")
	v.required("server.listen_addr", c.Server.ListenAddr)
	v.minDuration("server.read_timeout", c.Server.ReadTimeout, time.Second)
	v.minDuration("server.write_timeout", c.Server.WriteTimeout, time.Second)
	v.minDuration("server.shutdown_timeout", c.Server.ShutdownTimeout, time.Second)
	v.oneOf("store.backend", c.Store.Backend, []string{"memory", "postgres"})
	v.when(c.Store.Backend == "postgres", func() {
		v.required("store.postgres_dsn", c.Store.PostgresDSN)
	})
	v.positive("events.buffer_size", c.Events.BufferSize)
	v.when(c.Archive.Bucket != "", func() {
		v.required("archive.prefix", c.Archive.Prefix)
	})
	v.oneOf("logging.level", c.Logging.Level, []string{"debug", "info", "warn", "error"})
	return v.result()
}
