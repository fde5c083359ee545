// Package config handles layered YAML configuration with environment
// overrides, plus change watching for the registered host list.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/smileynet/berth/internal/target"
)

// Config holds all berth configuration.
type Config struct {
	Docker    Docker    `yaml:"docker"`
	Dashboard Dashboard `yaml:"dashboard"`
	Log       Log       `yaml:"log"`
	Hosts     []Host    `yaml:"hosts"`
}

// Docker holds docker CLI execution settings.
type Docker struct {
	Bin     string        `yaml:"bin"`     // docker binary name or path
	Timeout time.Duration `yaml:"timeout"` // per-command deadline
}

// Dashboard holds TUI settings.
type Dashboard struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Log holds logging settings.
type Log struct {
	Level string `yaml:"level"` // debug | info | warn | error
	File  string `yaml:"file"`  // empty means stderr
}

// Host registers one remote Docker host reached over SSH.
type Host struct {
	Name string `yaml:"name"`
	Addr string `yaml:"addr"`
	User string `yaml:"user"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Docker: Docker{
			Bin:     "docker",
			Timeout: 30 * time.Second,
		},
		Dashboard: Dashboard{
			PollInterval: 2 * time.Second,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads a single YAML config file at path and returns a Config.
// For merging multiple config sources, use LoadLayered instead.
// If the file does not exist, defaults are returned without error.
// If the file contains invalid YAML or unknown fields, an error is returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return &cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.Docker.Bin == "" {
		return errors.New("config: docker.bin cannot be empty")
	}
	if c.Docker.Timeout <= 0 {
		return fmt.Errorf("config: docker.timeout must be positive, got %v", c.Docker.Timeout)
	}
	if c.Dashboard.PollInterval <= 0 {
		return fmt.Errorf("config: dashboard.poll_interval must be positive, got %v", c.Dashboard.PollInterval)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("config: log.level must be debug, info, warn, or error, got %q", c.Log.Level)
	}

	seen := make(map[string]bool, len(c.Hosts))
	for i, h := range c.Hosts {
		if h.Name == "" {
			return fmt.Errorf("config: hosts[%d].name cannot be empty", i)
		}
		if h.Name == target.LocalKey {
			return fmt.Errorf("config: host name %q is reserved for the local machine", target.LocalKey)
		}
		if h.Addr == "" {
			return fmt.Errorf("config: host %q needs an addr", h.Name)
		}
		if seen[h.Name] {
			return fmt.Errorf("config: duplicate host name %q", h.Name)
		}
		seen[h.Name] = true
	}
	return nil
}

// Targets converts the registered hosts into targets for the registry.
func (c *Config) Targets() []target.Target {
	out := make([]target.Target, len(c.Hosts))
	for i, h := range c.Hosts {
		out[i] = target.Target{Name: h.Name, Host: h.Addr, User: h.User}
	}
	return out
}

// ApplyEnv applies environment variable overrides to the config. A .env
// file in the working directory is loaded first if present. Supported
// variables: BERTH_DOCKER_BIN, BERTH_DOCKER_TIMEOUT, BERTH_POLL_INTERVAL,
// BERTH_LOG_LEVEL, BERTH_LOG_FILE.
func (c *Config) ApplyEnv() error {
	// Missing .env is the normal case.
	_ = godotenv.Load()

	if v := os.Getenv("BERTH_DOCKER_BIN"); v != "" {
		c.Docker.Bin = v
	}
	if v := os.Getenv("BERTH_DOCKER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid BERTH_DOCKER_TIMEOUT %q: %w", v, err)
		}
		c.Docker.Timeout = d
	}
	if v := os.Getenv("BERTH_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid BERTH_POLL_INTERVAL %q: %w", v, err)
		}
		c.Dashboard.PollInterval = d
	}
	if v := os.Getenv("BERTH_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("BERTH_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset
// fields.
type rawConfig struct {
	Docker    *rawDocker    `yaml:"docker"`
	Dashboard *rawDashboard `yaml:"dashboard"`
	Log       *rawLog       `yaml:"log"`
	Hosts     *[]Host       `yaml:"hosts"`
}

type rawDocker struct {
	Bin     *string        `yaml:"bin"`
	Timeout *time.Duration `yaml:"timeout"`
}

type rawDashboard struct {
	PollInterval *time.Duration `yaml:"poll_interval"`
}

type rawLog struct {
	Level *string `yaml:"level"`
	File  *string `yaml:"file"`
}

// loadLayer reads a single config file into a rawConfig for selective
// merging. Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
// A present hosts list replaces the earlier list wholesale; host entries
// are not merged pairwise.
func (c *Config) merge(layer *rawConfig) {
	if layer.Docker != nil {
		if layer.Docker.Bin != nil {
			c.Docker.Bin = *layer.Docker.Bin
		}
		if layer.Docker.Timeout != nil {
			c.Docker.Timeout = *layer.Docker.Timeout
		}
	}
	if layer.Dashboard != nil {
		if layer.Dashboard.PollInterval != nil {
			c.Dashboard.PollInterval = *layer.Dashboard.PollInterval
		}
	}
	if layer.Log != nil {
		if layer.Log.Level != nil {
			c.Log.Level = *layer.Log.Level
		}
		if layer.Log.File != nil {
			c.Log.File = *layer.Log.File
		}
	}
	if layer.Hosts != nil {
		c.Hosts = *layer.Hosts
	}
}
