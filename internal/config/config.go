// Package config holds the tasksync configuration and its YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fentz26/tasksync/internal/network"
	"github.com/fentz26/tasksync/internal/scheduler"
)

// Remote kinds.
const (
	RemoteSimulated = "simulated"
	RemoteFile      = "file"
	RemoteHTTP      = "http"
)

// Config is the top-level tasksync configuration.
type Config struct {
	// DBPath is the SQLite file backing the local store.
	DBPath string       `yaml:"db_path" mapstructure:"db_path"`
	Remote RemoteConfig `yaml:"remote" mapstructure:"remote"`
	Sync   SyncConfig   `yaml:"sync" mapstructure:"sync"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
}

// RemoteConfig selects and configures the remote store.
type RemoteConfig struct {
	// Kind is one of simulated, file or http.
	Kind string `yaml:"kind" mapstructure:"kind"`
	// Path is the YAML document used by the file remote.
	Path string `yaml:"path" mapstructure:"path"`
	// URL is the base address of a remote served by `tasksync remote serve`.
	URL string `yaml:"url" mapstructure:"url"`
	// Latency is the artificial delay of the simulated remote.
	Latency time.Duration `yaml:"latency" mapstructure:"latency"`
	// Seed preloads the simulated remote with the demo tasks.
	Seed bool `yaml:"seed" mapstructure:"seed"`
	// Timeout bounds each HTTP request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// SyncConfig tunes replication.
type SyncConfig struct {
	MaxConcurrent  int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	ComputeWorkers int `yaml:"compute_workers" mapstructure:"compute_workers"`
	// Interval enables periodic replication when positive.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	// DrainTimeout is how long a command waits for pending replications on
	// exit. Zero exits without waiting.
	DrainTimeout time.Duration `yaml:"drain_timeout" mapstructure:"drain_timeout"`
}

// ServerConfig configures `tasksync remote serve`.
type ServerConfig struct {
	Listen string `yaml:"listen" mapstructure:"listen"`
}

// Dir returns ~/.tasksync.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tasksync"
	}
	return filepath.Join(home, ".tasksync")
}

// DefaultPath returns ~/.tasksync/config.yaml.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	dir := Dir()
	sch := scheduler.DefaultConfig()
	return &Config{
		DBPath: filepath.Join(dir, "tasksync.db"),
		Remote: RemoteConfig{
			Kind:    RemoteSimulated,
			Path:    filepath.Join(dir, "remote.yaml"),
			URL:     "http://127.0.0.1:7467",
			Latency: network.DefaultLatency,
			Seed:    true,
			Timeout: network.DefaultClientTimeout,
		},
		Sync: SyncConfig{
			MaxConcurrent:  sch.MaxConcurrent,
			ComputeWorkers: sch.ComputeWorkers,
			DrainTimeout:   5 * time.Second,
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:7467",
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}

	switch c.Remote.Kind {
	case RemoteSimulated:
	case RemoteFile:
		if c.Remote.Path == "" {
			return fmt.Errorf("remote.path is required for the file remote")
		}
	case RemoteHTTP:
		if c.Remote.URL == "" {
			return fmt.Errorf("remote.url is required for the http remote")
		}
	default:
		return fmt.Errorf("invalid remote.kind %q, must be: simulated, file, or http", c.Remote.Kind)
	}

	if c.Remote.Latency < 0 {
		return fmt.Errorf("remote.latency must not be negative")
	}
	if c.Sync.MaxConcurrent < 1 {
		return fmt.Errorf("sync.max_concurrent must be at least 1")
	}
	if c.Sync.Interval < 0 {
		return fmt.Errorf("sync.interval must not be negative")
	}
	if c.Sync.DrainTimeout < 0 {
		return fmt.Errorf("sync.drain_timeout must not be negative")
	}
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	return nil
}

// SchedulerConfig returns the scheduler settings carried by the sync section.
func (c *Config) SchedulerConfig() *scheduler.Config {
	return &scheduler.Config{
		MaxConcurrent:  c.Sync.MaxConcurrent,
		ComputeWorkers: c.Sync.ComputeWorkers,
	}
}
