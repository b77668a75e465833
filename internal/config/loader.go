package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the directory name under ~/.config
	ConfigDir = "dockerws"
	// ConfigFile is the config file name
	ConfigFile = "config.json"
	// EnvPrefix prefixes every environment override, e.g. DOCKERWS_DOCKER_HOST.
	EnvPrefix = "dockerws"
)

// FileSystem abstracts file operations for testability
type FileSystem interface {
	UserHomeDir() (string, error)
	ReadFile(path string) ([]byte, error)
}

// ConfigFileReader implements FileSystem using the real OS for config loading
type ConfigFileReader struct{}

func (ConfigFileReader) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

func (ConfigFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// envOverrides lists the settings that can be set from the environment.
// Only variables that are present are applied.
type envOverrides struct {
	DockerBinary   *string `split_words:"true"`
	DockerHost     *string `split_words:"true"`
	LogLevel       *string `split_words:"true"`
	LogDevelopment *bool   `split_words:"true"`
	LogOutput      *string `split_words:"true"`
	MetricsListen  *string `split_words:"true"`
	ShellCommand   *string `split_words:"true"`
}

func (o *envOverrides) apply(cfg *Config) {
	if o.DockerBinary != nil {
		cfg.Docker.Binary = *o.DockerBinary
	}
	if o.DockerHost != nil {
		cfg.Docker.Host = *o.DockerHost
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
	if o.LogDevelopment != nil {
		cfg.Logging.Development = *o.LogDevelopment
	}
	if o.LogOutput != nil {
		cfg.Logging.Output = *o.LogOutput
	}
	if o.MetricsListen != nil {
		cfg.Metrics.Listen = *o.MetricsListen
	}
	if o.ShellCommand != nil {
		cfg.Explorer.ShellCommand = *o.ShellCommand
	}
}

// Loader handles configuration loading with injected dependencies
type Loader struct {
	fs FileSystem
}

// NewLoader creates a production Loader using the real filesystem
func NewLoader() *Loader {
	return &Loader{fs: ConfigFileReader{}}
}

// NewLoaderWithFS creates a Loader with a custom filesystem (for testing)
func NewLoaderWithFS(fs FileSystem) *Loader {
	return &Loader{fs: fs}
}

// Load reads configuration from ~/.config/dockerws/config.json, merges it over
// the defaults and then applies DOCKERWS_* environment overrides.
// Returns error only for parse errors, permission issues, or validation failures.
//
// NOTE: This implementation unmarshals JSON keys directly over the default configuration.
// This allows explicit zero values (e.g., 0, false, "") in the config file to override defaults.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := l.loadFile(cfg); err != nil {
		return nil, err
	}

	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}
	env.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (l *Loader) loadFile(cfg *Config) error {
	homeDir, err := l.fs.UserHomeDir()
	if err != nil {
		return nil // Use defaults if can't get home dir
	}

	configPath := filepath.Join(homeDir, ".config", ConfigDir, ConfigFile)

	data, err := l.fs.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	// Present keys overwrite defaults (even if zero), missing keys leave them untouched.
	return json.Unmarshal(data, cfg)
}

// Load is a convenience function using the default loader
func Load() (*Config, error) {
	return NewLoader().Load()
}
