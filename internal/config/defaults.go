package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile and environment.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Docker   DockerConfig   `json:"docker"`
	Bridge   BridgeConfig   `json:"bridge"`
	Logging  LoggingConfig  `json:"logging"`
	Metrics  MetricsConfig  `json:"metrics"`
	Explorer ExplorerConfig `json:"explorer"`
}

type DockerConfig struct {
	Binary string `json:"binary"` // Default: "docker"
	// Host is the remote daemon as <host>:<port>. Empty uses the docker CLI default.
	Host string `json:"host"`

	ExecTimeoutSeconds   int `json:"exec_timeout_seconds"`    // Default: 60, 0 disables
	ReadyRetryAttempts   int `json:"ready_retry_attempts"`    // Default: 5
	ReadyRetryIntervalMs int `json:"ready_retry_interval_ms"` // Default: 1000
}

type BridgeConfig struct {
	Scheme           string `json:"scheme"`            // Default: "docker"
	CheckPermissions bool   `json:"check_permissions"` // Default: true
}

type LoggingConfig struct {
	Level       string `json:"level"`       // Default: "info"
	Development bool   `json:"development"` // Default: false
	Output      string `json:"output"`      // Default: "stderr"
}

type MetricsConfig struct {
	// Listen is the address serving /metrics. Empty disables the endpoint.
	Listen string `json:"listen"`
}

type ExplorerConfig struct {
	Exclude        []string `json:"exclude"`          // gitignore syntax
	MaxPreviewSize int64    `json:"max_preview_size"` // Default: 256 KiB
	ShellCommand   string   `json:"shell_command"`    // Default: "sh"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Docker: DockerConfig{
			Binary:               "docker",
			ExecTimeoutSeconds:   60,
			ReadyRetryAttempts:   5,
			ReadyRetryIntervalMs: 1000,
		},
		Bridge: BridgeConfig{
			Scheme:           "docker",
			CheckPermissions: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
		},
		Explorer: ExplorerConfig{
			Exclude:        []string{".git/"},
			MaxPreviewSize: 256 * 1024,
			ShellCommand:   "sh",
		},
	}
}
