package config

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
)

// HostFormatMessage is reported when docker.host is not <host>:<port>.
const HostFormatMessage = "docker.host must be entered as <host>:<port>, e.g. dockerhost:2375"

// Validate checks config values for correctness.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	// Docker
	if c.Docker.Binary == "" {
		errs = append(errs, "docker.binary must not be empty")
	}
	if c.Docker.Host != "" {
		if _, _, err := SplitHost(c.Docker.Host); err != nil {
			errs = append(errs, HostFormatMessage)
		}
	}
	if c.Docker.ExecTimeoutSeconds < 0 {
		errs = append(errs, "docker.exec_timeout_seconds must be >= 0")
	}
	if c.Docker.ReadyRetryAttempts < 1 {
		errs = append(errs, "docker.ready_retry_attempts must be >= 1")
	}
	if c.Docker.ReadyRetryIntervalMs < 1 {
		errs = append(errs, "docker.ready_retry_interval_ms must be >= 1")
	}

	// Bridge
	if c.Bridge.Scheme == "" {
		errs = append(errs, "bridge.scheme must not be empty")
	}
	if strings.ContainsAny(c.Bridge.Scheme, ":/") {
		errs = append(errs, "bridge.scheme must not contain ':' or '/'")
	}

	// Logging
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Sprintf("logging.level %q is not a valid level", c.Logging.Level))
	}
	if c.Logging.Output == "" {
		errs = append(errs, "logging.output must not be empty")
	}

	// Explorer
	if c.Explorer.MaxPreviewSize < 1 {
		errs = append(errs, "explorer.max_preview_size must be >= 1")
	}
	if c.Explorer.ShellCommand == "" {
		errs = append(errs, "explorer.shell_command must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}

// SplitHost splits a <host>:<port> value. The port must be numeric.
func SplitHost(value string) (string, int, error) {
	sep := strings.LastIndex(value, ":")
	if sep <= 0 {
		return "", 0, fmt.Errorf("missing port in %q", value)
	}
	port, err := strconv.Atoi(value[sep+1:])
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port in %q", value)
	}
	return value[:sep], port, nil
}

// Env returns the environment entries the docker CLI needs for this configuration.
func (d DockerConfig) Env() []string {
	if d.Host == "" {
		return nil
	}
	host, port, err := SplitHost(d.Host)
	if err != nil {
		return nil
	}
	return []string{fmt.Sprintf("DOCKER_HOST=tcp://%s:%d", host, port)}
}
