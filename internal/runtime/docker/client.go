// Package docker drives the docker CLI: executing commands inside containers,
// listing containers and checking that the daemon is reachable.
package docker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/Cyclone1070/dockerws/internal/config"
)

// exitDaemonFailure is the exit status the docker CLI uses for its own failures.
const exitDaemonFailure = 125

// Exit statuses docker exec reports when the command could not be started.
const (
	exitCannotInvoke = 126
	exitNotFound     = 127
)

// ociExecFailedPrefix marks a start failure reported by the container runtime,
// as opposed to a 126 or 127 returned by the command itself.
const ociExecFailedPrefix = "OCI runtime exec failed"

// daemonStderrPrefixes mark stderr written by the docker CLI rather than by the
// command running inside the container.
var daemonStderrPrefixes = []string{
	"Error response from daemon:",
	"Cannot connect to the Docker daemon",
	"error during connect:",
}

// Client runs the docker binary.
type Client struct {
	binary        string
	env           []string
	timeout       time.Duration
	retryAttempts int
	retryInterval time.Duration
}

// NewClient creates a Client with injected config.
func NewClient(cfg *config.Config) *Client {
	if cfg == nil {
		panic("cfg is required")
	}
	return &Client{
		binary:        cfg.Docker.Binary,
		env:           append(os.Environ(), cfg.Docker.Env()...),
		timeout:       time.Duration(cfg.Docker.ExecTimeoutSeconds) * time.Second,
		retryAttempts: cfg.Docker.ReadyRetryAttempts,
		retryInterval: time.Duration(cfg.Docker.ReadyRetryIntervalMs) * time.Millisecond,
	}
}

// Exec runs argv inside the container and returns its raw output streams.
// A non-zero exit status of the remote command is not an error; callers judge
// success from stderr. An error means the command could not be delivered.
func (c *Client) Exec(ctx context.Context, containerID string, argv []string) ([]byte, []byte, error) {
	if len(argv) == 0 {
		return nil, nil, os.ErrInvalid
	}

	args := append([]string{"exec", containerID}, argv...)
	stdout, stderr, exitCode, err := c.run(ctx, args)
	if err != nil {
		return nil, nil, err
	}
	if isDaemonFailure(exitCode, stderr) {
		return nil, nil, &DaemonError{ExitCode: exitCode, Stderr: strings.TrimSpace(string(stderr))}
	}
	return stdout, stderr, nil
}

// ShellCommand returns the interactive command that opens a shell in workdir.
func (c *Client) ShellCommand(containerID, workdir, shell string) []string {
	return []string{c.binary, "exec", "-it", "-w", workdir, containerID, shell}
}

// EnsureReady checks that the daemon answers, retrying up to the configured
// number of attempts.
func (c *Client) EnsureReady(ctx context.Context) error {
	check := []string{"info", "--format", "{{.ServerVersion}}"}
	if _, _, code, err := c.run(ctx, check); err == nil && code == 0 {
		return nil
	}

	ticker := time.NewTicker(c.retryInterval)
	defer ticker.Stop()

	for i := 0; i < c.retryAttempts; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, _, code, err := c.run(ctx, check); err == nil && code == 0 {
				return nil
			}
		}
	}

	_, stderr, code, err := c.run(ctx, check)
	if err != nil {
		return err
	}
	if code != 0 {
		return &DaemonError{ExitCode: code, Stderr: strings.TrimSpace(string(stderr))}
	}
	return nil
}

func (c *Client) run(ctx context.Context, args []string) ([]byte, []byte, int, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Env = c.env
	cmd.Stdin = nil

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, 0, &CommandError{Cmd: c.binary, Cause: err, Stage: "start"}
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, 0, &CommandError{Cmd: c.binary, Cause: err, Stage: "start"}
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, 0, &CommandError{Cmd: c.binary, Cause: err, Stage: "start"}
	}

	stdout, stderr := collectOutput(stdoutPipe, stderrPipe)

	err = cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, nil, 0, &CommandError{Cmd: c.binary, Cause: ctxErr, Stage: "execution"}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, nil, 0, &CommandError{Cmd: c.binary, Cause: err, Stage: "execution"}
		}
		return stdout, stderr, exitErr.ExitCode(), nil
	}
	return stdout, stderr, 0, nil
}

func collectOutput(stdout, stderr io.Reader) ([]byte, []byte) {
	var outBuf, errBuf bytes.Buffer

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		_, _ = io.Copy(&outBuf, stdout)
	}()

	go func() {
		defer wg.Done()
		_, _ = io.Copy(&errBuf, stderr)
	}()

	wg.Wait()

	return outBuf.Bytes(), errBuf.Bytes()
}

func isDaemonFailure(exitCode int, stderr []byte) bool {
	if exitCode == 0 {
		return false
	}
	if exitCode == exitDaemonFailure {
		return true
	}
	if (exitCode == exitCannotInvoke || exitCode == exitNotFound) &&
		bytes.HasPrefix(stderr, []byte(ociExecFailedPrefix)) {
		return true
	}
	for _, prefix := range daemonStderrPrefixes {
		if bytes.HasPrefix(stderr, []byte(prefix)) {
			return true
		}
	}
	return false
}
