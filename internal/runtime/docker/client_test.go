package docker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cyclone1070/dockerws/internal/config"
)

const fakeDockerScript = `#!/bin/sh
case "$1" in
exec)
	shift
	ctr="$1"
	shift
	if [ "$ctr" = "gone" ]; then
		echo "Error response from daemon: No such container: gone" >&2
		exit 1
	fi
	case "$1" in
	fail)
		echo "boom" >&2
		exit 2
		;;
	cli125)
		exit 125
		;;
	noexec)
		echo 'OCI runtime exec failed: exec failed: unable to start container process: exec: "noexec": executable file not found in $PATH: unknown' >&2
		exit 126
		;;
	nostart)
		echo 'OCI runtime exec failed: exec failed: unable to start container process: exec: "nostart": stat nostart: no such file or directory: unknown' >&2
		exit 127
		;;
	exit126)
		echo "permission denied" >&2
		exit 126
		;;
	esac
	printf '%s\n' "$@"
	;;
ps)
	echo '{"ID":"4f2a9c1e0b7d8a6f","Names":"web","Image":"nginx","State":"running","Status":"Up 2 hours"}'
	echo '{"ID":"4f2b00aa11bb22cc","Names":"db,db-alias","Image":"postgres","State":"running","Status":"Up 2 hours"}'
	;;
info)
	if [ -n "$FAKE_INFO_FAIL" ]; then
		echo "Cannot connect to the Docker daemon" >&2
		exit 1
	fi
	echo "27.0.1"
	;;
esac
`

func newFakeClient(t *testing.T) *Client {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "docker")
	require.NoError(t, os.WriteFile(bin, []byte(fakeDockerScript), 0o755))

	cfg := config.DefaultConfig()
	cfg.Docker.Binary = bin
	cfg.Docker.ReadyRetryAttempts = 1
	cfg.Docker.ReadyRetryIntervalMs = 1
	return NewClient(cfg)
}

func TestExec_ReturnsStdout(t *testing.T) {
	client := newFakeClient(t)

	stdout, stderr, err := client.Exec(context.Background(), "web", []string{"ls", "-A", "/srv"})

	require.NoError(t, err)
	assert.Equal(t, "ls\n-A\n/srv\n", string(stdout))
	assert.Empty(t, stderr)
}

func TestExec_RemoteFailureIsNotAnError(t *testing.T) {
	client := newFakeClient(t)

	stdout, stderr, err := client.Exec(context.Background(), "web", []string{"fail"})

	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Equal(t, "boom\n", string(stderr))
}

func TestExec_DaemonFailures(t *testing.T) {
	client := newFakeClient(t)

	tests := []struct {
		name      string
		container string
		argv      []string
		wantCode  int
	}{
		{"missing container", "gone", []string{"ls"}, 1},
		{"cli exit status", "web", []string{"cli125"}, 125},
		{"command not executable", "web", []string{"noexec"}, 126},
		{"command not found", "web", []string{"nostart"}, 127},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := client.Exec(context.Background(), tt.container, tt.argv)

			var daemonErr *DaemonError
			require.True(t, errors.As(err, &daemonErr))
			assert.Equal(t, tt.wantCode, daemonErr.ExitCode)
		})
	}
}

func TestExec_CommandExit126IsRemote(t *testing.T) {
	client := newFakeClient(t)

	_, stderr, err := client.Exec(context.Background(), "web", []string{"exit126"})

	require.NoError(t, err)
	assert.Equal(t, "permission denied\n", string(stderr))
}

func TestExec_MissingBinary(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Docker.Binary = filepath.Join(t.TempDir(), "no-docker")
	client := NewClient(cfg)

	_, _, err := client.Exec(context.Background(), "web", []string{"ls"})

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "start", cmdErr.Stage)
}

func TestExec_CancelledContext(t *testing.T) {
	client := newFakeClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := client.Exec(ctx, "web", []string{"ls"})

	assert.Error(t, err)
}

func TestExec_EmptyArgv(t *testing.T) {
	client := newFakeClient(t)

	_, _, err := client.Exec(context.Background(), "web", nil)

	assert.ErrorIs(t, err, os.ErrInvalid)
}

func TestListContainers(t *testing.T) {
	client := newFakeClient(t)

	containers, err := client.ListContainers(context.Background())

	require.NoError(t, err)
	require.Len(t, containers, 2)
	assert.Equal(t, "web", containers[0].Names)
	assert.Equal(t, "4f2a9c1e0b7d", containers[0].ShortID())
	assert.Equal(t, "postgres", containers[1].Image)
}

func TestFind(t *testing.T) {
	client := newFakeClient(t)
	ctx := context.Background()

	ctr, err := client.Find(ctx, "web")
	require.NoError(t, err)
	assert.Equal(t, "4f2a9c1e0b7d8a6f", ctr.ID)

	ctr, err = client.Find(ctx, "db-alias")
	require.NoError(t, err)
	assert.Equal(t, "4f2b00aa11bb22cc", ctr.ID)

	ctr, err = client.Find(ctx, "4f2a")
	require.NoError(t, err)
	assert.Equal(t, "web", ctr.Names)

	_, err = client.Find(ctx, "4f2")
	var ambiguous *AmbiguousReferenceError
	require.True(t, errors.As(err, &ambiguous))
	assert.Len(t, ambiguous.Matches, 2)

	_, err = client.Find(ctx, "ffff")
	assert.ErrorIs(t, err, ErrContainerNotFound)
}

func TestEnsureReady(t *testing.T) {
	client := newFakeClient(t)
	assert.NoError(t, client.EnsureReady(context.Background()))
}

func TestEnsureReady_DaemonDown(t *testing.T) {
	t.Setenv("FAKE_INFO_FAIL", "1")
	client := newFakeClient(t)

	err := client.EnsureReady(context.Background())

	var daemonErr *DaemonError
	require.True(t, errors.As(err, &daemonErr))
	assert.Contains(t, daemonErr.Stderr, "Cannot connect")
}

func TestShellCommand(t *testing.T) {
	client := NewClient(config.DefaultConfig())

	cmd := client.ShellCommand("abc", "/srv", "bash")

	assert.Equal(t, []string{"docker", "exec", "-it", "-w", "/srv", "abc", "bash"}, cmd)
}
