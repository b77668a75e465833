package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type mockRunner struct {
	stdout []byte
	stderr []byte
	err    error

	mu    sync.Mutex
	calls [][]string
}

func (m *mockRunner) Exec(_ context.Context, containerID string, argv []string) ([]byte, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, append([]string{containerID}, argv...))
	return m.stdout, m.stderr, m.err
}

func TestExecute_StdoutReturnedVerbatim(t *testing.T) {
	runner := &mockRunner{stdout: []byte("  a.txt\nb.txt\n")}
	e := New("c1", runner, nil, nil)

	out, err := e.Execute(context.Background(), "env", "ls", "-A", "/srv")

	require.NoError(t, err)
	assert.Equal(t, "  a.txt\nb.txt\n", string(out))
	assert.Equal(t, [][]string{{"c1", "env", "ls", "-A", "/srv"}}, runner.calls)
}

func TestExecute_EmptyOutputIsSuccess(t *testing.T) {
	e := New("c1", &mockRunner{}, nil, nil)

	out, err := e.Execute(context.Background(), "env", "mkdir", "/srv/new")

	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestExecute_StderrIsAuthoritative(t *testing.T) {
	runner := &mockRunner{
		stdout: []byte("partial"),
		stderr: []byte("stat: cannot stat '/nope': No such file or directory\n"),
	}
	e := New("c1", runner, nil, nil)

	out, err := e.Execute(context.Background(), "env", "stat", "/nope")

	assert.Nil(t, out)
	var remoteErr *RemoteCommandError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, "c1", remoteErr.ContainerID)
	assert.Contains(t, remoteErr.Stderr, "No such file or directory")
	assert.False(t, IsConnection(err))
	assert.True(t, IsRemote(err))
}

func TestExecute_RunnerFailureIsConnectionError(t *testing.T) {
	cause := errors.New("Error response from daemon: container is not running")
	e := New("c1", &mockRunner{err: cause}, nil, nil)

	_, err := e.Execute(context.Background(), "env", "cat", "/etc/hostname")

	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, "c1", connErr.ContainerID)
	assert.Contains(t, connErr.Message, "not running")
	assert.ErrorIs(t, err, ErrConnection)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsConnection(err))
	assert.False(t, IsRemote(err))
}

func TestExecute_LogsShortenedCommand(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	e := New("0123456789abcdef", &mockRunner{}, zap.New(core), nil)

	_, err := e.Execute(context.Background(), "cat", "/a/very/long/path/that/keeps/going/on.txt")
	require.NoError(t, err)

	entries := logs.FilterMessage("execute").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "01234567", fields["container"])
	assert.Equal(t, "cat /a/very/long/path/that/keep...", fields["command"])
}

func TestDescribe(t *testing.T) {
	long := strings.Repeat("x", 31)
	exact := strings.Repeat("y", 30)

	assert.Equal(t, "env "+strings.Repeat("x", 27)+"... "+exact, describe([]string{"env", long, exact}))
	assert.Equal(t, "", describe(nil))
}

func TestCache_ReusesExecutorPerContainer(t *testing.T) {
	cache := NewCache(&mockRunner{}, nil, nil)

	a := cache.Get("c1")
	b := cache.Get("c1")
	c := cache.Get("c2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "c2", c.ContainerID())
	assert.Equal(t, 2, cache.Len())
}

func TestCache_ConcurrentGetConstructsOnce(t *testing.T) {
	cache := NewCache(&mockRunner{}, nil, nil)

	var wg sync.WaitGroup
	got := make([]*Executor, 32)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = cache.Get("shared")
		}(i)
	}
	wg.Wait()

	for _, e := range got {
		assert.Same(t, got[0], e)
	}
	assert.Equal(t, 1, cache.Len())
}

func TestCache_Execute(t *testing.T) {
	runner := &mockRunner{stdout: []byte("ok")}
	cache := NewCache(runner, nil, nil)

	out, err := cache.Execute(context.Background(), "c9", "env", "cat", "/f")

	require.NoError(t, err)
	assert.Equal(t, "ok", string(out))
	assert.Equal(t, [][]string{{"c9", "env", "cat", "/f"}}, runner.calls)
	assert.Equal(t, 1, cache.Len())
}

func TestNew_PanicsWithoutRunner(t *testing.T) {
	assert.Panics(t, func() { New("c1", nil, nil, nil) })
	assert.Panics(t, func() { NewCache(nil, nil, nil) })
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantConnection bool
		wantRemote     bool
	}{
		{"nil", nil, false, false},
		{"plain", errors.New("boom"), false, false},
		{"connection", &ConnectionError{Message: "no such container"}, true, false},
		{"remote", &RemoteCommandError{Command: "cat /x", Stderr: "denied"}, false, true},
		{"wrapped remote", fmt.Errorf("readFile: %w", &RemoteCommandError{Stderr: "denied"}), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantConnection, IsConnection(tt.err))
			assert.Equal(t, tt.wantRemote, IsRemote(tt.err))
		})
	}
}
