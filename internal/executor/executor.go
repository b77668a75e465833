// Package executor runs commands inside containers and turns their output
// streams into a result or a typed failure.
package executor

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Cyclone1070/dockerws/internal/metrics"
)

const (
	shortIDLen     = 8
	maxLoggedArg   = 30
	loggedArgShown = 27
)

// Runner delivers a command to a container and returns its output streams.
// An error means the command never ran.
type Runner interface {
	Exec(ctx context.Context, containerID string, argv []string) ([]byte, []byte, error)
}

// Executor runs commands in one container.
type Executor struct {
	containerID string
	runner      Runner
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// New creates an Executor for containerID.
func New(containerID string, runner Runner, logger *zap.Logger, m *metrics.Metrics) *Executor {
	if runner == nil {
		panic("runner is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		containerID: containerID,
		runner:      runner,
		logger:      logger,
		metrics:     m,
	}
}

// ContainerID returns the container this executor targets.
func (e *Executor) ContainerID() string {
	return e.containerID
}

// Execute runs argv in the container. Non-empty stderr is a failure even when
// stdout has data. Stdout is returned verbatim; no output yields an empty slice.
func (e *Executor) Execute(ctx context.Context, argv ...string) ([]byte, error) {
	e.logger.Debug("execute",
		zap.String("container", shortID(e.containerID)),
		zap.String("command", describe(argv)),
	)

	start := time.Now()
	stdout, stderr, err := e.runner.Exec(ctx, e.containerID, argv)
	if err != nil {
		e.metrics.ObserveExec(metrics.OutcomeConnectionError, time.Since(start))
		return nil, &ConnectionError{ContainerID: e.containerID, Message: err.Error(), Cause: err}
	}

	if len(stderr) > 0 {
		e.metrics.ObserveExec(metrics.OutcomeRemoteError, time.Since(start))
		e.logger.Debug(string(stderr))
		return nil, &RemoteCommandError{
			ContainerID: e.containerID,
			Command:     describe(argv),
			Stderr:      string(stderr),
		}
	}

	e.metrics.ObserveExec(metrics.OutcomeOK, time.Since(start))
	if len(stdout) == 0 {
		return []byte{}, nil
	}
	return stdout, nil
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// describe renders argv for logs with long arguments shortened.
func describe(argv []string) string {
	parts := make([]string, len(argv))
	for i, arg := range argv {
		if len(arg) > maxLoggedArg {
			arg = arg[:loggedArgShown] + "..."
		}
		parts[i] = arg
	}
	return strings.Join(parts, " ")
}

// Cache hands out one Executor per container id for the life of the process.
type Cache struct {
	runner  Runner
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	executors map[string]*Executor
}

// NewCache creates an empty cache whose executors share runner.
func NewCache(runner Runner, logger *zap.Logger, m *metrics.Metrics) *Cache {
	if runner == nil {
		panic("runner is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		runner:    runner,
		logger:    logger,
		metrics:   m,
		executors: make(map[string]*Executor),
	}
}

// Get returns the executor for containerID, creating it on first use.
func (c *Cache) Get(containerID string) *Executor {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.executors[containerID]; ok {
		return e
	}
	e := New(containerID, c.runner, c.logger, c.metrics)
	c.executors[containerID] = e
	return e
}

// Execute runs argv in containerID through its cached executor.
func (c *Cache) Execute(ctx context.Context, containerID string, argv ...string) ([]byte, error) {
	return c.Get(containerID).Execute(ctx, argv...)
}

// Len returns the number of cached executors.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.executors)
}
