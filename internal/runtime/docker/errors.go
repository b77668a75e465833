package docker

import (
	"errors"
	"fmt"
)

// ErrContainerNotFound is returned when no container matches a reference.
var ErrContainerNotFound = errors.New("container not found")

// CommandError represents failures running the docker binary itself (start, execution).
type CommandError struct {
	Cmd   string
	Cause error
	Stage string // "start", "execution"
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed at %s: %v", e.Cmd, e.Stage, e.Cause)
}
func (e *CommandError) Unwrap() error { return e.Cause }

// DaemonError is returned when the docker CLI ran but could not reach the
// container, e.g. the daemon is down or the container is not running.
type DaemonError struct {
	ExitCode int
	Stderr   string
}

func (e *DaemonError) Error() string {
	return fmt.Sprintf("docker daemon error (exit %d): %s", e.ExitCode, e.Stderr)
}

// AmbiguousReferenceError is returned when a reference matches several containers.
type AmbiguousReferenceError struct {
	Ref     string
	Matches []string
}

func (e *AmbiguousReferenceError) Error() string {
	return fmt.Sprintf("container reference %q is ambiguous: %d matches", e.Ref, len(e.Matches))
}

func (e *AmbiguousReferenceError) InvalidInput() bool { return true }
