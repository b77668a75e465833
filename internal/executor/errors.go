package executor

import (
	"errors"
	"fmt"
)

// ErrConnection matches every ConnectionError via errors.Is.
var ErrConnection = errors.New("docker connection failed")

// ConnectionError means the command could not be delivered to the container.
type ConnectionError struct {
	ContainerID string
	Message     string
	Cause       error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("docker connection failed - %s", e.Message)
}

func (e *ConnectionError) Unwrap() error    { return e.Cause }
func (e *ConnectionError) Is(t error) bool  { return t == ErrConnection }
func (e *ConnectionError) Connection() bool { return true }

// RemoteCommandError carries the stderr of a command that ran but reported failure.
type RemoteCommandError struct {
	ContainerID string
	Command     string
	Stderr      string
}

func (e *RemoteCommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Stderr)
}

func (e *RemoteCommandError) Remote() bool { return true }

// IsConnection reports whether err is, or wraps, a transport failure.
func IsConnection(err error) bool {
	var c interface{ Connection() bool }
	if errors.As(err, &c) {
		return c.Connection()
	}
	return false
}

// IsRemote reports whether err is, or wraps, a failure reported by the remote
// command itself.
func IsRemote(err error) bool {
	var r interface{ Remote() bool }
	if errors.As(err, &r) {
		return r.Remote()
	}
	return false
}
