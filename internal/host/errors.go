package host

import "fmt"

// ArgumentError is returned when an argument map does not decode into a valid request.
type ArgumentError struct {
	Op    string
	Cause error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %v", e.Op, e.Cause)
}

func (e *ArgumentError) Unwrap() error      { return e.Cause }
func (e *ArgumentError) InvalidInput() bool { return true }

// UnknownOperationError is returned for names the dispatcher does not know.
type UnknownOperationError struct {
	Name string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation: %s", e.Name)
}

func (e *UnknownOperationError) InvalidInput() bool { return true }
