package bridge

import (
	"errors"
	"fmt"
)

// Code names a filesystem failure the host can act on.
type Code string

const (
	CodeNotFound      Code = "FileNotFound"
	CodeExists        Code = "FileExists"
	CodeNoPermissions Code = "NoPermissions"
	CodeNotADirectory Code = "FileNotADirectory"
	CodeIsADirectory  Code = "FileIsADirectory"
)

// Sentinels matched by FileSystemError through errors.Is.
var (
	ErrNotFound      = errors.New("file not found")
	ErrAlreadyExists = errors.New("file exists")
	ErrNoPermissions = errors.New("no permissions")
	ErrNotADirectory = errors.New("not a directory")
	ErrIsADirectory  = errors.New("is a directory")
)

var sentinels = map[Code]error{
	CodeNotFound:      ErrNotFound,
	CodeExists:        ErrAlreadyExists,
	CodeNoPermissions: ErrNoPermissions,
	CodeNotADirectory: ErrNotADirectory,
	CodeIsADirectory:  ErrIsADirectory,
}

// FileSystemError is a precondition failure detected by the bridge.
type FileSystemError struct {
	Code  Code
	URI   URI
	Cause error
}

func (e *FileSystemError) Error() string {
	switch e.Code {
	case CodeNotFound:
		return fmt.Sprintf("%s does not exist", e.URI.Path)
	case CodeExists:
		return fmt.Sprintf("%s exists", e.URI.Path)
	case CodeNoPermissions:
		return fmt.Sprintf("%s is not writable", e.URI.Path)
	case CodeNotADirectory:
		return fmt.Sprintf("%s is not a directory", e.URI.Path)
	case CodeIsADirectory:
		return fmt.Sprintf("%s is a directory", e.URI.Path)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.URI.Path)
	}
}

func (e *FileSystemError) Unwrap() error { return e.Cause }

func (e *FileSystemError) Is(target error) bool {
	return sentinels[e.Code] == target
}

func (e *FileSystemError) NotFound() bool   { return e.Code == CodeNotFound }
func (e *FileSystemError) Exists() bool     { return e.Code == CodeExists }
func (e *FileSystemError) Permission() bool { return e.Code == CodeNoPermissions }

func notFound(u URI, cause error) error {
	return &FileSystemError{Code: CodeNotFound, URI: u, Cause: cause}
}

func newError(code Code, u URI) error {
	return &FileSystemError{Code: code, URI: u}
}

// CrossContainerError is returned when a rename or copy spans two containers.
type CrossContainerError struct {
	From, To string
}

func (e *CrossContainerError) Error() string {
	return fmt.Sprintf("cannot transfer between containers %s and %s", e.From, e.To)
}

func (e *CrossContainerError) InvalidInput() bool { return true }

// InvalidURIError is returned when a string is not a bridge URI.
type InvalidURIError struct {
	Value  string
	Reason string
}

func (e *InvalidURIError) Error() string {
	return fmt.Sprintf("invalid uri %q: %s", e.Value, e.Reason)
}

func (e *InvalidURIError) InvalidInput() bool { return true }

// IsNotFound reports whether err is a bridge NotFound failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
