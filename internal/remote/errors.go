package remote

import "fmt"

// BinaryContentError is returned when content cannot travel through a shell
// argument, which cannot carry NUL bytes.
type BinaryContentError struct {
	Path string
}

func (e *BinaryContentError) Error() string {
	return fmt.Sprintf("cannot write %s: content contains NUL bytes", e.Path)
}

func (e *BinaryContentError) InvalidInput() bool { return true }
