// Package filetype classifies remote filesystem entries from their POSIX mode bits.
package filetype

import "path"

// Kind is a bitset over the entry classifications. SymbolicLink is combined
// with the kind of the link target, so a link to a directory is
// SymbolicLink|Directory.
type Kind uint8

const (
	Unknown      Kind = 0
	File         Kind = 1
	Directory    Kind = 2
	SymbolicLink Kind = 64
)

// POSIX mode bits as reported by stat %f.
const (
	ModeTypeMask  uint32 = 0o170000
	ModeSymlink   uint32 = 0o120000
	ModeRegular   uint32 = 0o100000
	ModeDirectory uint32 = 0o040000
	ModeOwnerW    uint32 = 0o000200
)

// HasType reports whether target contains every bit of kind.
func HasType(target, kind Kind) bool {
	return target&kind == kind
}

func hasMode(mode, bits uint32) bool {
	return mode&bits == bits
}

// Classify maps a raw mode to exactly one of File, Directory, SymbolicLink or Unknown.
func Classify(mode uint32) Kind {
	switch mode & ModeTypeMask {
	case ModeSymlink:
		return SymbolicLink
	case ModeRegular:
		return File
	case ModeDirectory:
		return Directory
	default:
		return Unknown
	}
}

func (k Kind) String() string {
	var base string
	switch {
	case HasType(k, Directory):
		base = "dir"
	case HasType(k, File):
		base = "file"
	default:
		base = "unknown"
	}
	if HasType(k, SymbolicLink) {
		return "link->" + base
	}
	return base
}

// FileStat is the metadata of one remote entry.
type FileStat struct {
	Path  string `json:"path"`
	Mode  uint32 `json:"mode"`
	Kind  Kind   `json:"kind"`
	Size  int64  `json:"size"`
	CTime int64  `json:"ctime"`
	MTime int64  `json:"mtime"`
}

// Name returns the last element of the path.
func (s *FileStat) Name() string {
	return path.Base(s.Path)
}

// IsDirectory reports whether the entry is a directory or a link to one.
func (s *FileStat) IsDirectory() bool {
	return HasType(s.Kind, Directory)
}

// IsSymlink reports whether the entry itself is a symbolic link.
func (s *FileStat) IsSymlink() bool {
	return HasType(s.Kind, SymbolicLink)
}

// IsWritable reports whether the owner write bit is set.
func (s *FileStat) IsWritable() bool {
	return hasMode(s.Mode, ModeOwnerW)
}
