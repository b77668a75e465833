// Package remote expresses filesystem operations as shell commands run inside
// a container and parses their output into typed results.
package remote

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Cyclone1070/dockerws/internal/executor"
	"github.com/Cyclone1070/dockerws/internal/filetype"
)

// StatFormat is the stat format string: name, raw mode in hex, size, change time.
const StatFormat = "%n|%f|%s|%Z"

var statCommand = []string{"env", "stat", "-c", StatFormat}

// commandExecutor is the slice of the executor cache this package needs.
type commandExecutor interface {
	Execute(ctx context.Context, containerID string, argv ...string) ([]byte, error)
}

// DirEntry is one child of a listed directory. Name is the absolute path.
type DirEntry struct {
	Name string        `json:"name"`
	Kind filetype.Kind `json:"kind"`
}

// Client issues the remote filesystem commands.
type Client struct {
	exec         commandExecutor
	newDelimiter func() string
}

// New creates a Client that runs commands through exec.
func New(exec commandExecutor) *Client {
	if exec == nil {
		panic("exec is required")
	}
	return &Client{exec: exec, newDelimiter: uuid.NewString}
}

// Stat returns the metadata of p. A symbolic link is reported with its
// target's kind added.
func (c *Client) Stat(ctx context.Context, containerID, p string) (filetype.FileStat, error) {
	out, err := c.exec.Execute(ctx, containerID, statArgs(false, p)...)
	if err != nil {
		return filetype.FileStat{}, err
	}
	return c.parseStat(ctx, containerID, firstLine(out))
}

// Readlink resolves p to an absolute path with every symlink followed.
func (c *Client) Readlink(ctx context.Context, containerID, p string) (string, error) {
	out, err := c.exec.Execute(ctx, containerID, "readlink", "-f", p)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// List returns the children of dir, stat-ing all of them in one command.
func (c *Client) List(ctx context.Context, containerID, dir string) ([]DirEntry, error) {
	out, err := c.exec.Execute(ctx, containerID, "env", "ls", "-A", dir)
	if err != nil {
		return nil, err
	}

	prefix := strings.TrimSuffix(dir, "/")
	var paths []string
	for _, name := range strings.Split(string(out), "\n") {
		if name == "" {
			continue
		}
		paths = append(paths, prefix+"/"+name)
	}
	if len(paths) == 0 {
		return []DirEntry{}, nil
	}

	statOut, err := c.exec.Execute(ctx, containerID, statArgs(false, paths...)...)
	if err != nil {
		return nil, err
	}

	entries := make([]DirEntry, 0, len(paths))
	for _, line := range strings.Split(string(statOut), "\n") {
		if line == "" {
			continue
		}
		st, err := c.parseStat(ctx, containerID, line)
		if err != nil {
			return nil, err
		}
		entries = append(entries, DirEntry{Name: st.Path, Kind: st.Kind})
	}
	return entries, nil
}

// Cat returns the content of p unmodified.
func (c *Client) Cat(ctx context.Context, containerID, p string) ([]byte, error) {
	return c.exec.Execute(ctx, containerID, "env", "cat", p)
}

// Write replaces the content of p, creating it if needed. Content travels in a
// here-document closed by a fresh random delimiter.
func (c *Client) Write(ctx context.Context, containerID, p string, content []byte) error {
	if bytes.IndexByte(content, 0) >= 0 {
		return &BinaryContentError{Path: p}
	}
	delimiter := c.newDelimiter()
	script := "head -c -1 <<'" + delimiter + "' > " + quote(p) + "\n" +
		string(content) + "\n" +
		delimiter
	_, err := c.exec.Execute(ctx, containerID, "sh", "-c", script)
	return err
}

// Mkdir creates a single directory. The parent must exist.
func (c *Client) Mkdir(ctx context.Context, containerID, p string) error {
	_, err := c.exec.Execute(ctx, containerID, "env", "mkdir", p)
	return err
}

// Remove deletes p, descending into directories only when recursive is set.
func (c *Client) Remove(ctx context.Context, containerID, p string, recursive bool) error {
	argv := []string{"env", "rm", "-f"}
	if recursive {
		argv = append(argv, "-r")
	}
	_, err := c.exec.Execute(ctx, containerID, append(argv, p)...)
	return err
}

// Move renames oldPath to newPath.
func (c *Client) Move(ctx context.Context, containerID, oldPath, newPath string, overwrite bool) error {
	argv := []string{"env", "mv"}
	if overwrite {
		argv = append(argv, "-f")
	}
	_, err := c.exec.Execute(ctx, containerID, append(argv, oldPath, newPath)...)
	return err
}

// Copy copies src to dst, leaving src in place.
func (c *Client) Copy(ctx context.Context, containerID, src, dst string, overwrite bool) error {
	argv := []string{"env", "cp"}
	if overwrite {
		argv = append(argv, "-f")
	}
	_, err := c.exec.Execute(ctx, containerID, append(argv, src, dst)...)
	return err
}

// parseStat turns one stat line into metadata. Symlinks are followed exactly
// once; a target that cannot be stat-ed leaves the kind as SymbolicLink|Unknown.
func (c *Client) parseStat(ctx context.Context, containerID, line string) (filetype.FileStat, error) {
	st := ParseStatLine(line)
	if st.Kind != filetype.SymbolicLink {
		return st, nil
	}

	out, err := c.exec.Execute(ctx, containerID, statArgs(true, st.Path)...)
	if err != nil {
		if executor.IsConnection(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return filetype.FileStat{}, err
		}
		st.Kind = filetype.SymbolicLink | filetype.Unknown
		return st, nil
	}
	target := ParseStatLine(firstLine(out))
	st.Kind = filetype.SymbolicLink | target.Kind
	return st, nil
}

// ParseStatLine parses "name|modeHex|size|time" without resolving symlinks.
// Malformed numeric fields become zero. The name may itself contain '|'.
func ParseStatLine(line string) filetype.FileStat {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.Split(line, "|")

	var name, mode, size, mtime string
	if len(fields) >= 4 {
		n := len(fields)
		name = strings.Join(fields[:n-3], "|")
		mode, size, mtime = fields[n-3], fields[n-2], fields[n-1]
	} else {
		padded := append(fields, "", "", "")
		name, mode, size = padded[0], padded[1], padded[2]
	}

	raw := uint32(parseUint(mode, 16))
	t := parseInt(mtime)
	return filetype.FileStat{
		Path:  name,
		Mode:  raw,
		Kind:  filetype.Classify(raw),
		Size:  parseInt(size),
		CTime: t,
		MTime: t,
	}
}

func statArgs(follow bool, paths ...string) []string {
	argv := append([]string(nil), statCommand...)
	if follow {
		argv = append(argv, "-L")
	}
	return append(argv, paths...)
}

func firstLine(out []byte) string {
	line, _, _ := strings.Cut(string(out), "\n")
	return line
}

func parseInt(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parseUint(s string, base int) uint64 {
	v, err := strconv.ParseUint(strings.TrimSpace(s), base, 32)
	if err != nil {
		return 0
	}
	return v
}

// quote wraps s in single quotes for sh.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
