package mocks

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"
)

const (
	modeTypeMask = 0o170000
	modeSymlink  = 0o120000
	modeRegular  = 0o100000
	modeDir      = 0o040000

	maxSymlinkHops = 40
	dirSize        = 4096
	startTime      = 1700000000
)

var heredocHeader = regexp.MustCompile(`^head -c -1 <<'([^']+)' > '((?:[^']|'\\'')*)'$`)

type node struct {
	mode   uint32
	data   []byte
	target string
	mtime  int64
}

func (n *node) isDir() bool     { return n.mode&modeTypeMask == modeDir }
func (n *node) isSymlink() bool { return n.mode&modeTypeMask == modeSymlink }

func (n *node) size() int64 {
	switch {
	case n.isDir():
		return dirSize
	case n.isSymlink():
		return int64(len(n.target))
	default:
		return int64(len(n.data))
	}
}

// MockContainer is an in-memory container filesystem that answers the shell
// commands the remote protocol issues, the way coreutils inside a container would.
// It implements the runner contract Exec(ctx, containerID, argv).
type MockContainer struct {
	Mu sync.Mutex
	ID string

	// Unreachable, when set, is returned as a transport failure for every command.
	Unreachable error
	// Intercept, when set, may answer a command before the filesystem does.
	Intercept func(argv []string) (handled bool, stdout, stderr []byte, err error)

	nodes map[string]*node
	calls [][]string
	clock int64
}

// NewMockContainer creates a container with an empty root directory.
func NewMockContainer(id string) *MockContainer {
	return &MockContainer{
		ID:    id,
		nodes: map[string]*node{"/": {mode: modeDir | 0o755, mtime: startTime}},
		clock: startTime,
	}
}

// CreateDir creates a directory and any missing parents.
func (c *MockContainer) CreateDir(p string, perm uint32) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.ensureParents(p)
	c.nodes[path.Clean(p)] = &node{mode: modeDir | perm, mtime: c.tick()}
}

// CreateFile creates a regular file and any missing parents.
func (c *MockContainer) CreateFile(p string, content []byte, perm uint32) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.ensureParents(p)
	c.nodes[path.Clean(p)] = &node{mode: modeRegular | perm, data: append([]byte(nil), content...), mtime: c.tick()}
}

// CreateSymlink creates a symbolic link pointing at target, which may dangle.
func (c *MockContainer) CreateSymlink(p, target string) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.ensureParents(p)
	c.nodes[path.Clean(p)] = &node{mode: modeSymlink | 0o777, target: target, mtime: c.tick()}
}

// Chmod replaces the permission bits of p, keeping its type.
func (c *MockContainer) Chmod(p string, perm uint32) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	if n, ok := c.nodes[path.Clean(p)]; ok {
		n.mode = n.mode&modeTypeMask | perm
	}
}

// Content returns the bytes of the regular file at p.
func (c *MockContainer) Content(p string) ([]byte, bool) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	n, ok := c.nodes[path.Clean(p)]
	if !ok || n.isDir() || n.isSymlink() {
		return nil, false
	}
	return append([]byte(nil), n.data...), true
}

// Exists reports whether p exists without following a final symlink.
func (c *MockContainer) Exists(p string) bool {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	_, ok := c.nodes[path.Clean(p)]
	return ok
}

// IsDir reports whether p is a directory.
func (c *MockContainer) IsDir(p string) bool {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	n, ok := c.nodes[path.Clean(p)]
	return ok && n.isDir()
}

// Calls returns every argv received, in order.
func (c *MockContainer) Calls() [][]string {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	out := make([][]string, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallsTo counts received commands whose program, after an optional env prefix, is program.
func (c *MockContainer) CallsTo(program string) int {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	count := 0
	for _, argv := range c.calls {
		if len(argv) > 0 && argv[0] == "env" {
			argv = argv[1:]
		}
		if len(argv) > 0 && argv[0] == program {
			count++
		}
	}
	return count
}

// ResetCalls clears the call log.
func (c *MockContainer) ResetCalls() {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.calls = nil
}

// Exec runs argv against the in-memory filesystem.
func (c *MockContainer) Exec(ctx context.Context, containerID string, argv []string) ([]byte, []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	c.Mu.Lock()
	defer c.Mu.Unlock()

	if containerID != c.ID {
		return nil, nil, fmt.Errorf("Error response from daemon: No such container: %s", containerID)
	}
	if c.Unreachable != nil {
		return nil, nil, c.Unreachable
	}

	c.calls = append(c.calls, append([]string(nil), argv...))

	if c.Intercept != nil {
		if handled, stdout, stderr, err := c.Intercept(argv); handled {
			return stdout, stderr, err
		}
	}

	if len(argv) > 0 && argv[0] == "env" {
		argv = argv[1:]
	}
	if len(argv) == 0 {
		return nil, []byte("env: missing command\n"), nil
	}

	var out, errOut strings.Builder
	args := argv[1:]
	switch argv[0] {
	case "stat":
		c.stat(args, &out, &errOut)
	case "readlink":
		c.readlink(args, &out)
	case "ls":
		c.ls(args, &out, &errOut)
	case "cat":
		c.cat(args, &out, &errOut)
	case "sh":
		c.sh(args, &errOut)
	case "mkdir":
		c.mkdir(args, &errOut)
	case "rm":
		c.rm(args, &errOut)
	case "mv":
		c.mv(args, &errOut)
	case "cp":
		c.cp(args, &errOut)
	default:
		fmt.Fprintf(&errOut, "env: '%s': No such file or directory\n", argv[0])
	}
	return []byte(out.String()), []byte(errOut.String()), nil
}

func (c *MockContainer) stat(args []string, out, errOut *strings.Builder) {
	if len(args) < 2 || args[0] != "-c" {
		errOut.WriteString("stat: missing operand\n")
		return
	}
	format := args[1]
	args = args[2:]
	follow := false
	if len(args) > 0 && args[0] == "-L" {
		follow = true
		args = args[1:]
	}
	if format != "%n|%f|%s|%Z" {
		fmt.Fprintf(errOut, "stat: unsupported format %q\n", format)
		return
	}
	if len(args) == 0 {
		errOut.WriteString("stat: missing operand\n")
		return
	}
	for _, p := range args {
		_, n := c.lookup(p, follow)
		if n == nil {
			fmt.Fprintf(errOut, "stat: cannot statx '%s': No such file or directory\n", p)
			continue
		}
		fmt.Fprintf(out, "%s|%x|%d|%d\n", p, n.mode, n.size(), n.mtime)
	}
}

func (c *MockContainer) readlink(args []string, out *strings.Builder) {
	if len(args) != 2 || args[0] != "-f" {
		return
	}
	if resolved, n := c.lookup(args[1], true); n != nil {
		out.WriteString(resolved + "\n")
		return
	}
	parent, n := c.lookup(path.Dir(path.Clean(args[1])), true)
	if n == nil || !n.isDir() {
		return
	}
	out.WriteString(path.Join(parent, path.Base(args[1])) + "\n")
}

func (c *MockContainer) ls(args []string, out, errOut *strings.Builder) {
	if len(args) != 2 || args[0] != "-A" {
		errOut.WriteString("ls: unsupported arguments\n")
		return
	}
	p := args[1]
	resolved, n := c.lookup(p, true)
	if n == nil {
		fmt.Fprintf(errOut, "ls: cannot access '%s': No such file or directory\n", p)
		return
	}
	if !n.isDir() {
		out.WriteString(p + "\n")
		return
	}
	for _, name := range c.children(resolved) {
		out.WriteString(name + "\n")
	}
}

func (c *MockContainer) cat(args []string, out, errOut *strings.Builder) {
	for _, p := range args {
		_, n := c.lookup(p, true)
		switch {
		case n == nil:
			fmt.Fprintf(errOut, "cat: %s: No such file or directory\n", p)
		case n.isDir():
			fmt.Fprintf(errOut, "cat: %s: Is a directory\n", p)
		default:
			out.Write(n.data)
		}
	}
}

func (c *MockContainer) sh(args []string, errOut *strings.Builder) {
	if len(args) != 2 || args[0] != "-c" {
		errOut.WriteString("sh: unsupported invocation\n")
		return
	}
	script := args[1]
	header, body, _ := strings.Cut(script, "\n")
	m := heredocHeader.FindStringSubmatch(header)
	if m == nil {
		errOut.WriteString("sh: 1: unsupported script\n")
		return
	}
	delimiter := m[1]
	target := strings.ReplaceAll(m[2], `'\''`, `'`)

	// The heredoc ends at the first line equal to the delimiter.
	var lines []string
	terminated := false
	for _, line := range strings.Split(body, "\n") {
		if line == delimiter {
			terminated = true
			break
		}
		lines = append(lines, line)
	}
	if !terminated {
		fmt.Fprintf(errOut, "sh: 1: warning: here-document delimited by end-of-file (wanted `%s')\n", delimiter)
		return
	}
	content := strings.Join(lines, "\n")

	if resolved, n := c.lookup(target, true); n != nil {
		if n.isDir() {
			fmt.Fprintf(errOut, "sh: 1: cannot create %s: Is a directory\n", target)
			return
		}
		n.data = []byte(content)
		n.mtime = c.tick()
		c.touch(path.Dir(resolved))
		return
	}

	parent, pn := c.lookup(path.Dir(path.Clean(target)), true)
	if pn == nil || !pn.isDir() {
		fmt.Fprintf(errOut, "sh: 1: cannot create %s: Directory nonexistent\n", target)
		return
	}
	c.nodes[path.Join(parent, path.Base(target))] = &node{mode: modeRegular | 0o644, data: []byte(content), mtime: c.tick()}
	c.touch(parent)
}

func (c *MockContainer) mkdir(args []string, errOut *strings.Builder) {
	for _, p := range args {
		if _, n := c.lookup(p, false); n != nil {
			fmt.Fprintf(errOut, "mkdir: cannot create directory '%s': File exists\n", p)
			continue
		}
		parent, pn := c.lookup(path.Dir(path.Clean(p)), true)
		if pn == nil || !pn.isDir() {
			fmt.Fprintf(errOut, "mkdir: cannot create directory '%s': No such file or directory\n", p)
			continue
		}
		c.nodes[path.Join(parent, path.Base(p))] = &node{mode: modeDir | 0o755, mtime: c.tick()}
		c.touch(parent)
	}
}

func (c *MockContainer) rm(args []string, errOut *strings.Builder) {
	flags, paths := splitFlags(args)
	force, recursive := flags["-f"], flags["-r"]
	for _, p := range paths {
		resolved, n := c.lookup(p, false)
		if n == nil {
			if !force {
				fmt.Fprintf(errOut, "rm: cannot remove '%s': No such file or directory\n", p)
			}
			continue
		}
		if n.isDir() && !recursive {
			fmt.Fprintf(errOut, "rm: cannot remove '%s': Is a directory\n", p)
			continue
		}
		c.removeTree(resolved)
		c.touch(path.Dir(resolved))
	}
}

func (c *MockContainer) mv(args []string, errOut *strings.Builder) {
	_, paths := splitFlags(args)
	if len(paths) != 2 {
		errOut.WriteString("mv: missing destination file operand\n")
		return
	}
	src, dst := paths[0], paths[1]
	from, n := c.lookup(src, false)
	if n == nil {
		fmt.Fprintf(errOut, "mv: cannot stat '%s': No such file or directory\n", src)
		return
	}
	to, ok := c.destination(src, dst)
	if !ok {
		fmt.Fprintf(errOut, "mv: cannot move '%s' to '%s': No such file or directory\n", src, dst)
		return
	}
	if to == from {
		return
	}
	if n.isDir() && strings.HasPrefix(to+"/", from+"/") {
		fmt.Fprintf(errOut, "mv: cannot move '%s' to a subdirectory of itself, '%s'\n", src, dst)
		return
	}

	c.removeTree(to)
	moved := map[string]*node{}
	for p, child := range c.nodes {
		if p == from || strings.HasPrefix(p, from+"/") {
			moved[to+strings.TrimPrefix(p, from)] = child
			delete(c.nodes, p)
		}
	}
	for p, child := range moved {
		c.nodes[p] = child
	}
	c.touch(path.Dir(from))
	c.touch(path.Dir(to))
}

func (c *MockContainer) cp(args []string, errOut *strings.Builder) {
	_, paths := splitFlags(args)
	if len(paths) != 2 {
		errOut.WriteString("cp: missing destination file operand\n")
		return
	}
	src, dst := paths[0], paths[1]
	_, n := c.lookup(src, true)
	if n == nil {
		fmt.Fprintf(errOut, "cp: cannot stat '%s': No such file or directory\n", src)
		return
	}
	if n.isDir() {
		fmt.Fprintf(errOut, "cp: -r not specified; omitting directory '%s'\n", src)
		return
	}
	to, ok := c.destination(src, dst)
	if !ok {
		fmt.Fprintf(errOut, "cp: cannot create regular file '%s': No such file or directory\n", dst)
		return
	}
	if existing, ok := c.nodes[to]; ok && !existing.isDir() {
		existing.data = append([]byte(nil), n.data...)
		existing.mtime = c.tick()
		return
	}
	c.nodes[to] = &node{mode: n.mode, data: append([]byte(nil), n.data...), mtime: c.tick()}
	c.touch(path.Dir(to))
}

// destination resolves where mv or cp place src when given dst.
func (c *MockContainer) destination(src, dst string) (string, bool) {
	if resolved, n := c.lookup(dst, true); n != nil {
		if n.isDir() {
			return path.Join(resolved, path.Base(src)), true
		}
		return resolved, true
	}
	parent, pn := c.lookup(path.Dir(path.Clean(dst)), true)
	if pn == nil || !pn.isDir() {
		return "", false
	}
	return path.Join(parent, path.Base(dst)), true
}

// lookup resolves p through symlinks. The final component is followed only when
// followLast is set. It returns nil when any component is missing.
func (c *MockContainer) lookup(p string, followLast bool) (string, *node) {
	p = path.Clean("/" + p)
	for hops := 0; hops < maxSymlinkHops; hops++ {
		parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
		if p == "/" {
			parts = nil
		}

		cur := "/"
		restarted := false
		for i, part := range parts {
			next := path.Join(cur, part)
			n, ok := c.nodes[next]
			if !ok {
				return "", nil
			}
			last := i == len(parts)-1
			if n.isSymlink() && (!last || followLast) {
				target := n.target
				if !path.IsAbs(target) {
					target = path.Join(cur, target)
				}
				p = path.Join(append([]string{target}, parts[i+1:]...)...)
				restarted = true
				break
			}
			if !last && !n.isDir() {
				return "", nil
			}
			cur = next
		}
		if !restarted {
			return cur, c.nodes[cur]
		}
	}
	return "", nil
}

func (c *MockContainer) children(dir string) []string {
	var names []string
	for p := range c.nodes {
		if p != "/" && path.Dir(p) == dir {
			names = append(names, path.Base(p))
		}
	}
	sort.Strings(names)
	return names
}

func (c *MockContainer) removeTree(root string) {
	for p := range c.nodes {
		if p == root || strings.HasPrefix(p, root+"/") {
			delete(c.nodes, p)
		}
	}
}

func (c *MockContainer) ensureParents(p string) {
	for dir := path.Dir(path.Clean(p)); dir != "/"; dir = path.Dir(dir) {
		if _, ok := c.nodes[dir]; !ok {
			c.nodes[dir] = &node{mode: modeDir | 0o755, mtime: c.clock}
		}
	}
}

func (c *MockContainer) touch(dir string) {
	if n, ok := c.nodes[dir]; ok {
		n.mtime = c.tick()
	}
}

func (c *MockContainer) tick() int64 {
	c.clock++
	return c.clock
}

func splitFlags(args []string) (map[string]bool, []string) {
	flags := map[string]bool{}
	var paths []string
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") && len(paths) == 0 {
			flags[arg] = true
			continue
		}
		paths = append(paths, arg)
	}
	return flags, paths
}

// ErrUnreachable is a ready-made transport failure for MockContainer.Unreachable.
var ErrUnreachable = errors.New("Cannot connect to the Docker daemon at unix:///var/run/docker.sock")
