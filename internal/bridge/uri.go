package bridge

import (
	"path"
	"strings"
)

// DefaultScheme identifies container resources.
const DefaultScheme = "docker"

// URI addresses a path inside a container as scheme://<container><path>.
type URI struct {
	Scheme    string `json:"scheme"`
	Container string `json:"container"`
	Path      string `json:"path"`
}

// NewURI builds a URI with a cleaned absolute path.
func NewURI(scheme, container, p string) URI {
	return URI{Scheme: scheme, Container: container, Path: cleanPath(p)}
}

// ParseURI parses scheme://container/abs/path. A missing path means the root.
func ParseURI(value string) (URI, error) {
	scheme, rest, ok := strings.Cut(value, "://")
	if !ok || scheme == "" {
		return URI{}, &InvalidURIError{Value: value, Reason: "missing scheme"}
	}
	container, p := rest, "/"
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		container, p = rest[:i], rest[i:]
	}
	if container == "" {
		return URI{}, &InvalidURIError{Value: value, Reason: "missing container"}
	}
	return NewURI(scheme, container, p), nil
}

func (u URI) String() string {
	return u.Scheme + "://" + u.Container + u.Path
}

// Parent returns the URI of the containing directory. The root is its own parent.
func (u URI) Parent() URI {
	return u.WithPath(path.Dir(u.Path))
}

// Join appends name to the path.
func (u URI) Join(name string) URI {
	return u.WithPath(path.Join(u.Path, name))
}

// WithPath returns the URI with its path replaced.
func (u URI) WithPath(p string) URI {
	return NewURI(u.Scheme, u.Container, p)
}

// Base returns the last element of the path.
func (u URI) Base() string {
	return path.Base(u.Path)
}

func cleanPath(p string) string {
	return path.Clean("/" + p)
}
