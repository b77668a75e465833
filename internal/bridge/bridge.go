// Package bridge exposes a container's filesystem through stat, read, write
// and directory operations, enforcing existence, overwrite and permission
// rules before any mutating command runs.
package bridge

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Cyclone1070/dockerws/internal/config"
	"github.com/Cyclone1070/dockerws/internal/events"
	"github.com/Cyclone1070/dockerws/internal/executor"
	"github.com/Cyclone1070/dockerws/internal/filetype"
	"github.com/Cyclone1070/dockerws/internal/metrics"
	"github.com/Cyclone1070/dockerws/internal/remote"
)

// fileOps is the remote protocol the bridge delegates to.
type fileOps interface {
	Stat(ctx context.Context, containerID, p string) (filetype.FileStat, error)
	Readlink(ctx context.Context, containerID, p string) (string, error)
	List(ctx context.Context, containerID, dir string) ([]remote.DirEntry, error)
	Cat(ctx context.Context, containerID, p string) ([]byte, error)
	Write(ctx context.Context, containerID, p string, content []byte) error
	Mkdir(ctx context.Context, containerID, p string) error
	Remove(ctx context.Context, containerID, p string, recursive bool) error
	Move(ctx context.Context, containerID, oldPath, newPath string, overwrite bool) error
	Copy(ctx context.Context, containerID, src, dst string, overwrite bool) error
}

// Bridge is the filesystem facade. It keeps no state besides its subscribers.
type Bridge struct {
	ops              fileOps
	scheme           string
	checkPermissions bool
	logger           *zap.Logger
	metrics          *metrics.Metrics
	changes          *events.Emitter[[]FileChange]
}

// New creates a Bridge over ops.
func New(ops fileOps, cfg config.BridgeConfig, logger *zap.Logger, m *metrics.Metrics) *Bridge {
	if ops == nil {
		panic("ops is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = DefaultScheme
	}
	return &Bridge{
		ops:              ops,
		scheme:           scheme,
		checkPermissions: cfg.CheckPermissions,
		logger:           logger,
		metrics:          m,
		changes:          events.NewEmitter[[]FileChange](),
	}
}

// Scheme returns the URI scheme this bridge serves.
func (b *Bridge) Scheme() string {
	return b.scheme
}

// OnDidChangeFile subscribes fn to every batch emitted after a successful mutation.
func (b *Bridge) OnDidChangeFile(fn func([]FileChange)) events.Disposable {
	return b.changes.Subscribe(fn)
}

// Watch accepts a watch request and does nothing. Remote changes are only
// observed by stat-ing again.
func (b *Bridge) Watch(uri URI, opts WatchOptions) events.Disposable {
	b.logger.Debug("watch", zap.String("path", uri.Path), zap.Bool("recursive", opts.Recursive))
	return events.Nop{}
}

// Stat returns the metadata of uri.
func (b *Bridge) Stat(ctx context.Context, uri URI) (st filetype.FileStat, err error) {
	defer b.observe("stat", &err)
	b.logger.Debug("stat", zap.String("path", uri.Path))

	return b.statOrNotFound(ctx, uri)
}

// ReadDirectory lists the children of uri.
func (b *Bridge) ReadDirectory(ctx context.Context, uri URI) (entries []remote.DirEntry, err error) {
	defer b.observe("readDirectory", &err)
	b.logger.Debug("readDirectory", zap.String("path", uri.Path))

	st, err := b.statOrNotFound(ctx, uri)
	if err != nil {
		return nil, err
	}
	if !st.IsDirectory() {
		return nil, newError(CodeNotADirectory, uri)
	}
	return b.ops.List(ctx, uri.Container, uri.Path)
}

// CreateDirectory creates uri. Its parent must exist.
func (b *Bridge) CreateDirectory(ctx context.Context, uri URI) (err error) {
	defer b.observe("createDirectory", &err)
	b.logger.Debug("createDirectory", zap.String("path", uri.Path))

	exists, _, err := b.exists(ctx, uri)
	if err != nil {
		return err
	}
	if exists {
		return newError(CodeExists, uri)
	}

	parent := uri.Parent()
	if err := b.requireWritableDir(ctx, parent); err != nil {
		return err
	}

	if err := b.ops.Mkdir(ctx, uri.Container, uri.Path); err != nil {
		return err
	}

	b.fire([]FileChange{
		{Type: Changed, URI: parent},
		{Type: Created, URI: uri},
	})
	return nil
}

// ReadFile returns the content of uri.
func (b *Bridge) ReadFile(ctx context.Context, uri URI) (content []byte, err error) {
	defer b.observe("readFile", &err)
	b.logger.Debug("readFile", zap.String("path", uri.Path))

	st, err := b.statOrNotFound(ctx, uri)
	if err != nil {
		return nil, err
	}
	if st.IsDirectory() {
		return nil, newError(CodeIsADirectory, uri)
	}
	return b.ops.Cat(ctx, uri.Container, uri.Path)
}

// WriteFile replaces the content of uri according to opts.
func (b *Bridge) WriteFile(ctx context.Context, uri URI, content []byte, opts WriteOptions) (err error) {
	defer b.observe("writeFile", &err)
	b.logger.Debug("writeFile", zap.String("path", uri.Path), zap.Int("bytes", len(content)))

	exists, st, err := b.exists(ctx, uri)
	if err != nil {
		return err
	}

	if exists {
		if !opts.Overwrite {
			return newError(CodeExists, uri)
		}
		if st.IsDirectory() {
			return newError(CodeIsADirectory, uri)
		}
		if b.checkPermissions && !st.IsWritable() {
			return newError(CodeNoPermissions, uri)
		}
	} else {
		if !opts.Create {
			return notFound(uri, nil)
		}
		if err := b.requireWritableDir(ctx, uri.Parent()); err != nil {
			return err
		}
	}

	if err := b.ops.Write(ctx, uri.Container, uri.Path, content); err != nil {
		return err
	}

	var changes []FileChange
	if !exists {
		changes = append(changes, FileChange{Type: Created, URI: uri})
	}
	b.fire(append(changes, FileChange{Type: Changed, URI: uri}))
	return nil
}

// Delete removes uri, descending into directories when opts.Recursive is set.
func (b *Bridge) Delete(ctx context.Context, uri URI, opts DeleteOptions) (err error) {
	defer b.observe("delete", &err)
	b.logger.Debug("delete", zap.String("path", uri.Path), zap.Bool("recursive", opts.Recursive))

	if _, err := b.statOrNotFound(ctx, uri); err != nil {
		return err
	}
	parent := uri.Parent()
	if err := b.requireWritableDir(ctx, parent); err != nil {
		return err
	}

	if err := b.ops.Remove(ctx, uri.Container, uri.Path, opts.Recursive); err != nil {
		return err
	}

	b.fire([]FileChange{
		{Type: Changed, URI: parent},
		{Type: Deleted, URI: uri},
	})
	return nil
}

// Rename moves oldURI to newURI within one container.
func (b *Bridge) Rename(ctx context.Context, oldURI, newURI URI, opts RenameOptions) (err error) {
	defer b.observe("rename", &err)
	b.logger.Debug("rename", zap.String("from", oldURI.Path), zap.String("to", newURI.Path))

	if err := b.checkTransfer(ctx, oldURI, newURI, opts.Overwrite); err != nil {
		return err
	}
	if err := b.requireWritableDir(ctx, oldURI.Parent()); err != nil {
		return err
	}

	if err := b.ops.Move(ctx, oldURI.Container, oldURI.Path, newURI.Path, opts.Overwrite); err != nil {
		return err
	}

	b.fire([]FileChange{
		{Type: Deleted, URI: oldURI},
		{Type: Created, URI: newURI},
	})
	return nil
}

// Copy copies src to dst within one container. The source is left intact, so
// only the destination side is reported.
func (b *Bridge) Copy(ctx context.Context, src, dst URI, opts CopyOptions) (err error) {
	defer b.observe("copy", &err)
	b.logger.Debug("copy", zap.String("from", src.Path), zap.String("to", dst.Path))

	if err := b.checkTransfer(ctx, src, dst, opts.Overwrite); err != nil {
		return err
	}

	if err := b.ops.Copy(ctx, src.Container, src.Path, dst.Path, opts.Overwrite); err != nil {
		return err
	}

	b.fire([]FileChange{
		{Type: Created, URI: dst},
		{Type: Changed, URI: dst.Parent()},
	})
	return nil
}

// Open resolves p inside containerID to an absolute directory and returns its URI.
func (b *Bridge) Open(ctx context.Context, containerID, p string) (uri URI, err error) {
	defer b.observe("open", &err)
	b.logger.Debug("open", zap.String("container", containerID), zap.String("path", p))

	requested := NewURI(b.scheme, containerID, p)
	resolved, err := b.ops.Readlink(ctx, containerID, p)
	if err != nil {
		if isTransportFailure(err) {
			return URI{}, err
		}
		return URI{}, notFound(requested, err)
	}
	if resolved == "" {
		return URI{}, notFound(requested, nil)
	}

	uri = NewURI(b.scheme, containerID, resolved)
	st, err := b.statOrNotFound(ctx, uri)
	if err != nil {
		return URI{}, err
	}
	if !st.IsDirectory() {
		return URI{}, newError(CodeNotADirectory, uri)
	}
	return uri, nil
}

// WorkingDirectory returns the path of uri when it is a directory and of its
// parent otherwise.
func (b *Bridge) WorkingDirectory(ctx context.Context, uri URI) (string, error) {
	st, err := b.statOrNotFound(ctx, uri)
	if err != nil {
		return "", err
	}
	if st.IsDirectory() {
		return uri.Path, nil
	}
	return uri.Parent().Path, nil
}

// checkTransfer validates a rename or copy from src to dst.
func (b *Bridge) checkTransfer(ctx context.Context, src, dst URI, overwrite bool) error {
	if src.Container != dst.Container {
		return &CrossContainerError{From: src.Container, To: dst.Container}
	}
	if _, err := b.statOrNotFound(ctx, src); err != nil {
		return err
	}
	if err := b.requireWritableDir(ctx, dst.Parent()); err != nil {
		return err
	}
	exists, _, err := b.exists(ctx, dst)
	if err != nil {
		return err
	}
	if exists && !overwrite {
		return newError(CodeExists, dst)
	}
	return nil
}

// requireWritableDir checks that dir exists, is a directory and, when
// permission checks are on, carries the owner write bit.
func (b *Bridge) requireWritableDir(ctx context.Context, dir URI) error {
	st, err := b.statOrNotFound(ctx, dir)
	if err != nil {
		return err
	}
	if !st.IsDirectory() {
		return newError(CodeNotADirectory, dir)
	}
	if b.checkPermissions && !st.IsWritable() {
		return newError(CodeNoPermissions, dir)
	}
	return nil
}

func (b *Bridge) exists(ctx context.Context, uri URI) (bool, filetype.FileStat, error) {
	st, err := b.statOrNotFound(ctx, uri)
	if err != nil {
		if IsNotFound(err) {
			return false, filetype.FileStat{}, nil
		}
		return false, filetype.FileStat{}, err
	}
	return true, st, nil
}

// statOrNotFound turns any remote stat failure into NotFound, except transport
// failures and cancellation, which are returned unchanged.
func (b *Bridge) statOrNotFound(ctx context.Context, uri URI) (filetype.FileStat, error) {
	st, err := b.ops.Stat(ctx, uri.Container, uri.Path)
	if err != nil {
		if isTransportFailure(err) {
			return filetype.FileStat{}, err
		}
		return filetype.FileStat{}, notFound(uri, err)
	}
	return st, nil
}

func (b *Bridge) fire(changes []FileChange) {
	for _, c := range changes {
		b.metrics.ObserveChange(c.Type.String())
	}
	b.changes.Fire(changes)
}

func (b *Bridge) observe(op string, err *error) {
	outcome := metrics.OutcomeOK
	switch {
	case *err == nil:
	case executor.IsConnection(*err):
		outcome = metrics.OutcomeConnectionError
	default:
		outcome = metrics.OutcomeError
	}
	b.metrics.ObserveOp(op, outcome)
}

func isTransportFailure(err error) bool {
	return executor.IsConnection(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
