package host

import (
	"context"
	"errors"

	"github.com/Cyclone1070/dockerws/internal/bridge"
	"github.com/Cyclone1070/dockerws/internal/events"
	"github.com/Cyclone1070/dockerws/internal/filetype"
	"github.com/Cyclone1070/dockerws/internal/remote"
)

// Operation names.
const (
	OpStat             = "stat"
	OpReadDirectory    = "readDirectory"
	OpCreateDirectory  = "createDirectory"
	OpReadFile         = "readFile"
	OpWriteFile        = "writeFile"
	OpDelete           = "delete"
	OpRename           = "rename"
	OpCopy             = "copy"
	OpWatch            = "watch"
	OpOpen             = "open"
	OpWorkingDirectory = "workingDirectory"
)

var errMissingURI = errors.New("uri is required")

// URIRequest addresses a single resource.
type URIRequest struct {
	URI bridge.URI `mapstructure:"uri"`
}

func (r URIRequest) Validate() error {
	return requireURI(r.URI)
}

// WriteFileRequest carries content to store at URI.
type WriteFileRequest struct {
	URI     bridge.URI          `mapstructure:"uri"`
	Content []byte              `mapstructure:"content"`
	Options bridge.WriteOptions `mapstructure:"options"`
}

func (r WriteFileRequest) Validate() error {
	return requireURI(r.URI)
}

// DeleteRequest removes URI.
type DeleteRequest struct {
	URI     bridge.URI           `mapstructure:"uri"`
	Options bridge.DeleteOptions `mapstructure:"options"`
}

func (r DeleteRequest) Validate() error {
	return requireURI(r.URI)
}

// TransferRequest moves or copies Source to Target.
type TransferRequest struct {
	Source  bridge.URI `mapstructure:"source"`
	Target  bridge.URI `mapstructure:"target"`
	Options struct {
		Overwrite bool `mapstructure:"overwrite"`
	} `mapstructure:"options"`
}

func (r TransferRequest) Validate() error {
	if err := requireURI(r.Source); err != nil {
		return errors.New("source is required")
	}
	if err := requireURI(r.Target); err != nil {
		return errors.New("target is required")
	}
	return nil
}

// WatchRequest subscribes to URI.
type WatchRequest struct {
	URI     bridge.URI          `mapstructure:"uri"`
	Options bridge.WatchOptions `mapstructure:"options"`
}

func (r WatchRequest) Validate() error {
	return requireURI(r.URI)
}

// OpenRequest resolves Path inside Container to a directory URI.
type OpenRequest struct {
	Container string `mapstructure:"container"`
	Path      string `mapstructure:"path"`
}

func (r OpenRequest) Validate() error {
	if r.Container == "" {
		return errors.New("container is required")
	}
	if r.Path == "" {
		return errors.New("path is required")
	}
	return nil
}

// Done is returned by operations without a result.
type Done struct{}

func requireURI(u bridge.URI) error {
	if u.Container == "" {
		return errMissingURI
	}
	return nil
}

func stat(ctx context.Context, b *bridge.Bridge, req URIRequest) (filetype.FileStat, error) {
	return b.Stat(ctx, req.URI)
}

func readDirectory(ctx context.Context, b *bridge.Bridge, req URIRequest) ([]remote.DirEntry, error) {
	return b.ReadDirectory(ctx, req.URI)
}

func createDirectory(ctx context.Context, b *bridge.Bridge, req URIRequest) (Done, error) {
	return Done{}, b.CreateDirectory(ctx, req.URI)
}

func readFile(ctx context.Context, b *bridge.Bridge, req URIRequest) ([]byte, error) {
	return b.ReadFile(ctx, req.URI)
}

func writeFile(ctx context.Context, b *bridge.Bridge, req WriteFileRequest) (Done, error) {
	return Done{}, b.WriteFile(ctx, req.URI, req.Content, req.Options)
}

func deleteEntry(ctx context.Context, b *bridge.Bridge, req DeleteRequest) (Done, error) {
	return Done{}, b.Delete(ctx, req.URI, req.Options)
}

func rename(ctx context.Context, b *bridge.Bridge, req TransferRequest) (Done, error) {
	return Done{}, b.Rename(ctx, req.Source, req.Target, bridge.RenameOptions{Overwrite: req.Options.Overwrite})
}

func copyEntry(ctx context.Context, b *bridge.Bridge, req TransferRequest) (Done, error) {
	return Done{}, b.Copy(ctx, req.Source, req.Target, bridge.CopyOptions{Overwrite: req.Options.Overwrite})
}

func watch(_ context.Context, b *bridge.Bridge, req WatchRequest) (events.Disposable, error) {
	return b.Watch(req.URI, req.Options), nil
}

func open(ctx context.Context, b *bridge.Bridge, req OpenRequest) (bridge.URI, error) {
	return b.Open(ctx, req.Container, req.Path)
}

func workingDirectory(ctx context.Context, b *bridge.Bridge, req URIRequest) (string, error) {
	return b.WorkingDirectory(ctx, req.URI)
}
