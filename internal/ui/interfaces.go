package ui

import (
	"context"

	"github.com/Cyclone1070/dockerws/internal/bridge"
	"github.com/Cyclone1070/dockerws/internal/events"
	"github.com/Cyclone1070/dockerws/internal/remote"
)

// fileSystem is the part of the bridge the explorer drives.
type fileSystem interface {
	ReadDirectory(ctx context.Context, uri bridge.URI) ([]remote.DirEntry, error)
	ReadFile(ctx context.Context, uri bridge.URI) ([]byte, error)
	CreateDirectory(ctx context.Context, uri bridge.URI) error
	Delete(ctx context.Context, uri bridge.URI, opts bridge.DeleteOptions) error
	OnDidChangeFile(fn func([]bridge.FileChange)) events.Disposable
}
