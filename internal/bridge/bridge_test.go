package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cyclone1070/dockerws/internal/config"
	"github.com/Cyclone1070/dockerws/internal/executor"
	"github.com/Cyclone1070/dockerws/internal/filetype"
	"github.com/Cyclone1070/dockerws/internal/metrics"
	"github.com/Cyclone1070/dockerws/internal/remote"
	"github.com/Cyclone1070/dockerws/internal/testing/mocks"
)

const ctr = "4f2a9c1e0b7d"

type changeRecorder struct {
	batches [][]FileChange
}

func (r *changeRecorder) record(batch []FileChange) {
	r.batches = append(r.batches, batch)
}

func newTestBridge(t *testing.T) (*Bridge, *mocks.MockContainer, *changeRecorder) {
	t.Helper()
	fake := mocks.NewMockContainer(ctr)
	ops := remote.New(executor.NewCache(fake, nil, nil))
	b := New(ops, config.DefaultConfig().Bridge, nil, metrics.New(prometheus.NewRegistry()))
	rec := &changeRecorder{}
	b.OnDidChangeFile(rec.record)
	return b, fake, rec
}

func u(p string) URI {
	return NewURI(DefaultScheme, ctr, p)
}

func change(t ChangeType, p string) FileChange {
	return FileChange{Type: t, URI: u(p)}
}

// --- stat / readDirectory / readFile ---

func TestStat(t *testing.T) {
	b, fake, _ := newTestBridge(t)
	fake.CreateFile("/srv/a.txt", []byte("hello"), 0o644)

	st, err := b.Stat(context.Background(), u("/srv/a.txt"))

	require.NoError(t, err)
	assert.Equal(t, filetype.File, st.Kind)
	assert.Equal(t, int64(5), st.Size)
}

func TestStat_MissingIsNotFound(t *testing.T) {
	b, _, _ := newTestBridge(t)

	_, err := b.Stat(context.Background(), u("/nope"))

	var fsErr *FileSystemError
	require.True(t, errors.As(err, &fsErr))
	assert.True(t, fsErr.NotFound())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "/nope does not exist", err.Error())
}

func TestStat_ConnectionFailureIsNotDowngraded(t *testing.T) {
	b, fake, _ := newTestBridge(t)
	fake.Unreachable = mocks.ErrUnreachable

	_, err := b.Stat(context.Background(), u("/srv"))

	assert.True(t, executor.IsConnection(err))
	assert.False(t, IsNotFound(err))
}

func TestStat_CancelledContextIsNotDowngraded(t *testing.T) {
	b, _, _ := newTestBridge(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Stat(ctx, u("/"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsNotFound(err))
}

func TestStat_DanglingSymlink(t *testing.T) {
	b, fake, _ := newTestBridge(t)
	fake.CreateSymlink("/srv/broken", "/srv/gone")

	st, err := b.Stat(context.Background(), u("/srv/broken"))

	require.NoError(t, err)
	assert.Equal(t, filetype.SymbolicLink|filetype.Unknown, st.Kind)
	assert.Equal(t, int64(len("/srv/gone")), st.Size)
}

func TestReadDirectory(t *testing.T) {
	b, fake, _ := newTestBridge(t)
	fake.CreateFile("/srv/a.txt", nil, 0o644)
	fake.CreateDir("/srv/lib", 0o755)

	entries, err := b.ReadDirectory(context.Background(), u("/srv"))

	require.NoError(t, err)
	assert.Equal(t, []remote.DirEntry{
		{Name: "/srv/a.txt", Kind: filetype.File},
		{Name: "/srv/lib", Kind: filetype.Directory},
	}, entries)
}

func TestReadDirectory_Missing(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"missing path", "/nope", ErrNotFound},
		{"regular file", "/srv/a.txt", ErrNotADirectory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, fake, _ := newTestBridge(t)
			fake.CreateFile("/srv/a.txt", []byte("a"), 0o644)

			_, err := b.ReadDirectory(context.Background(), u(tt.path))

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, fake.CallsTo("ls"))
		})
	}
}

func TestReadFile(t *testing.T) {
	b, fake, _ := newTestBridge(t)
	fake.CreateFile("/srv/a.txt", []byte("line1\nline2|x\n"), 0o644)

	content, err := b.ReadFile(context.Background(), u("/srv/a.txt"))

	require.NoError(t, err)
	assert.Equal(t, "line1\nline2|x\n", string(content))
}

func TestReadFile_Errors(t *testing.T) {
	b, fake, _ := newTestBridge(t)
	fake.CreateDir("/srv", 0o755)

	_, err := b.ReadFile(context.Background(), u("/srv/missing"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = b.ReadFile(context.Background(), u("/srv"))
	assert.ErrorIs(t, err, ErrIsADirectory)
	assert.Equal(t, 0, fake.CallsTo("cat"))
}

// --- createDirectory ---

func TestCreateDirectory(t *testing.T) {
	b, fake, rec := newTestBridge(t)
	fake.CreateDir("/srv", 0o755)

	require.NoError(t, b.CreateDirectory(context.Background(), u("/srv/new")))

	assert.True(t, fake.IsDir("/srv/new"))
	assert.Equal(t, [][]FileChange{{change(Changed, "/srv"), change(Created, "/srv/new")}}, rec.batches)
}

func TestCreateDirectory_Failures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*mocks.MockContainer)
		target  string
		wantErr error
	}{
		{
			name:    "already exists",
			setup:   func(f *mocks.MockContainer) { f.CreateDir("/srv/new", 0o755) },
			target:  "/srv/new",
			wantErr: ErrAlreadyExists,
		},
		{
			name:    "missing parent",
			setup:   func(f *mocks.MockContainer) {},
			target:  "/a/b",
			wantErr: ErrNotFound,
		},
		{
			name:    "read-only parent",
			setup:   func(f *mocks.MockContainer) { f.CreateDir("/ro", 0o555) },
			target:  "/ro/child",
			wantErr: ErrNoPermissions,
		},
		{
			name:    "parent is a file",
			setup:   func(f *mocks.MockContainer) { f.CreateFile("/srv/file", nil, 0o644) },
			target:  "/srv/file/child",
			wantErr: ErrNotADirectory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, fake, rec := newTestBridge(t)
			tt.setup(fake)
			fake.ResetCalls()

			err := b.CreateDirectory(context.Background(), u(tt.target))

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, fake.CallsTo("mkdir"))
			assert.Empty(t, rec.batches)
		})
	}
}

func TestCreateDirectory_PermissionChecksDisabled(t *testing.T) {
	fake := mocks.NewMockContainer(ctr)
	fake.CreateDir("/ro", 0o555)
	cfg := config.BridgeConfig{Scheme: DefaultScheme, CheckPermissions: false}
	b := New(remote.New(executor.NewCache(fake, nil, nil)), cfg, nil, nil)

	require.NoError(t, b.CreateDirectory(context.Background(), u("/ro/child")))
	assert.True(t, fake.IsDir("/ro/child"))
}

// --- writeFile ---

func TestWriteFile_CreateNew(t *testing.T) {
	b, fake, rec := newTestBridge(t)
	fake.CreateDir("/srv", 0o755)

	err := b.WriteFile(context.Background(), u("/srv/new.txt"), []byte("a|b\nc\n"), WriteOptions{Create: true})

	require.NoError(t, err)
	got, ok := fake.Content("/srv/new.txt")
	require.True(t, ok)
	assert.Equal(t, "a|b\nc\n", string(got))
	assert.Equal(t, [][]FileChange{{change(Created, "/srv/new.txt"), change(Changed, "/srv/new.txt")}}, rec.batches)
}

func TestWriteFile_OverwriteExisting(t *testing.T) {
	b, fake, rec := newTestBridge(t)
	fake.CreateFile("/srv/a.txt", []byte("old"), 0o644)

	err := b.WriteFile(context.Background(), u("/srv/a.txt"), []byte("new"), WriteOptions{Create: true, Overwrite: true})

	require.NoError(t, err)
	got, _ := fake.Content("/srv/a.txt")
	assert.Equal(t, "new", string(got))
	assert.Equal(t, [][]FileChange{{change(Changed, "/srv/a.txt")}}, rec.batches)
}

func TestWriteFile_RoundTrip(t *testing.T) {
	b, fake, _ := newTestBridge(t)
	fake.CreateDir("/srv", 0o755)
	content := []byte("name|mode|size\n\n  indented\n'quoted' \"double\"\n")

	require.NoError(t, b.WriteFile(context.Background(), u("/srv/r.txt"), content, WriteOptions{Create: true}))
	got, err := b.ReadFile(context.Background(), u("/srv/r.txt"))

	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestWriteFile_Failures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*mocks.MockContainer)
		target  string
		opts    WriteOptions
		wantErr error
	}{
		{
			name:    "missing without create",
			setup:   func(f *mocks.MockContainer) { f.CreateDir("/srv", 0o755) },
			target:  "/x",
			opts:    WriteOptions{Create: false, Overwrite: false},
			wantErr: ErrNotFound,
		},
		{
			name:    "existing without overwrite",
			setup:   func(f *mocks.MockContainer) { f.CreateFile("/x", []byte("keep"), 0o644) },
			target:  "/x",
			opts:    WriteOptions{Create: true, Overwrite: false},
			wantErr: ErrAlreadyExists,
		},
		{
			name:    "read-only file",
			setup:   func(f *mocks.MockContainer) { f.CreateFile("/x", []byte("keep"), 0o444) },
			target:  "/x",
			opts:    WriteOptions{Create: true, Overwrite: true},
			wantErr: ErrNoPermissions,
		},
		{
			name:    "missing parent",
			setup:   func(f *mocks.MockContainer) {},
			target:  "/nope/x",
			opts:    WriteOptions{Create: true},
			wantErr: ErrNotFound,
		},
		{
			name:    "read-only parent",
			setup:   func(f *mocks.MockContainer) { f.CreateDir("/ro", 0o555) },
			target:  "/ro/x",
			opts:    WriteOptions{Create: true},
			wantErr: ErrNoPermissions,
		},
		{
			name:    "directory target",
			setup:   func(f *mocks.MockContainer) { f.CreateDir("/srv", 0o755) },
			target:  "/srv",
			opts:    WriteOptions{Create: true, Overwrite: true},
			wantErr: ErrIsADirectory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, fake, rec := newTestBridge(t)
			tt.setup(fake)
			fake.ResetCalls()

			err := b.WriteFile(context.Background(), u(tt.target), []byte("data"), tt.opts)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, fake.CallsTo("sh"))
			assert.Empty(t, rec.batches)
		})
	}
}

func TestWriteFile_ConnectionFailure(t *testing.T) {
	b, fake, rec := newTestBridge(t)
	fake.Unreachable = mocks.ErrUnreachable

	err := b.WriteFile(context.Background(), u("/x"), []byte("data"), WriteOptions{Create: true})

	assert.ErrorIs(t, err, executor.ErrConnection)
	assert.Empty(t, rec.batches)
}

// --- delete ---

func TestDelete(t *testing.T) {
	b, fake, rec := newTestBridge(t)
	fake.CreateFile("/srv/a.txt", nil, 0o644)

	require.NoError(t, b.Delete(context.Background(), u("/srv/a.txt"), DeleteOptions{}))

	assert.False(t, fake.Exists("/srv/a.txt"))
	assert.Equal(t, [][]FileChange{{change(Changed, "/srv"), change(Deleted, "/srv/a.txt")}}, rec.batches)
}

func TestDelete_Recursive(t *testing.T) {
	b, fake, _ := newTestBridge(t)
	fake.CreateFile("/srv/dir/nested/f", nil, 0o644)

	err := b.Delete(context.Background(), u("/srv/dir"), DeleteOptions{Recursive: false})
	var remoteErr *executor.RemoteCommandError
	require.True(t, errors.As(err, &remoteErr))

	require.NoError(t, b.Delete(context.Background(), u("/srv/dir"), DeleteOptions{Recursive: true}))
	assert.False(t, fake.Exists("/srv/dir/nested/f"))
}

func TestDelete_Missing(t *testing.T) {
	b, fake, rec := newTestBridge(t)

	err := b.Delete(context.Background(), u("/nope"), DeleteOptions{})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, fake.CallsTo("rm"))
	assert.Empty(t, rec.batches)
}

// --- rename / copy ---

func TestRename(t *testing.T) {
	b, fake, rec := newTestBridge(t)
	fake.CreateFile("/a", []byte("A"), 0o644)

	require.NoError(t, b.Rename(context.Background(), u("/a"), u("/b"), RenameOptions{}))

	assert.False(t, fake.Exists("/a"))
	got, _ := fake.Content("/b")
	assert.Equal(t, "A", string(got))
	assert.Equal(t, [][]FileChange{{change(Deleted, "/a"), change(Created, "/b")}}, rec.batches)
}

func TestRename_ExistingTarget(t *testing.T) {
	b, fake, rec := newTestBridge(t)
	fake.CreateFile("/a", []byte("A"), 0o644)
	fake.CreateFile("/b", []byte("B"), 0o644)

	err := b.Rename(context.Background(), u("/a"), u("/b"), RenameOptions{Overwrite: false})
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, 0, fake.CallsTo("mv"))
	assert.Empty(t, rec.batches)

	require.NoError(t, b.Rename(context.Background(), u("/a"), u("/b"), RenameOptions{Overwrite: true}))
	got, _ := fake.Content("/b")
	assert.Equal(t, "A", string(got))
	assert.Equal(t, [][]FileChange{{change(Deleted, "/a"), change(Created, "/b")}}, rec.batches)
	assert.Contains(t, fake.Calls()[len(fake.Calls())-1], "-f")
}

func TestRename_Failures(t *testing.T) {
	b, fake, _ := newTestBridge(t)
	fake.CreateFile("/a", nil, 0o644)

	err := b.Rename(context.Background(), u("/missing"), u("/b"), RenameOptions{})
	assert.ErrorIs(t, err, ErrNotFound)

	err = b.Rename(context.Background(), u("/a"), u("/no/parent/b"), RenameOptions{})
	assert.ErrorIs(t, err, ErrNotFound)

	err = b.Rename(context.Background(), u("/a"), NewURI(DefaultScheme, "other", "/b"), RenameOptions{})
	var crossErr *CrossContainerError
	assert.True(t, errors.As(err, &crossErr))

	assert.Equal(t, 0, fake.CallsTo("mv"))
}

func TestCopy(t *testing.T) {
	b, fake, rec := newTestBridge(t)
	fake.CreateFile("/srv/a", []byte("A"), 0o644)
	fake.CreateDir("/dst", 0o755)

	require.NoError(t, b.Copy(context.Background(), u("/srv/a"), u("/dst/a"), CopyOptions{}))

	assert.True(t, fake.Exists("/srv/a"))
	got, _ := fake.Content("/dst/a")
	assert.Equal(t, "A", string(got))
	assert.Equal(t, [][]FileChange{{change(Created, "/dst/a"), change(Changed, "/dst")}}, rec.batches)
}

func TestCopy_ExistingTarget(t *testing.T) {
	b, fake, _ := newTestBridge(t)
	fake.CreateFile("/a", []byte("A"), 0o644)
	fake.CreateFile("/b", []byte("B"), 0o644)

	err := b.Copy(context.Background(), u("/a"), u("/b"), CopyOptions{})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	require.NoError(t, b.Copy(context.Background(), u("/a"), u("/b"), CopyOptions{Overwrite: true}))
	got, _ := fake.Content("/b")
	assert.Equal(t, "A", string(got))
}

// --- watch / subscriptions ---

func TestWatch_IsNoop(t *testing.T) {
	b, fake, _ := newTestBridge(t)

	sub := b.Watch(u("/srv"), WatchOptions{Recursive: true, Excludes: []string{"node_modules"}})

	require.NotNil(t, sub)
	assert.NotPanics(t, sub.Dispose)
	assert.Empty(t, fake.Calls())
}

func TestOnDidChangeFile_Unsubscribe(t *testing.T) {
	b, fake, _ := newTestBridge(t)
	fake.CreateDir("/srv", 0o755)
	var got int
	sub := b.OnDidChangeFile(func([]FileChange) { got++ })

	require.NoError(t, b.CreateDirectory(context.Background(), u("/srv/one")))
	sub.Dispose()
	require.NoError(t, b.CreateDirectory(context.Background(), u("/srv/two")))

	assert.Equal(t, 1, got)
}

// --- open / working directory ---

func TestOpen(t *testing.T) {
	b, fake, _ := newTestBridge(t)
	fake.CreateDir("/srv/app", 0o755)
	fake.CreateSymlink("/app", "/srv/app")
	fake.CreateFile("/srv/app/main.go", nil, 0o644)

	uri, err := b.Open(context.Background(), ctr, "/app")
	require.NoError(t, err)
	assert.Equal(t, "docker://"+ctr+"/srv/app", uri.String())

	_, err = b.Open(context.Background(), ctr, "/srv/app/main.go")
	assert.ErrorIs(t, err, ErrNotADirectory)

	_, err = b.Open(context.Background(), ctr, "/missing/dir/x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen_Unreachable(t *testing.T) {
	b, fake, _ := newTestBridge(t)
	fake.Unreachable = mocks.ErrUnreachable

	_, err := b.Open(context.Background(), ctr, "/")

	assert.True(t, executor.IsConnection(err))
}

func TestWorkingDirectory(t *testing.T) {
	b, fake, _ := newTestBridge(t)
	fake.CreateFile("/srv/app/main.go", nil, 0o644)

	dir, err := b.WorkingDirectory(context.Background(), u("/srv/app/main.go"))
	require.NoError(t, err)
	assert.Equal(t, "/srv/app", dir)

	dir, err = b.WorkingDirectory(context.Background(), u("/srv/app"))
	require.NoError(t, err)
	assert.Equal(t, "/srv/app", dir)
}
