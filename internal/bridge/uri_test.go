package bridge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		in   string
		want URI
	}{
		{"docker://abc123/srv/app", URI{Scheme: "docker", Container: "abc123", Path: "/srv/app"}},
		{"docker://abc123", URI{Scheme: "docker", Container: "abc123", Path: "/"}},
		{"docker://abc123/", URI{Scheme: "docker", Container: "abc123", Path: "/"}},
		{"docker://abc123/srv//app/../lib/", URI{Scheme: "docker", Container: "abc123", Path: "/srv/lib"}},
		{"container://web/etc", URI{Scheme: "container", Container: "web", Path: "/etc"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseURI(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseURI_Invalid(t *testing.T) {
	for _, in := range []string{"/srv/app", "://abc/srv", "docker:///srv"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseURI(in)

			var uriErr *InvalidURIError
			require.True(t, errors.As(err, &uriErr))
			assert.True(t, uriErr.InvalidInput())
		})
	}
}

func TestURI_Navigation(t *testing.T) {
	uri := NewURI("docker", "abc", "/srv/app/main.go")

	assert.Equal(t, "docker://abc/srv/app/main.go", uri.String())
	assert.Equal(t, "docker://abc/srv/app", uri.Parent().String())
	assert.Equal(t, "/", NewURI("docker", "abc", "/").Parent().Path)
	assert.Equal(t, "/srv/app/main.go/x", uri.Join("x").Path)
	assert.Equal(t, "main.go", uri.Base())
	assert.Equal(t, "/etc", uri.WithPath("etc").Path)
}

func TestFileSystemError_Matching(t *testing.T) {
	err := newError(CodeExists, NewURI("docker", "abc", "/x"))

	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.NotErrorIs(t, err, ErrNotFound)
	var fsErr *FileSystemError
	require.True(t, errors.As(err, &fsErr))
	assert.True(t, fsErr.Exists())
	assert.False(t, fsErr.Permission())
	assert.Equal(t, "/x exists", err.Error())
}

func TestChangeType_String(t *testing.T) {
	assert.Equal(t, "changed", Changed.String())
	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "deleted", Deleted.String())
	assert.Equal(t, "unknown", ChangeType(0).String())
}
