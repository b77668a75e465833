package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type mockMarkdownRenderer struct {
	calls      int
	renderFunc func(string, int) (string, error)
}

func (m *mockMarkdownRenderer) Render(content string, width int) (string, error) {
	m.calls++
	if m.renderFunc != nil {
		return m.renderFunc(content, width)
	}
	return "rendered:" + content, nil
}

func TestRenderPreview_MarkdownIsRendered(t *testing.T) {
	r := &mockMarkdownRenderer{}

	p := RenderPreview("/srv/README.md", []byte("# title"), 1024, 60, r)

	assert.Equal(t, "rendered:# title", p.Body)
	assert.Equal(t, 1, r.calls)
	assert.False(t, p.Truncated)
}

func TestRenderPreview_PlainTextIsRaw(t *testing.T) {
	r := &mockMarkdownRenderer{}

	p := RenderPreview("/srv/main.go", []byte("package main\n"), 1024, 60, r)

	assert.Equal(t, "package main\n", p.Body)
	assert.Zero(t, r.calls)
}

func TestRenderPreview_RendererFailureFallsBack(t *testing.T) {
	r := &mockMarkdownRenderer{renderFunc: func(string, int) (string, error) {
		return "", errors.New("no style")
	}}

	p := RenderPreview("notes.markdown", []byte("*x*"), 0, 60, r)

	assert.Equal(t, "*x*", p.Body)
}

func TestRenderPreview_Truncates(t *testing.T) {
	p := RenderPreview("/log.txt", []byte(strings.Repeat("a", 20)), 8, 60, nil)

	assert.True(t, p.Truncated)
	assert.True(t, strings.HasPrefix(p.Body, "aaaaaaaa\n"))
	assert.Contains(t, p.Body, "truncated at 8 bytes")
}

func TestRenderPreview_Binary(t *testing.T) {
	p := RenderPreview("/bin/tool", []byte{0x7f, 'E', 'L', 'F', 0x00, 0x01}, 1024, 60, nil)

	assert.True(t, p.Binary)
	assert.Equal(t, "tool is a binary file", p.Body)
}

func TestIsBinaryContent(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    bool
	}{
		{"empty", nil, false},
		{"text", []byte("hello|world\n"), false},
		{"nul byte", []byte("a\x00b"), true},
		{"utf16 bom", []byte{0xFF, 0xFE, 'a', 0x00}, false},
		{"utf32 be bom", []byte{0x00, 0x00, 0xFE, 0xFF, 0x00}, false},
		{"nul past sample", append([]byte(strings.Repeat("a", binarySampleSize)), 0x00), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBinaryContent(tt.content))
		})
	}
}
