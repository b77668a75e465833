package services

import (
	"fmt"
	"path"
	"strings"

	"github.com/charmbracelet/glamour"
)

// binarySampleSize is the number of leading bytes scanned for NUL.
const binarySampleSize = 8000

// MarkdownRenderer renders markdown for a given terminal width.
type MarkdownRenderer interface {
	Render(content string, width int) (string, error)
}

// GlamourRenderer renders markdown with glamour's automatic style.
type GlamourRenderer struct{}

func (GlamourRenderer) Render(content string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(content)
}

// RenderMarkdown renders content, falling back to the raw text when the
// renderer is missing or fails.
func RenderMarkdown(content string, width int, renderer MarkdownRenderer) (string, error) {
	if renderer == nil {
		return content, nil
	}
	if width <= 0 {
		width = 80
	}
	return renderer.Render(content, width)
}

// Preview is the rendered body of a previewed file.
type Preview struct {
	Body      string
	Truncated bool
	Binary    bool
}

// RenderPreview prepares content read from name for display. Content beyond
// limit bytes is cut off; markdown files are rendered, binary files are not shown.
func RenderPreview(name string, content []byte, limit, width int, renderer MarkdownRenderer) Preview {
	var p Preview
	if limit > 0 && len(content) > limit {
		content = content[:limit]
		p.Truncated = true
	}

	if IsBinaryContent(content) {
		p.Binary = true
		p.Body = fmt.Sprintf("%s is a binary file", path.Base(name))
		return p
	}

	text := string(content)
	if isMarkdown(name) {
		if rendered, err := RenderMarkdown(text, width, renderer); err == nil {
			text = rendered
		}
	}
	if p.Truncated {
		text += fmt.Sprintf("\n... truncated at %d bytes", limit)
	}
	p.Body = text
	return p
}

func isMarkdown(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// IsBinaryContent reports whether content looks binary, using NUL bytes in
// the leading sample. UTF-16 and UTF-32 byte order marks count as text.
func IsBinaryContent(content []byte) bool {
	if len(content) >= 2 {
		if (content[0] == 0xFF && content[1] == 0xFE) ||
			(content[0] == 0xFE && content[1] == 0xFF) {
			return false
		}
	}
	if len(content) >= 4 {
		if content[0] == 0x00 && content[1] == 0x00 && content[2] == 0xFE && content[3] == 0xFF {
			return false
		}
	}

	sampleSize := min(len(content), binarySampleSize)
	for i := 0; i < sampleSize; i++ {
		if content[i] == 0 {
			return true
		}
	}
	return false
}
