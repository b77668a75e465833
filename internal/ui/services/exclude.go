package services

import (
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// ExcludeMatcher hides explorer entries matching gitignore-style patterns.
type ExcludeMatcher struct {
	matcher gitignore.Matcher
}

// NewExcludeMatcher compiles patterns. Blank lines and comments are skipped.
func NewExcludeMatcher(patterns []string) *ExcludeMatcher {
	var parsed []gitignore.Pattern
	for _, line := range patterns {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parsed = append(parsed, gitignore.ParsePattern(line, nil))
	}
	if len(parsed) == 0 {
		return &ExcludeMatcher{}
	}
	return &ExcludeMatcher{matcher: gitignore.NewMatcher(parsed)}
}

// ShouldExclude reports whether relativePath, taken from the explorer root,
// matches any pattern.
func (m *ExcludeMatcher) ShouldExclude(relativePath string, isDir bool) bool {
	if m == nil || m.matcher == nil {
		return false
	}
	segments := splitPath(relativePath)
	if len(segments) == 0 {
		return false
	}
	return m.matcher.Match(segments, isDir)
}

func splitPath(p string) []string {
	var segments []string
	for _, part := range strings.Split(p, "/") {
		if part != "" && part != "." {
			segments = append(segments, part)
		}
	}
	return segments
}
