package views

import (
	"fmt"
	"strings"

	"github.com/Cyclone1070/dockerws/internal/ui/models"
)

// RenderList renders the directory listing, scrolled so the cursor stays visible.
func RenderList(s models.State, height int) string {
	if len(s.Entries) == 0 {
		if s.Loading() {
			return StatusDefaultStyle.Render("loading...")
		}
		return StatusDefaultStyle.Render("(empty)")
	}

	start := 0
	if height > 0 && s.Cursor >= height {
		start = s.Cursor - height + 1
	}
	end := len(s.Entries)
	if height > 0 {
		end = min(end, start+height)
	}

	lines := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		e := s.Entries[i]
		style := FileStyle
		if e.IsDirectory() {
			style = DirectoryStyle
		}
		label := style.Render(e.Name())
		if i == s.Cursor {
			label = SelectedStyle.Render("> " + e.Name())
		} else {
			label = "  " + label
		}
		lines = append(lines, label)
	}
	if s.Hidden > 0 {
		lines = append(lines, StatusDefaultStyle.Render(fmt.Sprintf("  %d excluded", s.Hidden)))
	}
	return strings.Join(lines, "\n")
}
