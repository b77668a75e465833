package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Cyclone1070/dockerws/internal/ui/models"
)

// RenderPopup renders the delete confirmation or new directory prompt.
func RenderPopup(s models.State) string {
	var lines []string

	switch s.Mode {
	case models.ModeConfirmDelete:
		e, ok := s.Selected()
		if !ok {
			return ""
		}
		lines = append(lines,
			lipgloss.NewStyle().Bold(true).Render("Delete entry?"),
			"",
			e.URI.Path,
			"",
			lipgloss.NewStyle().Faint(true).Render("y: Delete  n/Esc: Cancel"),
		)
	case models.ModeNewDirectory:
		lines = append(lines,
			lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("New directory in %s", s.Dir.Path)),
			"",
			s.Input.View(),
			"",
			lipgloss.NewStyle().Faint(true).Render("Enter: Create  Esc: Cancel"),
		)
	default:
		return ""
	}

	return PopupBoxStyle.Render(strings.Join(lines, "\n"))
}
