package views

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Cyclone1070/dockerws/internal/ui/models"
)

// RenderRoot renders the complete UI layout
func RenderRoot(s models.State) string {
	header := HeaderStyle.Render(s.Dir.String())
	bodyHeight := max(s.Height-3, 1)

	listWidth := max(s.Width/3, 20)
	list := lipgloss.NewStyle().Width(listWidth).Render(RenderList(s, bodyHeight))

	body := list
	if s.PreviewURI.Container != "" {
		body = lipgloss.JoinHorizontal(lipgloss.Top, list, PreviewStyle.Render(s.Viewport.View()))
	}

	if s.Mode != models.ModeBrowse {
		return lipgloss.Place(
			s.Width,
			s.Height,
			lipgloss.Center,
			lipgloss.Center,
			RenderPopup(s),
			lipgloss.WithWhitespaceChars(" "),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, RenderStatus(s))
}
