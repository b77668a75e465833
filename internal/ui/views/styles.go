package views

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary = lipgloss.Color("39")
	ColorMuted   = lipgloss.Color("241")
	ColorError   = lipgloss.Color("196")
	ColorSuccess = lipgloss.Color("42")

	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)

	DirectoryStyle = lipgloss.NewStyle().Foreground(ColorPrimary)
	FileStyle      = lipgloss.NewStyle()
	SelectedStyle  = lipgloss.NewStyle().Bold(true).Reverse(true)

	PreviewStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(ColorMuted).
			PaddingLeft(1)

	StatusDefaultStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	StatusBusyStyle    = lipgloss.NewStyle().Foreground(ColorPrimary)
	StatusDoneStyle    = lipgloss.NewStyle().Foreground(ColorSuccess)
	StatusErrorStyle   = lipgloss.NewStyle().Foreground(ColorError)

	PopupBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2)
)
