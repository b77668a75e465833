package views

import (
	"fmt"

	"github.com/Cyclone1070/dockerws/internal/executor"
	"github.com/Cyclone1070/dockerws/internal/ui/models"
)

const keyHelp = "enter open  backspace up  r refresh  n new dir  d delete  q quit"

// RenderStatus renders the status bar
func RenderStatus(s models.State) string {
	switch {
	case s.Loading():
		msg := s.StatusMessage
		if msg == "" {
			msg = "working"
		}
		return StatusBusyStyle.Render(fmt.Sprintf("%s %s", s.Spinner.View(), msg))
	case s.Err != nil:
		// Connection failures mean retry later; everything else is about the file.
		if executor.IsConnection(s.Err) {
			return StatusErrorStyle.Render("✗ container unreachable: " + s.Err.Error())
		}
		return StatusErrorStyle.Render("✗ " + s.Err.Error())
	case s.StatusMessage != "":
		return StatusDoneStyle.Render("✔ " + s.StatusMessage)
	default:
		return StatusDefaultStyle.Render(keyHelp)
	}
}
