package components

import (
	"charm.land/lipgloss/v2"

	"github.com/examwhisperer/whisper/internal/ui/theme"
)

// Button is a styled button label.
type Button struct {
	Label  string
	Active bool
}

// View renders the button.
func (b Button) View() string {
	label := "  ▸ " + b.Label + " "
	if b.Active {
		return theme.ButtonActive.Render(label)
	}
	return theme.ButtonInactive.Render(" " + b.Label + " ")
}

// ButtonRow renders labels side by side with the selected one active.
func ButtonRow(labels []string, selected int) string {
	parts := make([]string, 0, 2*len(labels))
	for i, l := range labels {
		if i > 0 {
			parts = append(parts, "  ")
		}
		parts = append(parts, Button{Label: l, Active: i == selected}.View())
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}
