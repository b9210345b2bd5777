package components

import (
	"charm.land/lipgloss/v2"

	"github.com/examwhisperer/whisper/internal/ui/theme"
)

// ContentWidth returns the uniform inner width used for centred panels.
// All boxes are rendered at this width so they visually align.
func ContentWidth(frameWidth int) int {
	// Leave room for panel border (2) + inner padding (4)
	w := frameWidth - 6
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	return w
}

// Centered places content in the middle of a width x height area.
func Centered(content string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// Card wraps content in a rounded-border card at the given content width.
func Card(content string, cw int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Width(cw).
		Padding(0, 1).
		Render(content)
}

// ErrorLine renders an inline error in the theme's error colour.
func ErrorLine(msg string) string {
	if msg == "" {
		return ""
	}
	return theme.ErrorMessage.Render("! " + msg)
}
