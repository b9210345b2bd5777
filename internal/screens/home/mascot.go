package home

import (
	"charm.land/lipgloss/v2"

	"github.com/examwhisperer/whisper/internal/ui/theme"
)

// MascotVariant selects which owl to display.
type MascotVariant int

const (
	MascotIdle        MascotVariant = iota
	MascotCelebrating               // strong recent quiz
	MascotAlert                     // offline or missing key
)

const mascotIdle = ` ,___,
 (O,O)
 /)_)
  ""`

const mascotCelebrating = ` ,___,
 (^,^)  ★
 /)_)\
  ""`

const mascotAlert = ` ,___,
 (o,O)  !
 /)_)
  ""`

// RenderMascot returns the owl art for the given variant.
func RenderMascot(v MascotVariant) string {
	art := mascotIdle
	fg := theme.Primary

	switch v {
	case MascotCelebrating:
		art = mascotCelebrating
		fg = theme.Success
	case MascotAlert:
		art = mascotAlert
		fg = theme.Accent
	}

	return lipgloss.NewStyle().
		Foreground(fg).
		Render(art)
}

// renderMascotBox centres the mascot within the content width.
func renderMascotBox(v MascotVariant, cw int) string {
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(RenderMascot(v))
}
