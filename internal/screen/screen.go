package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/examwhisperer/whisper/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// BackendStatusMsg is broadcast to every screen when backend reachability
// changes.
type BackendStatusMsg struct {
	Online bool
	Reason string
}

// BackInterceptor is implemented by screens that handle Esc themselves
// while InterceptBack reports true, e.g. to confirm abandoning a quiz.
type BackInterceptor interface {
	InterceptBack() bool
}
