package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	quizsvc "github.com/examwhisperer/whisper/internal/quiz"
	"github.com/examwhisperer/whisper/internal/router"
	"github.com/examwhisperer/whisper/internal/screen"
	"github.com/examwhisperer/whisper/internal/ui/components"
	"github.com/examwhisperer/whisper/internal/ui/layout"
	"github.com/examwhisperer/whisper/internal/ui/theme"
)

// SummaryScreen displays the result of a finished quiz.
type SummaryScreen struct {
	state  quizsvc.State
	retake func() screen.Screen
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a SummaryScreen. retake, when non-nil, builds a fresh quiz
// with the same configuration.
func New(state quizsvc.State, retake func() screen.Screen) *SummaryScreen {
	return &SummaryScreen{state: state, retake: retake}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Quiz Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "Enter", Description: "Continue"},
		{Key: "Esc", Description: "Back"},
	}
	if s.retake != nil {
		hints = append(hints, layout.KeyHint{Key: "R", Description: "Retake"})
	}
	return hints
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok {
		switch kmsg.String() {
		case "enter", "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "r", "R":
			if s.retake != nil {
				next := s.retake()
				return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
			}
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	st := s.state
	cw := components.ContentWidth(width)

	var b strings.Builder

	b.WriteString(theme.Title.Width(cw).Render("Quiz complete!"))
	b.WriteString("\n\n")
	b.WriteString(theme.Subtitle.Width(cw).Render(fmt.Sprintf("%s · %s", st.Topic, st.Difficulty)))
	b.WriteString("\n\n")

	statsLine := fmt.Sprintf("Questions: %d     Correct: %d     Accuracy: %.0f%%",
		st.Total, st.Correct, st.Accuracy()*100)
	b.WriteString(lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).
		Foreground(theme.Text).Render(statsLine))
	b.WriteString("\n\n")
	b.WriteString(components.ScoreBar(st.Accuracy(), cw))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", cw))
	b.WriteString(theme.Hint.Render("Answers"))
	b.WriteString("\n")
	b.WriteString(divider)
	b.WriteString("\n")

	for _, a := range st.Answers {
		var q string
		if a.Index < len(st.Questions) && st.Questions[a.Index] != nil {
			q = st.Questions[a.Index].Question
		}
		mark := theme.Correct.Render("✓")
		if !a.Correct {
			mark = theme.Incorrect.Render("✗")
		}
		line := truncate(fmt.Sprintf("%d. %s", a.Index+1, q), cw-4)
		b.WriteString(mark + " " + theme.Body.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.Hint.Render(message(st.Accuracy())))

	return components.Centered(b.String(), width, height)
}

func message(accuracy float64) string {
	switch {
	case accuracy >= 0.9:
		return "Excellent work!"
	case accuracy >= 0.6:
		return "Good job. Review the ones you missed."
	default:
		return "Keep practicing. Try an easier difficulty or ask the tutor."
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
