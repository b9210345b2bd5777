package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/examwhisperer/whisper/internal/backend"
	"github.com/examwhisperer/whisper/internal/ui/theme"
)

// MultiChoice renders a question's options and tracks the cursor. It does
// not decide correctness; callers pass the outcome back through Reveal once
// the backend has evaluated the answer.
type MultiChoice struct {
	Question string
	Options  []backend.Option
	Cursor   int

	// Chosen is the option id the learner picked, "" until chosen.
	Chosen string

	// CorrectID is set by Reveal; "" means no verdict yet.
	CorrectID string

	// Locked disables navigation once an answer is submitted.
	Locked bool
}

// NewMultiChoice creates a new multiple-choice component.
func NewMultiChoice(q *backend.Question) MultiChoice {
	return MultiChoice{
		Question: q.Question,
		Options:  q.Options,
	}
}

// ChoiceMsg is returned as a command result when the learner presses Enter
// or an option's letter key.
type ChoiceMsg struct {
	OptionID string
}

// Update handles keyboard navigation and selection.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Locked || len(m.Options) == 0 {
		return m, nil
	}

	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
		return m, nil
	case "down", "j":
		if m.Cursor < len(m.Options)-1 {
			m.Cursor++
		}
		return m, nil
	case "enter":
		return m, m.choose(m.Cursor)
	}

	if len(key) == 1 {
		for i, opt := range m.Options {
			if strings.EqualFold(opt.ID, key) || key == fmt.Sprint(i+1) {
				m.Cursor = i
				return m, m.choose(i)
			}
		}
	}
	return m, nil
}

func (m *MultiChoice) choose(i int) tea.Cmd {
	id := m.Options[i].ID
	m.Chosen = id
	return func() tea.Msg { return ChoiceMsg{OptionID: id} }
}

// Reveal locks the component and records the correct option for colouring.
func (m *MultiChoice) Reveal(chosen, correctID string) {
	m.Locked = true
	m.Chosen = chosen
	m.CorrectID = correctID
}

// View renders the multiple-choice component.
func (m MultiChoice) View() string {
	questionStyle := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	s := questionStyle.Render(m.Question) + "\n\n"

	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Cursor && !m.Locked {
			prefix = "▸ "
		}

		line := fmt.Sprintf("%s%s)  %s", prefix, strings.ToUpper(opt.ID), opt.Text)

		var style lipgloss.Style
		switch {
		case m.CorrectID != "" && opt.ID == m.CorrectID:
			style = theme.Correct
		case m.CorrectID != "" && opt.ID == m.Chosen:
			style = theme.Incorrect
		case m.Locked:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == m.Cursor:
			style = theme.Selected
		default:
			style = theme.Unselected
		}
		s += style.Render(line) + "\n"
	}

	return s
}
