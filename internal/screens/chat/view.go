package chat

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/muesli/reflow/wordwrap"

	"github.com/examwhisperer/whisper/internal/backend"
	chatsvc "github.com/examwhisperer/whisper/internal/chat"
	"github.com/examwhisperer/whisper/internal/ui/components"
	"github.com/examwhisperer/whisper/internal/ui/theme"
)

func (s *ChatScreen) View(width, height int) string {
	inner := width - 4
	if inner < 20 {
		inner = 20
	}

	status := s.renderStatus(inner)
	inputBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.inputBorder()).
		Width(inner).
		Render(s.input.View())
	errLine := components.ErrorLine(errText(s.err))

	chrome := lipgloss.Height(status) + lipgloss.Height(inputBox) + 2
	transcriptHeight := height - chrome
	if transcriptHeight < 1 {
		transcriptHeight = 1
	}

	lines := s.transcriptLines(inner)
	if s.pending > 0 {
		lines = append(lines, "", s.spinner.View()+theme.Hint.Render("Thinking..."))
	}
	lines = window(lines, transcriptHeight, &s.scroll)

	var b strings.Builder
	b.WriteString(status)
	b.WriteString("\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString(strings.Repeat("\n", transcriptHeight-len(lines)))
	b.WriteString("\n")
	b.WriteString(errLine)
	b.WriteString("\n")
	b.WriteString(inputBox)

	return lipgloss.NewStyle().PaddingLeft(2).Render(b.String())
}

func (s *ChatScreen) inputBorder() color.Color {
	if s.focusQuiz {
		return theme.Border
	}
	return theme.Primary
}

func (s *ChatScreen) renderStatus(width int) string {
	if !s.online {
		reason := s.reason
		if reason == "" {
			reason = chatsvc.ErrOffline.Error()
		}
		return theme.Banner.Width(width).Render(wordwrap.String(reason, width-2))
	}
	topic := s.ctrl.Topic()
	if topic == "" {
		return theme.Hint.Render("No topic set. Type one and press Ctrl+T.  ·  " + s.personaName())
	}
	return lipgloss.NewStyle().Foreground(theme.Secondary).Render("Topic: " + topic + "  ·  " + s.personaName())
}

// transcriptLines renders every message, wrapped to width.
func (s *ChatScreen) transcriptLines(width int) []string {
	var lines []string
	for _, m := range s.ctrl.Messages() {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, s.renderMessage(m, width)...)
	}
	return lines
}

func (s *ChatScreen) renderMessage(m chatsvc.Message, width int) []string {
	label := theme.AssistantLabel.Render("Tutor")
	if m.Role == chatsvc.RoleUser {
		label = theme.UserLabel.Render("You")
	}
	header := label + theme.Hint.Render("  "+m.Timestamp.Format("15:04"))

	var body string
	switch {
	case m.Type == chatsvc.TypeQuiz && m.Quiz != nil:
		body = s.renderQuiz(m, width)
	case m.Failed:
		body = theme.ErrorMessage.Render(wordwrap.String(m.Content, width))
	default:
		body = theme.Body.Render(wordwrap.String(m.Content, width))
	}
	return append([]string{header}, strings.Split(body, "\n")...)
}

func (s *ChatScreen) renderQuiz(m chatsvc.Message, width int) string {
	q := m.Quiz
	var mc components.MultiChoice
	if m.ID == s.quizID {
		mc = s.mc
		if !s.focusQuiz {
			mc.Locked = true
		}
	} else {
		mc = components.NewMultiChoice(&backend.Question{Question: q.Question, Options: q.Options})
		mc.Locked = true
		if q.Submitted {
			mc.Reveal(q.UserAnswerID, q.CorrectAnswerID)
		}
	}
	mc.Question = wordwrap.String(fmt.Sprintf("Quiz on %s: %s", q.Topic, q.Question), width-4)

	body := mc.View()
	if q.Submitted {
		body += "\n" + verdict(q, width-4)
	}
	return components.Card(strings.TrimRight(body, "\n"), width-2)
}

func verdict(q *chatsvc.QuizQuestion, width int) string {
	var line string
	if q.Correct() {
		line = theme.Correct.Render("✓ Correct!")
	} else {
		line = theme.Incorrect.Render(fmt.Sprintf("✗ Incorrect. The answer is %s) %s",
			strings.ToUpper(q.CorrectAnswerID), q.OptionText(q.CorrectAnswerID)))
	}
	if q.Feedback != "" {
		line += "\n" + theme.Hint.Render(wordwrap.String(q.Feedback, width))
	}
	return line
}

// window returns the height lines ending scroll lines above the bottom,
// clamping scroll to the available range.
func window(lines []string, height int, scroll *int) []string {
	maxScroll := len(lines) - height
	if maxScroll < 0 {
		maxScroll = 0
	}
	if *scroll > maxScroll {
		*scroll = maxScroll
	}
	end := len(lines) - *scroll
	start := end - height
	if start < 0 {
		start = 0
	}
	return lines[start:end]
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
