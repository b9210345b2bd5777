package quiz

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/muesli/reflow/wordwrap"

	"github.com/examwhisperer/whisper/internal/backend"
	quizsvc "github.com/examwhisperer/whisper/internal/quiz"
	"github.com/examwhisperer/whisper/internal/ui/components"
	"github.com/examwhisperer/whisper/internal/ui/theme"
)

func (s *QuizScreen) View(width, height int) string {
	if s.confirmQuit {
		return renderQuitConfirm(width, height)
	}

	st := s.sess.Snapshot()
	cw := components.ContentWidth(width)

	var body string
	switch st.Phase {
	case quizsvc.PhaseIdle:
		body = s.renderForm(st, cw)
	case quizsvc.PhaseLoading, quizsvc.PhaseLoadFailed:
		body = s.renderLoading(st, cw)
	case quizsvc.PhaseAwaitingAnswer, quizsvc.PhaseEvaluating:
		body = s.renderQuestion(st, cw)
	case quizsvc.PhaseShowingFeedback:
		body = s.renderFeedback(st, cw)
	default:
		body = theme.Hint.Render("Quiz complete.")
	}
	if s.err != nil {
		body += "\n\n" + components.ErrorLine(s.err.Error())
	}
	return components.Centered(body, width, height)
}

func (s *QuizScreen) renderForm(st quizsvc.State, cw int) string {
	label := func(field int, text string) string {
		if s.field == field {
			return theme.Selected.Render("▸ " + text)
		}
		return theme.Unselected.Render("  " + text)
	}

	var diff []string
	for i, d := range difficulties {
		name := string(d)
		if i == s.difficulty {
			diff = append(diff, theme.Selected.Render("["+name+"]"))
		} else {
			diff = append(diff, theme.Hint.Render(" "+name+" "))
		}
	}

	var b strings.Builder
	b.WriteString(theme.Title.Width(cw).Render("New quiz"))
	b.WriteString("\n\n")
	b.WriteString(label(fieldTopic, "Topic"))
	b.WriteString("\n    ")
	b.WriteString(s.topic.View())
	b.WriteString("\n\n")
	b.WriteString(label(fieldDifficulty, "Difficulty"))
	b.WriteString("\n    ")
	b.WriteString(strings.Join(diff, " "))
	b.WriteString("\n\n")
	b.WriteString(label(fieldCount, fmt.Sprintf("Questions (%d-%d)", quizsvc.MinQuestions, quizsvc.MaxQuestions)))
	b.WriteString("\n    ")
	b.WriteString(s.count.View())
	b.WriteString("\n\n")
	b.WriteString(components.Button{Label: "Start quiz", Active: s.field == fieldStart}.View())

	if s.pending {
		b.WriteString("\n\n")
		b.WriteString(s.spinner.View() + theme.Hint.Render("Generating the first question..."))
	} else if st.Feedback != "" {
		b.WriteString("\n\n")
		b.WriteString(components.ErrorLine(wordwrap.String(st.Feedback, cw)))
	}
	return components.Card(b.String(), cw)
}

func (s *QuizScreen) renderLoading(st quizsvc.State, cw int) string {
	head := progressLine(st, cw)
	if st.Phase == quizsvc.PhaseLoadFailed && !s.pending {
		return head + "\n\n" +
			components.ErrorLine(wordwrap.String(st.Feedback, cw)) + "\n\n" +
			theme.Hint.Render("Press R to try again.")
	}
	return head + "\n\n" + s.spinner.View() +
		theme.Hint.Render(fmt.Sprintf("Generating question %d of %d...", st.CurrentIndex+1, st.NumQuestions))
}

func (s *QuizScreen) renderQuestion(st quizsvc.State, cw int) string {
	mc := s.mc
	mc.Question = wordwrap.String(mc.Question, cw)

	var b strings.Builder
	b.WriteString(progressLine(st, cw))
	b.WriteString("\n\n")
	b.WriteString(mc.View())
	if st.Phase == quizsvc.PhaseEvaluating {
		b.WriteString("\n")
		b.WriteString(s.spinner.View() + theme.Hint.Render("Checking your answer..."))
	} else if st.Feedback != "" {
		b.WriteString("\n")
		b.WriteString(components.ErrorLine(wordwrap.String(st.Feedback, cw)))
	}
	return b.String()
}

func (s *QuizScreen) renderFeedback(st quizsvc.State, cw int) string {
	mc := s.mc
	mc.Question = wordwrap.String(mc.Question, cw)

	var b strings.Builder
	b.WriteString(progressLine(st, cw))
	b.WriteString("\n\n")
	b.WriteString(mc.View())
	b.WriteString("\n")

	if st.LastCorrect {
		b.WriteString(theme.Correct.Render("Correct!"))
	} else {
		b.WriteString(theme.Incorrect.Render("Not quite"))
		if ans := correctAnswerText(st); ans != "" {
			b.WriteString("\n")
			b.WriteString(theme.Hint.Render("Correct answer: " + ans))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(theme.Body.Render(wordwrap.String(st.Feedback, cw)))
	b.WriteString("\n\n")

	next := "Press Enter for the next question"
	if st.CurrentIndex+1 >= st.NumQuestions {
		next = "Press Enter to see your results"
	}
	b.WriteString(theme.Hint.Render(next))
	return b.String()
}

// correctAnswerText prefers the evaluation's answer text and falls back to
// the question's own option.
func correctAnswerText(st quizsvc.State) string {
	ref := st.CorrectAnswer
	q := st.Current()
	if ref.Text != "" {
		return ref.Text
	}
	id := ref.ID
	if id == "" && q != nil {
		id = q.CorrectAnswerID
	}
	if q == nil || id == "" {
		return ""
	}
	return fmt.Sprintf("%s) %s", strings.ToUpper(id), q.OptionText(id))
}

func progressLine(st quizsvc.State, cw int) string {
	left := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).
		Render(fmt.Sprintf("%s · %s", st.Topic, difficultyLabel(st.Difficulty)))
	right := theme.Hint.Render(fmt.Sprintf("Q %d/%d  ✓ %d", st.CurrentIndex+1, st.NumQuestions, st.Correct))
	gap := cw - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	outcomes := make(map[int]bool, len(st.Answers))
	for _, a := range st.Answers {
		outcomes[a.Index] = a.Correct
	}
	track := components.NewQuestionTrack(st.NumQuestions, st.CurrentIndex, outcomes, cw)
	return left + strings.Repeat(" ", gap) + right + "\n" + track.View()
}

func difficultyLabel(d backend.Difficulty) string {
	s := string(d)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// renderQuitConfirm renders the quit confirmation dialog.
func renderQuitConfirm(width, height int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render("End quiz early?"))
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render("Unanswered questions will not be scored."))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Success).Render("[Y] Yes, end quiz"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Primary).Render("[N] No, keep going"))
	return components.Centered(b.String(), width, height)
}
