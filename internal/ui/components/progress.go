package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/examwhisperer/whisper/internal/ui/theme"
)

// Mark is the state of one question in a QuestionTrack.
type Mark int

const (
	MarkPending Mark = iota
	MarkCurrent
	MarkCorrect
	MarkWrong
)

// QuestionTrack shows one cell per quiz question.
type QuestionTrack struct {
	Marks []Mark
	Width int
}

// NewQuestionTrack builds a track for total questions with the given
// outcomes so far. current is the index being asked, or -1.
func NewQuestionTrack(total, current int, outcomes map[int]bool, width int) QuestionTrack {
	marks := make([]Mark, total)
	for i := range marks {
		switch correct, ok := outcomes[i]; {
		case ok && correct:
			marks[i] = MarkCorrect
		case ok:
			marks[i] = MarkWrong
		case i == current:
			marks[i] = MarkCurrent
		}
	}
	return QuestionTrack{Marks: marks, Width: width}
}

func (t QuestionTrack) View() string {
	if len(t.Marks) == 0 {
		return ""
	}
	// Cells shrink to a single glyph when two-wide cells would not fit.
	cell := "██"
	sep := " "
	if len(t.Marks)*3 > t.Width {
		cell, sep = "▮", ""
	}
	parts := make([]string, len(t.Marks))
	for i, m := range t.Marks {
		parts[i] = markStyle(m).Render(cell)
	}
	return strings.Join(parts, sep)
}

func markStyle(m Mark) lipgloss.Style {
	switch m {
	case MarkCorrect:
		return lipgloss.NewStyle().Foreground(theme.Success)
	case MarkWrong:
		return lipgloss.NewStyle().Foreground(theme.Error)
	case MarkCurrent:
		return lipgloss.NewStyle().Foreground(theme.Accent)
	}
	return lipgloss.NewStyle().Foreground(theme.Border)
}

// ScoreBar renders an accuracy bar with the percentage on the right.
func ScoreBar(ratio float64, width int) string {
	ratio = min(max(ratio, 0), 1)
	pct := fmt.Sprintf(" %3d%%", int(ratio*100+0.5))
	bar := max(width-lipgloss.Width(pct), 4)
	filled := int(float64(bar) * ratio)

	fill := theme.ProgressFilled
	if ratio < 0.5 {
		fill = lipgloss.NewStyle().Background(theme.Accent)
	}
	return fill.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", bar-filled)) +
		theme.Hint.Render(pct)
}
