// Package history shows finished quizzes and backend usage recorded in the
// local database.
package history

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/examwhisperer/whisper/internal/screen"
	"github.com/examwhisperer/whisper/internal/store"
	"github.com/examwhisperer/whisper/internal/ui/layout"
	"github.com/examwhisperer/whisper/internal/ui/theme"
)

// Repo is the subset of store.EventRepo the screen reads.
type Repo interface {
	QueryQuizResults(ctx context.Context, opts store.QueryOpts) ([]store.QuizResult, error)
	UsageByOperation(ctx context.Context) ([]store.OperationUsage, error)
}

type tab int

const (
	tabQuizzes tab = iota
	tabUsage
)

type historyLoadedMsg struct {
	Results []store.QuizResult
	Usage   []store.OperationUsage
	Err     error
}

// HistoryScreen displays past quizzes and per-operation request counts.
type HistoryScreen struct {
	repo     Repo
	results  []store.QuizResult
	usage    []store.OperationUsage
	tab      tab
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(repo Repo) *HistoryScreen {
	return &HistoryScreen{
		repo:     repo,
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		results, err := s.repo.QueryQuizResults(ctx, store.QueryOpts{Limit: 50})
		if err != nil {
			return historyLoadedMsg{Err: err}
		}
		usage, err := s.repo.UsageByOperation(ctx)
		if err != nil {
			return historyLoadedMsg{Results: results}
		}
		return historyLoadedMsg{Results: results, Usage: usage}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Quizzes/Usage"},
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.results = msg.Results
			s.usage = msg.Usage
		}
		s.loaded = true
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "tab":
			if s.tab == tabQuizzes {
				s.tab = tabUsage
			} else {
				s.tab = tabQuizzes
			}
			return s, nil
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.results)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if s.tab == tabUsage {
		return s.renderUsage(width)
	}
	if len(s.results) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No quizzes yet. Start one from the menu!")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, r := range s.results {
		dateStr := r.Timestamp.Local().Format("Jan 02, 2006 15:04")

		var accuracy float64
		if r.Total > 0 {
			accuracy = float64(r.Correct) / float64(r.Total) * 100
		}

		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		line := fmt.Sprintf("%s%s  %-24s  %d/%d  %.0f%%",
			prefix, dateStr, truncate(r.Topic, 24), r.Correct, r.Total, accuracy)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			detail := fmt.Sprintf("    %s difficulty · session %s", r.Difficulty, r.SessionID)
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
				lipgloss.NewStyle().Foreground(accuracyColor(accuracy)).Italic(true).Render(detail)))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (s *HistoryScreen) renderUsage(width int) string {
	if len(s.usage) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No backend requests recorded yet.")
	}

	var b strings.Builder
	b.WriteString("\n")
	header := fmt.Sprintf("%-20s %8s %8s %10s", "OPERATION", "CALLS", "FAILED", "AVG MS")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.TextDim).Bold(true).Render(header)))
	b.WriteString("\n")

	for _, u := range s.usage {
		line := fmt.Sprintf("%-20s %8d %8d %10d", u.Operation, u.Calls, u.Failures, u.AvgLatencyMs)
		fg := theme.Text
		if u.Failures > 0 {
			fg = theme.Accent
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Foreground(fg).Render(line)))
		b.WriteString("\n")
	}
	return b.String()
}

func accuracyColor(pct float64) color.Color {
	switch {
	case pct >= 80:
		return theme.Success
	case pct >= 50:
		return theme.Accent
	default:
		return theme.Error
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
