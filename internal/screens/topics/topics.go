// Package topics is the topic list screen: browse saved topics, add new
// ones and upload a syllabus to detect more.
package topics

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/muesli/reflow/wordwrap"

	"github.com/examwhisperer/whisper/internal/backend"
	"github.com/examwhisperer/whisper/internal/router"
	"github.com/examwhisperer/whisper/internal/screen"
	"github.com/examwhisperer/whisper/internal/syllabus"
	"github.com/examwhisperer/whisper/internal/ui/components"
	"github.com/examwhisperer/whisper/internal/ui/layout"
	"github.com/examwhisperer/whisper/internal/ui/theme"
)

// Store is the topic cache.
type Store interface {
	List(ctx context.Context) ([]string, error)
	Add(ctx context.Context, topic string) error
}

// Uploader posts a syllabus PDF.
type Uploader interface {
	Upload(ctx context.Context, path string) (*backend.SyllabusResult, error)
}

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeUpload
)

type loadedMsg struct {
	Topics []string
	Err    error
}

type addedMsg struct {
	Err error
}

type uploadedMsg struct {
	Path   string
	Result *backend.SyllabusResult
	Err    error
}

// TopicsScreen implements screen.Screen for the topic list.
type TopicsScreen struct {
	store    Store
	uploader Uploader
	// startQuiz, when set, builds a quiz screen for the selected topic.
	startQuiz func(topic string) screen.Screen

	topics   []string
	selected int
	mode     mode
	input    components.TextInput
	spinner  spinner.Model
	busy     bool
	notice   string
	err      error

	ctx    context.Context
	cancel context.CancelFunc
}

var _ screen.Screen = (*TopicsScreen)(nil)
var _ screen.KeyHintProvider = (*TopicsScreen)(nil)

// New creates a TopicsScreen.
func New(store Store, uploader Uploader, startQuiz func(topic string) screen.Screen) *TopicsScreen {
	ctx, cancel := context.WithCancel(context.Background())
	s := &TopicsScreen{
		store:     store,
		uploader:  uploader,
		startQuiz: startQuiz,
		spinner:   spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.spinner.Style = lipgloss.NewStyle().Foreground(theme.Primary)
	return s
}

func (s *TopicsScreen) Init() tea.Cmd {
	return s.load()
}

func (s *TopicsScreen) Title() string {
	return "Topics"
}

// Close cancels pending requests.
func (s *TopicsScreen) Close() {
	s.cancel()
}

func (s *TopicsScreen) KeyHints() []layout.KeyHint {
	if s.mode != modeBrowse {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Confirm"},
			{Key: "Tab", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Quiz"},
		{Key: "A", Description: "Add"},
		{Key: "U", Description: "Upload syllabus"},
		{Key: "R", Description: "Refresh"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *TopicsScreen) load() tea.Cmd {
	s.busy = true
	ctx := s.ctx
	return tea.Batch(func() tea.Msg {
		topics, err := s.store.List(ctx)
		return loadedMsg{Topics: topics, Err: err}
	}, s.spinner.Tick)
}

func (s *TopicsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.busy = false
		s.topics = msg.Topics
		s.err = msg.Err
		if s.selected >= len(s.topics) {
			s.selected = max(len(s.topics)-1, 0)
		}
		return s, nil

	case addedMsg:
		s.busy = false
		if msg.Err != nil {
			s.err = msg.Err
			return s, nil
		}
		s.notice = "Topic added."
		return s, s.load()

	case uploadedMsg:
		s.busy = false
		if msg.Err != nil {
			s.err = fmt.Errorf("upload %s: %w", filepath.Base(msg.Path), msg.Err)
			return s, nil
		}
		s.notice = syllabus.Summary(msg.Path, msg.Result)
		return s, s.load()

	case spinner.TickMsg:
		if !s.busy {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyPressMsg:
		if s.mode != modeBrowse {
			return s.handleInputKey(msg)
		}
		return s.handleBrowseKey(msg)
	}

	if s.mode != modeBrowse {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *TopicsScreen) handleBrowseKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if s.selected > 0 {
			s.selected--
		}
	case "down", "j":
		if s.selected < len(s.topics)-1 {
			s.selected++
		}
	case "a", "A":
		return s, s.prompt(modeAdd, "New topic")
	case "u", "U":
		if s.uploader != nil {
			return s, s.prompt(modeUpload, "Path to syllabus PDF")
		}
	case "r", "R":
		if !s.busy {
			return s, s.load()
		}
	case "enter":
		if s.startQuiz != nil && s.selected < len(s.topics) {
			next := s.startQuiz(s.topics[s.selected])
			return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }
		}
	}
	return s, nil
}

func (s *TopicsScreen) prompt(m mode, placeholder string) tea.Cmd {
	s.mode = m
	s.notice = ""
	s.err = nil
	s.input = components.NewTextInput(placeholder, false, 256)
	return s.input.Init()
}

func (s *TopicsScreen) handleInputKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "tab":
		s.mode = modeBrowse
		return s, nil
	case "enter":
		value := strings.TrimSpace(s.input.Value())
		m := s.mode
		s.mode = modeBrowse
		if value == "" || s.busy {
			return s, nil
		}
		s.busy = true
		ctx := s.ctx
		if m == modeAdd {
			return s, tea.Batch(func() tea.Msg {
				return addedMsg{Err: s.store.Add(ctx, value)}
			}, s.spinner.Tick)
		}
		return s, tea.Batch(func() tea.Msg {
			res, err := s.uploader.Upload(ctx, value)
			return uploadedMsg{Path: value, Result: res, Err: err}
		}, s.spinner.Tick)
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *TopicsScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var b strings.Builder
	b.WriteString(theme.Title.Width(cw).Render("Your topics"))
	b.WriteString("\n\n")

	if len(s.topics) == 0 && !s.busy {
		b.WriteString(theme.Hint.Render("No topics yet. Add one or upload a syllabus."))
		b.WriteString("\n")
	}

	// Keep the selection visible when the list is longer than the screen.
	visible := max(height-12, 3)
	start := 0
	if s.selected >= visible {
		start = s.selected - visible + 1
	}
	for i := start; i < len(s.topics) && i < start+visible; i++ {
		if i == s.selected && s.mode == modeBrowse {
			b.WriteString(theme.Selected.Render("▸ " + s.topics[i]))
		} else {
			b.WriteString(theme.Unselected.Render("  " + s.topics[i]))
		}
		b.WriteString("\n")
	}

	switch s.mode {
	case modeAdd:
		b.WriteString("\n" + theme.Body.Render("Add topic: ") + s.input.View())
	case modeUpload:
		b.WriteString("\n" + theme.Body.Render("Syllabus: ") + s.input.View())
	}

	switch {
	case s.busy:
		b.WriteString("\n\n" + s.spinner.View() + theme.Hint.Render(" Working..."))
	case s.err != nil:
		b.WriteString("\n\n" + components.ErrorLine(wordwrap.String(s.err.Error(), cw)))
	case s.notice != "":
		b.WriteString("\n\n" + theme.Correct.Render(wordwrap.String(s.notice, cw)))
	}

	return components.Centered(components.Card(b.String(), cw), width, height)
}
