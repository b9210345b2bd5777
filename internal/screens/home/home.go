// Package home is the main menu.
package home

import (
	"context"
	"strings"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"

	quizsvc "github.com/examwhisperer/whisper/internal/quiz"
	"github.com/examwhisperer/whisper/internal/router"
	"github.com/examwhisperer/whisper/internal/screen"
	quizscreen "github.com/examwhisperer/whisper/internal/screens/quiz"
	"github.com/examwhisperer/whisper/internal/store"
	"github.com/examwhisperer/whisper/internal/ui/components"
)

// celebrateAccuracy is the score a recent quiz needs for the happy owl.
const celebrateAccuracy = 0.8

// lastQuiz is the most recent finished quiz.
type lastQuiz struct {
	Topic   string
	Correct int
	Total   int
	At      time.Time
}

// recentQuiz is written from quiz session goroutines and read in View.
type recentQuiz struct {
	mu   sync.Mutex
	last *lastQuiz
}

func (r *recentQuiz) set(q lastQuiz) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil || !q.At.Before(r.last.At) {
		r.last = &q
	}
}

func (r *recentQuiz) get() *lastQuiz {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

type lastQuizMsg struct {
	Quiz *lastQuiz
}

// HomeScreen is the main menu of the application.
type HomeScreen struct {
	deps   Deps
	menu   components.Menu
	recent *recentQuiz
	online bool
	reason string
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates a HomeScreen.
func New(deps Deps) *HomeScreen {
	h := &HomeScreen{
		recent: &recentQuiz{},
		online: true,
	}
	if deps.Monitor != nil {
		h.online = deps.Monitor.Online()
		h.reason = deps.Monitor.Reason()
	}

	next := deps.OnQuizComplete
	deps.OnQuizComplete = func(r quizsvc.Result) {
		h.recent.set(lastQuiz{Topic: r.Topic, Correct: r.Correct, Total: r.Total, At: time.Now()})
		if next != nil {
			next(r)
		}
	}
	h.deps = deps

	push := func(build func() screen.Screen) func() tea.Cmd {
		return func() tea.Cmd {
			s := build()
			return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
		}
	}

	items := []components.MenuItem{
		{
			Label:       "CHAT",
			Description: "Ask the tutor anything",
			Action:      push(func() screen.Screen { return deps.NewChat("") }),
		},
		{
			Label:       "QUIZ",
			Description: "Multiple choice practice on a topic",
			Action: push(func() screen.Screen {
				return deps.NewQuiz(quizscreen.Options{})
			}),
		},
		{
			Label:       "TOPICS",
			Description: "Your topics and syllabus upload",
			Action:      push(deps.NewTopics),
			Disabled:    deps.Topics == nil,
		},
		{
			Label:       "HISTORY",
			Description: "Past quizzes and backend usage",
			Action:      push(deps.NewHistory),
			Disabled:    deps.Events == nil,
		},
		{
			Label:       "SETTINGS",
			Description: "Provider, model and API key",
			Action:      push(deps.NewSettings),
			Disabled:    deps.Settings == nil,
		},
		{
			Label:  "QUIT",
			Action: func() tea.Cmd { return tea.Quit },
		},
	}
	h.menu = components.NewMenu(items)
	return h
}

func (h *HomeScreen) Init() tea.Cmd {
	events := h.deps.Events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		results, err := events.QueryQuizResults(context.Background(), store.QueryOpts{Limit: 1})
		if err != nil || len(results) == 0 {
			return lastQuizMsg{}
		}
		r := results[0]
		return lastQuizMsg{Quiz: &lastQuiz{Topic: r.Topic, Correct: r.Correct, Total: r.Total, At: r.Timestamp}}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case lastQuizMsg:
		if msg.Quiz != nil {
			h.recent.set(*msg.Quiz)
		}
		return h, nil
	case screen.BackendStatusMsg:
		h.online = msg.Online
		h.reason = msg.Reason
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	// height is the content area; add back the header and footer.
	termHeight := height + 8
	compact := termHeight < 32 || width < 90

	cw := components.ContentWidth(width)
	last := h.recent.get()
	missingKey := h.deps.Settings != nil && h.deps.Settings.Validate() != nil

	var sections []string
	sections = append(sections, renderTitle(cw, compact))
	if !compact {
		sections = append(sections, renderMascotBox(h.mascot(last, missingKey), cw))
	}
	sections = append(sections, renderStatusBar(h.online, h.model(), last, cw, compact))
	if !h.online && h.reason != "" {
		sections = append(sections, renderOfflineNote(h.reason, cw))
	}
	if missingKey {
		sections = append(sections, renderKeyBanner(cw))
	}
	sections = append(sections, renderMenu(h.menu, cw, compact))

	return renderCabinetFrame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) model() string {
	if h.deps.Settings == nil {
		return "no model"
	}
	return h.deps.Settings.Config().Model
}

func (h *HomeScreen) mascot(last *lastQuiz, missingKey bool) MascotVariant {
	if !h.online || missingKey {
		return MascotAlert
	}
	if last != nil && last.Total > 0 && time.Since(last.At) < 24*time.Hour &&
		float64(last.Correct)/float64(last.Total) >= celebrateAccuracy {
		return MascotCelebrating
	}
	return MascotIdle
}
