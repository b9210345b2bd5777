// Package quiz is the quiz screen: a configuration form followed by one
// question, answer and feedback cycle per question.
package quiz

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/examwhisperer/whisper/internal/backend"
	quizsvc "github.com/examwhisperer/whisper/internal/quiz"
	"github.com/examwhisperer/whisper/internal/router"
	"github.com/examwhisperer/whisper/internal/screen"
	"github.com/examwhisperer/whisper/internal/screens/summary"
	"github.com/examwhisperer/whisper/internal/ui/components"
	"github.com/examwhisperer/whisper/internal/ui/layout"
	"github.com/examwhisperer/whisper/internal/ui/theme"
)

var difficulties = []backend.Difficulty{
	backend.DifficultyEasy,
	backend.DifficultyMedium,
	backend.DifficultyHard,
}

// Form fields, in focus order.
const (
	fieldTopic = iota
	fieldDifficulty
	fieldCount
	fieldStart
	numFields
)

// Options seeds the configuration form.
type Options struct {
	Topic      string
	Difficulty backend.Difficulty
	Count      int
	// AutoStart starts the quiz immediately when the seed is complete.
	AutoStart bool
	// Suggestions are offered as topic completions.
	Suggestions []string
	// NewSession builds the session for a retake from the summary screen.
	NewSession func() *quizsvc.Session
}

// QuizScreen implements screen.Screen for a quiz session.
type QuizScreen struct {
	sess    *quizsvc.Session
	opts    Options
	spinner spinner.Model

	topic      components.TextInput
	count      components.TextInput
	difficulty int
	field      int

	// mc mirrors the question at mcIndex.
	mc      components.MultiChoice
	mcIndex int

	pending     bool
	confirmQuit bool
	err         error

	ctx    context.Context
	cancel context.CancelFunc
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)
var _ screen.BackInterceptor = (*QuizScreen)(nil)

// New creates a QuizScreen driving sess.
func New(sess *quizsvc.Session, opts Options) *QuizScreen {
	ctx, cancel := context.WithCancel(context.Background())

	topic := components.NewTextInput("e.g. Photosynthesis", false, 80)
	topic.Model.ShowSuggestions = true
	topic.Model.SetSuggestions(opts.Suggestions)
	topic.SetValue(opts.Topic)

	count := components.NewTextInput("5", true, 2)
	count.Blur()
	n := opts.Count
	if n == 0 {
		n = 5
	}
	count.SetValue(strconv.Itoa(n))

	s := &QuizScreen{
		sess:    sess,
		opts:    opts,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		topic:   topic,
		count:   count,
		mcIndex: -1,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.spinner.Style = lipgloss.NewStyle().Foreground(theme.Primary)
	s.difficulty = 1
	for i, d := range difficulties {
		if d == opts.Difficulty {
			s.difficulty = i
		}
	}
	return s
}

func (s *QuizScreen) Init() tea.Cmd {
	if s.opts.AutoStart && strings.TrimSpace(s.opts.Topic) != "" {
		return s.start()
	}
	return s.topic.Init()
}

func (s *QuizScreen) Title() string {
	return "Quiz"
}

// Close drops any in-flight response.
func (s *QuizScreen) Close() {
	s.cancel()
	s.sess.Close()
}

// InterceptBack keeps Esc on this screen while a quiz is under way so the
// learner is asked before abandoning it.
func (s *QuizScreen) InterceptBack() bool {
	switch s.sess.Snapshot().Phase {
	case quizsvc.PhaseIdle, quizsvc.PhaseFinished:
		return false
	}
	return true
}

func (s *QuizScreen) KeyHints() []layout.KeyHint {
	if s.confirmQuit {
		return []layout.KeyHint{
			{Key: "Y", Description: "End quiz"},
			{Key: "N", Description: "Keep going"},
		}
	}
	st := s.sess.Snapshot()
	switch st.Phase {
	case quizsvc.PhaseIdle:
		return []layout.KeyHint{
			{Key: "Tab", Description: "Next field"},
			{Key: "←→", Description: "Difficulty"},
			{Key: "Enter", Description: "Start"},
			{Key: "Esc", Description: "Back"},
		}
	case quizsvc.PhaseLoadFailed:
		return []layout.KeyHint{
			{Key: "R", Description: "Retry"},
			{Key: "Esc", Description: "Quit"},
		}
	case quizsvc.PhaseAwaitingAnswer:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Choose"},
			{Key: "Enter", Description: "Submit"},
			{Key: "Esc", Description: "Quit"},
		}
	case quizsvc.PhaseShowingFeedback:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Continue"},
			{Key: "Esc", Description: "Quit"},
		}
	}
	return []layout.KeyHint{{Key: "Esc", Description: "Quit"}}
}

func (s *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case stepDoneMsg:
		return s.handleStepDone(msg)

	case spinner.TickMsg:
		if !s.pending {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case components.ChoiceMsg:
		return s.handleChoice(msg)

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}

	if s.sess.Snapshot().Phase == quizsvc.PhaseIdle {
		return s.updateFormInput(msg)
	}
	return s, nil
}

func (s *QuizScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.confirmQuit = false
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	st := s.sess.Snapshot()
	if key == "esc" && s.InterceptBack() {
		s.confirmQuit = true
		return s, nil
	}

	switch st.Phase {
	case quizsvc.PhaseIdle:
		return s.handleFormKey(msg)

	case quizsvc.PhaseLoadFailed:
		if (key == "r" || key == "R") && !s.pending {
			return s, s.run(s.sess.Retry)
		}

	case quizsvc.PhaseAwaitingAnswer:
		if s.pending {
			return s, nil
		}
		var cmd tea.Cmd
		s.mc, cmd = s.mc.Update(msg)
		return s, cmd

	case quizsvc.PhaseShowingFeedback:
		if key == "enter" || key == "n" || key == " " || key == "space" {
			if s.pending {
				return s, nil
			}
			return s, s.run(s.sess.Next)
		}
	}
	return s, nil
}

func (s *QuizScreen) handleFormKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		if msg.String() == "tab" && s.field == fieldTopic && s.acceptable() {
			return s.updateFormInput(msg)
		}
		return s, s.focus((s.field + 1) % numFields)
	case "shift+tab", "up":
		return s, s.focus((s.field + numFields - 1) % numFields)
	case "left":
		if s.field == fieldDifficulty {
			s.difficulty = (s.difficulty + len(difficulties) - 1) % len(difficulties)
			return s, nil
		}
	case "right":
		if s.field == fieldDifficulty {
			s.difficulty = (s.difficulty + 1) % len(difficulties)
			return s, nil
		}
	case "enter":
		if s.pending {
			return s, nil
		}
		return s, s.start()
	}
	return s.updateFormInput(msg)
}

func (s *QuizScreen) updateFormInput(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	switch s.field {
	case fieldTopic:
		s.topic, cmd = s.topic.Update(msg)
	case fieldCount:
		s.count, cmd = s.count.Update(msg)
	}
	return s, cmd
}

// acceptable reports whether Tab would complete a topic suggestion.
func (s *QuizScreen) acceptable() bool {
	c := s.topic.Model.CurrentSuggestion()
	return c != "" && c != s.topic.Value()
}

func (s *QuizScreen) focus(field int) tea.Cmd {
	s.field = field
	s.topic.Blur()
	s.count.Blur()
	switch field {
	case fieldTopic:
		return s.topic.Focus()
	case fieldCount:
		return s.count.Focus()
	}
	return nil
}

func (s *QuizScreen) start() tea.Cmd {
	topic := s.topic.Value()
	if topic == "" {
		topic = s.opts.Topic
	}
	difficulty := difficulties[s.difficulty]
	n, err := s.count.NumericValue()
	if err != nil {
		n = 0
	}
	return s.run(func(ctx context.Context) error {
		return s.sess.Start(ctx, topic, difficulty, n)
	})
}

func (s *QuizScreen) handleChoice(msg components.ChoiceMsg) (screen.Screen, tea.Cmd) {
	if err := s.sess.Select(msg.OptionID); err != nil {
		s.err = err
		return s, nil
	}
	return s, s.run(s.sess.Submit)
}

// run executes a blocking session call off the update loop.
func (s *QuizScreen) run(call func(ctx context.Context) error) tea.Cmd {
	s.err = nil
	s.pending = true
	ctx := s.ctx
	return tea.Batch(
		func() tea.Msg { return stepDoneMsg{Err: call(ctx)} },
		s.spinner.Tick,
	)
}

func (s *QuizScreen) handleStepDone(msg stepDoneMsg) (screen.Screen, tea.Cmd) {
	s.pending = false
	switch {
	case errors.Is(msg.Err, quizsvc.ErrDiscarded), errors.Is(msg.Err, quizsvc.ErrClosed):
		return s, nil
	case errors.Is(msg.Err, quizsvc.ErrBusy), errors.Is(msg.Err, quizsvc.ErrInvalidPhase):
		s.err = msg.Err
	}

	st := s.sess.Snapshot()
	s.syncChoice(st)

	if st.Phase == quizsvc.PhaseFinished {
		retake := s.retake(st)
		return s, func() tea.Msg {
			return router.ReplaceScreenMsg{Screen: summary.New(st, retake)}
		}
	}
	return s, nil
}

// syncChoice rebuilds the option list when the current question changes
// and reveals the verdict once the answer has been evaluated.
func (s *QuizScreen) syncChoice(st quizsvc.State) {
	q := st.Current()
	if q == nil {
		return
	}
	if st.CurrentIndex != s.mcIndex {
		s.mc = components.NewMultiChoice(q)
		s.mcIndex = st.CurrentIndex
	}
	switch st.Phase {
	case quizsvc.PhaseShowingFeedback:
		correct := st.CorrectAnswer.ID
		if correct == "" {
			correct = q.CorrectAnswerID
		}
		s.mc.Reveal(st.Selected, correct)
	case quizsvc.PhaseAwaitingAnswer:
		// A failed evaluation hands the question back for another try.
		s.mc.Locked = false
	}
}

// retake returns a factory for a fresh quiz with the same configuration,
// or nil when no session factory was provided.
func (s *QuizScreen) retake(st quizsvc.State) func() screen.Screen {
	if s.opts.NewSession == nil {
		return nil
	}
	opts := s.opts
	opts.Topic = st.Topic
	opts.Difficulty = st.Difficulty
	opts.Count = st.NumQuestions
	opts.AutoStart = true
	return func() screen.Screen {
		return New(opts.NewSession(), opts)
	}
}
