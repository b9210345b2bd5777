// Package chat is the tutor conversation screen: a scrolling transcript
// with quiz cards embedded between answers.
package chat

import (
	"context"
	"errors"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/examwhisperer/whisper/internal/backend"
	chatsvc "github.com/examwhisperer/whisper/internal/chat"
	"github.com/examwhisperer/whisper/internal/screen"
	"github.com/examwhisperer/whisper/internal/ui/components"
	"github.com/examwhisperer/whisper/internal/ui/layout"
	"github.com/examwhisperer/whisper/internal/ui/theme"
)

// TopicLister supplies topic suggestions for the input box.
type TopicLister interface {
	List(ctx context.Context) ([]string, error)
}

// ChatScreen implements screen.Screen for the tutor conversation.
type ChatScreen struct {
	ctrl    *chatsvc.Controller
	topics  TopicLister
	input   components.TextInput
	spinner spinner.Model

	// quizID is the message id of the newest quiz card; mc mirrors it.
	quizID    string
	mc        components.MultiChoice
	focusQuiz bool

	// persona indexes chatsvc.PromptTemplates; -1 is the default prompt.
	persona int

	pending int
	err     error
	online  bool
	reason  string
	scroll  int

	ctx    context.Context
	cancel context.CancelFunc
}

var _ screen.Screen = (*ChatScreen)(nil)
var _ screen.KeyHintProvider = (*ChatScreen)(nil)

// New creates a ChatScreen over ctrl. gate seeds the offline banner;
// later changes arrive as screen.BackendStatusMsg.
func New(ctrl *chatsvc.Controller, gate chatsvc.Gate, topics TopicLister) *ChatScreen {
	ctx, cancel := context.WithCancel(context.Background())
	input := components.NewTextInput("Ask a question...", false, 0)
	input.Model.ShowSuggestions = true

	s := &ChatScreen{
		ctrl:    ctrl,
		topics:  topics,
		input:   input,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		online:  true,
		persona: -1,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.spinner.Style = lipgloss.NewStyle().Foreground(theme.Primary)
	if gate != nil {
		s.online = gate.Online()
		s.reason = gate.Reason()
	}
	return s
}

func (s *ChatScreen) Init() tea.Cmd {
	return tea.Batch(s.input.Init(), s.loadTopics())
}

func (s *ChatScreen) Title() string {
	return "Chat"
}

func (s *ChatScreen) KeyHints() []layout.KeyHint {
	if s.focusQuiz {
		q := s.currentQuiz()
		if q != nil && q.Submitted {
			return []layout.KeyHint{
				{Key: "N", Description: "Next question"},
				{Key: "Tab", Description: "Type"},
				{Key: "Esc", Description: "Back"},
			}
		}
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Choose"},
			{Key: "Enter", Description: "Answer"},
			{Key: "Tab", Description: "Type"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Send"},
		{Key: "Ctrl+Q", Description: "Quiz me"},
		{Key: "Ctrl+T", Description: "Set topic"},
		{Key: "Ctrl+P", Description: "Persona"},
		{Key: "PgUp/PgDn", Description: "Scroll"},
		{Key: "Esc", Description: "Back"},
	}
}

// Close drops any in-flight response.
func (s *ChatScreen) Close() {
	s.cancel()
	s.ctrl.Close()
}

func (s *ChatScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.BackendStatusMsg:
		s.online = msg.Online
		s.reason = msg.Reason
		if msg.Online && errors.Is(s.err, chatsvc.ErrOffline) {
			s.err = nil
		}
		return s, nil

	case topicsLoadedMsg:
		s.input.Model.SetSuggestions(msg.Topics)
		return s, nil

	case spinner.TickMsg:
		if s.pending == 0 {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case replyMsg:
		return s.handleReply(msg)

	case components.ChoiceMsg:
		return s.handleChoice(msg)

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}

	if !s.focusQuiz {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *ChatScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "ctrl+q":
		topic := strings.TrimSpace(s.input.Value())
		if topic != "" {
			s.ctrl.SetTopic(topic)
			s.input.Reset()
		} else {
			topic = s.ctrl.Topic()
		}
		return s, s.dispatch(func(ctx context.Context) error {
			return s.ctrl.GenerateQuizTurn(ctx, topic)
		})

	case "ctrl+t":
		s.ctrl.SetTopic(s.input.Value())
		s.input.Reset()
		s.err = nil
		return s, nil

	case "ctrl+p":
		return s, s.cyclePersona()

	case "tab":
		if s.quizID == "" {
			// Completes a topic suggestion.
			var cmd tea.Cmd
			s.input, cmd = s.input.Update(msg)
			return s, cmd
		}
		s.focusQuiz = !s.focusQuiz
		if s.focusQuiz {
			s.input.Blur()
			return s, nil
		}
		return s, s.input.Focus()

	case "pgup":
		s.scroll += 5
		return s, nil

	case "pgdown":
		s.scroll -= 5
		if s.scroll < 0 {
			s.scroll = 0
		}
		return s, nil
	}

	if s.focusQuiz {
		if msg.String() == "n" {
			if q := s.currentQuiz(); q != nil && q.Submitted {
				id := s.quizID
				return s, s.dispatch(func(ctx context.Context) error {
					return s.ctrl.NextQuiz(ctx, id)
				})
			}
		}
		var cmd tea.Cmd
		s.mc, cmd = s.mc.Update(msg)
		return s, cmd
	}

	if msg.String() == "enter" {
		text := s.input.Value()
		if strings.TrimSpace(text) == "" || s.pending > 0 {
			return s, nil
		}
		s.input.Reset()
		s.scroll = 0
		return s, s.send(text)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// send dispatches text and hands it back in the reply so a refused
// message can be restored to the input.
func (s *ChatScreen) send(text string) tea.Cmd {
	s.err = nil
	s.pending++
	ctx := s.ctx
	run := func() tea.Msg {
		return replyMsg{Err: s.ctrl.SendMessage(ctx, text), Draft: text}
	}
	return tea.Batch(run, s.spinner.Tick)
}

// dispatch runs a blocking controller call off the update loop.
func (s *ChatScreen) dispatch(call func(ctx context.Context) error) tea.Cmd {
	s.err = nil
	s.pending++
	ctx := s.ctx
	run := func() tea.Msg {
		return replyMsg{Err: call(ctx)}
	}
	if s.pending == 1 {
		return tea.Batch(run, s.spinner.Tick)
	}
	return run
}

func (s *ChatScreen) handleReply(msg replyMsg) (screen.Screen, tea.Cmd) {
	if s.pending > 0 {
		s.pending--
	}
	if errors.Is(msg.Err, chatsvc.ErrDiscarded) {
		return s, nil
	}
	if inline(msg.Err) {
		s.err = msg.Err
		if msg.Draft != "" && refused(msg.Err) && s.input.Value() == "" {
			s.input.SetValue(msg.Draft)
		}
	}
	s.scroll = 0
	s.syncQuiz()
	if s.focusQuiz {
		return s, nil
	}
	return s, s.input.Focus()
}

func (s *ChatScreen) handleChoice(msg components.ChoiceMsg) (screen.Screen, tea.Cmd) {
	if err := s.ctrl.AnswerQuiz(s.quizID, msg.OptionID); err != nil {
		s.err = err
		return s, nil
	}
	s.syncQuiz()
	return s, nil
}

// syncQuiz points the quiz card at the newest quiz message and mirrors its
// submitted state.
func (s *ChatScreen) syncQuiz() {
	msgs := s.ctrl.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.Type != chatsvc.TypeQuiz || m.Quiz == nil {
			continue
		}
		if m.ID != s.quizID {
			s.quizID = m.ID
			s.mc = components.NewMultiChoice(&backend.Question{
				Question: m.Quiz.Question,
				Options:  m.Quiz.Options,
			})
			s.focusQuiz = true
			s.input.Blur()
		}
		if m.Quiz.Submitted {
			s.mc.Reveal(m.Quiz.UserAnswerID, m.Quiz.CorrectAnswerID)
		}
		return
	}
}

func (s *ChatScreen) currentQuiz() *chatsvc.QuizQuestion {
	for _, m := range s.ctrl.Messages() {
		if m.ID == s.quizID {
			return m.Quiz
		}
	}
	return nil
}

func (s *ChatScreen) loadTopics() tea.Cmd {
	if s.topics == nil {
		return nil
	}
	ctx := s.ctx
	return func() tea.Msg {
		topics, _ := s.topics.List(ctx)
		return topicsLoadedMsg{Topics: topics}
	}
}

// inline reports whether err is a validation failure the transcript does
// not already show.
// refused reports whether the controller turned a message away before it
// reached the transcript.
func refused(err error) bool {
	return errors.Is(err, chatsvc.ErrBusy) ||
		errors.Is(err, chatsvc.ErrOffline) ||
		errors.Is(err, chatsvc.ErrMissingAPIKey)
}

func inline(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range []error{
		chatsvc.ErrEmptyMessage,
		chatsvc.ErrEmptyTopic,
		chatsvc.ErrMissingAPIKey,
		chatsvc.ErrOffline,
		chatsvc.ErrBusy,
		chatsvc.ErrNotSubmitted,
		chatsvc.ErrClosed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// cyclePersona moves to the next prompt template, wrapping back to the
// default tutor prompt after the last one.
func (s *ChatScreen) cyclePersona() tea.Cmd {
	templates := chatsvc.PromptTemplates()
	s.persona++
	if s.persona >= len(templates) {
		s.persona = -1
	}

	params := s.ctrl.Context()
	params.SystemPrompt = ""
	if s.persona >= 0 {
		params.SystemPrompt = templates[s.persona].Prompt
	}
	if err := s.ctrl.SetContext(params); err != nil {
		s.err = err
	}
	return nil
}

// personaName is the label shown next to the topic.
func (s *ChatScreen) personaName() string {
	if s.persona < 0 {
		return "Tutor"
	}
	return chatsvc.PromptTemplates()[s.persona].Name
}
