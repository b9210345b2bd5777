package quiz

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/examwhisperer/whisper/internal/backend"
	quizsvc "github.com/examwhisperer/whisper/internal/quiz"
	"github.com/examwhisperer/whisper/internal/router"
	"github.com/examwhisperer/whisper/internal/ui/components"
)

func testQuestion() *backend.Question {
	return &backend.Question{
		Question:        "What is 2+2?",
		Options:         []backend.Option{{ID: "a", Text: "3"}, {ID: "b", Text: "4"}},
		CorrectAnswerID: "b",
	}
}

// step runs a command produced by QuizScreen.run and feeds the result back.
func step(t *testing.T, s *QuizScreen, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatalf("expected a batch command")
	}
	for _, c := range batch {
		if c == nil {
			continue
		}
		if done, ok := c().(stepDoneMsg); ok {
			_, next := s.Update(done)
			return next
		}
	}
	t.Fatal("no stepDoneMsg in batch")
	return nil
}

func newScreen(client backend.Client, opts Options) *QuizScreen {
	return New(quizsvc.New(client, quizsvc.Options{Username: "ana"}), opts)
}

func TestQuizScreen_FullRun(t *testing.T) {
	client := backend.NewMockClient()
	client.Questions = []backend.MockResult[*backend.Question]{{Value: testQuestion()}}
	client.Evaluations = []backend.MockResult[*backend.Evaluation]{{Value: &backend.Evaluation{
		Correct:       true,
		Feedback:      "Well done.",
		CorrectAnswer: backend.AnswerRef{ID: "b", Text: "4"},
	}}}

	s := newScreen(client, Options{Topic: "Arithmetic", Count: 1})
	step(t, s, s.start())

	if got := s.sess.Snapshot().Phase; got != quizsvc.PhaseAwaitingAnswer {
		t.Fatalf("phase = %v, want awaiting_answer", got)
	}
	if !strings.Contains(s.View(100, 30), "What is 2+2?") {
		t.Error("expected question in view")
	}

	_, cmd := s.Update(components.ChoiceMsg{OptionID: "b"})
	step(t, s, cmd)

	st := s.sess.Snapshot()
	if st.Phase != quizsvc.PhaseShowingFeedback || st.Correct != 1 {
		t.Fatalf("phase = %v correct = %d, want showing_feedback/1", st.Phase, st.Correct)
	}
	if !strings.Contains(s.View(100, 30), "Well done.") {
		t.Error("expected feedback in view")
	}

	_, cmd = s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	next := step(t, s, cmd)
	if next == nil {
		t.Fatal("expected navigation to summary")
	}
	if _, ok := next().(router.ReplaceScreenMsg); !ok {
		t.Error("expected ReplaceScreenMsg to the summary")
	}
}

func TestQuizScreen_EmptyTopicStaysIdle(t *testing.T) {
	client := backend.NewMockClient()
	s := newScreen(client, Options{})
	step(t, s, s.start())

	st := s.sess.Snapshot()
	if st.Phase != quizsvc.PhaseIdle {
		t.Errorf("phase = %v, want idle", st.Phase)
	}
	if client.CallCount("") != 0 {
		t.Error("expected no backend call")
	}
	if !strings.Contains(s.View(100, 30), quizsvc.ErrEmptyTopic.Error()) {
		t.Error("expected validation message in form")
	}
}

func TestQuizScreen_EscConfirmsDuringQuiz(t *testing.T) {
	client := backend.NewMockClient()
	client.Questions = []backend.MockResult[*backend.Question]{{Value: testQuestion()}}
	s := newScreen(client, Options{Topic: "Arithmetic", Count: 3})

	if s.InterceptBack() {
		t.Error("expected Esc to pass through on the form")
	}
	step(t, s, s.start())
	if !s.InterceptBack() {
		t.Fatal("expected Esc to be intercepted mid-quiz")
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if !s.confirmQuit {
		t.Fatal("expected quit confirmation")
	}
	_, cmd := s.Update(tea.KeyPressMsg{Code: 'y', Text: "y"})
	if cmd == nil {
		t.Fatal("expected pop command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}

func TestQuizScreen_CloseDiscardsResponse(t *testing.T) {
	client := backend.NewMockClient()
	client.Questions = []backend.MockResult[*backend.Question]{{Value: testQuestion()}}
	s := newScreen(client, Options{Topic: "Arithmetic", Count: 1})

	cmd := s.start()
	s.Close()
	step(t, s, cmd)

	if s.err != nil {
		t.Errorf("err = %v, want nil for a closed session", s.err)
	}
}

func TestQuizScreen_RetryAfterLoadFailure(t *testing.T) {
	client := backend.NewMockClient()
	client.Questions = []backend.MockResult[*backend.Question]{
		{Value: testQuestion()},
		{Err: &backend.ErrStatus{StatusCode: 500, Message: "boom"}},
		{Value: testQuestion()},
	}
	client.Evaluations = []backend.MockResult[*backend.Evaluation]{{Value: &backend.Evaluation{Correct: false}}}

	s := newScreen(client, Options{Topic: "Arithmetic", Count: 2})
	step(t, s, s.start())
	_, cmd := s.Update(components.ChoiceMsg{OptionID: "a"})
	step(t, s, cmd)
	_, cmd = s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	step(t, s, cmd)

	st := s.sess.Snapshot()
	if st.Phase != quizsvc.PhaseLoadFailed || st.Feedback == "" {
		t.Fatalf("phase = %v feedback = %q, want load_failed with error", st.Phase, st.Feedback)
	}

	_, cmd = s.Update(tea.KeyPressMsg{Code: 'r', Text: "r"})
	step(t, s, cmd)
	if got := s.sess.Snapshot(); got.Phase != quizsvc.PhaseAwaitingAnswer || got.CurrentIndex != 1 {
		t.Errorf("phase = %v index = %d, want awaiting_answer/1", got.Phase, got.CurrentIndex)
	}
}

func TestQuizScreen_AutoStart(t *testing.T) {
	client := backend.NewMockClient()
	client.Questions = []backend.MockResult[*backend.Question]{{Value: testQuestion()}}
	s := newScreen(client, Options{Topic: "Arithmetic", Count: 1, AutoStart: true})

	step(t, s, s.Init())
	if got := s.sess.Snapshot().Phase; got != quizsvc.PhaseAwaitingAnswer {
		t.Errorf("phase = %v, want awaiting_answer", got)
	}
}
