// Package quiz drives a fixed-length sequence of question, answer and
// feedback cycles for one topic, difficulty and question count.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/examwhisperer/whisper/internal/backend"
	"github.com/examwhisperer/whisper/internal/logger"
	"github.com/examwhisperer/whisper/internal/store"
)

var (
	ErrEmptyTopic        = errors.New("please enter a topic")
	ErrInvalidDifficulty = errors.New("difficulty must be easy, medium or hard")
	ErrInvalidCount      = fmt.Errorf("number of questions must be between %d and %d", MinQuestions, MaxQuestions)
	ErrNoSelection       = errors.New("please select an answer")
	ErrUnknownOption     = errors.New("no such option")
	ErrBusy              = errors.New("a request is already in progress")
	ErrInvalidPhase      = errors.New("action not allowed in the current phase")
	ErrClosed            = errors.New("quiz session closed")
	// ErrDiscarded is returned when a response arrives after Restart or
	// Close and is dropped.
	ErrDiscarded = errors.New("response discarded")
)

// ConfigSource supplies the LLM selection for each request.
type ConfigSource interface {
	Config() backend.LLMConfig
}

// ResultRecorder persists finished sessions.
type ResultRecorder interface {
	AppendQuizResult(ctx context.Context, data store.QuizResultData) error
}

// Options configures a Session.
type Options struct {
	Username string
	Settings ConfigSource
	// Recorder, when set, stores each finished session.
	Recorder ResultRecorder
	// OnComplete, when set, receives each finished session's result.
	OnComplete func(Result)
	Logger     *logger.Logger
}

// Session is the quiz state machine. Methods block for the duration of the
// backend call they make; the session stays observable through Snapshot
// from other goroutines meanwhile.
type Session struct {
	client     backend.Client
	username   string
	settings   ConfigSource
	recorder   ResultRecorder
	onComplete func(Result)
	log        *logger.Logger

	mu        sync.Mutex
	state     State
	evaluated map[int]bool
	// epoch invalidates in-flight responses on Restart and Close.
	epoch  uint64
	closed bool
}

// New creates an idle session.
func New(client backend.Client, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Session{
		client:     client,
		username:   opts.Username,
		settings:   opts.Settings,
		recorder:   opts.Recorder,
		onComplete: opts.OnComplete,
		log:        log,
		evaluated:  make(map[int]bool),
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Session) llmConfig() backend.LLMConfig {
	if s.settings == nil {
		return backend.LLMConfig{}
	}
	return s.settings.Config()
}

// Start validates the configuration and fetches the first question.
// Validation failures leave the session Idle without any request. A fetch
// failure returns the session to Idle with Feedback describing the error.
func (s *Session) Start(ctx context.Context, topic string, difficulty backend.Difficulty, count int) error {
	topic = strings.TrimSpace(topic)

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrClosed
	case s.state.Phase != PhaseIdle:
		s.mu.Unlock()
		return ErrInvalidPhase
	case topic == "":
		s.state.Feedback = ErrEmptyTopic.Error()
		s.mu.Unlock()
		return ErrEmptyTopic
	case !difficulty.Valid():
		s.state.Feedback = ErrInvalidDifficulty.Error()
		s.mu.Unlock()
		return ErrInvalidDifficulty
	case count < MinQuestions || count > MaxQuestions:
		s.state.Feedback = ErrInvalidCount.Error()
		s.mu.Unlock()
		return ErrInvalidCount
	}

	s.epoch++
	s.evaluated = make(map[int]bool)
	s.state = State{
		SessionID:    uuid.NewString(),
		Topic:        topic,
		Difficulty:   difficulty,
		NumQuestions: count,
		Questions:    make([]*backend.Question, count),
		Phase:        PhaseLoading,
	}
	s.mu.Unlock()

	s.log.Debug("quiz started", "topic", topic, "difficulty", difficulty, "count", count)
	return s.fetch(ctx, func(st *State, err error) {
		st.Phase = PhaseIdle
		st.Feedback = fmt.Sprintf("Failed to start quiz: %v", err)
	})
}

// fetch loads the question at the current index. onErr adjusts state when
// the request fails.
func (s *Session) fetch(ctx context.Context, onErr func(*State, error)) error {
	s.mu.Lock()
	epoch := s.epoch
	req := backend.QuestionRequest{
		Topic:         s.state.Topic,
		Difficulty:    s.state.Difficulty,
		NumQuestions:  s.state.NumQuestions,
		QuestionIndex: s.state.CurrentIndex,
		Username:      s.username,
		LLM:           s.llmConfig(),
	}
	s.mu.Unlock()

	q, err := s.client.GenerateQuestion(backend.WithPurpose(ctx, "quiz"), req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return ErrDiscarded
	}
	if err != nil {
		onErr(&s.state, err)
		return err
	}
	s.state.Questions[s.state.CurrentIndex] = q
	s.state.Phase = PhaseAwaitingAnswer
	return nil
}

// Select records the chosen option for the current question.
func (s *Session) Select(optionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != PhaseAwaitingAnswer {
		return ErrInvalidPhase
	}
	q := s.state.Current()
	if q == nil || !q.HasOption(optionID) {
		return ErrUnknownOption
	}
	s.state.Selected = optionID
	return nil
}

// Submit evaluates the selected answer. Once an index has been evaluated,
// further submissions for it are ignored.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	idx := s.state.CurrentIndex
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrClosed
	case s.evaluated[idx]:
		s.mu.Unlock()
		return nil
	case s.state.Phase == PhaseEvaluating:
		s.mu.Unlock()
		return ErrBusy
	case s.state.Phase != PhaseAwaitingAnswer:
		s.mu.Unlock()
		return ErrInvalidPhase
	case s.state.Selected == "":
		s.state.Feedback = ErrNoSelection.Error()
		s.mu.Unlock()
		return ErrNoSelection
	}

	epoch := s.epoch
	selected := s.state.Selected
	llm := s.llmConfig()
	req := backend.EvaluateRequest{
		Username:      s.username,
		Topic:         s.state.Topic,
		QuestionIndex: idx,
		UserAnswer:    selected,
		NumQuestions:  s.state.NumQuestions,
		Difficulty:    s.state.Difficulty,
		Question:      *s.state.Current(),
		LLM:           &llm,
	}
	s.state.Phase = PhaseEvaluating
	s.state.Feedback = ""
	s.mu.Unlock()

	ev, err := s.client.EvaluateAnswer(backend.WithPurpose(ctx, "quiz"), req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return ErrDiscarded
	}
	if err != nil {
		s.state.Phase = PhaseAwaitingAnswer
		s.state.Feedback = fmt.Sprintf("Failed to evaluate answer: %v", err)
		return err
	}

	s.evaluated[idx] = true
	s.state.Phase = PhaseShowingFeedback
	s.state.LastCorrect = ev.Correct
	s.state.CorrectAnswer = ev.CorrectAnswer
	s.state.Feedback = ev.Feedback
	if s.state.Feedback == "" {
		s.state.Feedback = defaultFeedback(ev.Correct)
	}
	s.state.Total++
	if ev.Correct {
		s.state.Correct++
	}
	s.state.Answers = append(s.state.Answers, Answer{Index: idx, OptionID: selected, Correct: ev.Correct})
	return nil
}

func defaultFeedback(correct bool) string {
	if correct {
		return "Correct!"
	}
	return "Incorrect."
}

// Next advances past the feedback. After the last question the session
// finishes and the result is recorded and reported.
func (s *Session) Next(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrClosed
	case s.state.Phase != PhaseShowingFeedback:
		s.mu.Unlock()
		return ErrInvalidPhase
	}

	if s.state.CurrentIndex+1 >= s.state.NumQuestions {
		s.state.Phase = PhaseFinished
		result := Result{
			SessionID:  s.state.SessionID,
			Topic:      s.state.Topic,
			Difficulty: s.state.Difficulty,
			Correct:    s.state.Correct,
			Total:      s.state.Total,
		}
		s.mu.Unlock()
		s.finish(ctx, result)
		return nil
	}

	s.state.CurrentIndex++
	s.state.Selected = ""
	s.state.Feedback = ""
	s.state.LastCorrect = false
	s.state.CorrectAnswer = backend.AnswerRef{}
	if s.state.Current() != nil {
		s.state.Phase = PhaseAwaitingAnswer
		s.mu.Unlock()
		return nil
	}
	s.state.Phase = PhaseLoading
	s.mu.Unlock()

	// A failed fetch parks the session on this slot with the error shown;
	// Retry fetches it again.
	return s.fetch(ctx, loadFailed)
}

// Retry re-fetches the current question after a failed load.
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state.Phase != PhaseLoadFailed {
		s.mu.Unlock()
		return ErrInvalidPhase
	}
	s.state.Feedback = ""
	s.state.Phase = PhaseLoading
	s.mu.Unlock()

	return s.fetch(ctx, loadFailed)
}

func loadFailed(st *State, err error) {
	st.Phase = PhaseLoadFailed
	st.Feedback = fmt.Sprintf("Failed to load question: %v", err)
}

func (s *Session) finish(ctx context.Context, r Result) {
	s.log.Info("quiz finished", "topic", r.Topic, "correct", r.Correct, "total", r.Total)
	if s.recorder != nil {
		err := s.recorder.AppendQuizResult(context.WithoutCancel(ctx), store.QuizResultData{
			SessionID:  r.SessionID,
			Topic:      r.Topic,
			Difficulty: string(r.Difficulty),
			Correct:    r.Correct,
			Total:      r.Total,
		})
		if err != nil {
			s.log.Warn("failed to record quiz result", "error", err)
		}
	}
	if s.onComplete != nil {
		s.onComplete(r)
	}
}

// Restart discards the session and returns to Idle. Responses still in
// flight are ignored.
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.evaluated = make(map[int]bool)
	s.state = State{}
}

// Close ends the session for good. Responses still in flight are ignored
// and every later call returns ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.closed = true
}
