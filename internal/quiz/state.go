package quiz

import (
	"github.com/examwhisperer/whisper/internal/backend"
)

// Phase is the quiz session phase.
type Phase int

const (
	PhaseIdle            Phase = iota // Not started, or restarted
	PhaseLoading                      // Fetching the current question
	PhaseAwaitingAnswer               // Question shown, waiting for Submit
	PhaseEvaluating                   // Evaluation request in flight
	PhaseShowingFeedback              // Verdict shown, waiting for Next
	PhaseFinished                     // All questions answered
	PhaseLoadFailed                   // Fetch after Next failed, Retry allowed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseAwaitingAnswer:
		return "awaiting_answer"
	case PhaseEvaluating:
		return "evaluating"
	case PhaseShowingFeedback:
		return "showing_feedback"
	case PhaseFinished:
		return "finished"
	case PhaseLoadFailed:
		return "load_failed"
	}
	return "unknown"
}

// Bounds on the number of questions in one session.
const (
	MinQuestions = 1
	MaxQuestions = 20
)

// Answer is one evaluated answer.
type Answer struct {
	Index    int
	OptionID string
	Correct  bool
}

// Result is emitted once when a session finishes.
type Result struct {
	SessionID  string
	Topic      string
	Difficulty backend.Difficulty
	Correct    int
	Total      int
}

// State is the observable state of a session.
type State struct {
	SessionID    string
	Topic        string
	Difficulty   backend.Difficulty
	NumQuestions int
	CurrentIndex int

	// Questions is indexed by position. Unfetched slots are nil.
	Questions []*backend.Question

	// Selected is the option chosen for the current question.
	Selected string

	// Feedback is the verdict text, or an error message after a failure.
	Feedback string

	// LastCorrect and CorrectAnswer describe the latest evaluation.
	LastCorrect   bool
	CorrectAnswer backend.AnswerRef

	Answers []Answer
	Correct int
	Total   int
	Phase   Phase
}

// Current returns the question at CurrentIndex, or nil.
func (s State) Current() *backend.Question {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return nil
	}
	return s.Questions[s.CurrentIndex]
}

// Finished reports whether every question has been evaluated. It turns
// true with the last evaluation, before Next moves to PhaseFinished.
func (s State) Finished() bool {
	return s.NumQuestions > 0 && s.Total == s.NumQuestions
}

// Accuracy returns Correct/Total, or 0 before any answer.
func (s State) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}

func (s *State) clone() State {
	c := *s
	c.Questions = append([]*backend.Question(nil), s.Questions...)
	c.Answers = append([]Answer(nil), s.Answers...)
	return c
}
