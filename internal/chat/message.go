package chat

import (
	"errors"
	"time"

	"github.com/examwhisperer/whisper/internal/backend"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageType selects the message variant.
type MessageType string

const (
	TypeText MessageType = "text"
	TypeQuiz MessageType = "quiz"
)

// ErrUnknownOption is returned when an answer names no option.
var ErrUnknownOption = errors.New("no such option")

// Message is one transcript entry. Only the embedded quiz may change after
// the message is appended.
type Message struct {
	ID        string
	Role      Role
	Timestamp time.Time
	Type      MessageType
	Content   string
	Quiz      *QuizQuestion
	// Failed marks assistant text synthesized from an error.
	Failed bool
}

// QuizQuestion is a question embedded in the chat. Submitted is a one-way
// latch: once set, the answer is fixed and the verdict is revealed.
type QuizQuestion struct {
	Topic           string
	Question        string
	Options         []backend.Option
	CorrectAnswerID string
	UserAnswerID    string
	Feedback        string
	Submitted       bool
}

func newQuizQuestion(topic string, q *backend.Question) *QuizQuestion {
	return &QuizQuestion{
		Topic:           topic,
		Question:        q.Question,
		Options:         append([]backend.Option(nil), q.Options...),
		CorrectAnswerID: q.CorrectAnswerID,
		Feedback:        q.Feedback,
	}
}

// Answer records id as the answer and latches the question. It reports
// whether the answer was applied; an already submitted question is left
// untouched.
func (q *QuizQuestion) Answer(id string) (bool, error) {
	if q.Submitted {
		return false, nil
	}
	if !q.hasOption(id) {
		return false, ErrUnknownOption
	}
	q.UserAnswerID = id
	q.Submitted = true
	return true, nil
}

// Correct reports whether the submitted answer is the correct one.
func (q *QuizQuestion) Correct() bool {
	return q.Submitted && q.UserAnswerID == q.CorrectAnswerID
}

// OptionText returns the text of option id, or "".
func (q *QuizQuestion) OptionText(id string) string {
	for _, o := range q.Options {
		if o.ID == id {
			return o.Text
		}
	}
	return ""
}

func (q *QuizQuestion) hasOption(id string) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

func (m Message) clone() Message {
	if m.Quiz != nil {
		q := *m.Quiz
		q.Options = append([]backend.Option(nil), m.Quiz.Options...)
		m.Quiz = &q
	}
	return m
}
