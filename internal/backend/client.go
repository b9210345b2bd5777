// Package backend is the client for the Exam Whisperer HTTP API. All
// substantive work (LLM calls, quiz generation and evaluation, syllabus
// parsing, speech synthesis, topic persistence) happens on the backend;
// this package shapes requests, validates responses and classifies errors.
package backend

import (
	"context"
	"io"
)

// Client is the core abstraction over the backend API.
type Client interface {
	// Ask submits a free-form question and returns the tutor's answer.
	Ask(ctx context.Context, req AskRequest) (*AskResponse, error)

	// GenerateQuestion fetches one multiple-choice question.
	GenerateQuestion(ctx context.Context, req QuestionRequest) (*Question, error)

	// EvaluateAnswer scores the learner's answer to a question.
	EvaluateAnswer(ctx context.Context, req EvaluateRequest) (*Evaluation, error)

	// ListTopics returns the user's topic list.
	ListTopics(ctx context.Context, username string) ([]string, error)

	// AddTopic appends a topic to the user's topic list.
	AddTopic(ctx context.Context, username, topic string) error

	// UploadSyllabus posts a PDF and returns the topics the backend found.
	UploadSyllabus(ctx context.Context, req SyllabusUpload) (*SyllabusResult, error)

	// TextToSpeech synthesizes text and returns base64-encoded audio.
	TextToSpeech(ctx context.Context, text string) (*SpeechResponse, error)

	// Health probes the backend. A nil error means reachable and compatible.
	Health(ctx context.Context) (*Health, error)
}

// LLMConfig is the user's model-provider selection, passed through to the
// backend with every request that needs an LLM.
type LLMConfig struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
	Model    string `json:"model"`
}

// AskRequest is the body of POST /explain.
type AskRequest struct {
	Question     string    `json:"question"`
	Username     string    `json:"username"`
	Topic        string    `json:"topic,omitempty"`
	SystemPrompt string    `json:"system_prompt"`
	Temperature  float64   `json:"temperature"`
	MaxTokens    int       `json:"max_tokens"`
	LLM          LLMConfig `json:"llm_config"`
}

// AskResponse is the tutor's reply.
type AskResponse struct {
	Content       string   `json:"content"`
	Topic         string   `json:"topic,omitempty"`
	RelatedTopics []string `json:"related_topics,omitempty"`
}

// Difficulty is a question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// QuestionRequest is the body of POST /quiz/question.
type QuestionRequest struct {
	Topic         string     `json:"topic"`
	Difficulty    Difficulty `json:"difficulty"`
	NumQuestions  int        `json:"num_questions"`
	QuestionIndex int        `json:"question_index"`
	Username      string     `json:"username"`
	LLM           LLMConfig  `json:"llm_config"`
}

// Option is one answer choice.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is a multiple-choice question as produced by the backend.
type Question struct {
	Question        string   `json:"question"`
	Options         []Option `json:"options"`
	CorrectAnswerID string   `json:"correctAnswerId"`
	Feedback        string   `json:"feedback"`
}

// HasOption reports whether id names one of q's options.
func (q *Question) HasOption(id string) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

// OptionText returns the text of option id, or "" if absent.
func (q *Question) OptionText(id string) string {
	for _, o := range q.Options {
		if o.ID == id {
			return o.Text
		}
	}
	return ""
}

// EvaluateRequest is the body of POST /quiz/evaluate.
type EvaluateRequest struct {
	Username      string     `json:"username"`
	Topic         string     `json:"topic"`
	QuestionIndex int        `json:"question_index"`
	UserAnswer    string     `json:"user_answer"`
	NumQuestions  int        `json:"num_questions"`
	Difficulty    Difficulty `json:"difficulty"`
	Question      Question   `json:"question"`
	LLM           *LLMConfig `json:"llm_config,omitempty"`
}

// Evaluation is the backend's verdict on one answer.
type Evaluation struct {
	Correct       bool      `json:"correct"`
	Feedback      string    `json:"feedback"`
	CorrectAnswer AnswerRef `json:"correct_answer"`
	UserAnswer    AnswerRef `json:"user_answer"`
}

// SyllabusUpload describes a syllabus PDF to post.
type SyllabusUpload struct {
	Filename string
	PDF      io.Reader
	Username string
	LLM      LLMConfig
}

// SyllabusResult lists the topics detected in an uploaded syllabus.
type SyllabusResult struct {
	Topics []string
}

// SpeechResponse carries base64-encoded audio.
type SpeechResponse struct {
	Audio string `json:"audio"`
}

// Health is the result of a liveness probe.
type Health struct {
	OK      bool
	Version string
}
