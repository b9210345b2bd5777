// Package chat maintains the tutor conversation: an append-only transcript
// fed by free-form questions and by quiz questions embedded as messages.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/examwhisperer/whisper/internal/backend"
	"github.com/examwhisperer/whisper/internal/liveness"
	"github.com/examwhisperer/whisper/internal/logger"
	"github.com/examwhisperer/whisper/internal/settings"
)

// DefaultSystemPrompt is the tutor persona used unless overridden.
const DefaultSystemPrompt = "You are Exam Whisperer, a helpful AI tutor. Provide clear, student-friendly explanations, and offer to generate quizzes where appropriate. Keep responses concise."

// Defaults for the generation parameters.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
)

var (
	ErrEmptyMessage  = errors.New("message is empty")
	ErrEmptyTopic    = errors.New("please select or enter a topic before taking a quiz")
	ErrMissingAPIKey = settings.ErrMissingAPIKey
	ErrOffline       = errors.New(liveness.OfflineMessage)
	ErrBusy          = errors.New("still waiting for the previous response")
	ErrUnknownMsg    = errors.New("no such message")
	ErrNotQuiz       = errors.New("message is not a quiz")
	ErrNotSubmitted  = errors.New("answer the current question first")
	ErrClosed        = errors.New("chat closed")
	// ErrDiscarded is returned when a response arrives after Close and is
	// dropped.
	ErrDiscarded = errors.New("response discarded")
)

// Settings supplies the LLM selection and reports whether it is usable.
type Settings interface {
	Config() backend.LLMConfig
	Validate() error
}

// Gate reports backend reachability.
type Gate interface {
	Online() bool
	Reason() string
}

// Context holds the generation parameters sent with every question.
type Context struct {
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// Validate checks the parameter ranges.
func (c Context) Validate() error {
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("temperature must be between 0 and 1, got %.2f", c.Temperature)
	}
	if c.MaxTokens < 100 || c.MaxTokens > 2000 {
		return fmt.Errorf("max tokens must be between 100 and 2000, got %d", c.MaxTokens)
	}
	return nil
}

// DefaultContext returns the default tutor parameters.
func DefaultContext() Context {
	return Context{
		SystemPrompt: DefaultSystemPrompt,
		Temperature:  DefaultTemperature,
		MaxTokens:    DefaultMaxTokens,
	}
}

// Options configures a Controller.
type Options struct {
	Username string
	Topic    string
	Settings Settings
	// Gate, when nil, treats the backend as always reachable.
	Gate   Gate
	Logger *logger.Logger
	Now    func() time.Time
}

// Controller owns the transcript. At most one request is in flight at a
// time; operations block for the duration of their backend call.
type Controller struct {
	client   backend.Client
	settings Settings
	gate     Gate
	username string
	log      *logger.Logger

	mu         sync.Mutex
	transcript *Transcript
	topic      string
	params     Context
	inFlight   bool
	epoch      uint64
	closed     bool
}

// New creates a controller whose transcript holds one welcome message.
func New(client backend.Client, opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{
		client:     client,
		settings:   opts.Settings,
		gate:       opts.Gate,
		username:   opts.Username,
		log:        log,
		transcript: NewTranscript(opts.Now),
		topic:      strings.TrimSpace(opts.Topic),
		params:     DefaultContext(),
	}
}

// Messages returns a copy of the transcript.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Messages()
}

// Busy reports whether a request is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Topic returns the current topic.
func (c *Controller) Topic() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.topic
}

// SetTopic changes the current topic.
func (c *Controller) SetTopic(topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topic = strings.TrimSpace(topic)
}

// Context returns the generation parameters.
func (c *Controller) Context() Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// SetContext replaces the generation parameters. An empty system prompt
// restores the default.
func (c *Controller) SetContext(p Context) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(p.SystemPrompt) == "" {
		p.SystemPrompt = DefaultSystemPrompt
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = p
	return nil
}

// begin runs the pre-request gates and marks a request in flight. It must
// be called with c.mu held.
func (c *Controller) begin() (uint64, error) {
	if c.closed {
		return 0, ErrClosed
	}
	if c.settings != nil {
		if err := c.settings.Validate(); err != nil {
			return 0, err
		}
	}
	if c.gate != nil && !c.gate.Online() {
		if r := c.gate.Reason(); r != "" && r != ErrOffline.Error() {
			return 0, fmt.Errorf("%w (%s)", ErrOffline, r)
		}
		return 0, ErrOffline
	}
	if c.inFlight {
		return 0, ErrBusy
	}
	c.inFlight = true
	return c.epoch, nil
}

// end clears the in-flight flag and reports whether the response still
// belongs to this session. It must be called with c.mu held.
func (c *Controller) end(epoch uint64) bool {
	if c.epoch != epoch {
		return false
	}
	c.inFlight = false
	return true
}

func (c *Controller) llmConfig() backend.LLMConfig {
	if c.settings == nil {
		return backend.LLMConfig{}
	}
	return c.settings.Config()
}

// SendMessage appends the user's message and then exactly one assistant
// reply: the answer, or an error text when the request fails. Validation
// failures append nothing and make no request.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	epoch, err := c.begin()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.transcript.Append(Message{Role: RoleUser, Type: TypeText, Content: text})
	req := backend.AskRequest{
		Question:     text,
		Username:     c.username,
		Topic:        c.topic,
		SystemPrompt: c.params.SystemPrompt,
		Temperature:  c.params.Temperature,
		MaxTokens:    c.params.MaxTokens,
		LLM:          c.llmConfig(),
	}
	c.mu.Unlock()

	resp, askErr := c.client.Ask(backend.WithPurpose(ctx, "chat"), req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.end(epoch) {
		return ErrDiscarded
	}
	if askErr != nil {
		c.log.Warn("chat request failed", "error", askErr)
		c.transcript.Append(Message{
			Role:    RoleAssistant,
			Type:    TypeText,
			Content: fmt.Sprintf("Sorry, I couldn't get a response. Error: %s. Please check your API key and settings.", askErr),
			Failed:  true,
		})
		return askErr
	}
	c.transcript.Append(Message{Role: RoleAssistant, Type: TypeText, Content: resp.Content})
	return nil
}

// GenerateQuizTurn appends an assistant quiz message for topic, or an
// error text when the request fails.
func (c *Controller) GenerateQuizTurn(ctx context.Context, topic string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return ErrEmptyTopic
	}

	c.mu.Lock()
	epoch, err := c.begin()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	req := backend.QuestionRequest{
		Topic:         topic,
		Difficulty:    backend.DifficultyMedium,
		NumQuestions:  1,
		QuestionIndex: c.quizCount(),
		Username:      c.username,
		LLM:           c.llmConfig(),
	}
	c.mu.Unlock()

	q, qErr := c.client.GenerateQuestion(backend.WithPurpose(ctx, "chat_quiz"), req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.end(epoch) {
		return ErrDiscarded
	}
	if qErr != nil {
		c.log.Warn("chat quiz request failed", "topic", topic, "error", qErr)
		c.transcript.Append(Message{
			Role:    RoleAssistant,
			Type:    TypeText,
			Content: fmt.Sprintf("Sorry, I couldn't generate a quiz. Error: %s. Please try again.", qErr),
			Failed:  true,
		})
		return qErr
	}
	c.transcript.Append(Message{
		Role: RoleAssistant,
		Type: TypeQuiz,
		Quiz: newQuizQuestion(topic, q),
	})
	return nil
}

func (c *Controller) quizCount() int {
	n := 0
	for _, m := range c.transcript.messages {
		if m.Type == TypeQuiz {
			n++
		}
	}
	return n
}

// AnswerQuiz answers the quiz embedded in message id. Answering an already
// submitted quiz is a no-op.
func (c *Controller) AnswerQuiz(messageID, optionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.transcript.Find(messageID)
	if m == nil {
		return ErrUnknownMsg
	}
	if m.Type != TypeQuiz || m.Quiz == nil {
		return ErrNotQuiz
	}
	_, err := m.Quiz.Answer(optionID)
	return err
}

// NextQuiz appends another quiz turn once the quiz in message id has been
// answered. It uses the current topic, falling back to the quiz's own.
func (c *Controller) NextQuiz(ctx context.Context, messageID string) error {
	c.mu.Lock()
	m := c.transcript.Find(messageID)
	var topic string
	var err error
	switch {
	case m == nil:
		err = ErrUnknownMsg
	case m.Type != TypeQuiz || m.Quiz == nil:
		err = ErrNotQuiz
	case !m.Quiz.Submitted:
		err = ErrNotSubmitted
	default:
		topic = c.topic
		if topic == "" {
			topic = m.Quiz.Topic
		}
	}
	c.mu.Unlock()

	if err != nil {
		return err
	}
	return c.GenerateQuizTurn(ctx, topic)
}

// Close ends the conversation. Responses still in flight are dropped and
// later operations return ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.closed = true
	c.inFlight = false
}
