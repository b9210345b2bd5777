package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examwhisperer/whisper/internal/backend"
	"github.com/examwhisperer/whisper/internal/backend/backendtest"
	"github.com/examwhisperer/whisper/internal/liveness"
	"github.com/examwhisperer/whisper/internal/settings"
)

type fakeGate struct {
	online bool
	reason string
}

func (g *fakeGate) Online() bool   { return g.online }
func (g *fakeGate) Reason() string { return g.reason }

func configuredSettings(t *testing.T) *settings.Store {
	t.Helper()
	ctx := context.Background()
	s, err := settings.Load(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, s.SetProvider(ctx, "gemini"))
	require.NoError(t, s.SetAPIKey(ctx, "x"))
	require.NoError(t, s.SetModel(ctx, "gemini-pro"))
	return s
}

func dnaQuestion() *backend.Question {
	return &backend.Question{
		Question: "What is DNA?",
		Options: []backend.Option{
			{ID: "a", Text: "Sugar"},
			{ID: "b", Text: "Molecule"},
		},
		CorrectAnswerID: "b",
		Feedback:        "DNA encodes genetic information.",
	}
}

func newTestController(t *testing.T, client backend.Client, gate Gate) *Controller {
	t.Helper()
	return New(client, Options{
		Username: "ana",
		Settings: configuredSettings(t),
		Gate:     gate,
	})
}

func TestNew_StartsWithWelcome(t *testing.T) {
	c := New(backend.NewMockClient(), Options{})
	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleAssistant, msgs[0].Role)
	assert.Contains(t, WelcomeMessages(), msgs[0].Content)
}

func TestSendMessage_EmptyIsNoop(t *testing.T) {
	mock := backend.NewMockClient()
	c := newTestController(t, mock, nil)

	for _, text := range []string{"", "   ", "\n\t"} {
		assert.ErrorIs(t, c.SendMessage(context.Background(), text), ErrEmptyMessage)
	}
	assert.Len(t, c.Messages(), 1)
	assert.Equal(t, 0, mock.CallCount(""))
}

func TestSendMessage_Success(t *testing.T) {
	mock := backend.NewMockClient()
	mock.Answers = []backend.MockResult[*backend.AskResponse]{{Value: &backend.AskResponse{Content: "ATP stores energy."}}}
	c := newTestController(t, mock, nil)
	c.SetTopic("Biology")

	require.NoError(t, c.SendMessage(context.Background(), "  what is ATP? "))
	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, RoleUser, msgs[1].Role)
	assert.Equal(t, "what is ATP?", msgs[1].Content)
	assert.Equal(t, RoleAssistant, msgs[2].Role)
	assert.Equal(t, "ATP stores energy.", msgs[2].Content)

	req := mock.AskRequests[0]
	assert.Equal(t, "Biology", req.Topic)
	assert.Equal(t, DefaultSystemPrompt, req.SystemPrompt)
	assert.Equal(t, DefaultTemperature, req.Temperature)
	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
	assert.Equal(t, backend.LLMConfig{Provider: "gemini", APIKey: "x", Model: "gemini-pro"}, req.LLM)
	assert.False(t, c.Busy())
}

func TestSendMessage_FailureAppendsErrorText(t *testing.T) {
	mock := backend.NewMockClient()
	mock.Answers = []backend.MockResult[*backend.AskResponse]{
		{Err: &backend.ErrStatus{Operation: "ask", StatusCode: 401, Message: "Invalid API key"}},
	}
	c := newTestController(t, mock, nil)

	require.Error(t, c.SendMessage(context.Background(), "hello"))
	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "hello", msgs[1].Content)
	assert.True(t, msgs[2].Failed)
	assert.Equal(t, "Sorry, I couldn't get a response. Error: Invalid API key. Please check your API key and settings.", msgs[2].Content)
}

func TestSendMessage_MissingKey(t *testing.T) {
	mock := backend.NewMockClient()
	s, _ := settings.Load(context.Background(), nil)
	c := New(mock, Options{Settings: s})

	assert.ErrorIs(t, c.SendMessage(context.Background(), "hello"), ErrMissingAPIKey)
	assert.ErrorIs(t, c.GenerateQuizTurn(context.Background(), "Biology"), ErrMissingAPIKey)
	assert.Len(t, c.Messages(), 1)
	assert.Equal(t, 0, mock.CallCount(""))

	require.NoError(t, s.SetProvider(context.Background(), "ollama"))
	mock.Answers = []backend.MockResult[*backend.AskResponse]{{Value: &backend.AskResponse{Content: "hi"}}}
	assert.NoError(t, c.SendMessage(context.Background(), "hello"))
}

func TestOffline_RefusesWithoutRequest(t *testing.T) {
	srv := backendtest.New(t)
	srv.SetHealthy(false)
	client, err := backend.New(srv.Config(), nil, nil)
	require.NoError(t, err)

	gate := liveness.New(client, time.Second, time.Hour, nil)
	require.False(t, gate.Check(context.Background()))

	c := newTestController(t, client, gate)
	err = c.SendMessage(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrOffline)
	assert.Equal(t, liveness.OfflineMessage, err.Error())
	assert.ErrorIs(t, c.GenerateQuizTurn(context.Background(), "Biology"), ErrOffline)

	assert.Len(t, c.Messages(), 1)
	assert.Equal(t, 0, srv.Hits(backendtest.RouteExplain))
	assert.Equal(t, 0, srv.Hits(backendtest.RouteQuestion))

	srv.SetHealthy(true)
	require.True(t, gate.Check(context.Background()))
	assert.NoError(t, c.SendMessage(context.Background(), "hello"))
	assert.Equal(t, 1, srv.Hits(backendtest.RouteExplain))
}

func TestGenerateQuizTurn_AppendsQuiz(t *testing.T) {
	mock := backend.NewMockClient()
	mock.Questions = []backend.MockResult[*backend.Question]{{Value: dnaQuestion()}}
	c := newTestController(t, mock, &fakeGate{online: true})

	require.NoError(t, c.GenerateQuizTurn(context.Background(), "Biology"))
	msgs := c.Messages()
	require.Len(t, msgs, 2)
	m := msgs[1]
	assert.Equal(t, RoleAssistant, m.Role)
	assert.Equal(t, TypeQuiz, m.Type)
	require.NotNil(t, m.Quiz)
	assert.False(t, m.Quiz.Submitted)
	assert.Equal(t, "What is DNA?", m.Quiz.Question)
	assert.Equal(t, "b", m.Quiz.CorrectAnswerID)
	assert.Equal(t, "DNA encodes genetic information.", m.Quiz.Feedback)
	assert.Len(t, m.Quiz.Options, 2)

	req := mock.QuestionRequests[0]
	assert.Equal(t, "Biology", req.Topic)
	assert.Equal(t, backend.DifficultyMedium, req.Difficulty)
	assert.Equal(t, "ana", req.Username)
}

func TestGenerateQuizTurn_Validation(t *testing.T) {
	mock := backend.NewMockClient()
	c := newTestController(t, mock, nil)
	assert.ErrorIs(t, c.GenerateQuizTurn(context.Background(), " "), ErrEmptyTopic)
	assert.Equal(t, 0, mock.CallCount(""))
}

func TestGenerateQuizTurn_Failure(t *testing.T) {
	mock := backend.NewMockClient()
	mock.Questions = []backend.MockResult[*backend.Question]{
		{Err: &backend.ErrInvalidResponse{Operation: "generate_question", Err: errors.New("bad shape")}},
	}
	c := newTestController(t, mock, nil)

	require.Error(t, c.GenerateQuizTurn(context.Background(), "Biology"))
	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, TypeText, msgs[1].Type)
	assert.Contains(t, msgs[1].Content, "Sorry, I couldn't generate a quiz. Error: ")
	assert.Contains(t, msgs[1].Content, "Please try again.")
}

func TestAnswerQuiz_Latch(t *testing.T) {
	mock := backend.NewMockClient()
	mock.Questions = []backend.MockResult[*backend.Question]{{Value: dnaQuestion()}, {Value: dnaQuestion()}}
	c := newTestController(t, mock, nil)
	require.NoError(t, c.GenerateQuizTurn(context.Background(), "Biology"))
	id := c.Messages()[1].ID

	assert.ErrorIs(t, c.AnswerQuiz(id, "z"), ErrUnknownOption)
	assert.False(t, c.Messages()[1].Quiz.Submitted)

	require.NoError(t, c.AnswerQuiz(id, "a"))
	q := c.Messages()[1].Quiz
	assert.True(t, q.Submitted)
	assert.Equal(t, "a", q.UserAnswerID)
	assert.False(t, q.Correct())

	require.NoError(t, c.AnswerQuiz(id, "b"))
	q = c.Messages()[1].Quiz
	assert.True(t, q.Submitted)
	assert.Equal(t, "a", q.UserAnswerID)

	assert.ErrorIs(t, c.AnswerQuiz("welcome", "a"), ErrNotQuiz)
	assert.ErrorIs(t, c.AnswerQuiz("nope", "a"), ErrUnknownMsg)
	assert.Equal(t, 1, mock.CallCount(""))
}

func TestNextQuiz_GrowsTranscript(t *testing.T) {
	mock := backend.NewMockClient()
	mock.Questions = []backend.MockResult[*backend.Question]{{Value: dnaQuestion()}, {Value: dnaQuestion()}}
	c := newTestController(t, mock, nil)
	ctx := context.Background()

	require.NoError(t, c.GenerateQuizTurn(ctx, "Biology"))
	id := c.Messages()[1].ID
	assert.ErrorIs(t, c.NextQuiz(ctx, id), ErrNotSubmitted)

	require.NoError(t, c.AnswerQuiz(id, "b"))
	require.NoError(t, c.NextQuiz(ctx, id))

	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.True(t, msgs[1].Quiz.Submitted, "earlier quiz keeps its answer")
	assert.False(t, msgs[2].Quiz.Submitted)
	assert.Equal(t, 1, mock.QuestionRequests[1].QuestionIndex)
}

// gatedClient blocks Ask until release is closed.
type gatedClient struct {
	*backend.MockClient
	entered chan struct{}
	release chan struct{}
}

func (g *gatedClient) Ask(ctx context.Context, req backend.AskRequest) (*backend.AskResponse, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.MockClient.Ask(ctx, req)
}

func TestSendMessage_InFlightGuard(t *testing.T) {
	mock := backend.NewMockClient()
	mock.Answers = []backend.MockResult[*backend.AskResponse]{{Value: &backend.AskResponse{Content: "one"}}}
	gc := &gatedClient{MockClient: mock, entered: make(chan struct{}, 1), release: make(chan struct{})}
	c := newTestController(t, gc, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.SendMessage(ctx, "first") }()
	<-gc.entered

	assert.True(t, c.Busy())
	assert.ErrorIs(t, c.SendMessage(ctx, "second"), ErrBusy)
	assert.ErrorIs(t, c.GenerateQuizTurn(ctx, "Biology"), ErrBusy)

	close(gc.release)
	require.NoError(t, <-done)
	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[1].Content)
	assert.Equal(t, "one", msgs[2].Content)
}

func TestClose_DropsLateResponse(t *testing.T) {
	mock := backend.NewMockClient()
	mock.Answers = []backend.MockResult[*backend.AskResponse]{{Value: &backend.AskResponse{Content: "late"}}}
	gc := &gatedClient{MockClient: mock, entered: make(chan struct{}, 1), release: make(chan struct{})}
	c := newTestController(t, gc, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.SendMessage(ctx, "hello") }()
	<-gc.entered
	c.Close()
	close(gc.release)

	assert.ErrorIs(t, <-done, ErrDiscarded)
	assert.Len(t, c.Messages(), 2)
	assert.ErrorIs(t, c.SendMessage(ctx, "again"), ErrClosed)
}

func TestSetContext(t *testing.T) {
	c := New(backend.NewMockClient(), Options{})
	assert.Error(t, c.SetContext(Context{Temperature: 1.5, MaxTokens: 500}))
	assert.Error(t, c.SetContext(Context{Temperature: 0.5, MaxTokens: 10}))

	require.NoError(t, c.SetContext(Context{Temperature: 0.2, MaxTokens: 1000}))
	got := c.Context()
	assert.Equal(t, DefaultSystemPrompt, got.SystemPrompt)
	assert.Equal(t, 1000, got.MaxTokens)

	tpl := PromptTemplates()[0]
	require.NoError(t, c.SetContext(Context{SystemPrompt: tpl.Prompt, Temperature: 0.7, MaxTokens: 500}))
	assert.Equal(t, tpl.Prompt, c.Context().SystemPrompt)
}

func TestMessages_ReturnsCopies(t *testing.T) {
	mock := backend.NewMockClient()
	mock.Questions = []backend.MockResult[*backend.Question]{{Value: dnaQuestion()}}
	c := newTestController(t, mock, nil)
	require.NoError(t, c.GenerateQuizTurn(context.Background(), "Biology"))

	msgs := c.Messages()
	msgs[1].Quiz.Submitted = true
	msgs[1].Quiz.Options[0].Text = "changed"

	fresh := c.Messages()
	assert.False(t, fresh[1].Quiz.Submitted)
	assert.Equal(t, "Sugar", fresh[1].Quiz.Options[0].Text)
}
