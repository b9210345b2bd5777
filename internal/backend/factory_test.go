package backend_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examwhisperer/whisper/internal/backend"
	"github.com/examwhisperer/whisper/internal/backend/backendtest"
	"github.com/examwhisperer/whisper/internal/logger"
)

func TestNew_RetriesThroughLogging(t *testing.T) {
	srv := backendtest.New(t)
	srv.FailNext(backendtest.RouteExplain, http.StatusServiceUnavailable, "warming up")

	c, err := backend.New(srv.Config(), nil, logger.Nop())
	require.NoError(t, err)

	resp, err := c.Ask(context.Background(), backend.AskRequest{Question: "photosynthesis?", Username: "ana"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Content)
	assert.Equal(t, 2, srv.Hits(backendtest.RouteExplain))
	assert.Equal(t, "photosynthesis?", srv.LastAsk().Question)
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cfg := backend.DefaultConfig()
	cfg.BaseURL = "ftp://example.com"
	_, err := backend.New(cfg, nil, nil)
	assert.Error(t, err)
}

func TestNew_QuizRoundTrip(t *testing.T) {
	srv := backendtest.New(t)
	c, err := backend.New(srv.Config(), nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	q, err := c.GenerateQuestion(ctx, backend.QuestionRequest{Topic: "math", Difficulty: backend.DifficultyEasy, NumQuestions: 1})
	require.NoError(t, err)

	ev, err := c.EvaluateAnswer(ctx, backend.EvaluateRequest{Topic: "math", UserAnswer: "a", Question: *q})
	require.NoError(t, err)
	assert.False(t, ev.Correct)
	assert.Equal(t, "b", ev.CorrectAnswer.ID)
	assert.Equal(t, "4", ev.CorrectAnswer.Text)
	assert.Equal(t, "a", ev.UserAnswer.ID)
	assert.Equal(t, "b", srv.LastEvaluation().Question.CorrectAnswerID)
}

func TestNew_HealthToggle(t *testing.T) {
	srv := backendtest.New(t)
	c, err := backend.New(srv.Config(), nil, nil)
	require.NoError(t, err)

	_, err = c.Health(context.Background())
	require.NoError(t, err)

	srv.SetHealthy(false)
	h, err := c.Health(context.Background())
	require.Error(t, err)
	assert.False(t, h.OK)
	assert.Equal(t, 2, srv.Hits(backendtest.RouteHealth))
}
