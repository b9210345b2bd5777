package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examwhisperer/whisper/internal/logger"
	"github.com/examwhisperer/whisper/internal/store"
)

func openEventRepo(t *testing.T) store.EventRepo {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s.EventRepo()
}

func TestLogging_RecordsRequests(t *testing.T) {
	events := openEventRepo(t)
	mock := NewMockClient()
	mock.Answers = []MockResult[*AskResponse]{
		{Value: &AskResponse{Content: "ok"}},
		{Err: &ErrStatus{Operation: "ask", StatusCode: 401, Message: "Invalid API key"}},
	}
	c := WithLogging(mock, events, logger.Nop())
	ctx := WithPurpose(context.Background(), "chat")

	_, err := c.Ask(ctx, AskRequest{Topic: "Optics"})
	require.NoError(t, err)
	_, err = c.Ask(ctx, AskRequest{Topic: "Optics"})
	require.Error(t, err)

	got, err := events.QueryRequests(context.Background(), store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first.
	assert.Equal(t, "ask", got[0].Operation)
	assert.Equal(t, "chat", got[0].Purpose)
	assert.False(t, got[0].Success)
	assert.Equal(t, 401, got[0].StatusCode)
	assert.Equal(t, "Invalid API key", got[0].ErrorMessage)

	assert.True(t, got[1].Success)
	assert.Equal(t, 200, got[1].StatusCode)
}

func TestLogging_RecordsAfterCancel(t *testing.T) {
	events := openEventRepo(t)
	mock := NewMockClient()
	mock.TopicLists = []MockResult[[]string]{{Err: context.Canceled}}
	c := WithLogging(mock, events, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ListTopics(ctx, "ana")
	assert.True(t, errors.Is(err, context.Canceled))

	got, err := events.QueryRequests(context.Background(), store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "unknown", got[0].Purpose)
	assert.Equal(t, 0, got[0].StatusCode)
}

func TestLogging_HealthNotStored(t *testing.T) {
	events := openEventRepo(t)
	c := WithLogging(NewMockClient(), events, nil)

	_, err := c.Health(context.Background())
	require.NoError(t, err)

	got, err := events.QueryRequests(context.Background(), store.QueryOpts{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLogging_NilEvents(t *testing.T) {
	mock := NewMockClient()
	require.NoError(t, mock.AddTopic(context.Background(), "ana", "warmup"))
	c := WithLogging(mock, nil, logger.Nop())
	assert.NoError(t, c.AddTopic(context.Background(), "ana", "Optics"))
	assert.Equal(t, []string{"warmup", "Optics"}, mock.AddedTopics)
}
