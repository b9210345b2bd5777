package topics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examwhisperer/whisper/internal/backend"
	"github.com/examwhisperer/whisper/internal/backend/backendtest"
)

func TestAddThenList_IncludesTopic(t *testing.T) {
	srv := backendtest.New(t)
	srv.SetTopics("ana", "Optics")
	client, err := backend.New(srv.Config(), nil, nil)
	require.NoError(t, err)
	c := New(client, "ana")
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, "  Thermodynamics "))
	got, err := c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Optics", "Thermodynamics"}, got)
	assert.Equal(t, []string{"Optics", "Thermodynamics"}, srv.Topics("ana"))
}

func TestAdd_VisibleEvenWhenRemoteLags(t *testing.T) {
	mock := backend.NewMockClient()
	mock.TopicLists = []backend.MockResult[[]string]{
		{Value: []string{"Optics"}},
		{Err: &backend.ErrUnavailable{}},
	}
	c := New(mock, "ana")
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, "Waves"))
	got, err := c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Optics", "Waves"}, got, "remote list without the new topic")

	got, err = c.List(ctx)
	assert.Error(t, err)
	assert.Equal(t, []string{"Optics", "Waves"}, got, "cached list on failure")
}

func TestAdd_Validation(t *testing.T) {
	mock := backend.NewMockClient()
	c := New(mock, "ana")
	assert.ErrorIs(t, c.Add(context.Background(), "   "), ErrEmptyTopic)
	assert.Equal(t, 0, mock.CallCount(""))
}

func TestAdd_FailureNotCached(t *testing.T) {
	mock := backend.NewMockClient()
	mock.AddErrs = []error{errors.New("boom")}
	c := New(mock, "ana")

	assert.Error(t, c.Add(context.Background(), "Optics"))
	assert.Empty(t, c.Topics())
}

func TestTopics_Dedupe(t *testing.T) {
	mock := backend.NewMockClient()
	mock.TopicLists = []backend.MockResult[[]string]{{Value: []string{"Optics", " ", "Waves", "Optics"}}}
	c := New(mock, "ana")

	require.NoError(t, c.Add(context.Background(), "Waves"))
	require.NoError(t, c.Add(context.Background(), "Waves"))
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, []string{"Optics", "Waves"}, c.Topics())
}
