package speech

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examwhisperer/whisper/internal/backend"
	"github.com/examwhisperer/whisper/internal/backend/backendtest"
)

func TestSynthesize(t *testing.T) {
	srv := backendtest.New(t)
	srv.SetAudio([]byte("ID3mp3bytes"))
	client, err := backend.New(srv.Config(), nil, nil)
	require.NoError(t, err)
	s := New(client)

	audio, err := s.Synthesize(context.Background(), "Hello there")
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3mp3bytes"), audio)

	path := filepath.Join(t.TempDir(), "out.mp3")
	n, err := s.WriteFile(context.Background(), "Hello there", path)
	require.NoError(t, err)
	assert.Equal(t, len("ID3mp3bytes"), n)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ID3mp3bytes", string(data))
}

func TestSynthesize_EmptyText(t *testing.T) {
	mock := backend.NewMockClient()
	_, err := New(mock).Synthesize(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyText)
	assert.Equal(t, 0, mock.CallCount(""))
}

func TestSynthesize_NoAudio(t *testing.T) {
	mock := backend.NewMockClient()
	mock.Speech = []backend.MockResult[*backend.SpeechResponse]{{Value: &backend.SpeechResponse{}}}
	_, err := New(mock).Synthesize(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNoAudio)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"aGVsbG8=", "hello"},
		{"aGVsbG8", "hello"},
		{"data:audio/mpeg;base64,aGVsbG8=", "hello"},
	}
	for _, tt := range tests {
		got, err := decode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, string(got))
	}
	_, err := decode("!!!")
	assert.Error(t, err)
}
