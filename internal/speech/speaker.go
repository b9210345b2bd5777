// Package speech turns tutor replies into audio through the backend's
// text-to-speech endpoint. Playback is left to the platform.
package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/examwhisperer/whisper/internal/backend"
)

var (
	ErrEmptyText = errors.New("nothing to speak")
	ErrNoAudio   = errors.New("backend returned no audio")
)

// Client is the subset of backend.Client the speaker uses.
type Client interface {
	TextToSpeech(ctx context.Context, text string) (*backend.SpeechResponse, error)
}

// Speaker synthesizes audio.
type Speaker struct {
	client Client
}

// New creates a Speaker.
func New(client Client) *Speaker {
	return &Speaker{client: client}
}

// Synthesize returns the decoded audio for text.
func (s *Speaker) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	resp, err := s.client.TextToSpeech(backend.WithPurpose(ctx, "speech"), text)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Audio == "" {
		return nil, ErrNoAudio
	}

	audio, err := decode(resp.Audio)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, ErrNoAudio
	}
	return audio, nil
}

// WriteFile synthesizes text and writes the audio to path.
func (s *Speaker) WriteFile(ctx context.Context, text, path string) (int, error) {
	audio, err := s.Synthesize(ctx, text)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return 0, fmt.Errorf("write audio: %w", err)
	}
	return len(audio), nil
}

// decode accepts standard base64, with or without a data URL prefix.
func decode(s string) ([]byte, error) {
	if i := strings.Index(s, ";base64,"); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+len(";base64,"):]
	}
	s = strings.TrimSpace(s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
