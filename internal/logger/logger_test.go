package logger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVsRedactsCredentials(t *testing.T) {
	out := sanitizeKVs([]any{"provider", "gemini", "api_key", "sk-123", "apiKey", "abc"})

	assert.Equal(t, []any{"provider", "gemini", "api_key", "[REDACTED]", "apiKey", "[REDACTED]"}, out)
}

func TestSanitizeKVsKeepsEmptyCredentialVisible(t *testing.T) {
	out := sanitizeKVs([]any{"api_key", ""})
	assert.Equal(t, "", out[1])
}

func TestSanitizeKVsHashesUsernames(t *testing.T) {
	out := sanitizeKVs([]any{"username", "alice"})

	hashed, ok := out[1].(string)
	assert.True(t, ok)
	assert.True(t, strings.HasPrefix(hashed, "hash:"))
	assert.Len(t, hashed, len("hash:")+12)
	assert.NotContains(t, hashed, "alice")
}

func TestSanitizeKVsOddLength(t *testing.T) {
	out := sanitizeKVs([]any{"path", "/health", "dangling"})
	assert.Equal(t, []any{"path", "/health", "dangling"}, out)
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	l := Nop()
	l.With("component", "test").Info("hello", "api_key", "secret")
	l.Sync()
}
