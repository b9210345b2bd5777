package settings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examwhisperer/whisper/internal/backend"
)

func TestVerify_LocalProvider(t *testing.T) {
	v := &Verifier{}
	models, err := v.Verify(context.Background(), backend.LLMConfig{Provider: "ollama"})
	require.NoError(t, err)
	assert.Contains(t, models, "llama2")
}

func TestVerify_MissingKey(t *testing.T) {
	v := &Verifier{}
	_, err := v.Verify(context.Background(), backend.LLMConfig{Provider: "openai"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = v.Verify(context.Background(), backend.LLMConfig{Provider: "nope", APIKey: "k"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestVerify_OpenAI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer good" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "Incorrect API key provided", "type": "invalid_request_error"},
			})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"id": "gpt-4o", "object": "model", "owned_by": "openai"},
				{"id": "gpt-3.5-turbo", "object": "model", "owned_by": "openai"},
			},
		})
	}))
	t.Cleanup(server.Close)
	v := &Verifier{OpenAIBaseURL: server.URL + "/v1"}

	models, err := v.Verify(context.Background(), backend.LLMConfig{Provider: "openai", APIKey: "good"})
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-3.5-turbo", "gpt-4o"}, models)

	_, err = v.Verify(context.Background(), backend.LLMConfig{Provider: "openai", APIKey: "bad"})
	var rejected *ErrKeyRejected
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, http.StatusUnauthorized, rejected.StatusCode)
}

func TestVerify_Anthropic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("X-Api-Key") != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"type":  "error",
				"error": map[string]any{"type": "authentication_error", "message": "invalid x-api-key"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": "claude-3-haiku-20240229", "type": "model", "display_name": "Claude 3 Haiku", "created_at": "2024-02-29T00:00:00Z"},
			},
			"has_more": false,
			"first_id": "claude-3-haiku-20240229",
			"last_id":  "claude-3-haiku-20240229",
		})
	}))
	t.Cleanup(server.Close)
	v := &Verifier{AnthropicBaseURL: server.URL}

	models, err := v.Verify(context.Background(), backend.LLMConfig{Provider: "anthropic", APIKey: "good"})
	require.NoError(t, err)
	assert.Equal(t, []string{"claude-3-haiku-20240229"}, models)

	_, err = v.Verify(context.Background(), backend.LLMConfig{Provider: "anthropic", APIKey: "bad"})
	var rejected *ErrKeyRejected
	assert.ErrorAs(t, err, &rejected)
}
