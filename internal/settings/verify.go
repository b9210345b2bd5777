package settings

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/examwhisperer/whisper/internal/backend"
)

// ErrKeyRejected indicates the provider refused the API key.
type ErrKeyRejected struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ErrKeyRejected) Error() string {
	return fmt.Sprintf("%s rejected the API key (%d): %v", e.Provider, e.StatusCode, e.Err)
}

func (e *ErrKeyRejected) Unwrap() error { return e.Err }

// Verifier checks an API key by listing the provider's models. No
// completion is ever requested.
type Verifier struct {
	// HTTPClient is used by all SDK clients. Nil means http.DefaultClient.
	HTTPClient *http.Client

	// Base URL overrides, for tests and proxies. Empty uses the SDK default.
	OpenAIBaseURL    string
	AnthropicBaseURL string
	GeminiBaseURL    string
}

// Verify checks cfg's key and returns the model ids the key can see.
// Local providers are always valid and return their configured models.
func (v *Verifier) Verify(ctx context.Context, cfg backend.LLMConfig) ([]string, error) {
	p, ok := Lookup(cfg.Provider)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownProvider, cfg.Provider)
	}
	if !p.RequiresKey() {
		return append([]string(nil), p.Models...), nil
	}
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	var (
		models []string
		err    error
	)
	switch p.Name {
	case "openai":
		models, err = v.openAIModels(ctx, cfg.APIKey)
	case "anthropic":
		models, err = v.anthropicModels(ctx, cfg.APIKey)
	case "gemini":
		models, err = v.geminiModels(ctx, cfg.APIKey)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(models)
	return models, nil
}

func (v *Verifier) httpClient() *http.Client {
	if v.HTTPClient != nil {
		return v.HTTPClient
	}
	return http.DefaultClient
}

func (v *Verifier) openAIModels(ctx context.Context, key string) ([]string, error) {
	config := openai.DefaultConfig(key)
	config.HTTPClient = v.httpClient()
	if v.OpenAIBaseURL != "" {
		config.BaseURL = v.OpenAIBaseURL
	}
	client := openai.NewClientWithConfig(config)

	list, err := client.ListModels(ctx)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && isAuthStatus(apiErr.HTTPStatusCode) {
			return nil, &ErrKeyRejected{Provider: "openai", StatusCode: apiErr.HTTPStatusCode, Err: err}
		}
		return nil, fmt.Errorf("list openai models: %w", err)
	}

	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (v *Verifier) anthropicModels(ctx context.Context, key string) ([]string, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithHTTPClient(v.httpClient()),
		option.WithMaxRetries(0),
	}
	if v.AnthropicBaseURL != "" {
		opts = append(opts, option.WithBaseURL(v.AnthropicBaseURL))
	}
	client := anthropic.NewClient(opts...)

	page, err := client.Models.List(ctx, anthropic.ModelListParams{})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && isAuthStatus(apiErr.StatusCode) {
			return nil, &ErrKeyRejected{Provider: "anthropic", StatusCode: apiErr.StatusCode, Err: err}
		}
		return nil, fmt.Errorf("list anthropic models: %w", err)
	}

	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (v *Verifier) geminiModels(ctx context.Context, key string) ([]string, error) {
	cc := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: v.httpClient(),
	}
	if v.GeminiBaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: v.GeminiBaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	page, err := client.Models.List(ctx, &genai.ListModelsConfig{})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && isAuthStatus(apiErr.Code) {
			return nil, &ErrKeyRejected{Provider: "gemini", StatusCode: apiErr.Code, Err: err}
		}
		return nil, fmt.Errorf("list gemini models: %w", err)
	}

	ids := make([]string, 0, len(page.Items))
	for _, m := range page.Items {
		ids = append(ids, strings.TrimPrefix(m.Name, "models/"))
	}
	return ids, nil
}

func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden || code == http.StatusBadRequest
}
