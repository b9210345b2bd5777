// Package settings holds the user's LLM provider selection. Every change is
// written through to durable storage immediately.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/examwhisperer/whisper/internal/backend"
)

// Storage keys, one per field.
const (
	KeyProvider    = "llmProvider"
	KeyAPIKey      = "llmApiKey"
	KeyModel       = "llmModel"
	KeyCustomModel = "llmCustomModel"
)

// Defaults used when nothing valid is stored.
const (
	DefaultProvider = "gemini"
	DefaultModel    = "gemini-pro"
)

var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrUnknownModel    = errors.New("model not offered by provider")
	ErrMissingAPIKey   = errors.New("please set your API key in settings")
)

// Storage is durable key/value storage for settings fields.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Store holds the current selection. It is safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	storage     Storage
	provider    string
	apiKey      string
	model       string
	customModel string
}

// Load reads settings from storage. It always returns a usable Store: when
// storage is nil, empty, or failing, the defaults apply. A read failure is
// also returned so the caller can report it.
func Load(ctx context.Context, storage Storage) (*Store, error) {
	s := &Store{
		storage:  storage,
		provider: DefaultProvider,
		model:    DefaultModel,
	}
	if storage == nil {
		return s, nil
	}

	var errs []error
	read := func(key string) string {
		v, ok, err := storage.Get(ctx, key)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", key, err))
			return ""
		}
		if !ok {
			return ""
		}
		return v
	}

	provider := read(KeyProvider)
	apiKey := read(KeyAPIKey)
	model := read(KeyModel)
	custom := read(KeyCustomModel)

	if p, ok := Lookup(provider); ok {
		s.provider = p.Name
		s.model = p.DefaultModel()
		if p.HasModel(model) {
			s.model = model
		}
	}
	s.apiKey = apiKey
	s.customModel = custom

	return s, errors.Join(errs...)
}

// Provider returns the selected provider name.
func (s *Store) Provider() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider
}

// APIKey returns the stored API key.
func (s *Store) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey
}

// Model returns the selected model id, which may be CustomModel.
func (s *Store) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// CustomModel returns the user-entered ollama model name.
func (s *Store) CustomModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.customModel
}

// Models returns the model list of the selected provider.
func (s *Store) Models() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, _ := Lookup(s.provider)
	return append([]string(nil), p.Models...)
}

// SetProvider switches provider and resets the model to its default.
func (s *Store) SetProvider(ctx context.Context, name string) error {
	p, ok := Lookup(strings.TrimSpace(strings.ToLower(name)))
	if !ok {
		return fmt.Errorf("%w %q (want one of %s)", ErrUnknownProvider, name, strings.Join(ProviderNames(), ", "))
	}

	s.mu.Lock()
	s.provider = p.Name
	s.model = p.DefaultModel()
	s.mu.Unlock()

	if err := s.persist(ctx, KeyProvider, p.Name); err != nil {
		return err
	}
	return s.persist(ctx, KeyModel, p.DefaultModel())
}

// SetAPIKey stores the API key for the current provider.
func (s *Store) SetAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	s.mu.Lock()
	s.apiKey = key
	s.mu.Unlock()
	return s.persist(ctx, KeyAPIKey, key)
}

// SetModel selects a model from the current provider's list.
func (s *Store) SetModel(ctx context.Context, model string) error {
	s.mu.Lock()
	p, _ := Lookup(s.provider)
	if !p.HasModel(model) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s does not offer %q", ErrUnknownModel, p.Name, model)
	}
	s.model = model
	s.mu.Unlock()
	return s.persist(ctx, KeyModel, model)
}

// SetCustomModel stores the model name used when the ollama "custom" entry
// is selected.
func (s *Store) SetCustomModel(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	s.mu.Lock()
	s.customModel = name
	s.mu.Unlock()
	return s.persist(ctx, KeyCustomModel, name)
}

// Config returns the value threaded into every backend call.
func (s *Store) Config() backend.LLMConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	model := s.model
	if model == CustomModel && s.customModel != "" {
		model = s.customModel
	}
	return backend.LLMConfig{
		Provider: s.provider,
		APIKey:   s.apiKey,
		Model:    model,
	}
}

// Validate reports ErrMissingAPIKey when the provider needs a key and none
// is set.
func (s *Store) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, _ := Lookup(s.provider)
	if p.RequiresKey() && s.apiKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// MaskedKey returns the API key with all but the last four characters
// hidden, for display.
func (s *Store) MaskedKey() string {
	return Mask(s.APIKey())
}

// Mask hides all but the last four characters of key.
func Mask(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("•", len(key))
	}
	return strings.Repeat("•", lo.Min([]int{len(key) - 4, 12})) + key[len(key)-4:]
}

func (s *Store) persist(ctx context.Context, key, value string) error {
	if s.storage == nil {
		return nil
	}
	if err := s.storage.Set(ctx, key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
