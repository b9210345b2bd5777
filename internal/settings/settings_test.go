package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examwhisperer/whisper/internal/store"
)

type mapStorage struct {
	values  map[string]string
	writes  []string
	readErr error
	saveErr error
}

func newMapStorage() *mapStorage {
	return &mapStorage{values: map[string]string{}}
}

func (m *mapStorage) Get(_ context.Context, key string) (string, bool, error) {
	if m.readErr != nil {
		return "", false, m.readErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mapStorage) Set(_ context.Context, key, value string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.values[key] = value
	m.writes = append(m.writes, key)
	return nil
}

func TestProviderTable(t *testing.T) {
	for _, p := range Providers() {
		assert.NotEmpty(t, p.Models, p.Name)
		assert.Equal(t, p.Models[0], p.DefaultModel())
	}
	p, ok := Lookup("ollama")
	require.True(t, ok)
	assert.False(t, p.RequiresKey())
	assert.True(t, p.HasModel(CustomModel))

	_, ok = Lookup("mistral-cloud")
	assert.False(t, ok)
}

func TestLoad_Defaults(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		storage Storage
		wantErr bool
	}{
		{"nil storage", nil, false},
		{"empty storage", newMapStorage(), false},
		{"failing storage", &mapStorage{readErr: errors.New("disk gone")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Load(ctx, tt.storage)
			require.NotNil(t, s)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, DefaultProvider, s.Provider())
			assert.Equal(t, DefaultModel, s.Model())
			assert.Empty(t, s.APIKey())
		})
	}
}

func TestLoad_StoredValues(t *testing.T) {
	m := newMapStorage()
	m.values[KeyProvider] = "openai"
	m.values[KeyAPIKey] = "sk-test"
	m.values[KeyModel] = "gpt-4o"

	s, err := Load(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, "openai", s.Provider())
	assert.Equal(t, "gpt-4o", s.Model())
	assert.Equal(t, "sk-test", s.APIKey())
}

func TestLoad_RepairsInvalidValues(t *testing.T) {
	m := newMapStorage()
	m.values[KeyProvider] = "anthropic"
	m.values[KeyModel] = "gpt-4o"

	s, err := Load(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", s.Provider())
	assert.Equal(t, "claude-3-opus-20240229", s.Model())

	m.values[KeyProvider] = "bogus"
	s, err = Load(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, DefaultProvider, s.Provider())
}

func TestSetProvider_WritesThrough(t *testing.T) {
	ctx := context.Background()
	m := newMapStorage()
	s, _ := Load(ctx, m)

	require.NoError(t, s.SetProvider(ctx, "Anthropic"))
	assert.Equal(t, "anthropic", s.Provider())
	assert.Equal(t, "claude-3-opus-20240229", s.Model())
	assert.Equal(t, "anthropic", m.values[KeyProvider])
	assert.Equal(t, "claude-3-opus-20240229", m.values[KeyModel])

	err := s.SetProvider(ctx, "cohere")
	assert.ErrorIs(t, err, ErrUnknownProvider)
	assert.Equal(t, "anthropic", s.Provider())
}

func TestSetModel(t *testing.T) {
	ctx := context.Background()
	m := newMapStorage()
	s, _ := Load(ctx, m)

	require.NoError(t, s.SetModel(ctx, "gemini-1.5-flash-latest"))
	assert.Equal(t, "gemini-1.5-flash-latest", m.values[KeyModel])

	err := s.SetModel(ctx, "gpt-4")
	assert.ErrorIs(t, err, ErrUnknownModel)
	assert.Equal(t, "gemini-1.5-flash-latest", s.Model())
}

func TestSetAPIKey_PersistError(t *testing.T) {
	ctx := context.Background()
	m := newMapStorage()
	s, _ := Load(ctx, m)
	m.saveErr = errors.New("read-only")

	err := s.SetAPIKey(ctx, " key ")
	assert.Error(t, err)
	assert.Equal(t, "key", s.APIKey())
}

func TestConfigAndValidate(t *testing.T) {
	ctx := context.Background()
	s, _ := Load(ctx, newMapStorage())

	assert.ErrorIs(t, s.Validate(), ErrMissingAPIKey)

	require.NoError(t, s.SetAPIKey(ctx, "x"))
	assert.NoError(t, s.Validate())
	cfg := s.Config()
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "x", cfg.APIKey)
	assert.Equal(t, "gemini-pro", cfg.Model)

	require.NoError(t, s.SetAPIKey(ctx, ""))
	require.NoError(t, s.SetProvider(ctx, "ollama"))
	assert.NoError(t, s.Validate(), "local provider needs no key")

	require.NoError(t, s.SetModel(ctx, CustomModel))
	assert.Equal(t, CustomModel, s.Config().Model)
	require.NoError(t, s.SetCustomModel(ctx, "qwen2.5:7b"))
	assert.Equal(t, "qwen2.5:7b", s.Config().Model)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", Mask(""))
	assert.Equal(t, "•••", Mask("abc"))
	assert.Equal(t, "••••1234", Mask("abcd1234"))
	assert.True(t, strings.HasSuffix(Mask(strings.Repeat("k", 60)+"wxyz"), "wxyz"))
}

func TestStore_SQLiteBacked(t *testing.T) {
	ctx := context.Background()
	name := strings.NewReplacer("/", "_").Replace(t.Name())
	db, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := Load(ctx, db.Settings())
	require.NoError(t, err)
	require.NoError(t, s.SetProvider(ctx, "openai"))
	require.NoError(t, s.SetModel(ctx, "gpt-4-turbo"))
	require.NoError(t, s.SetAPIKey(ctx, "sk-abc"))

	reloaded, err := Load(ctx, db.Settings())
	require.NoError(t, err)
	assert.Equal(t, s.Config(), reloaded.Config())
}
