package settings

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/examwhisperer/whisper/internal/backend"
	cfg "github.com/examwhisperer/whisper/internal/settings"
)

type fakeVerifier struct {
	models []string
	err    error
	got    backend.LLMConfig
}

func (f *fakeVerifier) Verify(_ context.Context, c backend.LLMConfig) ([]string, error) {
	f.got = c
	return f.models, f.err
}

func newTestScreen(t *testing.T, v Verifier) (*SettingsScreen, *cfg.Store) {
	t.Helper()
	st, err := cfg.Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return New(st, v), st
}

func press(s *SettingsScreen, keys ...tea.KeyPressMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = s.Update(k)
	}
	return cmd
}

var (
	keyDown  = tea.KeyPressMsg{Code: tea.KeyDown}
	keyRight = tea.KeyPressMsg{Code: tea.KeyRight}
	keyEnter = tea.KeyPressMsg{Code: tea.KeyEnter}
)

func TestSettingsScreen_CycleProviderResetsModel(t *testing.T) {
	s, st := newTestScreen(t, nil)
	before := st.Provider()

	press(s, keyRight)

	if st.Provider() == before {
		t.Fatal("expected provider to change")
	}
	p, _ := cfg.Lookup(st.Provider())
	if st.Model() != p.DefaultModel() {
		t.Errorf("Model = %q, want default %q", st.Model(), p.DefaultModel())
	}
}

func TestSettingsScreen_CycleModel(t *testing.T) {
	s, st := newTestScreen(t, nil)
	models := st.Models()

	press(s, keyDown, keyRight)

	if st.Model() != models[1] {
		t.Errorf("Model = %q, want %q", st.Model(), models[1])
	}
}

func TestSettingsScreen_SaveKey(t *testing.T) {
	s, st := newTestScreen(t, nil)

	// Provider, Model, (custom skipped), API key.
	press(s, keyDown, keyDown)
	if s.row != rowKey {
		t.Fatalf("row = %d, want key row", s.row)
	}
	s.key.SetValue("  sk-test-1234  ")
	press(s, keyEnter)

	if st.APIKey() != "sk-test-1234" {
		t.Errorf("APIKey = %q, want trimmed key", st.APIKey())
	}
	if strings.Contains(s.View(100, 30), "sk-test-1234") {
		t.Error("expected key to be masked in view")
	}
}

func TestSettingsScreen_Verify(t *testing.T) {
	v := &fakeVerifier{models: []string{"m1", "m2"}}
	s, st := newTestScreen(t, v)
	if err := st.SetAPIKey(context.Background(), "k"); err != nil {
		t.Fatal(err)
	}

	s.row = rowVerify
	cmd := press(s, keyEnter)
	if cmd == nil || !s.verifying {
		t.Fatal("expected verification to start")
	}
	s.Update(verifiedMsg{Models: v.models})
	if !strings.Contains(s.View(100, 30), "2 models available") {
		t.Error("expected success notice")
	}

	s.Update(verifiedMsg{Err: errors.New("key rejected")})
	if !strings.Contains(s.View(100, 30), "key rejected") {
		t.Error("expected error in view")
	}
}
