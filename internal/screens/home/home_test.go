package home

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/examwhisperer/whisper/internal/backend"
	quizsvc "github.com/examwhisperer/whisper/internal/quiz"
	"github.com/examwhisperer/whisper/internal/router"
	"github.com/examwhisperer/whisper/internal/screen"
	"github.com/examwhisperer/whisper/internal/settings"
	"github.com/examwhisperer/whisper/internal/topics"
)

func newDeps(t *testing.T) Deps {
	t.Helper()
	client := backend.NewMockClient()
	st, err := settings.Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("settings.Load: %v", err)
	}
	return Deps{
		Client:   client,
		Username: "ana",
		Settings: st,
		Topics:   topics.New(client, "ana"),
	}
}

func press(h *HomeScreen, key rune) tea.Cmd {
	_, cmd := h.Update(tea.KeyPressMsg{Code: key})
	return cmd
}

func TestHomeScreen_MenuPushesScreens(t *testing.T) {
	h := New(newDeps(t))

	titles := map[int]string{0: "Chat", 1: "Quiz", 2: "Topics", 4: "Settings"}
	for i, want := range titles {
		h.menu.Selected = i
		cmd := press(h, tea.KeyEnter)
		if cmd == nil {
			t.Fatalf("item %d: expected a command", i)
		}
		msg, ok := cmd().(router.PushScreenMsg)
		if !ok {
			t.Fatalf("item %d: expected PushScreenMsg", i)
		}
		if got := msg.Screen.Title(); !strings.HasPrefix(got, want) {
			t.Errorf("item %d: title = %q, want %q", i, got, want)
		}
		if c, ok := msg.Screen.(interface{ Close() }); ok {
			c.Close()
		}
	}
}

func TestHomeScreen_DisabledWithoutServices(t *testing.T) {
	deps := newDeps(t)
	deps.Topics = nil
	h := New(deps)

	if !h.menu.Items[2].Disabled {
		t.Error("expected TOPICS to be disabled")
	}
	if !h.menu.Items[3].Disabled {
		t.Error("expected HISTORY to be disabled without an event store")
	}
}

func TestHomeScreen_MissingKeyBanner(t *testing.T) {
	h := New(newDeps(t))

	if !strings.Contains(h.View(120, 40), "Set an API key") {
		t.Error("expected key banner when the provider needs a key")
	}

	if err := h.deps.Settings.SetAPIKey(context.Background(), "sk-test"); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}
	if strings.Contains(h.View(120, 40), "Set an API key") {
		t.Error("expected no key banner once a key is set")
	}
}

func TestHomeScreen_BackendStatus(t *testing.T) {
	h := New(newDeps(t))

	h.Update(screen.BackendStatusMsg{Online: false, Reason: "Backend unreachable at http://localhost:8000"})
	view := h.View(120, 40)
	if !strings.Contains(view, "OFFLINE") {
		t.Error("expected OFFLINE in status bar")
	}
	if !strings.Contains(view, "Backend unreachable") {
		t.Error("expected offline reason")
	}
}

func TestHomeScreen_QuizCompletionUpdatesStatus(t *testing.T) {
	deps := newDeps(t)
	var forwarded int
	deps.OnQuizComplete = func(quizsvc.Result) { forwarded++ }
	h := New(deps)

	h.deps.OnQuizComplete(quizsvc.Result{Topic: "Optics", Correct: 4, Total: 5})

	if forwarded != 1 {
		t.Errorf("forwarded = %d, want 1", forwarded)
	}
	if !strings.Contains(h.View(120, 40), "LAST 4/5") {
		t.Error("expected last score in status bar")
	}
	if got := h.mascot(h.recent.get(), false); got != MascotCelebrating {
		t.Errorf("mascot = %v, want celebrating", got)
	}
}

func TestHomeScreen_OlderResultDoesNotReplaceNewer(t *testing.T) {
	h := New(newDeps(t))
	h.recent.set(lastQuiz{Correct: 1, Total: 5, At: time.Now()})

	h.Update(lastQuizMsg{Quiz: &lastQuiz{Correct: 5, Total: 5, At: time.Now().Add(-time.Hour)}})

	if got := h.recent.get(); got.Correct != 1 {
		t.Errorf("Correct = %d, want the newer result", got.Correct)
	}
}
