package app

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/examwhisperer/whisper/internal/backend"
	"github.com/examwhisperer/whisper/internal/liveness"
	"github.com/examwhisperer/whisper/internal/router"
	"github.com/examwhisperer/whisper/internal/screen"
	"github.com/examwhisperer/whisper/internal/screens/home"
	"github.com/examwhisperer/whisper/internal/settings"
)

// stubScreen records what reaches it.
type stubScreen struct {
	intercept bool
	escs      int
	status    *screen.BackendStatusMsg
}

func (s *stubScreen) Init() tea.Cmd { return nil }
func (s *stubScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		if msg.String() == "esc" {
			s.escs++
		}
	case screen.BackendStatusMsg:
		s.status = &msg
	}
	return s, nil
}
func (s *stubScreen) View(int, int) string { return "stub" }
func (s *stubScreen) Title() string        { return "Stub" }
func (s *stubScreen) InterceptBack() bool  { return s.intercept }

func newDeps(t *testing.T, client *backend.MockClient) home.Deps {
	t.Helper()
	st, err := settings.Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("settings.Load: %v", err)
	}
	return home.Deps{Client: client, Username: "ana", Settings: st}
}

func update(m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(AppModel), cmd
}

func TestApp_InitialScreenOnTop(t *testing.T) {
	stub := &stubScreen{}
	m := newAppModel(Options{Deps: newDeps(t, backend.NewMockClient()), Initial: stub})
	m.Init()

	if m.router.Depth() != 2 {
		t.Fatalf("depth = %d, want 2", m.router.Depth())
	}
	if m.router.Active() != stub {
		t.Error("expected initial screen on top")
	}
}

func TestApp_EscPops(t *testing.T) {
	m := newAppModel(Options{Deps: newDeps(t, backend.NewMockClient()), Initial: &stubScreen{}})
	m.Init()

	m, cmd := update(m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected a pop command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Fatal("expected PopScreenMsg")
	}
}

func TestApp_EscForwardedWhenIntercepted(t *testing.T) {
	stub := &stubScreen{intercept: true}
	m := newAppModel(Options{Deps: newDeps(t, backend.NewMockClient()), Initial: stub})
	m.Init()

	m, _ = update(m, tea.KeyPressMsg{Code: tea.KeyEscape})

	if stub.escs != 1 {
		t.Errorf("escs = %d, want 1", stub.escs)
	}
	if m.router.Depth() != 2 {
		t.Errorf("depth = %d, want 2", m.router.Depth())
	}
}

func TestApp_BackendStatusBroadcast(t *testing.T) {
	client := backend.NewMockClient()
	client.HealthErr = errors.New("connection refused")
	deps := newDeps(t, client)
	deps.Monitor = liveness.New(client, time.Second, time.Minute, nil)

	stub := &stubScreen{}
	m := newAppModel(Options{Deps: deps, Initial: stub})
	m.Init()

	deps.Monitor.Check(context.Background())

	msg := m.waitForStatus()()
	m, _ = update(m, msg)

	if m.online {
		t.Error("expected header status offline")
	}
	if stub.status == nil || stub.status.Online {
		t.Fatalf("status = %+v, want offline broadcast", stub.status)
	}
	if stub.status.Reason != liveness.OfflineMessage {
		t.Errorf("reason = %q", stub.status.Reason)
	}
}

func TestApp_StatusAndHints(t *testing.T) {
	deps := newDeps(t, backend.NewMockClient())
	m := newAppModel(Options{Deps: deps})
	m.Init()

	if got, want := m.status().Model, deps.Settings.Config().Model; got != want {
		t.Errorf("status model = %q, want %q", got, want)
	}

	hints := m.footerHints(m.router.Active())
	if last := hints[len(hints)-1]; last.Key != "Ctrl+C" {
		t.Errorf("last hint = %q, want Ctrl+C", last.Key)
	}
}

func TestApp_FocusResumesMonitor(t *testing.T) {
	client := backend.NewMockClient()
	deps := newDeps(t, client)
	deps.Monitor = liveness.New(client, time.Second, time.Minute, nil)
	m := newAppModel(Options{Deps: deps})

	_, cmd := update(m, tea.FocusMsg{})
	if cmd != nil {
		t.Error("expected no command on focus")
	}
}
