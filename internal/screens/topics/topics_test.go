package topics

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/examwhisperer/whisper/internal/backend"
	"github.com/examwhisperer/whisper/internal/router"
	"github.com/examwhisperer/whisper/internal/screen"
	topiccache "github.com/examwhisperer/whisper/internal/topics"
)

type fakeUploader struct {
	res *backend.SyllabusResult
	err error
}

func (f *fakeUploader) Upload(context.Context, string) (*backend.SyllabusResult, error) {
	return f.res, f.err
}

// run executes the request half of a batch and feeds its result back.
func run(t *testing.T, s *TopicsScreen, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatal("expected a batch")
	}
	_, next := s.Update(batch[0]())
	return next
}

func TestTopicsScreen_LoadAndQuiz(t *testing.T) {
	client := backend.NewMockClient()
	client.TopicLists = []backend.MockResult[[]string]{{Value: []string{"Algebra", "Optics"}}}
	cache := topiccache.New(client, "ana")

	var picked string
	s := New(cache, nil, func(topic string) screen.Screen {
		picked = topic
		return New(cache, nil, nil)
	})
	run(t, s, s.Init())

	if !strings.Contains(s.View(100, 30), "Optics") {
		t.Fatal("expected topics in view")
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if picked != "Optics" {
		t.Errorf("picked = %q, want Optics", picked)
	}
	if _, ok := cmd().(router.PushScreenMsg); !ok {
		t.Error("expected PushScreenMsg")
	}
}

func TestTopicsScreen_AddTopic(t *testing.T) {
	client := backend.NewMockClient()
	client.TopicLists = []backend.MockResult[[]string]{
		{Value: []string{"Algebra"}},
		{Value: []string{"Algebra", "Genetics"}},
	}
	client.AddErrs = []error{nil}
	s := New(topiccache.New(client, "ana"), nil, nil)
	run(t, s, s.Init())

	s.Update(tea.KeyPressMsg{Code: 'a', Text: "a"})
	if s.mode != modeAdd {
		t.Fatal("expected add mode")
	}
	s.input.SetValue("Genetics")
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	run(t, s, run(t, s, cmd))

	if len(client.AddedTopics) != 1 || client.AddedTopics[0] != "Genetics" {
		t.Errorf("AddedTopics = %v, want [Genetics]", client.AddedTopics)
	}
	if !strings.Contains(s.View(100, 30), "Genetics") {
		t.Error("expected new topic in view")
	}
}

func TestTopicsScreen_UploadError(t *testing.T) {
	client := backend.NewMockClient()
	client.TopicLists = []backend.MockResult[[]string]{{Value: nil}}
	up := &fakeUploader{err: errors.New("file must be a PDF")}
	s := New(topiccache.New(client, "ana"), up, nil)
	run(t, s, s.Init())

	s.Update(tea.KeyPressMsg{Code: 'u', Text: "u"})
	s.input.SetValue("notes.txt")
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	run(t, s, cmd)

	if !strings.Contains(s.View(100, 30), "file must be a PDF") {
		t.Error("expected upload error in view")
	}
}

func TestTopicsScreen_UploadSuccess(t *testing.T) {
	client := backend.NewMockClient()
	client.TopicLists = []backend.MockResult[[]string]{{Value: nil}, {Value: []string{"Kinematics"}}}
	up := &fakeUploader{res: &backend.SyllabusResult{Topics: []string{"Kinematics"}}}
	s := New(topiccache.New(client, "ana"), up, nil)
	run(t, s, s.Init())

	s.Update(tea.KeyPressMsg{Code: 'u', Text: "u"})
	s.input.SetValue("physics.pdf")
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	reload := run(t, s, cmd)

	if !strings.Contains(s.notice, "Detected topics: Kinematics") {
		t.Errorf("notice = %q", s.notice)
	}
	run(t, s, reload)
	if len(s.topics) != 1 {
		t.Errorf("topics = %v, want reloaded list", s.topics)
	}
}
