package home

import (
	"github.com/examwhisperer/whisper/internal/backend"
	chatsvc "github.com/examwhisperer/whisper/internal/chat"
	"github.com/examwhisperer/whisper/internal/liveness"
	"github.com/examwhisperer/whisper/internal/logger"
	quizsvc "github.com/examwhisperer/whisper/internal/quiz"
	"github.com/examwhisperer/whisper/internal/screen"
	chatscreen "github.com/examwhisperer/whisper/internal/screens/chat"
	historyscreen "github.com/examwhisperer/whisper/internal/screens/history"
	quizscreen "github.com/examwhisperer/whisper/internal/screens/quiz"
	settingsscreen "github.com/examwhisperer/whisper/internal/screens/settings"
	topicsscreen "github.com/examwhisperer/whisper/internal/screens/topics"
	"github.com/examwhisperer/whisper/internal/settings"
	"github.com/examwhisperer/whisper/internal/store"
	"github.com/examwhisperer/whisper/internal/syllabus"
	"github.com/examwhisperer/whisper/internal/topics"
)

// Deps holds the services the screens are built from. Monitor, Topics,
// Uploader, Events and Verifier are optional.
type Deps struct {
	Client   backend.Client
	Username string
	Settings *settings.Store
	Verifier settingsscreen.Verifier
	Monitor  *liveness.Monitor
	Topics   *topics.Cache
	Uploader *syllabus.Uploader
	Events   store.EventRepo
	Logger   *logger.Logger

	// OnQuizComplete, when set, receives every finished quiz.
	OnQuizComplete func(quizsvc.Result)
}

// gate returns the monitor as a chat gate, or nil when there is none.
func (d Deps) gate() chatsvc.Gate {
	if d.Monitor == nil {
		return nil
	}
	return d.Monitor
}

// NewChat builds a chat screen seeded with topic.
func (d Deps) NewChat(topic string) screen.Screen {
	ctrl := chatsvc.New(d.Client, chatsvc.Options{
		Username: d.Username,
		Topic:    topic,
		Settings: d.Settings,
		Gate:     d.gate(),
		Logger:   d.Logger,
	})
	var lister chatscreen.TopicLister
	if d.Topics != nil {
		lister = d.Topics
	}
	return chatscreen.New(ctrl, d.gate(), lister)
}

// NewSession builds a quiz session.
func (d Deps) NewSession() *quizsvc.Session {
	opts := quizsvc.Options{
		Username:   d.Username,
		Settings:   d.Settings,
		OnComplete: d.OnQuizComplete,
		Logger:     d.Logger,
	}
	if d.Events != nil {
		opts.Recorder = d.Events
	}
	return quizsvc.New(d.Client, opts)
}

// NewQuiz builds a quiz screen. Topic suggestions come from the cache.
func (d Deps) NewQuiz(opts quizscreen.Options) screen.Screen {
	opts.NewSession = d.NewSession
	if d.Topics != nil && opts.Suggestions == nil {
		opts.Suggestions = d.Topics.Topics()
	}
	return quizscreen.New(d.NewSession(), opts)
}

// NewTopics builds the topic list screen; Enter starts a quiz.
func (d Deps) NewTopics() screen.Screen {
	var up topicsscreen.Uploader
	if d.Uploader != nil {
		up = d.Uploader
	}
	return topicsscreen.New(d.Topics, up, func(topic string) screen.Screen {
		return d.NewQuiz(quizscreen.Options{Topic: topic})
	})
}

// NewSettings builds the settings screen.
func (d Deps) NewSettings() screen.Screen {
	return settingsscreen.New(d.Settings, d.Verifier)
}

// NewHistory builds the history screen.
func (d Deps) NewHistory() screen.Screen {
	return historyscreen.New(d.Events)
}
