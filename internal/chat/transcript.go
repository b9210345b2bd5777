package chat

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

var welcomeMessages = []string{
	"Hi there! I'm Whisper, your AI study companion. How can I help you today?",
	"Hello! Ready to dive into your studies? I'm Whisper, here to assist you.",
	"Hey, student! Whisper here. What's on your mind today? Let's learn together!",
	"Welcome back! I'm Whisper, your personalized AI tutor. What concept are we tackling?",
	"Greetings! Need a quick explanation or a practice quiz? Whisper is at your service.",
}

// WelcomeMessages returns the greetings a transcript may open with.
func WelcomeMessages() []string {
	return append([]string(nil), welcomeMessages...)
}

// Transcript is an append-only list of messages in insertion order. It is
// not safe for concurrent use; Controller guards it.
type Transcript struct {
	messages []Message
	now      func() time.Time
}

// NewTranscript returns a transcript holding one welcome message.
func NewTranscript(now func() time.Time) *Transcript {
	if now == nil {
		now = time.Now
	}
	t := &Transcript{now: now}
	t.messages = append(t.messages, Message{
		ID:        "welcome",
		Role:      RoleAssistant,
		Timestamp: now(),
		Type:      TypeText,
		Content:   welcomeMessages[rand.IntN(len(welcomeMessages))],
	})
	return t
}

// Append adds m, filling ID and Timestamp when unset, and returns it.
func (t *Transcript) Append(m Message) Message {
	if m.ID == "" {
		m.ID = string(m.Role) + "-" + uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = t.now()
	}
	t.messages = append(t.messages, m)
	return m
}

// Find returns the message with id, or nil.
func (t *Transcript) Find(id string) *Message {
	for i := range t.messages {
		if t.messages[i].ID == id {
			return &t.messages[i]
		}
	}
	return nil
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Messages returns deep copies of all messages.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	for i, m := range t.messages {
		out[i] = m.clone()
	}
	return out
}
