package backend

import (
	"context"
	"errors"
	"time"

	"github.com/examwhisperer/whisper/internal/logger"
	"github.com/examwhisperer/whisper/internal/store"
)

// LoggingClient is a decorator that records every backend request as an
// event and a debug log line.
type LoggingClient struct {
	inner  Client
	events store.EventRepo
	log    *logger.Logger
}

// WithLogging wraps a Client with event logging. events may be nil.
func WithLogging(c Client, events store.EventRepo, log *logger.Logger) Client {
	if log == nil {
		log = logger.Nop()
	}
	return &LoggingClient{inner: c, events: events, log: log}
}

func (l *LoggingClient) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	start := time.Now()
	resp, err := l.inner.Ask(ctx, req)
	l.record(ctx, "ask", start, err, "topic", req.Topic, "provider", req.LLM.Provider, "model", req.LLM.Model)
	return resp, err
}

func (l *LoggingClient) GenerateQuestion(ctx context.Context, req QuestionRequest) (*Question, error) {
	start := time.Now()
	resp, err := l.inner.GenerateQuestion(ctx, req)
	l.record(ctx, "generate_question", start, err, "topic", req.Topic, "difficulty", req.Difficulty, "index", req.QuestionIndex)
	return resp, err
}

func (l *LoggingClient) EvaluateAnswer(ctx context.Context, req EvaluateRequest) (*Evaluation, error) {
	start := time.Now()
	resp, err := l.inner.EvaluateAnswer(ctx, req)
	l.record(ctx, "evaluate_answer", start, err, "topic", req.Topic, "index", req.QuestionIndex)
	return resp, err
}

func (l *LoggingClient) ListTopics(ctx context.Context, username string) ([]string, error) {
	start := time.Now()
	resp, err := l.inner.ListTopics(ctx, username)
	l.record(ctx, "list_topics", start, err, "username", username)
	return resp, err
}

func (l *LoggingClient) AddTopic(ctx context.Context, username, topic string) error {
	start := time.Now()
	err := l.inner.AddTopic(ctx, username, topic)
	l.record(ctx, "add_topic", start, err, "username", username, "topic", topic)
	return err
}

func (l *LoggingClient) UploadSyllabus(ctx context.Context, req SyllabusUpload) (*SyllabusResult, error) {
	start := time.Now()
	resp, err := l.inner.UploadSyllabus(ctx, req)
	l.record(ctx, "upload_syllabus", start, err, "file", req.Filename)
	return resp, err
}

func (l *LoggingClient) TextToSpeech(ctx context.Context, text string) (*SpeechResponse, error) {
	start := time.Now()
	resp, err := l.inner.TextToSpeech(ctx, text)
	l.record(ctx, "text_to_speech", start, err, "chars", len(text))
	return resp, err
}

// Health probes are logged but not stored; the monitor polls them.
func (l *LoggingClient) Health(ctx context.Context) (*Health, error) {
	resp, err := l.inner.Health(ctx)
	if err != nil {
		l.log.Debug("health probe failed", "error", err)
	}
	return resp, err
}

func (l *LoggingClient) record(ctx context.Context, op string, start time.Time, err error, kv ...any) {
	data := store.RequestEventData{
		Operation: op,
		Purpose:   PurposeFrom(ctx),
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}

	var status *ErrStatus
	switch {
	case err == nil:
		data.StatusCode = 200
	case errors.As(err, &status):
		data.StatusCode = status.StatusCode
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	fields := append([]any{"op", op, "purpose", data.Purpose, "latency_ms", data.LatencyMs}, kv...)
	if id := RequestIDFrom(ctx); id != "" {
		fields = append(fields, "request_id", id)
	}
	if err != nil {
		l.log.Warn("backend request failed", append(fields, "error", err)...)
	} else {
		l.log.Debug("backend request", fields...)
	}

	if l.events == nil {
		return
	}
	// Log the event but don't fail the request if recording fails. The
	// request context may already be cancelled, so record on a fresh one.
	if logErr := l.events.AppendRequest(context.WithoutCancel(ctx), data); logErr != nil {
		l.log.Warn("failed to record request event", "error", logErr)
	}
}
