package backend

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryClient is a decorator that retries transient failures with
// exponential backoff and jitter. Only idempotent reads are retried:
// evaluations, topic additions and uploads go through exactly once.
type RetryClient struct {
	inner  Client
	config RetryConfig
}

// WithRetry wraps a Client with retry logic.
func WithRetry(c Client, cfg RetryConfig) Client {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetryClient{inner: c, config: cfg}
}

func (r *RetryClient) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	return retry(ctx, r, func(ctx context.Context) (*AskResponse, error) { return r.inner.Ask(ctx, req) })
}

func (r *RetryClient) GenerateQuestion(ctx context.Context, req QuestionRequest) (*Question, error) {
	return retry(ctx, r, func(ctx context.Context) (*Question, error) { return r.inner.GenerateQuestion(ctx, req) })
}

func (r *RetryClient) EvaluateAnswer(ctx context.Context, req EvaluateRequest) (*Evaluation, error) {
	return r.inner.EvaluateAnswer(ensureRequestID(ctx), req)
}

func (r *RetryClient) ListTopics(ctx context.Context, username string) ([]string, error) {
	return retry(ctx, r, func(ctx context.Context) ([]string, error) { return r.inner.ListTopics(ctx, username) })
}

func (r *RetryClient) AddTopic(ctx context.Context, username, topic string) error {
	return r.inner.AddTopic(ensureRequestID(ctx), username, topic)
}

func (r *RetryClient) UploadSyllabus(ctx context.Context, req SyllabusUpload) (*SyllabusResult, error) {
	return r.inner.UploadSyllabus(ensureRequestID(ctx), req)
}

func (r *RetryClient) TextToSpeech(ctx context.Context, text string) (*SpeechResponse, error) {
	return retry(ctx, r, func(ctx context.Context) (*SpeechResponse, error) { return r.inner.TextToSpeech(ctx, text) })
}

// Health is never retried here; the liveness monitor owns re-probing.
func (r *RetryClient) Health(ctx context.Context) (*Health, error) {
	return r.inner.Health(ctx)
}

func retry[T any](ctx context.Context, r *RetryClient, call func(context.Context) (T, error)) (T, error) {
	ctx = ensureRequestID(ctx)
	var (
		zero    T
		lastErr error
	)

	for attempt := range r.config.MaxAttempts {
		resp, err := call(ctx)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return zero, err
		}

		// Last attempt: return without sleeping.
		if attempt == r.config.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(r.backoff(attempt)):
		}
	}

	return zero, lastErr
}

// shouldRetry determines if an error is transient.
func shouldRetry(err error) bool {
	// Context errors are never retried.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var unavail *ErrUnavailable
	if errors.As(err, &unavail) {
		return true
	}

	var status *ErrStatus
	if errors.As(err, &status) {
		return status.Temporary()
	}

	// Malformed payloads and anything else are not transient.
	return false
}

// backoff computes the wait duration for the given attempt.
func (r *RetryClient) backoff(attempt int) time.Duration {
	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	if wait > float64(r.config.MaxWait) {
		wait = float64(r.config.MaxWait)
	}

	// Add ±20% jitter.
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
