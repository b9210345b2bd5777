package backend

import (
	"context"

	"github.com/google/uuid"
)

type contextKey int

const (
	purposeKey contextKey = iota
	requestIDKey
)

// WithPurpose labels the calls made with ctx ("chat", "quiz", "syllabus",
// ...). The label ends up on the recorded request events.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}

// WithRequestID sets the id sent as X-Request-ID. Retries of one call share
// it so the backend logs can be correlated.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFrom returns the request id, or "" when none was set.
func RequestIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

func ensureRequestID(ctx context.Context) context.Context {
	if RequestIDFrom(ctx) != "" {
		return ctx
	}
	return WithRequestID(ctx, uuid.NewString())
}
