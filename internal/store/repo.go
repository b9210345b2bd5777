package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit int       // max results (0 = unlimited)
	After int64     // sequence > After
	From  time.Time // timestamp >= From
	To    time.Time // timestamp <= To
}

// RequestEventData captures a single backend request.
type RequestEventData struct {
	Operation    string // e.g. "ask", "generate_question"
	Purpose      string // caller label, e.g. "chat", "quiz"
	StatusCode   int    // HTTP status, 0 when the transport failed
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// RequestEvent is a stored RequestEventData with its ordering metadata.
type RequestEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	RequestEventData
}

// QuizResultData captures a finished quiz session.
type QuizResultData struct {
	SessionID  string
	Topic      string
	Difficulty string
	Correct    int
	Total      int
}

// QuizResult is a stored QuizResultData.
type QuizResult struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	QuizResultData
}

// OperationUsage aggregates request events for one operation.
type OperationUsage struct {
	Operation    string
	Calls        int
	Failures     int
	AvgLatencyMs int64
}

// EventRepo provides append and query access to local events.
type EventRepo interface {
	// AppendRequest records a backend request event.
	AppendRequest(ctx context.Context, data RequestEventData) error

	// QueryRequests returns request events, newest first.
	QueryRequests(ctx context.Context, opts QueryOpts) ([]RequestEvent, error)

	// UsageByOperation aggregates request events per operation.
	UsageByOperation(ctx context.Context) ([]OperationUsage, error)

	// AppendQuizResult records a finished quiz.
	AppendQuizResult(ctx context.Context, data QuizResultData) error

	// QueryQuizResults returns quiz results, newest first.
	QueryQuizResults(ctx context.Context, opts QueryOpts) ([]QuizResult, error)
}
