package backend

import (
	"context"
	"sync"
)

// MockClient is a deterministic Client for tests. Each operation pops
// canned results from its own FIFO queue; an empty queue yields
// ErrUnavailable. Every call is recorded.
type MockClient struct {
	mu sync.Mutex

	Answers     []MockResult[*AskResponse]
	Questions   []MockResult[*Question]
	Evaluations []MockResult[*Evaluation]
	TopicLists  []MockResult[[]string]
	AddErrs     []error
	Syllabi     []MockResult[*SyllabusResult]
	Speech      []MockResult[*SpeechResponse]
	// HealthErr is returned by every Health call.
	HealthErr error

	Calls []string

	AskRequests      []AskRequest
	QuestionRequests []QuestionRequest
	EvalRequests     []EvaluateRequest
	AddedTopics      []string
}

// MockResult is one canned response.
type MockResult[T any] struct {
	Value T
	Err   error
}

// NewMockClient returns an empty MockClient.
func NewMockClient() *MockClient {
	return &MockClient{}
}

func pop[T any](q *[]MockResult[T]) (T, error) {
	var zero T
	if len(*q) == 0 {
		return zero, &ErrUnavailable{}
	}
	r := (*q)[0]
	*q = (*q)[1:]
	return r.Value, r.Err
}

func (m *MockClient) Ask(_ context.Context, req AskRequest) (*AskResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "ask")
	m.AskRequests = append(m.AskRequests, req)
	return pop(&m.Answers)
}

func (m *MockClient) GenerateQuestion(_ context.Context, req QuestionRequest) (*Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "generate_question")
	m.QuestionRequests = append(m.QuestionRequests, req)
	return pop(&m.Questions)
}

func (m *MockClient) EvaluateAnswer(_ context.Context, req EvaluateRequest) (*Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "evaluate_answer")
	m.EvalRequests = append(m.EvalRequests, req)
	return pop(&m.Evaluations)
}

func (m *MockClient) ListTopics(_ context.Context, _ string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "list_topics")
	return pop(&m.TopicLists)
}

func (m *MockClient) AddTopic(_ context.Context, _ string, topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "add_topic")
	var err error
	if len(m.AddErrs) > 0 {
		err, m.AddErrs = m.AddErrs[0], m.AddErrs[1:]
	}
	if err == nil {
		m.AddedTopics = append(m.AddedTopics, topic)
	}
	return err
}

func (m *MockClient) UploadSyllabus(_ context.Context, _ SyllabusUpload) (*SyllabusResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "upload_syllabus")
	return pop(&m.Syllabi)
}

func (m *MockClient) TextToSpeech(_ context.Context, _ string) (*SpeechResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "text_to_speech")
	return pop(&m.Speech)
}

func (m *MockClient) Health(_ context.Context) (*Health, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "health")
	if m.HealthErr != nil {
		return &Health{}, m.HealthErr
	}
	return &Health{OK: true}, nil
}

// CallCount returns the number of recorded calls to op, or all calls when
// op is empty.
func (m *MockClient) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if op == "" {
		return len(m.Calls)
	}
	n := 0
	for _, c := range m.Calls {
		if c == op {
			n++
		}
	}
	return n
}
