package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// HTTPClient implements Client against the real backend.
type HTTPClient struct {
	baseURL       string
	http          *http.Client
	healthTimeout time.Duration
	minVersion    string
}

// NewHTTPClient creates a client for cfg.BaseURL.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	healthTimeout := cfg.HealthTimeout
	if healthTimeout <= 0 {
		healthTimeout = 5 * time.Second
	}
	return &HTTPClient{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		http:          &http.Client{Timeout: cfg.Timeout},
		healthTimeout: healthTimeout,
		minVersion:    canonicalVersion(cfg.MinBackendVersion),
	}, nil
}

func (c *HTTPClient) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	var out AskResponse
	if err := c.doJSON(ctx, "ask", http.MethodPost, "/explain", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GenerateQuestion(ctx context.Context, req QuestionRequest) (*Question, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, "generate_question", http.MethodPost, "/quiz/question", req, &raw); err != nil {
		return nil, err
	}
	return decodeQuestion(raw)
}

func (c *HTTPClient) EvaluateAnswer(ctx context.Context, req EvaluateRequest) (*Evaluation, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, "evaluate_answer", http.MethodPost, "/quiz/evaluate", req, &raw); err != nil {
		return nil, err
	}
	return decodeEvaluation(raw)
}

func (c *HTTPClient) ListTopics(ctx context.Context, username string) ([]string, error) {
	var topics []string
	path := "/topics/" + url.PathEscape(username)
	if err := c.doJSON(ctx, "list_topics", http.MethodGet, path, nil, &topics); err != nil {
		return nil, err
	}
	return topics, nil
}

func (c *HTTPClient) AddTopic(ctx context.Context, username, topic string) error {
	path := "/topics/" + url.PathEscape(username)
	body := map[string]string{"topic": topic}
	return c.doJSON(ctx, "add_topic", http.MethodPost, path, body, nil)
}

func (c *HTTPClient) UploadSyllabus(ctx context.Context, req SyllabusUpload) (*SyllabusResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("pdf", filepath.Base(req.Filename))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, req.PDF); err != nil {
		return nil, fmt.Errorf("read syllabus: %w", err)
	}
	fields := [][2]string{
		{"username", req.Username},
		{"user_id", req.Username},
		{"llm_provider", req.LLM.Provider},
		{"llm_api_key", req.LLM.APIKey},
		{"llm_model", req.LLM.Model},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("write field %s: %w", f[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/syllabus", &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")

	var body syllabusBody
	if err := c.do(httpReq, "upload_syllabus", &body); err != nil {
		return nil, err
	}
	return &SyllabusResult{Topics: body.normalize()}, nil
}

func (c *HTTPClient) TextToSpeech(ctx context.Context, text string) (*SpeechResponse, error) {
	var out SpeechResponse
	if err := c.doJSON(ctx, "text_to_speech", http.MethodPost, "/tts", map[string]string{"text": text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Health(ctx context.Context) (*Health, error) {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &Health{}, &ErrUnavailable{Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if resp.StatusCode != http.StatusOK {
		return &Health{}, &ErrStatus{
			Operation:  "health",
			StatusCode: resp.StatusCode,
			Message:    serverMessage(body),
		}
	}

	h := &Health{OK: true}
	var hb healthBody
	if json.Unmarshal(body, &hb) == nil {
		h.Version = hb.Version
	}

	if c.minVersion != "" && h.Version != "" {
		v := canonicalVersion(h.Version)
		if semver.IsValid(v) && semver.Compare(v, c.minVersion) < 0 {
			h.OK = false
			return h, &ErrIncompatible{Version: h.Version, MinVersion: c.minVersion}
		}
	}
	return h, nil
}

// doJSON sends an optional JSON body and decodes a JSON response into out
// (which may be nil).
func (c *HTTPClient) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	return c.do(httpReq, op, out)
}

// do executes req and classifies the outcome.
func (c *HTTPClient) do(req *http.Request, op string, out any) error {
	if id := RequestIDFrom(req.Context()); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return &ErrUnavailable{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &ErrUnavailable{Err: fmt.Errorf("read %s response: %w", op, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ErrStatus{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    serverMessage(body),
		}
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ErrInvalidResponse{Operation: op, Content: body, Err: err}
	}
	return nil
}
