// Package backendtest provides an in-process fake of the Exam Whisperer
// backend for tests.
package backendtest

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gorilla/mux"

	"github.com/examwhisperer/whisper/internal/backend"
)

// Route names accepted by FailNext and Hits.
const (
	RouteExplain  = "explain"
	RouteQuestion = "question"
	RouteEvaluate = "evaluate"
	RouteTopics   = "topics"
	RouteAddTopic = "add_topic"
	RouteSyllabus = "syllabus"
	RouteTTS      = "tts"
	RouteHealth   = "health"
)

type failure struct {
	status int
	detail string
}

// Server is a fake backend. The zero configuration answers every endpoint
// with plausible canned data.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	healthy   bool
	version   string
	answer    string
	questions []backend.Question
	qNext     int
	topics    map[string][]string
	syllabus  []string
	audio     []byte
	failures  map[string][]failure
	hits      map[string]int

	lastAsk      backend.AskRequest
	lastQuestion backend.QuestionRequest
	lastEval     backend.EvaluateRequest
	lastForm     map[string]string
}

// New starts a fake backend. It is closed when the test ends.
func New(t interface{ Cleanup(func()) }) *Server {
	s := &Server{
		healthy: true,
		answer:  "Photosynthesis turns light into chemical energy.",
		questions: []backend.Question{{
			Question: "What is 2+2?",
			Options: []backend.Option{
				{ID: "a", Text: "3"},
				{ID: "b", Text: "4"},
				{ID: "c", Text: "5"},
			},
			CorrectAnswerID: "b",
			Feedback:        "2+2 is 4.",
		}},
		topics:   map[string][]string{},
		syllabus: []string{"Cells", "Genetics"},
		audio:    []byte("RIFFfake"),
		failures: map[string][]failure{},
		hits:     map[string]int{},
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/explain", s.handleExplain).Methods(http.MethodPost)
	r.HandleFunc("/quiz/question", s.handleQuestion).Methods(http.MethodPost)
	r.HandleFunc("/quiz/evaluate", s.handleEvaluate).Methods(http.MethodPost)
	r.HandleFunc("/topics/{user}", s.handleListTopics).Methods(http.MethodGet)
	r.HandleFunc("/topics/{user}", s.handleAddTopic).Methods(http.MethodPost)
	r.HandleFunc("/syllabus", s.handleSyllabus).Methods(http.MethodPost)
	r.HandleFunc("/tts", s.handleTTS).Methods(http.MethodPost)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Config returns a backend config pointing at the fake with fast retries.
func (s *Server) Config() backend.Config {
	cfg := backend.DefaultConfig()
	cfg.BaseURL = s.URL
	cfg.Retry.InitialWait = 0
	cfg.Retry.MaxWait = 0
	return cfg
}

// SetHealthy toggles the /health response between 200 and 503.
func (s *Server) SetHealthy(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = ok
}

// SetVersion sets the version reported by /health.
func (s *Server) SetVersion(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = v
}

// SetAnswer sets the content returned by /explain.
func (s *Server) SetAnswer(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answer = content
}

// SetQuestions replaces the questions served by /quiz/question, in order.
func (s *Server) SetQuestions(qs ...backend.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = qs
	s.qNext = 0
}

// SetTopics seeds the topic list for user.
func (s *Server) SetTopics(user string, topics ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics[user] = append([]string(nil), topics...)
}

// Topics returns the stored topic list for user.
func (s *Server) Topics(user string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.topics[user]...)
}

// SetSyllabusTopics sets the topics /syllabus reports.
func (s *Server) SetSyllabusTopics(topics ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syllabus = topics
}

// SetAudio sets the raw audio /tts returns (base64-encoded on the wire).
func (s *Server) SetAudio(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio = b
}

// FailNext makes the next request to route fail with status and a
// FastAPI-style detail message. Calls queue up.
func (s *Server) FailNext(route string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], failure{status: status, detail: detail})
}

// Hits returns the number of requests route has received.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// LastAsk returns the most recent /explain body.
func (s *Server) LastAsk() backend.AskRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAsk
}

// LastQuestionRequest returns the most recent /quiz/question body.
func (s *Server) LastQuestionRequest() backend.QuestionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuestion
}

// LastEvaluation returns the most recent /quiz/evaluate body.
func (s *Server) LastEvaluation() backend.EvaluateRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastEval
}

// LastForm returns the text fields of the most recent /syllabus upload.
func (s *Server) LastForm() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastForm
}

// enter counts a hit and reports whether an injected failure was written.
func (s *Server) enter(w http.ResponseWriter, route string) bool {
	s.mu.Lock()
	s.hits[route]++
	var f *failure
	if q := s.failures[route]; len(q) > 0 {
		f = &q[0]
		s.failures[route] = q[1:]
	}
	s.mu.Unlock()

	if f == nil {
		return false
	}
	writeJSON(w, f.status, map[string]string{"detail": f.detail})
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, RouteHealth) {
		return
	}
	s.mu.Lock()
	healthy, version := s.healthy, s.version
	s.mu.Unlock()

	if !healthy {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version})
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, RouteExplain) {
		return
	}
	var req backend.AskRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	s.lastAsk = req
	answer := s.answer
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, backend.AskResponse{Content: answer, Topic: req.Topic})
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, RouteQuestion) {
		return
	}
	var req backend.QuestionRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	s.lastQuestion = req
	if len(s.questions) == 0 {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "no questions"})
		return
	}
	q := s.questions[s.qNext%len(s.questions)]
	s.qNext++
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, RouteEvaluate) {
		return
	}
	var req backend.EvaluateRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	s.lastEval = req
	s.mu.Unlock()

	q := req.Question
	correct := req.UserAnswer == q.CorrectAnswerID
	feedback := "Correct!"
	if !correct {
		feedback = "Not quite. " + q.Feedback
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"correct":        correct,
		"feedback":       feedback,
		"correct_answer": map[string]string{"id": q.CorrectAnswerID, "text": q.OptionText(q.CorrectAnswerID)},
		"user_answer":    req.UserAnswer,
	})
}

func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, RouteTopics) {
		return
	}
	user := mux.Vars(r)["user"]
	s.mu.Lock()
	topics := append([]string{}, s.topics[user]...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, topics)
}

func (s *Server) handleAddTopic(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, RouteAddTopic) {
		return
	}
	var body struct {
		Topic string `json:"topic"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Topic == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"msg": "topic must not be empty"}},
		})
		return
	}
	user := mux.Vars(r)["user"]
	s.mu.Lock()
	s.topics[user] = append(s.topics[user], body.Topic)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSyllabus(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, RouteSyllabus) {
		return
	}
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	file, _, err := r.FormFile("pdf")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "missing pdf"})
		return
	}
	_, _ = io.Copy(io.Discard, file)
	file.Close()

	form := map[string]string{}
	for k, v := range r.MultipartForm.Value {
		if len(v) > 0 {
			form[k] = v[0]
		}
	}

	s.mu.Lock()
	s.lastForm = form
	topics := append([]string{}, s.syllabus...)
	user := form["username"]
	s.topics[user] = append(s.topics[user], topics...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"topics": topics})
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, RouteTTS) {
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if !decode(w, r, &body) {
		return
	}
	s.mu.Lock()
	audio := s.audio
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, backend.SpeechResponse{Audio: base64.StdEncoding.EncodeToString(audio)})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
