package backend

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// schemaCache caches compiled JSON schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// validatePayload validates raw JSON against schema.
// Returns *ErrInvalidResponse on failure.
func validatePayload(op string, schema *Schema, raw json.RawMessage) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &ErrInvalidResponse{
			Operation: op,
			Content:   raw,
			Err:       fmt.Errorf("invalid JSON: %w", err),
		}
	}

	compiled, err := getCompiledSchema(schema)
	if err != nil {
		return &ErrInvalidResponse{
			Operation: op,
			Content:   raw,
			Err:       fmt.Errorf("compile schema %q: %w", schema.Name, err),
		}
	}

	if err := compiled.Validate(parsed); err != nil {
		return &ErrInvalidResponse{
			Operation: op,
			Content:   raw,
			Err:       fmt.Errorf("schema validation failed: %w", err),
		}
	}
	return nil
}

// getCompiledSchema returns a cached compiled schema or compiles and caches it.
func getCompiledSchema(schema *Schema) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(schema.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The jsonschema library expects a parsed JSON value (any), not raw bytes.
	defBytes, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://%s.json", schema.Name)
	if err := c.AddResource(schemaURL, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}

	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(schema.Name, compiled)
	return compiled, nil
}

// decodeQuestion validates and decodes a quiz question payload. Beyond the
// schema, option ids must be unique and the correct id must name an option.
func decodeQuestion(raw json.RawMessage) (*Question, error) {
	const op = "generate_question"
	if err := validatePayload(op, QuestionSchema, raw); err != nil {
		return nil, err
	}

	var q Question
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, &ErrInvalidResponse{Operation: op, Content: raw, Err: err}
	}
	if err := CheckQuestion(&q); err != nil {
		return nil, &ErrInvalidResponse{Operation: op, Content: raw, Err: err}
	}
	return &q, nil
}

// CheckQuestion enforces the structural invariants the schema cannot.
func CheckQuestion(q *Question) error {
	seen := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		if seen[o.ID] {
			return fmt.Errorf("duplicate option id %q", o.ID)
		}
		seen[o.ID] = true
	}
	if !seen[q.CorrectAnswerID] {
		return fmt.Errorf("correct answer %q is not one of the options", q.CorrectAnswerID)
	}
	return nil
}

func decodeEvaluation(raw json.RawMessage) (*Evaluation, error) {
	const op = "evaluate_answer"
	if err := validatePayload(op, EvaluationSchema, raw); err != nil {
		return nil, err
	}

	var ev Evaluation
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, &ErrInvalidResponse{Operation: op, Content: raw, Err: err}
	}

	// Accept the camelCase spellings some backend versions send.
	var alt struct {
		CorrectAnswer *AnswerRef `json:"correctAnswer"`
		UserAnswer    *AnswerRef `json:"userAnswer"`
	}
	if err := json.Unmarshal(raw, &alt); err == nil {
		if ev.CorrectAnswer.ID == "" && alt.CorrectAnswer != nil {
			ev.CorrectAnswer = *alt.CorrectAnswer
		}
		if ev.UserAnswer.ID == "" && alt.UserAnswer != nil {
			ev.UserAnswer = *alt.UserAnswer
		}
	}
	return &ev, nil
}
