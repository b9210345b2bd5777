package backend

// Schema defines the JSON structure expected from the backend.
type Schema struct {
	// Name identifies this schema, e.g. "quiz-question".
	Name string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// QuestionSchema is the shape of a generated quiz question.
var QuestionSchema = &Schema{
	Name: "quiz-question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"options": map[string]any{
				"type":     "array",
				"minItems": 2,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":   map[string]any{"type": "string", "minLength": 1},
						"text": map[string]any{"type": "string"},
					},
					"required": []any{"id", "text"},
				},
			},
			"correctAnswerId": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"feedback": map[string]any{
				"type": "string",
			},
		},
		"required": []any{"question", "options", "correctAnswerId"},
	},
}

// EvaluationSchema is the shape of an answer evaluation.
var EvaluationSchema = &Schema{
	Name: "quiz-evaluation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"correct":  map[string]any{"type": "boolean"},
			"feedback": map[string]any{"type": "string"},
		},
		"required": []any{"correct"},
	},
}
