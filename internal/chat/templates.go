package chat

// PromptTemplate is a ready-made tutor persona.
type PromptTemplate struct {
	Name   string
	Prompt string
}

// PromptTemplates returns the built-in personas.
func PromptTemplates() []PromptTemplate {
	return []PromptTemplate{
		{"Math Tutor", "You are a math tutor. Break down complex problems step-by-step and explain the reasoning behind each step."},
		{"Science Teacher", "You are a science teacher. Use analogies and real-world examples to explain scientific concepts clearly."},
		{"Writing Coach", "You are a writing coach. Help improve essays, grammar, and writing style with constructive feedback."},
		{"Quiz Master", "You are a quiz master. Create engaging questions and provide detailed explanations for answers."},
	}
}
