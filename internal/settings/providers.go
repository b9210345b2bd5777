package settings

import (
	"github.com/samber/lo"
)

// CustomModel is the ollama model entry that defers to a user-entered name.
const CustomModel = "custom"

// Provider describes one selectable LLM provider.
type Provider struct {
	// Name is the identifier sent to the backend.
	Name string
	// Label is the display name.
	Label string
	// Models lists the allowed model ids. The first is the default.
	Models []string
	// Local providers run on the user's machine and need no API key.
	Local bool
}

var providers = []Provider{
	{
		Name:   "gemini",
		Label:  "Google Gemini",
		Models: []string{"gemini-pro", "gemini-1.5-pro-latest", "gemini-1.5-flash-latest"},
	},
	{
		Name:   "openai",
		Label:  "OpenAI",
		Models: []string{"gpt-3.5-turbo", "gpt-4", "gpt-4o", "gpt-4-turbo"},
	},
	{
		Name:   "anthropic",
		Label:  "Anthropic Claude",
		Models: []string{"claude-3-opus-20240229", "claude-3-sonnet-20240229", "claude-3-haiku-20240229"},
	},
	{
		Name:   "ollama",
		Label:  "Ollama (local)",
		Models: []string{"gemma3", "llama2", "mistral", "phi", CustomModel},
		Local:  true,
	},
}

// Providers returns the provider table in display order.
func Providers() []Provider {
	return append([]Provider(nil), providers...)
}

// ProviderNames returns the provider identifiers in display order.
func ProviderNames() []string {
	return lo.Map(providers, func(p Provider, _ int) string { return p.Name })
}

// Lookup finds a provider by name.
func Lookup(name string) (Provider, bool) {
	return lo.Find(providers, func(p Provider) bool { return p.Name == name })
}

// RequiresKey reports whether the provider needs an API key.
func (p Provider) RequiresKey() bool {
	return !p.Local
}

// DefaultModel returns the model selected when switching to p.
func (p Provider) DefaultModel() string {
	return p.Models[0]
}

// HasModel reports whether model is in p's list.
func (p Provider) HasModel(model string) bool {
	return lo.Contains(p.Models, model)
}
