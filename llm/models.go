package llm

import (
	"fmt"
	"strings"
)

// Model represents an LLM model with its properties
type Model struct {
	Provider    Provider `json:"provider"`
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	ContextSize int      `json:"context_size"`
	ToolUse     bool     `json:"tool_use"`
}

// Provider represents LLM providers
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Model name constants for the models the harness drives
const (
	ModelGPT4o     = "gpt-4o"
	ModelGPT4oMini = "gpt-4o-mini"

	ModelClaude35Sonnet = "claude-3-5-sonnet-20240620"
	ModelClaude35Haiku  = "claude-3-5-haiku-20241022"
)

// modelRegistry holds known models keyed by name
var modelRegistry = map[string]Model{
	ModelGPT4o: {
		Provider:    ProviderOpenAI,
		Name:        ModelGPT4o,
		DisplayName: "GPT-4o",
		ContextSize: 128000,
		ToolUse:     true,
	},
	ModelGPT4oMini: {
		Provider:    ProviderOpenAI,
		Name:        ModelGPT4oMini,
		DisplayName: "GPT-4o Mini",
		ContextSize: 128000,
		ToolUse:     true,
	},
	ModelClaude35Sonnet: {
		Provider:    ProviderAnthropic,
		Name:        ModelClaude35Sonnet,
		DisplayName: "Claude 3.5 Sonnet",
		ContextSize: 200000,
		ToolUse:     true,
	},
	ModelClaude35Haiku: {
		Provider:    ProviderAnthropic,
		Name:        ModelClaude35Haiku,
		DisplayName: "Claude 3.5 Haiku",
		ContextSize: 200000,
		ToolUse:     true,
	},
}

// GetModel returns the model with the given name
func GetModel(name string) (Model, error) {
	if m, ok := modelRegistry[name]; ok {
		return m, nil
	}
	return Model{}, fmt.Errorf("unknown model: %s", name)
}

// GetModelsByProvider returns all registered models for a provider
func GetModelsByProvider(provider Provider) []Model {
	var models []Model
	for _, m := range modelRegistry {
		if m.Provider == provider {
			models = append(models, m)
		}
	}
	return models
}

// ValidateModel checks that a model name is registered
func ValidateModel(name string) error {
	if _, ok := modelRegistry[name]; !ok {
		return fmt.Errorf("unknown model: %s", name)
	}
	return nil
}

// InferProvider determines the provider for a model identifier. Registered
// models resolve through the registry; unregistered names fall back to name
// prefix rules so that newer model revisions still route correctly.
func InferProvider(name string) (Provider, error) {
	if m, ok := modelRegistry[name]; ok {
		return m.Provider, nil
	}
	switch {
	case strings.HasPrefix(name, "gpt-"), strings.HasPrefix(name, "o1"), strings.HasPrefix(name, "o3"):
		return ProviderOpenAI, nil
	case strings.HasPrefix(name, "claude-"):
		return ProviderAnthropic, nil
	}
	return "", fmt.Errorf("cannot infer provider for model: %s", name)
}

// String implements fmt.Stringer
func (m Model) String() string {
	return fmt.Sprintf("%s (%s)", m.DisplayName, m.Name)
}
