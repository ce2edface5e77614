package llm

import (
	openai "github.com/sashabaranov/go-openai"
)

// Ollama provider defaults.
const (
	// OllamaDefaultBaseURL is the OpenAI-compatible endpoint of a local
	// Ollama daemon.
	OllamaDefaultBaseURL = "http://127.0.0.1:11434/v1"
	// OllamaDefaultModel is the model used when none is configured.
	OllamaDefaultModel = "llama3"
	// ollamaPlaceholderKey satisfies the OpenAI client's auth header;
	// Ollama ignores it.
	ollamaPlaceholderKey = "ollama"
)

func init() {
	RegisterProviderFactory("ollama", newOllamaProvider)
}

// newOllamaProvider builds a provider for a local Ollama daemon through
// its OpenAI-compatible API. Unlike the hosted providers it requires no
// API key, and the request path is the openAIProvider's.
func newOllamaProvider(config ClientConfig) (CoreLLM, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = OllamaDefaultBaseURL
	}
	validated, err := ValidateBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	model := config.Model
	if model == "" {
		model = OllamaDefaultModel
	}

	clientConfig := openai.DefaultConfig(ollamaPlaceholderKey)
	clientConfig.BaseURL = validated

	return &openAIProvider{
		BaseProvider: BaseProvider{model: model},
		client:       openai.NewClientWithConfig(clientConfig),
		counter:      NewTokenCounter(),
		provider:     "ollama",
	}, nil
}
