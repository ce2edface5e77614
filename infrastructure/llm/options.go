package llm

import (
	"fmt"
	"net/url"
	"sync"
)

// Parameter bounds shared across providers.
const (
	// DefaultMaxTokens is the fallback generation budget per request.
	DefaultMaxTokens = 1024
	// MinTemperature and MaxTemperature bound the sampling temperature;
	// the upper bound is 2.0 to accommodate Gemini.
	MinTemperature = 0.0
	MaxTemperature = 2.0
)

// BaseProvider supplies thread-safe model-name handling shared by all
// provider implementations.
type BaseProvider struct {
	mu    sync.RWMutex
	model string
}

// GetModel returns the configured model name.
func (b *BaseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel updates the model name.
func (b *BaseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// RequestOptions is the standardized parameter set extracted from the
// per-request options map.
type RequestOptions struct {
	// MaxTokens bounds generation length.
	MaxTokens int
	// Model overrides the provider's configured model for this request.
	Model string
	// Temperature controls sampling randomness; nil means provider
	// default.
	Temperature *float64
	// System carries the system prompt, empty when unused.
	System string
}

// ParseRequestOptions extracts standardized parameters from opts, filling
// gaps with defaults. Invalid values fall back to defaults rather than
// failing the request.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens: DefaultMaxTokens,
		Model:     defaultModel,
	}
	if opts == nil {
		return options
	}

	if v, ok := opts["max_tokens"].(int); ok && v > 0 {
		options.MaxTokens = v
	}
	if v, ok := opts["model"].(string); ok && v != "" {
		options.Model = v
	}
	if v, ok := opts["system"].(string); ok {
		options.System = v
	}
	if v, ok := opts["temperature"].(float64); ok && v >= MinTemperature && v <= MaxTemperature {
		options.Temperature = &v
	}

	return options
}

// ValidateBaseURL checks that a non-empty base URL is absolute http(s).
// An empty URL is valid and selects the provider default.
func ValidateBaseURL(baseURL string) (string, error) {
	if baseURL == "" {
		return "", nil
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL must include a host")
	}
	return parsed.String(), nil
}

// TokenCounter estimates token counts when the provider does not report
// exact usage.
type TokenCounter struct {
	// CharactersPerToken approximates tokenizer density; the default of
	// four suits English text.
	CharactersPerToken float64
}

// NewTokenCounter creates a counter with the default density.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{CharactersPerToken: 4.0}
}

// EstimateTokens approximates the token count of text.
func (tc *TokenCounter) EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return int(float64(len(text)) / tc.CharactersPerToken)
}

// GetTokenCount prefers the provider-reported count, falling back to
// estimation when the report is missing or zero.
func (tc *TokenCounter) GetTokenCount(actual int, text string) int {
	if actual > 0 {
		return actual
	}
	return tc.EstimateTokens(text)
}
