// Package llm provides a unified client for generative text providers
// with pluggable cross-cutting concerns. Providers (OpenAI, Anthropic,
// Google, and OpenAI-compatible local endpoints such as Ollama) implement
// a minimal CoreLLM interface; middleware composes retry, timeouts, rate
// limiting, circuit breaking, metrics, and tracing around any provider
// without the callers noticing.
//
// Basic usage:
//
//	client, err := llm.NewClient("ollama", llm.ClientConfig{
//	    BaseURL: "http://127.0.0.1:11434/v1",
//	    Model:   "wizardlm-uncensored",
//	    Middleware: []llm.Middleware{
//	        llm.RetryMiddleware(3, time.Second, 30*time.Second),
//	        llm.RateLimitMiddleware(2, 4),
//	    },
//	})
//	response, err := client.Complete(ctx, "Write five story prompts.", nil)
package llm

import (
	"context"
	"fmt"

	"github.com/slushpile/slush/internal/ports"
)

var _ ports.LLMClient = (*Client)(nil)

// CoreLLM is the minimal contract a provider must implement. Middleware
// wraps any conforming implementation.
type CoreLLM interface {
	// DoRequest sends prompt to the provider and returns the response
	// text plus input/output token counts. opts carries provider-tunable
	// settings such as temperature, max_tokens, model, and system.
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (response string, tokensIn, tokensOut int, err error)

	// GetModel returns the configured model name.
	GetModel() string

	// SetModel switches the model for subsequent requests.
	SetModel(model string)
}

// Middleware wraps a CoreLLM to add cross-cutting behavior. Middleware
// listed first in ClientConfig ends up outermost.
type Middleware func(CoreLLM) CoreLLM

// ClientConfig holds the settings for building a client.
type ClientConfig struct {
	// APIKey authenticates with the provider. Local endpoints (ollama)
	// may leave it empty.
	APIKey string

	// Model selects the model; empty uses the provider default.
	Model string

	// BaseURL overrides the provider endpoint; empty uses the default.
	BaseURL string

	// Middleware is applied in order, first entry outermost.
	Middleware []Middleware
}

// ProviderFactory builds a provider core from configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

// providerFactories maps provider names to factories. Providers register
// themselves in init.
var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a provider under name, replacing any
// prior registration. It lets external packages plug in custom providers.
func RegisterProviderFactory(name string, factory ProviderFactory) {
	providerFactories[name] = factory
}

// Client implements ports.LLMClient over a middleware-wrapped provider.
type Client struct {
	core    CoreLLM
	counter *TokenCounter
}

// NewClient builds a client for the named provider and wraps it in the
// configured middleware chain.
func NewClient(provider string, config ClientConfig) (*Client, error) {
	factory, ok := providerFactories[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("creating %s provider: %w", provider, err)
	}

	// Reverse order so the first configured middleware is outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	return &Client{core: core, counter: NewTokenCounter()}, nil
}

// Complete sends prompt and returns the generated text, discarding token
// usage.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, _, _, err := c.core.DoRequest(ctx, prompt, options)
	return response, err
}

// CompleteWithUsage sends prompt and returns the generated text along
// with input and output token counts.
func (c *Client) CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (string, int, int, error) {
	return c.core.DoRequest(ctx, prompt, options)
}

// EstimateTokens approximates the token count of text.
func (c *Client) EstimateTokens(text string) (int, error) {
	return c.counter.EstimateTokens(text), nil
}

// GetModel returns the model name of the underlying provider.
func (c *Client) GetModel() string { return c.core.GetModel() }
