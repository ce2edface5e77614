// Package testutils provides deterministic stand-ins for the external
// capabilities of the ranking engine: the LLM transport and the judge.
// They make tournament behavior reproducible in tests.
package testutils

import (
	"context"
	"strings"
	"sync"

	"github.com/slushpile/slush/internal/ports"
)

var _ ports.LLMClient = (*MockLLMClient)(nil)

// MockLLMClient implements ports.LLMClient with deterministic responses
// selected by substring pattern matching on the prompt. It records every
// prompt it receives so tests can assert on request shape.
type MockLLMClient struct {
	mu sync.Mutex

	// model is the mock model identifier.
	model string
	// patterns preserves registration order for deterministic matching.
	patterns []string
	// responses maps prompt patterns to canned responses.
	responses map[string]string
	// queue, when non-empty, overrides pattern matching and is consumed
	// front to back. Useful for scripting retry sequences.
	queue []string
	// err, when set, is returned by every Complete call.
	err error
	// prompts records every prompt received.
	prompts []string
}

// NewMockLLMClient creates a mock client identifying as model.
func NewMockLLMClient(model string) *MockLLMClient {
	return &MockLLMClient{
		model:     model,
		responses: make(map[string]string),
	}
}

// AddResponse registers a canned response for prompts containing pattern.
// Patterns are tried in registration order; the empty pattern acts as a
// catch-all.
func (m *MockLLMClient) AddResponse(pattern, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.responses[pattern]; !exists {
		m.patterns = append(m.patterns, pattern)
	}
	m.responses[pattern] = response
}

// QueueResponses schedules responses returned verbatim, one per Complete
// call, before any pattern matching applies.
func (m *MockLLMClient) QueueResponses(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, responses...)
}

// FailWith makes every subsequent Complete call return err.
func (m *MockLLMClient) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Prompts returns a copy of all prompts received so far.
func (m *MockLLMClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Complete implements ports.LLMClient with scripted behavior.
func (m *MockLLMClient) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)

	if m.err != nil {
		return "", m.err
	}
	if len(m.queue) > 0 {
		response := m.queue[0]
		m.queue = m.queue[1:]
		return response, nil
	}
	for _, pattern := range m.patterns {
		if pattern != "" && strings.Contains(prompt, pattern) {
			return m.responses[pattern], nil
		}
	}
	if response, ok := m.responses[""]; ok {
		return response, nil
	}
	return "", nil
}

// EstimateTokens approximates four characters per token, matching the
// real client's fallback estimator.
func (m *MockLLMClient) EstimateTokens(text string) (int, error) {
	return (len(text) + 3) / 4, nil
}

// GetModel returns the mock model identifier.
func (m *MockLLMClient) GetModel() string { return m.model }
