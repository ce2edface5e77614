package llm

import (
	"context"
	"sync"
)

// MockCoreLLM is a scriptable CoreLLM for tests. Responses and errors are
// consumed in FIFO order; when the scripts run dry the mock returns its
// default response.
type MockCoreLLM struct {
	mu        sync.Mutex
	model     string
	response  string
	responses []string
	errs      []error
	calls     int
	delay     func(ctx context.Context) error
}

var _ CoreLLM = (*MockCoreLLM)(nil)

// NewMockCoreLLM creates a mock that returns response for every request.
func NewMockCoreLLM(model, response string) *MockCoreLLM {
	return &MockCoreLLM{model: model, response: response}
}

// QueueResponses schedules responses to return before the default.
func (m *MockCoreLLM) QueueResponses(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
}

// QueueErrors schedules errors to return before any responses.
func (m *MockCoreLLM) QueueErrors(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, errs...)
}

// SetDelay installs a hook run before each request, typically to simulate
// slow providers. Returning an error fails the request with it.
func (m *MockCoreLLM) SetDelay(fn func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = fn
}

// Calls returns how many requests the mock has served.
func (m *MockCoreLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// DoRequest implements CoreLLM.
func (m *MockCoreLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	m.mu.Lock()
	m.calls++
	delay := m.delay
	var err error
	if len(m.errs) > 0 {
		err = m.errs[0]
		m.errs = m.errs[1:]
	}
	response := m.response
	if err == nil && len(m.responses) > 0 {
		response = m.responses[0]
		m.responses = m.responses[1:]
	}
	m.mu.Unlock()

	if delay != nil {
		if derr := delay(ctx); derr != nil {
			return "", 0, 0, derr
		}
	}
	if err != nil {
		return "", 0, 0, err
	}

	counter := NewTokenCounter()
	return response, counter.EstimateTokens(prompt), counter.EstimateTokens(response), nil
}

// GetModel implements CoreLLM.
func (m *MockCoreLLM) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

// SetModel implements CoreLLM.
func (m *MockCoreLLM) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = model
}
