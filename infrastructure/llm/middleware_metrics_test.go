package llm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMetric struct {
	name   string
	value  float64
	labels map[string]string
}

// recordingCollector captures metric calls for assertions.
type recordingCollector struct {
	mu        sync.Mutex
	latencies []recordedMetric
	counters  []recordedMetric
	gauges    []recordedMetric
}

func (c *recordingCollector) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latencies = append(c.latencies, recordedMetric{name: operation, value: duration.Seconds(), labels: cloneLabels(labels)})
}

func (c *recordingCollector) RecordCounter(metric string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters = append(c.counters, recordedMetric{name: metric, value: value, labels: cloneLabels(labels)})
}

func (c *recordingCollector) RecordGauge(metric string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gauges = append(c.gauges, recordedMetric{name: metric, value: value, labels: cloneLabels(labels)})
}

func cloneLabels(labels map[string]string) map[string]string {
	clone := make(map[string]string, len(labels))
	for k, v := range labels {
		clone[k] = v
	}
	return clone
}

func (c *recordingCollector) countersNamed(name string) []recordedMetric {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []recordedMetric
	for _, m := range c.counters {
		if m.name == name {
			out = append(out, m)
		}
	}
	return out
}

func TestMetricsMiddleware_RecordsSuccess(t *testing.T) {
	collector := &recordingCollector{}
	core := NewMockCoreLLM("llama3", "a fine reply")
	wrapped := MetricsMiddleware(collector)(core)

	_, _, _, err := wrapped.DoRequest(context.Background(), "prompt text", nil)
	require.NoError(t, err)

	require.Len(t, collector.latencies, 1)
	assert.Equal(t, "llm_request", collector.latencies[0].name)
	assert.Equal(t, "success", collector.latencies[0].labels["status"])
	assert.Equal(t, "ollama", collector.latencies[0].labels["provider"])
	assert.Equal(t, "llama3", collector.latencies[0].labels["model"])

	requests := collector.countersNamed("llm_requests_total")
	require.Len(t, requests, 1)

	tokens := collector.countersNamed("llm_tokens_total")
	require.Len(t, tokens, 2)
	types := []string{tokens[0].labels["token_type"], tokens[1].labels["token_type"]}
	assert.ElementsMatch(t, []string{"input", "output"}, types)
}

func TestMetricsMiddleware_RecordsErrorStatus(t *testing.T) {
	collector := &recordingCollector{}
	core := NewMockCoreLLM("gpt-4o-mini", "unused")
	core.QueueErrors(&ProviderError{Type: ErrorTypeServerError, Provider: "openai", StatusCode: 500})
	wrapped := MetricsMiddleware(collector)(core)

	_, _, _, err := wrapped.DoRequest(context.Background(), "prompt", nil)
	require.Error(t, err)

	require.Len(t, collector.latencies, 1)
	assert.Equal(t, "error", collector.latencies[0].labels["status"])
	assert.Equal(t, "openai", collector.latencies[0].labels["provider"])

	// Token counters are only emitted on success.
	assert.Empty(t, collector.countersNamed("llm_tokens_total"))
}

func TestMetricsMiddleware_CircuitOpenStatus(t *testing.T) {
	collector := &recordingCollector{}
	core := NewMockCoreLLM("claude-3-5-sonnet-20241022", "unused")
	core.QueueErrors(ErrCircuitOpen)
	wrapped := MetricsMiddleware(collector)(core)

	_, _, _, err := wrapped.DoRequest(context.Background(), "prompt", nil)
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, "circuit_open", collector.latencies[0].labels["status"])
	assert.Equal(t, "anthropic", collector.latencies[0].labels["provider"])
}

func TestMetricsMiddleware_NilCollectorPassesThrough(t *testing.T) {
	core := NewMockCoreLLM("test-model", "ok")
	wrapped := MetricsMiddleware(nil)(core)

	response, _, _, err := wrapped.DoRequest(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", response)
}
