// Package ports defines the interfaces between the ranking core and its
// infrastructure: the judge oracle, the LLM transport behind it, and
// metrics collection. These contracts enable dependency inversion and let
// tests substitute deterministic implementations.
package ports

import (
	"context"
	"time"

	"github.com/slushpile/slush/internal/domain"
)

// Judge selects a winner among a small group of candidate texts.
// Implementations are typically backed by a generative model and may be
// non-deterministic, slow, and fallible; the tournament engine is
// responsible for retries and fallback.
type Judge interface {
	// Pick compares the texts, presented in order, and returns a verdict
	// whose Choice is 1-indexed into that order.
	//
	// A malformed or out-of-range reply from the underlying oracle is
	// reported as ErrMalformedVerdict so callers can retry the same group.
	// Transport-level failures are reported as ErrJudgeUnavailable.
	// Implementations must respect context cancellation.
	Pick(ctx context.Context, texts []string) (domain.Verdict, error)
}

// LLMClient is the transport boundary to a generative text model.
// Implementations handle provider-specific authentication, request
// formatting, and response parsing.
type LLMClient interface {
	// Complete sends a prompt and returns the generated text.
	// The options map carries provider-tunable settings; common keys are
	// "temperature" (float64), "max_tokens" (int), "model" (string), and
	// "system" (string).
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// EstimateTokens approximates the token count of text for cost and
	// rate-limit bookkeeping.
	EstimateTokens(text string) (int, error)

	// GetModel returns the model identifier in use, for logging.
	GetModel() string
}

// MetricsCollector records operational metrics for a ranking run.
// Implementations integrate with systems like Prometheus; a no-op
// implementation is valid when observability is not wired up.
type MetricsCollector interface {
	// RecordLatency records the duration of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric by value.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)
}
