// Package generate produces candidate story prompts with a generative
// model. Each batch request is seeded with randomly sampled adjectives and
// feelings to push the model away from its ruts; replies are parsed as
// numbered lists and near-duplicates are filtered before the ideas reach
// the candidate pool.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/slushpile/slush/internal/ports"
)

// Default generation settings.
const (
	// DefaultBatchSize is the number of ideas requested per model call.
	DefaultBatchSize = 5
	// DefaultSampleWords is how many adjectives and feelings seed a batch.
	DefaultSampleWords = 3
	// DefaultTemperature keeps batches varied.
	DefaultTemperature = 1.0
	// DefaultMaxTokens bounds one batch reply.
	DefaultMaxTokens = 1024
	// DefaultSimilarityThreshold marks ideas this similar as duplicates.
	DefaultSimilarityThreshold = 0.9

	// maxStalledBatches bounds consecutive batches that add no new ideas
	// before Generate gives up with what it has.
	maxStalledBatches = 5
)

// Package-level validator for generator configuration.
var validate = validator.New()

// enumerationPrefix strips leading list markers like "1." or "2)".
var enumerationPrefix = regexp.MustCompile(`^\d+[.)]*\s*`)

// Config defines the tunable parameters of idea generation.
type Config struct {
	// BatchSize is the number of ideas requested per model call.
	BatchSize int `yaml:"batch_size" json:"batch_size" validate:"required,min=1,max=50"`

	// SampleWords is how many adjectives and how many feelings are drawn
	// into each batch prompt.
	SampleWords int `yaml:"sample_words" json:"sample_words" validate:"required,min=1,max=10"`

	// Temperature controls randomness of generation (0.0-2.0).
	Temperature float64 `yaml:"temperature" json:"temperature" validate:"min=0.0,max=2.0"`

	// MaxTokens bounds the length of one batch reply.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens" validate:"required,min=50,max=8000"`

	// SimilarityThreshold is the normalized similarity (0.0-1.0) at or
	// above which a new idea is discarded as a near-duplicate.
	// Zero disables duplicate filtering.
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold" validate:"min=0.0,max=1.0"`
}

// DefaultConfig returns the canonical generation configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:           DefaultBatchSize,
		SampleWords:         DefaultSampleWords,
		Temperature:         DefaultTemperature,
		MaxTokens:           DefaultMaxTokens,
		SimilarityThreshold: DefaultSimilarityThreshold,
	}
}

// BatchHook observes each completed generation call: the prompt sent and
// the ideas parsed from the reply, before duplicate filtering.
type BatchHook func(prompt string, ideas []string)

// Generator produces batches of story prompt ideas via an LLM client.
type Generator struct {
	client     ports.LLMClient
	config     Config
	rng        *rand.Rand
	logger     *slog.Logger
	adjectives []string
	feelings   []string
	batchHook  BatchHook
}

// Option customizes a Generator.
type Option func(*Generator)

// WithRand injects the random source used for word sampling.
func WithRand(rng *rand.Rand) Option {
	return func(g *Generator) { g.rng = rng }
}

// WithLogger sets the logger for generation progress.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// WithWordLists replaces the embedded adjective and feeling lists,
// e.g. with lists loaded from files.
func WithWordLists(adjectives, feelings []string) Option {
	return func(g *Generator) {
		if len(adjectives) > 0 {
			g.adjectives = adjectives
		}
		if len(feelings) > 0 {
			g.feelings = feelings
		}
	}
}

// WithBatchHook registers a callback invoked after every generation call,
// typically to journal the batch.
func WithBatchHook(hook BatchHook) Option {
	return func(g *Generator) { g.batchHook = hook }
}

// NewGenerator creates a generator backed by client.
func NewGenerator(client ports.LLMClient, config Config, opts ...Option) (*Generator, error) {
	if client == nil {
		return nil, fmt.Errorf("LLM client cannot be nil")
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	g := &Generator{
		client:     client,
		config:     config,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:     slog.Default(),
		adjectives: defaultAdjectives,
		feelings:   defaultFeelings,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.config.SampleWords > len(g.adjectives) || g.config.SampleWords > len(g.feelings) {
		return nil, fmt.Errorf("sample_words %d exceeds word list length", g.config.SampleWords)
	}
	return g, nil
}

// Batch requests one batch of ideas and returns the parsed, non-empty
// lines with list enumeration stripped.
func (g *Generator) Batch(ctx context.Context) ([]string, error) {
	prompt := g.buildPrompt()
	response, err := g.client.Complete(ctx, prompt, map[string]any{
		"temperature": g.config.Temperature,
		"max_tokens":  g.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("idea generation failed: %w", err)
	}

	ideas := ParseIdeas(response)
	if g.batchHook != nil {
		g.batchHook(prompt, ideas)
	}
	return ideas, nil
}

// Generate accumulates at least total ideas across batches, discarding
// near-duplicates as it goes. It returns early with what it has if
// several consecutive batches contribute nothing new, so a model stuck in
// a loop cannot stall the run forever.
func (g *Generator) Generate(ctx context.Context, total int) ([]string, error) {
	if total <= 0 {
		return nil, fmt.Errorf("idea count must be positive, got %d", total)
	}

	var (
		ideas   []string
		stalled int
	)
	for len(ideas) < total {
		if err := ctx.Err(); err != nil {
			return ideas, err
		}

		batch, err := g.Batch(ctx)
		if err != nil {
			return ideas, err
		}

		added := 0
		for _, idea := range batch {
			if g.config.SimilarityThreshold > 0 &&
				isNearDuplicate(ideas, idea, g.config.SimilarityThreshold) {
				continue
			}
			ideas = append(ideas, idea)
			added++
		}

		g.logger.Info("generated ideas",
			"batch", len(batch),
			"kept", added,
			"total", len(ideas),
			"target", total,
		)

		if added == 0 {
			stalled++
			if stalled >= maxStalledBatches {
				g.logger.Warn("generation stalled, continuing with partial set",
					"have", len(ideas), "target", total)
				break
			}
			continue
		}
		stalled = 0
	}
	return ideas, nil
}

// buildPrompt assembles the batch request, seeded with sampled words.
func (g *Generator) buildPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d one-sentence writing prompts for a short story. ", g.config.BatchSize)
	b.WriteString("Be specific about the plot. Make some decisions. Be creative! ")
	b.WriteString("Here are some adjectives to get you started: ")
	b.WriteString(strings.Join(g.sample(g.adjectives), ", "))
	b.WriteString(", and some feelings: ")
	b.WriteString(strings.Join(g.sample(g.feelings), ", "))
	b.WriteString(".")
	return b.String()
}

// sample draws SampleWords distinct entries from words.
func (g *Generator) sample(words []string) []string {
	picked := g.rng.Perm(len(words))[:g.config.SampleWords]
	out := make([]string, len(picked))
	for i, idx := range picked {
		out[i] = words[idx]
	}
	return out
}

// ParseIdeas splits a batch reply into individual ideas: one per non-empty
// line, with leading enumeration markers removed.
func ParseIdeas(response string) []string {
	var ideas []string
	for line := range strings.Lines(response) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		idea := strings.TrimSpace(enumerationPrefix.ReplaceAllString(line, ""))
		if idea != "" {
			ideas = append(ideas, idea)
		}
	}
	return ideas
}
