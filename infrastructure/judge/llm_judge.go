// Package judge adapts a generative text model into the ports.Judge
// capability: it formats a numbered shortlist of candidate texts, asks the
// model to compare them in an editor persona, and maps the CHOICE(n)
// marker in the reply back to a group member.
package judge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/slushpile/slush/internal/domain"
	"github.com/slushpile/slush/internal/ports"
)

var _ ports.Judge = (*LLMJudge)(nil)

// DefaultSystemPrompt is the editor persona steering the model toward a
// structured comparison ending in a single CHOICE(n) marker.
const DefaultSystemPrompt = `You are an experienced editor, and you have a gut instinct for what will make a great story. ` +
	`First, analyze every one of the options by writing a few thoughts about each story idea. Label this section "Analysis". ` +
	`Then, consider which story has the most promise to be a compelling, engaging story when developed. Label this section "Thinking and Evaluation". ` +
	`Finally, respond with your decision on the top pick. Label this section "Final Decision". ` +
	`You should format your decision this way: CHOICE(n) where n is a number. For example, CHOICE(1), or CHOICE(2), or CHOICE(3), and so on. ` +
	`Just make a single choice. The team will then approach the author to develop the story idea you selected. ` +
	`Base your decision on careful comparison of the ideas, and choose the one that you think will be the most successful.`

// Default generation settings for judge calls.
const (
	// DefaultTemperature favors varied comparisons over rote repetition.
	DefaultTemperature = 0.7
	// DefaultMaxTokens leaves room for the analysis sections before the
	// final CHOICE marker.
	DefaultMaxTokens = 1024
)

// Package-level validator for judge configuration.
var validate = validator.New()

// Config defines the tunable parameters of the LLM judge.
type Config struct {
	// SystemPrompt sets the persona and output contract for the model.
	// It must instruct the model to emit a CHOICE(n) marker.
	SystemPrompt string `yaml:"system_prompt" json:"system_prompt" validate:"required,min=20"`

	// Temperature controls randomness of the comparison (0.0-2.0).
	Temperature float64 `yaml:"temperature" json:"temperature" validate:"min=0.0,max=2.0"`

	// MaxTokens bounds the length of the judge's reply.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens" validate:"required,min=50,max=8000"`
}

// DefaultConfig returns the canonical judge configuration.
func DefaultConfig() Config {
	return Config{
		SystemPrompt: DefaultSystemPrompt,
		Temperature:  DefaultTemperature,
		MaxTokens:    DefaultMaxTokens,
	}
}

// LLMJudge implements ports.Judge on top of a ports.LLMClient.
// It is stateless and safe for concurrent use; retries and fallback live
// in the tournament engine, not here.
type LLMJudge struct {
	client ports.LLMClient
	config Config
}

// NewLLMJudge creates a judge backed by client.
// Returns an error if the client is missing or the configuration invalid.
func NewLLMJudge(client ports.LLMClient, config Config) (*LLMJudge, error) {
	if client == nil {
		return nil, fmt.Errorf("LLM client cannot be nil")
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &LLMJudge{client: client, config: config}, nil
}

// Pick asks the model which of texts should be pursued and returns its
// 1-indexed choice with the full reply as rationale.
//
// Replies without a usable choice surface as ports.ErrMalformedVerdict;
// transport failures surface as ports.ErrJudgeUnavailable. Both are
// wrapped in a ports.JudgeError carrying the model and group size.
func (j *LLMJudge) Pick(ctx context.Context, texts []string) (domain.Verdict, error) {
	if len(texts) < 2 {
		return domain.Verdict{}, fmt.Errorf("judge needs at least 2 texts, got %d", len(texts))
	}

	response, err := j.client.Complete(ctx, buildShortlistPrompt(texts), map[string]any{
		"system":      j.config.SystemPrompt,
		"temperature": j.config.Temperature,
		"max_tokens":  j.config.MaxTokens,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domain.Verdict{}, err
		}
		return domain.Verdict{}, ports.NewJudgeError(j.client.GetModel(), len(texts),
			fmt.Errorf("%w: %w", ports.ErrJudgeUnavailable, err))
	}

	choice, err := ParseChoice(response, len(texts))
	if err != nil {
		return domain.Verdict{}, ports.NewJudgeError(j.client.GetModel(), len(texts), err)
	}

	return domain.Verdict{Choice: choice, Rationale: response}, nil
}

// buildShortlistPrompt numbers the texts 1..n in presentation order so the
// returned CHOICE index maps back to a specific candidate.
func buildShortlistPrompt(texts []string) string {
	var b strings.Builder
	b.WriteString("Which of the following ideas should we pursue?\n")
	for i, text := range texts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, text)
	}
	return b.String()
}
