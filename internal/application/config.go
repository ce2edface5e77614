// Package application wires configuration for a generate-and-rank run:
// which provider and model to talk to, how generation and the tournament
// behave, and where the run journal lives.
package application

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/slushpile/slush/infrastructure/judge"
	"github.com/slushpile/slush/internal/generate"
	"github.com/slushpile/slush/internal/tournament"
)

// Package-level validator for application configuration.
var validate = validator.New()

// ProviderConfig selects and authenticates the LLM backend.
type ProviderConfig struct {
	// Type names the provider implementation: openai, anthropic, google,
	// or ollama (an OpenAI-compatible local endpoint).
	Type string `yaml:"type" validate:"required,oneof=openai anthropic google ollama"`

	// Model is the model identifier; empty selects the provider default.
	Model string `yaml:"model"`

	// BaseURL overrides the provider endpoint. Required in practice for
	// ollama (e.g. http://127.0.0.1:11434/v1).
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`

	// APIKeyEnv names the environment variable holding the API key,
	// keeping secrets out of config files.
	APIKeyEnv string `yaml:"api_key_env"`

	// RequestTimeoutSeconds bounds one transport-level request, in
	// seconds; zero uses the provider default.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" validate:"min=0,max=3600"`

	// RequestsPerSecond caps the sustained request rate; zero disables
	// client-side rate limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"min=0"`

	// Burst is the rate limiter burst allowance.
	Burst int `yaml:"burst" validate:"min=0"`
}

// JournalConfig locates the run's append-only JSONL files.
type JournalConfig struct {
	// Ideas receives generated idea batches.
	Ideas string `yaml:"ideas" validate:"required"`
	// Scores receives per-round standings snapshots.
	Scores string `yaml:"scores" validate:"required"`
	// Final receives the completed run's ranking.
	Final string `yaml:"final" validate:"required"`
}

// Config is the root configuration for one generate-and-rank run.
type Config struct {
	Provider   ProviderConfig    `yaml:"provider" validate:"required"`
	Generation generate.Config   `yaml:"generation" validate:"required"`
	Judge      judge.Config      `yaml:"judge" validate:"required"`
	Tournament tournament.Config `yaml:"tournament" validate:"required"`
	Journal    JournalConfig     `yaml:"journal" validate:"required"`

	// IdeaCount is how many candidate ideas to generate before ranking.
	IdeaCount int `yaml:"idea_count" validate:"required,min=1,max=100000"`
}

// DefaultConfig returns a runnable configuration targeting a local
// ollama endpoint, matching the tool's original habitat.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderConfig{
			Type:                  "ollama",
			BaseURL:               "http://127.0.0.1:11434/v1",
			RequestTimeoutSeconds: 120,
			RequestsPerSecond:     2,
			Burst:                 4,
		},
		Generation: generate.DefaultConfig(),
		Judge:      judge.DefaultConfig(),
		Tournament: tournament.DefaultConfig(),
		Journal: JournalConfig{
			Ideas:  "ideas.jsonl",
			Scores: "scores.jsonl",
			Final:  "final.jsonl",
		},
		IdeaCount: 500,
	}
}

// LoadConfig reads a YAML config from path, layered over DefaultConfig.
// Unknown fields are rejected to catch typos early.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks the full configuration tree.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// RequestTimeout returns the transport request deadline as a duration.
func (c ProviderConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// APIKey resolves the provider API key from the configured environment
// variable. Providers that need no key (ollama) may leave APIKeyEnv empty.
func (c Config) APIKey() (string, error) {
	if c.Provider.APIKeyEnv == "" {
		return "", nil
	}
	key := os.Getenv(c.Provider.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("environment variable %s is not set", c.Provider.APIKeyEnv)
	}
	return key, nil
}
