package application

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfig_LayersOverDefaults(t *testing.T) {
	path := writeConfig(t, `
provider:
  type: anthropic
  model: claude-sonnet-4-20250514
  api_key_env: ANTHROPIC_API_KEY
  request_timeout_seconds: 90
idea_count: 50
tournament:
  group_size: 8
  max_retries: 2
  max_concurrency: 2
  judge_timeout_seconds: 180
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", config.Provider.Type)
	assert.Equal(t, 90*time.Second, config.Provider.RequestTimeout())
	assert.Equal(t, 50, config.IdeaCount)
	assert.Equal(t, 8, config.Tournament.GroupSize)

	// Untouched sections keep their defaults.
	assert.Equal(t, 5, config.Generation.BatchSize)
	assert.Equal(t, "ideas.jsonl", config.Journal.Ideas)
}

func TestLoadConfig_RejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "idea_count: 10\nnonsense_field: true\n")

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "nonsense_field")
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "bad provider type", yaml: "provider:\n  type: carrier-pigeon\n"},
		{name: "zero idea count", yaml: "idea_count: 0\n"},
		{name: "group size of one", yaml: "tournament:\n  group_size: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.yaml))
			assert.ErrorContains(t, err, "validation failed")
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConfig_APIKey(t *testing.T) {
	config := DefaultConfig()

	// Ollama needs no key.
	key, err := config.APIKey()
	require.NoError(t, err)
	assert.Empty(t, key)

	config.Provider.APIKeyEnv = "SLUSH_TEST_API_KEY"
	_, err = config.APIKey()
	assert.ErrorContains(t, err, "SLUSH_TEST_API_KEY is not set")

	t.Setenv("SLUSH_TEST_API_KEY", "sk-test")
	key, err = config.APIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-test", key)
}
