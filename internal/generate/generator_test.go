package generate

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slushpile/slush/internal/testutils"
)

func TestParseIdeas(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []string
	}{
		{
			name:     "numbered with dots",
			response: "1. A lighthouse keeper finds a door.\n2. The last train leaves early.",
			want: []string{
				"A lighthouse keeper finds a door.",
				"The last train leaves early.",
			},
		},
		{
			name:     "numbered with parens and blank lines",
			response: "1) First idea\n\n2) Second idea\n\n",
			want:     []string{"First idea", "Second idea"},
		},
		{
			name:     "mixed markers",
			response: "3.) Idea three\nplain idea without a number",
			want:     []string{"Idea three", "plain idea without a number"},
		},
		{
			name:     "whitespace only",
			response: "   \n\t\n",
			want:     nil,
		},
		{
			name:     "marker only line dropped",
			response: "1.\n2. A real idea",
			want:     []string{"A real idea"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseIdeas(tt.response))
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("A ghost story", "a ghost story"))
	assert.Equal(t, 1.0, similarity("  padded  ", "padded"))
	assert.Less(t, similarity("A ghost story", "A completely different premise about robots"), 0.5)
	assert.Greater(t, similarity(
		"A lighthouse keeper discovers a hidden door.",
		"A lighthouse keeper discovers a hidden floor.",
	), 0.9)
}

func TestIsNearDuplicate(t *testing.T) {
	kept := []string{"A lighthouse keeper discovers a hidden door."}

	assert.True(t, isNearDuplicate(kept, "a lighthouse keeper discovers a hidden door", 0.9))
	assert.False(t, isNearDuplicate(kept, "Two rival bakers compete during a blackout.", 0.9))
	assert.False(t, isNearDuplicate(nil, "anything", 0.9))
}

func TestNewGenerator_Validation(t *testing.T) {
	client := testutils.NewMockLLMClient("mock-model")

	_, err := NewGenerator(nil, DefaultConfig())
	assert.ErrorContains(t, err, "client cannot be nil")

	bad := DefaultConfig()
	bad.BatchSize = 0
	_, err = NewGenerator(client, bad)
	assert.ErrorContains(t, err, "validation failed")

	tooMany := DefaultConfig()
	tooMany.SampleWords = 5
	_, err = NewGenerator(client, tooMany, WithWordLists([]string{"a", "b"}, []string{"x", "y"}))
	assert.ErrorContains(t, err, "exceeds word list length")
}

func TestGenerator_Batch(t *testing.T) {
	client := testutils.NewMockLLMClient("mock-model")
	client.QueueResponses("1. Idea one\n2. Idea two\n3. Idea three")

	g, err := NewGenerator(client, DefaultConfig(),
		WithRand(rand.New(rand.NewSource(1))),
		WithWordLists([]string{"rusted", "gilded", "hollow"}, []string{"dread", "wonder", "spite"}),
	)
	require.NoError(t, err)

	ideas, err := g.Batch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Idea one", "Idea two", "Idea three"}, ideas)

	prompts := client.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Write 5 one-sentence writing prompts")
	assert.Contains(t, prompts[0], "adjectives to get you started")
	assert.Contains(t, prompts[0], "and some feelings")
}

func TestGenerator_Generate_AccumulatesAcrossBatches(t *testing.T) {
	client := testutils.NewMockLLMClient("mock-model")
	client.QueueResponses(
		"1. Alpha idea\n2. Beta idea",
		"1. Gamma idea\n2. Delta idea",
	)

	cfg := DefaultConfig()
	cfg.BatchSize = 2
	g, err := NewGenerator(client, cfg, WithRand(rand.New(rand.NewSource(2))))
	require.NoError(t, err)

	ideas, err := g.Generate(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha idea", "Beta idea", "Gamma idea", "Delta idea"}, ideas)
}

func TestGenerator_Generate_FiltersNearDuplicates(t *testing.T) {
	client := testutils.NewMockLLMClient("mock-model")
	client.QueueResponses(
		"1. A lighthouse keeper discovers a hidden door.\n2. a lighthouse keeper discovers a hidden door",
		"1. Two rival bakers compete during a blackout.",
	)

	cfg := DefaultConfig()
	cfg.BatchSize = 2
	g, err := NewGenerator(client, cfg, WithRand(rand.New(rand.NewSource(3))))
	require.NoError(t, err)

	ideas, err := g.Generate(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, ideas, 2)
	assert.Equal(t, "A lighthouse keeper discovers a hidden door.", ideas[0])
	assert.Equal(t, "Two rival bakers compete during a blackout.", ideas[1])
}

func TestGenerator_Generate_StallsOutOnRepetition(t *testing.T) {
	client := testutils.NewMockLLMClient("mock-model")
	// Every batch is identical: after the first, nothing new ever arrives.
	client.AddResponse("", "1. The same idea every time")

	g, err := NewGenerator(client, DefaultConfig(), WithRand(rand.New(rand.NewSource(4))))
	require.NoError(t, err)

	ideas, err := g.Generate(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"The same idea every time"}, ideas)
}

func TestGenerator_Generate_PropagatesClientErrors(t *testing.T) {
	client := testutils.NewMockLLMClient("mock-model")
	boom := errors.New("model unavailable")
	client.FailWith(boom)

	g, err := NewGenerator(client, DefaultConfig())
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), 5)
	assert.ErrorIs(t, err, boom)
}

func TestGenerator_BatchHookObservesEachCall(t *testing.T) {
	client := testutils.NewMockLLMClient("mock-model")
	client.QueueResponses(
		"1. Alpha idea\n2. Beta idea",
		"1. Gamma idea",
	)

	type observed struct {
		prompt string
		ideas  []string
	}
	var hooked []observed

	cfg := DefaultConfig()
	cfg.BatchSize = 2
	g, err := NewGenerator(client, cfg,
		WithRand(rand.New(rand.NewSource(5))),
		WithBatchHook(func(prompt string, ideas []string) {
			hooked = append(hooked, observed{prompt: prompt, ideas: ideas})
		}),
	)
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), 3)
	require.NoError(t, err)

	require.Len(t, hooked, 2)
	assert.Contains(t, hooked[0].prompt, "Write 2 one-sentence writing prompts")
	assert.Equal(t, []string{"Alpha idea", "Beta idea"}, hooked[0].ideas)
	assert.Equal(t, []string{"Gamma idea"}, hooked[1].ideas)
}
