package tournament

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slushpile/slush/internal/domain"
	"github.com/slushpile/slush/internal/ports"
	"github.com/slushpile/slush/internal/testutils"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JudgeTimeoutSeconds = 1
	return cfg
}

func TestNewEngine_Validation(t *testing.T) {
	pool := domain.NewPool()
	judge := testutils.NewScriptedJudge(nil)

	tests := []struct {
		name    string
		pool    *domain.Pool
		judge   ports.Judge
		config  Config
		wantErr string
	}{
		{name: "nil pool", judge: judge, config: testConfig(), wantErr: "pool cannot be nil"},
		{name: "nil judge", pool: pool, config: testConfig(), wantErr: "judge cannot be nil"},
		{
			name: "group size below two", pool: pool, judge: judge,
			config:  Config{GroupSize: 1, MaxRetries: 3, MaxConcurrency: 4},
			wantErr: "validation failed",
		},
		{
			name: "zero concurrency", pool: pool, judge: judge,
			config:  Config{GroupSize: 4, MaxRetries: 3, MaxConcurrency: 0},
			wantErr: "validation failed",
		},
		{name: "valid", pool: pool, judge: judge, config: testConfig()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := NewEngine(tt.pool, tt.judge, tt.config)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, PhasePending, engine.Phase())
		})
	}
}

// Pool of 4, one group of 4, judge picks the third member: the third
// candidate tops the ranking with one win and the run is terminal after a
// single round.
func TestEngine_SingleGroupRound(t *testing.T) {
	pool := domain.NewPool()
	for _, text := range []string{"A", "B", "C", "D"} {
		pool.Add(text)
	}

	var picked string
	judge := testutils.NewScriptedJudge(func(_ int, texts []string) (domain.Verdict, error) {
		picked = texts[2]
		return domain.Verdict{Choice: 3}, nil
	})

	engine, err := NewEngine(pool, judge, testConfig(), WithRand(rand.New(rand.NewSource(1))))
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, PhaseTerminal, engine.Phase())
	assert.Equal(t, 1, result.Rounds)
	assert.Equal(t, 1, result.JudgeCalls)
	assert.Zero(t, result.DegradedGroups)

	require.NotNil(t, result.Winner)
	assert.Equal(t, picked, result.Winner.Text)

	require.Len(t, result.Ranking, 4)
	assert.Equal(t, picked, result.Ranking[0].Text)
	assert.Equal(t, 1, result.Ranking[0].Wins())
	for _, c := range result.Ranking[1:] {
		assert.Zero(t, c.Wins())
	}
}

// Pool of 6 with K=4: round 0 is one group of 4 plus a remainder pair,
// round 1 is the two winners head to head. The champion wins twice.
func TestEngine_RemainderGroupAndSecondRound(t *testing.T) {
	pool := domain.NewPool()
	for i := range 6 {
		pool.Add(fmt.Sprintf("idea-%d", i))
	}

	judge := testutils.NewScriptedJudge(nil) // always picks the first member
	engine, err := NewEngine(pool, judge, testConfig(), WithRand(rand.New(rand.NewSource(2))))
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Rounds)
	assert.Equal(t, 3, result.JudgeCalls, "two groups in round 0, one in round 1")

	groups := judge.Groups()
	require.Len(t, groups, 3)
	sizes := []int{len(groups[0]), len(groups[1])}
	assert.ElementsMatch(t, []int{4, 2}, sizes)
	assert.Len(t, groups[2], 2)

	require.NotNil(t, result.Winner)
	assert.Equal(t, 2, result.Winner.Wins())
	assert.Equal(t, result.Winner.ID, result.Ranking[0].ID)
}

// A pool of one is immediately terminal: no judge calls, no wins.
func TestEngine_SingleCandidatePool(t *testing.T) {
	pool := domain.NewPool()
	only := pool.Add("the only idea")

	judge := testutils.NewScriptedJudge(nil)
	engine, err := NewEngine(pool, judge, testConfig())
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, PhaseTerminal, engine.Phase())
	assert.Zero(t, result.Rounds)
	assert.Zero(t, judge.Calls())
	require.NotNil(t, result.Winner)
	assert.Equal(t, only.ID, result.Winner.ID)
	require.Len(t, result.Ranking, 1)
	assert.Zero(t, result.Ranking[0].Wins())
}

func TestEngine_EmptyPool(t *testing.T) {
	engine, err := NewEngine(domain.NewPool(), testutils.NewScriptedJudge(nil), testConfig())
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrEmptyPool)
	assert.Empty(t, result.Ranking)
	assert.Equal(t, PhaseTerminal, engine.Phase())
}

// An out-of-range choice exhausts the retry budget; the engine falls back
// to a random in-group winner, flags the group as degraded, and the round
// still completes.
func TestEngine_DegradedFallbackAfterRetries(t *testing.T) {
	pool := domain.NewPool()
	for _, text := range []string{"A", "B", "C", "D"} {
		pool.Add(text)
	}

	judge := testutils.NewScriptedJudge(func(int, []string) (domain.Verdict, error) {
		return domain.Verdict{Choice: 9}, nil // always out of range
	})

	cfg := testConfig()
	cfg.MaxRetries = 3
	engine, err := NewEngine(pool, judge, cfg, WithRand(rand.New(rand.NewSource(5))))
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, judge.Calls(), "initial attempt plus three retries")
	assert.Equal(t, 1, result.DegradedGroups)
	assert.Equal(t, 1, result.Rounds)
	require.NotNil(t, result.Winner)
	assert.Equal(t, 1, result.Winner.Wins(), "fallback winner still earns the group win")
}

func TestEngine_MalformedVerdictThenRecovery(t *testing.T) {
	pool := domain.NewPool()
	for _, text := range []string{"A", "B", "C", "D"} {
		pool.Add(text)
	}

	judge := testutils.NewScriptedJudge(func(call int, texts []string) (domain.Verdict, error) {
		if call < 2 {
			return domain.Verdict{}, ports.NewJudgeError("mock", len(texts), ports.ErrMalformedVerdict)
		}
		return domain.Verdict{Choice: 2}, nil
	})

	engine, err := NewEngine(pool, judge, testConfig(), WithRand(rand.New(rand.NewSource(6))))
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, judge.Calls())
	assert.Zero(t, result.DegradedGroups, "recovered within the retry budget")
	assert.Equal(t, 3, result.JudgeCalls)
}

func TestEngine_JudgeUnavailableAbortsRun(t *testing.T) {
	pool := domain.NewPool()
	for i := range 8 {
		pool.Add(fmt.Sprintf("idea-%d", i))
	}

	judge := testutils.NewScriptedJudge(func(int, []string) (domain.Verdict, error) {
		return domain.Verdict{}, ports.NewJudgeError("mock", 4, ports.ErrJudgeUnavailable)
	})

	engine, err := NewEngine(pool, judge, testConfig())
	require.NoError(t, err)

	_, err = engine.Run(context.Background())
	assert.ErrorIs(t, err, ports.ErrJudgeUnavailable)
}

func TestEngine_ContextCancellationAbortsRun(t *testing.T) {
	pool := domain.NewPool()
	for i := range 8 {
		pool.Add(fmt.Sprintf("idea-%d", i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	judge := testutils.NewScriptedJudge(func(int, []string) (domain.Verdict, error) {
		cancel()
		return domain.Verdict{Choice: 1}, nil
	})

	engine, err := NewEngine(pool, judge, testConfig())
	require.NoError(t, err)

	_, err = engine.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// Conservation: every group contributes exactly one winner, so each round
// advances ceil(n/K) candidates, and the population strictly decreases
// until a single survivor remains.
func TestEngine_ConservationAndMonotonicReduction(t *testing.T) {
	const n, k = 37, 4

	pool := domain.NewPool()
	for i := range n {
		pool.Add(fmt.Sprintf("idea-%d", i))
	}

	var populations []int
	engine, err := NewEngine(pool, testutils.NewScriptedJudge(nil), testConfig(),
		WithRand(rand.New(rand.NewSource(11))),
		WithRoundHook(func(_ int, winners []*domain.Candidate) {
			populations = append(populations, len(winners))
		}),
	)
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	expected := n
	for _, got := range populations {
		expected = int(math.Ceil(float64(expected) / float64(k)))
		assert.Equal(t, expected, got)
	}
	assert.Equal(t, 1, populations[len(populations)-1])
	assert.Equal(t, len(populations), result.Rounds)

	// O(log_K N) rounds: 37 -> 10 -> 3 -> 1.
	assert.Equal(t, 3, result.Rounds)
}

// Win conservation: total wins recorded equals the number of judged
// groups (size >= 2); singleton auto-advances grant no win.
func TestEngine_WinConservation(t *testing.T) {
	for _, n := range []int{4, 5, 6, 9, 17, 33} {
		t.Run(fmt.Sprintf("pool_%d", n), func(t *testing.T) {
			pool := domain.NewPool()
			for i := range n {
				pool.Add(fmt.Sprintf("idea-%d", i))
			}

			judge := testutils.NewScriptedJudge(nil)
			engine, err := NewEngine(pool, judge, testConfig(),
				WithRand(rand.New(rand.NewSource(int64(n)))))
			require.NoError(t, err)

			result, err := engine.Run(context.Background())
			require.NoError(t, err)

			totalWins := 0
			for _, c := range result.Ranking {
				totalWins += c.Wins()
			}
			assert.Equal(t, judge.Calls(), totalWins)
			assert.Equal(t, result.JudgeCalls, judge.Calls())
		})
	}
}

// Determinism: identical seed and a deterministic judge produce an
// identical ranking across reruns.
func TestEngine_DeterministicUnderFixedSeed(t *testing.T) {
	run := func() []string {
		pool := domain.NewPool()
		for i := range 20 {
			pool.Add(fmt.Sprintf("%0*d", i+1, 0)) // texts of distinct lengths
		}

		judge := testutils.NewScriptedJudge(testutils.PickLongest())
		engine, err := NewEngine(pool, judge, testConfig(),
			WithRand(rand.New(rand.NewSource(99))))
		require.NoError(t, err)

		result, err := engine.Run(context.Background())
		require.NoError(t, err)

		texts := make([]string, len(result.Ranking))
		for i, c := range result.Ranking {
			texts[i] = c.Text
		}
		return texts
	}

	assert.Equal(t, run(), run())
}

func TestEngine_PerCallTimeoutIsRecoverable(t *testing.T) {
	pool := domain.NewPool()
	for _, text := range []string{"A", "B"} {
		pool.Add(text)
	}

	judge := testutils.NewScriptedJudge(func(call int, _ []string) (domain.Verdict, error) {
		if call == 0 {
			return domain.Verdict{}, context.DeadlineExceeded
		}
		return domain.Verdict{Choice: 1}, nil
	})

	engine, err := NewEngine(pool, judge, testConfig())
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.JudgeCalls)
	assert.Zero(t, result.DegradedGroups)
}

func TestEngine_RoundHookSeesWinners(t *testing.T) {
	pool := domain.NewPool()
	for i := range 6 {
		pool.Add(fmt.Sprintf("idea-%d", i))
	}

	var rounds []int
	engine, err := NewEngine(pool, testutils.NewScriptedJudge(nil), testConfig(),
		WithRand(rand.New(rand.NewSource(8))),
		WithRoundHook(func(round int, winners []*domain.Candidate) {
			rounds = append(rounds, round)
			for _, w := range winners {
				require.NotNil(t, w)
			}
		}),
	)
	require.NoError(t, err)

	_, err = engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, rounds)
}

func TestEngine_WrapsUnknownJudgeErrors(t *testing.T) {
	pool := domain.NewPool()
	pool.Add("A")
	pool.Add("B")

	boom := errors.New("connection refused")
	judge := testutils.NewScriptedJudge(func(int, []string) (domain.Verdict, error) {
		return domain.Verdict{}, boom
	})

	engine, err := NewEngine(pool, judge, testConfig())
	require.NoError(t, err)

	_, err = engine.Run(context.Background())
	assert.ErrorIs(t, err, ports.ErrJudgeUnavailable)
	assert.ErrorIs(t, err, boom)
}
