// Package tournament implements grouped-elimination ranking over a
// candidate pool. Each round shuffles the surviving population, partitions
// it into small groups, asks a judge to pick one winner per group, and
// advances the winners until a single candidate remains. Win counts
// accumulated along the way yield the final ranking.
package tournament

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/slushpile/slush/internal/domain"
	"github.com/slushpile/slush/internal/ports"
)

// Phase identifies where the engine is in its round lifecycle.
type Phase int32

// Engine lifecycle phases.
const (
	// PhasePending means the next round has not started yet.
	PhasePending Phase = iota
	// PhaseRoundInProgress means groups of the current round are being judged.
	PhaseRoundInProgress
	// PhaseRoundComplete means every group of the round has a verdict and
	// the winner set is about to become the next round's input.
	PhaseRoundComplete
	// PhaseTerminal means at most one candidate survives; no further
	// reduction is possible.
	PhaseTerminal
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseRoundInProgress:
		return "round_in_progress"
	case PhaseRoundComplete:
		return "round_complete"
	case PhaseTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

// Default configuration values.
const (
	// DefaultGroupSize is the canonical comparison group size.
	DefaultGroupSize = 4
	// DefaultMaxRetries bounds re-asks of a group after malformed verdicts.
	DefaultMaxRetries = 3
	// DefaultMaxConcurrency bounds simultaneous judge calls within a round.
	DefaultMaxConcurrency = 4
	// DefaultJudgeTimeoutSeconds bounds a single judge call; the oracle
	// may hang.
	DefaultJudgeTimeoutSeconds = 120
)

// Package-level validator for engine configuration.
var validate = validator.New()

// Config holds the tunable parameters of a tournament run.
type Config struct {
	// GroupSize is the number of candidates compared per judge call.
	// The final group of a round may be smaller (remainder group).
	GroupSize int `yaml:"group_size" json:"group_size" validate:"required,min=2,max=16"`

	// MaxRetries is how many times a group is re-judged after a malformed
	// verdict (or per-call timeout) before falling back to a random winner.
	MaxRetries int `yaml:"max_retries" json:"max_retries" validate:"min=0,max=10"`

	// MaxConcurrency bounds concurrent judge calls within a round, to
	// respect rate limits of the external oracle.
	MaxConcurrency int `yaml:"max_concurrency" json:"max_concurrency" validate:"min=1,max=64"`

	// JudgeTimeoutSeconds is the per-call deadline for one judge
	// invocation, in seconds; zero disables the per-call deadline.
	// Expiry counts as a recoverable judge error, not a fatal one.
	JudgeTimeoutSeconds int `yaml:"judge_timeout_seconds" json:"judge_timeout_seconds" validate:"min=0,max=3600"`
}

// JudgeTimeout returns the per-call deadline as a duration.
func (c Config) JudgeTimeout() time.Duration {
	return time.Duration(c.JudgeTimeoutSeconds) * time.Second
}

// DefaultConfig returns the canonical tournament configuration.
func DefaultConfig() Config {
	return Config{
		GroupSize:           DefaultGroupSize,
		MaxRetries:          DefaultMaxRetries,
		MaxConcurrency:      DefaultMaxConcurrency,
		JudgeTimeoutSeconds: DefaultJudgeTimeoutSeconds,
	}
}

// Result summarizes a completed tournament run.
type Result struct {
	// Ranking holds all candidates ordered by descending win count,
	// ties broken by insertion order.
	Ranking []*domain.Candidate

	// Winner is the last surviving candidate, or nil for an empty pool.
	Winner *domain.Candidate

	// Rounds is the number of elimination rounds executed.
	Rounds int

	// JudgeCalls counts individual judge invocations, retries included.
	JudgeCalls int

	// DegradedGroups counts groups whose winner was chosen by the random
	// fallback after judge retries were exhausted.
	DegradedGroups int
}

// RoundHook observes a completed round: its zero-based index and the
// winner set advancing into the next round. Hooks run on the round
// boundary, never concurrently with group evaluation.
type RoundHook func(round int, winners []*domain.Candidate)

// Engine reduces a candidate pool to a ranking via repeated grouped
// elimination. It owns round state and group partitioning; the pool owns
// candidates and their win counters; the judge is an injected capability.
type Engine struct {
	pool   *domain.Pool
	judge  ports.Judge
	config Config

	// rng drives shuffling and the degraded fallback. Guarded by randMu:
	// shuffles happen on round boundaries, but fallback picks happen
	// inside concurrent group workers.
	randMu sync.Mutex
	rng    *rand.Rand

	logger    *slog.Logger
	metrics   ports.MetricsCollector
	tracer    trace.Tracer
	roundHook RoundHook

	phase atomic.Int32
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRand injects the random source used for shuffling and fallback
// selection, making grouping reproducible in tests.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithLogger sets the logger for round progress.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics sets the collector for run metrics.
func WithMetrics(metrics ports.MetricsCollector) Option {
	return func(e *Engine) { e.metrics = metrics }
}

// WithRoundHook registers a hook invoked after each completed round.
func WithRoundHook(hook RoundHook) Option {
	return func(e *Engine) { e.roundHook = hook }
}

// NewEngine creates a tournament engine over pool, judging groups with
// judge. Returns an error if the configuration is invalid or a dependency
// is missing.
func NewEngine(pool *domain.Pool, judge ports.Judge, config Config, opts ...Option) (*Engine, error) {
	if pool == nil {
		return nil, fmt.Errorf("candidate pool cannot be nil")
	}
	if judge == nil {
		return nil, fmt.Errorf("judge cannot be nil")
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	e := &Engine{
		pool:   pool,
		judge:  judge,
		config: config,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: slog.Default(),
		tracer: otel.Tracer("tournament-engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.phase.Store(int32(PhasePending))
	return e, nil
}

// Phase reports the engine's current lifecycle phase.
func (e *Engine) Phase() Phase { return Phase(e.phase.Load()) }

// Run executes rounds until at most one candidate survives and returns the
// final ranking. A zero-candidate pool yields an empty result and
// domain.ErrEmptyPool; callers should treat that as a terminal empty
// ranking rather than a crash. Any judge transport failure aborts the run
// with an error wrapping ports.ErrJudgeUnavailable.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	ctx, span := e.tracer.Start(ctx, "tournament.run")
	defer span.End()

	total := e.pool.Len()
	span.SetAttributes(
		attribute.Int("tournament.pool_size", total),
		attribute.Int("tournament.group_size", e.config.GroupSize),
	)

	if total == 0 {
		e.phase.Store(int32(PhaseTerminal))
		return Result{}, domain.ErrEmptyPool
	}

	var (
		result  Result
		current = e.pool.All()
	)
	for len(current) > 1 {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		e.phase.Store(int32(PhaseRoundInProgress))
		e.logger.Info("starting round",
			"round", result.Rounds,
			"surviving", len(current),
			"pool", total,
		)

		winners, err := e.runRound(ctx, result.Rounds, current, &result)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return Result{}, fmt.Errorf("round %d: %w", result.Rounds, err)
		}

		e.phase.Store(int32(PhaseRoundComplete))
		result.Rounds++
		if e.metrics != nil {
			e.metrics.RecordGauge("tournament_round_population", float64(len(winners)), nil)
		}
		if e.roundHook != nil {
			e.roundHook(result.Rounds-1, winners)
		}

		current = winners
		e.phase.Store(int32(PhasePending))
	}

	e.phase.Store(int32(PhaseTerminal))
	if len(current) == 1 {
		result.Winner = current[0]
	}
	result.Ranking = e.pool.Ranked()

	span.SetAttributes(
		attribute.Int("tournament.rounds", result.Rounds),
		attribute.Int("tournament.judge_calls", result.JudgeCalls),
		attribute.Int("tournament.degraded_groups", result.DegradedGroups),
	)
	e.logger.Info("tournament complete",
		"rounds", result.Rounds,
		"judge_calls", result.JudgeCalls,
		"degraded_groups", result.DegradedGroups,
	)
	return result, nil
}

// runRound partitions current into groups, judges them concurrently, and
// returns the winner set. Groups are independent: each touches only its
// own members' counters, so any completion interleaving is safe.
func (e *Engine) runRound(ctx context.Context, round int, current []*domain.Candidate, result *Result) ([]*domain.Candidate, error) {
	ctx, span := e.tracer.Start(ctx, "tournament.round",
		trace.WithAttributes(
			attribute.Int("tournament.round", round),
			attribute.Int("tournament.population", len(current)),
		))
	defer span.End()

	e.randMu.Lock()
	groups := makeGroups(e.rng, current, e.config.GroupSize)
	e.randMu.Unlock()

	winners := make([]*domain.Candidate, len(groups))
	var judgeCalls, degraded atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.MaxConcurrency)

	for i, group := range groups {
		// A singleton remainder advances uncontested: no judge call and
		// no win credit, since it faced no competition.
		if len(group) == 1 {
			winners[i] = group[0]
			continue
		}

		g.Go(func() error {
			winner, outcome, err := e.judgeGroup(gctx, group, &judgeCalls)
			if err != nil {
				return err
			}
			if outcome.degraded {
				degraded.Add(1)
				e.logger.Warn("judge degraded, random fallback winner",
					"round", round,
					"group_size", len(group),
					"attempts", outcome.attempts,
				)
				if e.metrics != nil {
					e.metrics.RecordCounter("tournament_degraded_groups", 1, nil)
				}
			}
			if err := e.pool.RecordWin(winner.ID); err != nil {
				return fmt.Errorf("recording win for %q: %w", winner.ID, err)
			}
			winners[i] = winner
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	result.JudgeCalls += int(judgeCalls.Load())
	result.DegradedGroups += int(degraded.Load())
	return winners, nil
}

// groupOutcome carries per-group bookkeeping out of judgeGroup.
type groupOutcome struct {
	attempts int
	degraded bool
}

// judgeGroup asks the judge to pick a winner from group, retrying on
// malformed verdicts and per-call timeouts. When retries are exhausted it
// selects a uniformly random member so the round still completes, flagging
// the outcome as degraded. Transport failures and cancellation of the
// round context abort immediately.
func (e *Engine) judgeGroup(ctx context.Context, group []*domain.Candidate, judgeCalls *atomic.Int64) (*domain.Candidate, groupOutcome, error) {
	texts := make([]string, len(group))
	for i, c := range group {
		texts[i] = c.Text
	}

	var outcome groupOutcome
	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		outcome.attempts = attempt + 1

		callCtx := ctx
		cancel := context.CancelFunc(func() {})
		if timeout := e.config.JudgeTimeout(); timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, timeout)
		}

		start := time.Now()
		verdict, err := e.judge.Pick(callCtx, texts)
		cancel()
		judgeCalls.Add(1)
		if e.metrics != nil {
			e.metrics.RecordLatency("judge_pick", time.Since(start), nil)
			e.metrics.RecordCounter("tournament_judge_calls", 1, nil)
		}

		switch {
		case err == nil:
			// A conforming judge already rejects out-of-range choices as
			// malformed, but the index must hold regardless.
			if verdict.Choice >= 1 && verdict.Choice <= len(group) {
				return group[verdict.Choice-1], outcome, nil
			}
			continue

		case errors.Is(err, ports.ErrMalformedVerdict):
			continue

		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			// The per-call deadline fired while the round is still live:
			// recoverable, same as a malformed verdict.
			continue

		case ctx.Err() != nil:
			return nil, outcome, ctx.Err()

		default:
			if !errors.Is(err, ports.ErrJudgeUnavailable) {
				err = fmt.Errorf("%w: %w", ports.ErrJudgeUnavailable, err)
			}
			return nil, outcome, err
		}
	}

	// Retries exhausted. The group was evaluated, so its winner still
	// earns a recorded win; the choice is just no longer the judge's.
	outcome.degraded = true
	e.randMu.Lock()
	winner := group[e.rng.Intn(len(group))]
	e.randMu.Unlock()
	return winner, outcome, nil
}
