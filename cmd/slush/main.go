// Command slush generates a batch of story ideas with a language model,
// then ranks them in a single-elimination tournament judged by the same
// model. The full ranking is printed to stdout as "wins<TAB>idea" lines
// and every stage of the run is journaled as JSONL.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/slushpile/slush/infrastructure/judge"
	"github.com/slushpile/slush/infrastructure/llm"
	"github.com/slushpile/slush/infrastructure/metrics"
	"github.com/slushpile/slush/internal/application"
	"github.com/slushpile/slush/internal/domain"
	"github.com/slushpile/slush/internal/generate"
	"github.com/slushpile/slush/internal/journal"
	"github.com/slushpile/slush/internal/ports"
	"github.com/slushpile/slush/internal/tournament"
)

func main() {
	var (
		configPath   = flag.String("config", "", "Path to YAML config; empty uses built-in defaults")
		ideaCount    = flag.Int("ideas", 0, "Number of ideas to generate, overriding the config")
		ideasFromLog = flag.Bool("ideas-from-log", false, "Skip generation and rank the ideas already journaled")
		seed         = flag.Int64("seed", 0, "Random seed for grouping and word sampling; 0 derives one from the clock")
		metricsAddr  = flag.String("metrics-addr", "", "Listen address for Prometheus metrics; empty disables the endpoint")
		verbose      = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(*configPath, *ideaCount, *ideasFromLog, *seed, *metricsAddr, logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, ideaCount int, ideasFromLog bool, seed int64, metricsAddr string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config := application.DefaultConfig()
	if configPath != "" {
		var err error
		config, err = application.LoadConfig(configPath)
		if err != nil {
			return err
		}
	}
	if ideaCount > 0 {
		config.IdeaCount = ideaCount
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Debug("run parameters", "seed", seed, "provider", config.Provider.Type, "ideas", config.IdeaCount)

	var collector ports.MetricsCollector
	if metricsAddr != "" {
		collector = metrics.NewPrometheusMetrics()
		go serveMetrics(metricsAddr, logger)
	}

	client, err := buildClient(config, collector)
	if err != nil {
		return err
	}

	ideas, err := collectIdeas(ctx, config, client, seed, ideasFromLog, logger)
	if err != nil {
		return err
	}
	if len(ideas) == 0 {
		return fmt.Errorf("no ideas to rank")
	}
	logger.Info("ranking ideas", "count", len(ideas), "model", client.GetModel())

	pool := domain.NewPool()
	for _, idea := range ideas {
		pool.Add(idea)
	}

	llmJudge, err := judge.NewLLMJudge(client, config.Judge)
	if err != nil {
		return err
	}

	scores, err := journal.NewWriter(config.Journal.Scores)
	if err != nil {
		return err
	}
	defer scores.Close()

	engineOpts := []tournament.Option{
		tournament.WithRand(rand.New(rand.NewSource(seed))),
		tournament.WithLogger(logger),
		tournament.WithRoundHook(func(round int, winners []*domain.Candidate) {
			record := journal.RoundRecord{
				Timestamp: time.Now().UTC(),
				Round:     round,
				Survivors: len(winners),
				Standings: domain.Standings(pool.Ranked()),
			}
			if err := scores.Append(record); err != nil {
				logger.Warn("journaling round failed", "round", round, "error", err)
			}
		}),
	}
	if collector != nil {
		engineOpts = append(engineOpts, tournament.WithMetrics(collector))
	}

	engine, err := tournament.NewEngine(pool, llmJudge, config.Tournament, engineOpts...)
	if err != nil {
		return err
	}

	result, err := engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("tournament failed: %w", err)
	}

	for _, candidate := range result.Ranking {
		fmt.Printf("%d\t%s\n", candidate.Wins(), candidate.Text)
	}
	logger.Info("tournament complete",
		"rounds", result.Rounds,
		"judge_calls", result.JudgeCalls,
		"degraded_groups", result.DegradedGroups,
	)

	final, err := journal.NewWriter(config.Journal.Final)
	if err != nil {
		return err
	}
	defer final.Close()

	return final.Append(journal.FinalRecord{
		Timestamp:      time.Now().UTC(),
		Rounds:         result.Rounds,
		JudgeCalls:     result.JudgeCalls,
		DegradedGroups: result.DegradedGroups,
		Ranking:        domain.Standings(result.Ranking),
	})
}

// buildClient assembles the provider client with the middleware chain.
// Tracing sits outermost so every retry and wait shows up inside one
// span; the per-request timeout sits innermost so each retry attempt gets
// a fresh deadline.
func buildClient(config application.Config, collector ports.MetricsCollector) (*llm.Client, error) {
	apiKey, err := config.APIKey()
	if err != nil {
		return nil, err
	}

	middleware := []llm.Middleware{
		llm.TracingMiddleware("slush"),
		llm.MetricsMiddleware(collector),
		llm.RetryMiddleware(2, 500*time.Millisecond, 10*time.Second),
	}
	if config.Provider.RequestsPerSecond > 0 {
		// A zero burst would block every request forever.
		burst := max(config.Provider.Burst, 1)
		middleware = append(middleware,
			llm.RateLimitMiddleware(rate.Limit(config.Provider.RequestsPerSecond), burst))
	}
	middleware = append(middleware, llm.CircuitBreakerMiddleware(5, 30*time.Second))
	if timeout := config.Provider.RequestTimeout(); timeout > 0 {
		middleware = append(middleware, llm.TimeoutMiddleware(timeout))
	}

	return llm.NewClient(config.Provider.Type, llm.ClientConfig{
		APIKey:     apiKey,
		Model:      config.Provider.Model,
		BaseURL:    config.Provider.BaseURL,
		Middleware: middleware,
	})
}

// collectIdeas either reloads a previously journaled idea set or generates
// a fresh one, journaling each batch as it arrives.
func collectIdeas(ctx context.Context, config application.Config, client ports.LLMClient, seed int64, fromLog bool, logger *slog.Logger) ([]string, error) {
	if fromLog {
		ideas, err := journal.LoadIdeas(config.Journal.Ideas)
		if err != nil {
			return nil, fmt.Errorf("loading ideas from %s: %w", config.Journal.Ideas, err)
		}
		logger.Info("loaded ideas from journal", "count", len(ideas), "path", config.Journal.Ideas)
		return ideas, nil
	}

	ideasLog, err := journal.NewWriter(config.Journal.Ideas)
	if err != nil {
		return nil, err
	}
	defer ideasLog.Close()

	generator, err := generate.NewGenerator(client, config.Generation,
		generate.WithRand(rand.New(rand.NewSource(seed))),
		generate.WithLogger(logger),
		generate.WithBatchHook(func(prompt string, ideas []string) {
			record := journal.IdeaBatch{Timestamp: time.Now().UTC(), Prompt: prompt, Ideas: ideas}
			if err := ideasLog.Append(record); err != nil {
				logger.Warn("journaling idea batch failed", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	return generator.Generate(ctx, config.IdeaCount)
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics endpoint stopped", "error", err)
	}
}
