// Package coordinator composes one or more algorithms into a single
// user-visible optimization outcome: run one, run several independently and
// keep every result, run several independently and keep only the winner, or
// chain several so each stage starts from the previous stage's best
// snapshot (spec.md §4.6). It is the only concurrency point in the engine;
// the scorer, constraint checker, and algorithms themselves are single
// threaded and pure with respect to their input snapshot.
package coordinator

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/noah-isme/classplacer/internal/core/algorithm"
	"github.com/noah-isme/classplacer/internal/core/config"
	"github.com/noah-isme/classplacer/internal/core/constraints"
	"github.com/noah-isme/classplacer/internal/core/model"
	"github.com/noah-isme/classplacer/internal/core/progress"
)

// Strategy selects how the coordinator composes its algorithm list.
type Strategy string

const (
	StrategySingle     Strategy = "single"
	StrategyParallel   Strategy = "parallel"
	StrategySequential Strategy = "sequential"
	StrategyBestOf     Strategy = "best_of"
)

// Stage is one requested algorithm run: a name and the rng seed it starts
// from. Seeds default sequentially from a base seed when the caller does
// not vary them explicitly.
type Stage struct {
	Algorithm string
	Seed      int64
}

// Outcome is everything a coordinator invocation returns: every completed
// run (in the order it was requested), the single best of those runs, and
// any run that aborted outright with algorithm.FailedError.
type Outcome struct {
	Strategy  Strategy
	Runs      []*algorithm.RunResult
	Best      *algorithm.RunResult
	Failures  []*algorithm.FailedError
	Cancelled bool
}

// SequentialChainError reports a sequential chain configuration the
// coordinator refuses to run: random-swap may only open a chain, never
// continue one, because it explores blindly rather than refining a warm
// start.
type SequentialChainError struct {
	Position  int
	Algorithm string
}

func (e *SequentialChainError) Error() string {
	return fmt.Sprintf("algorithm %q at chain position %d cannot follow another stage", e.Algorithm, e.Position)
}

// Coordinator runs algorithms against a shared starting snapshot.
type Coordinator struct {
	Checker *constraints.Checker
	// Budget bounds the coordinator's total wall-clock time; zero means
	// unbounded. Exhausting it cancels every remaining and in-flight run.
	Budget time.Duration
}

// New builds a coordinator bound to a constraint checker.
func New(checker *constraints.Checker, budget time.Duration) *Coordinator {
	return &Coordinator{Checker: checker, Budget: budget}
}

// Run executes stages against start according to strategy.
func (c *Coordinator) Run(ctx context.Context, start *model.Snapshot, cfg *config.Config, strategy Strategy, stages []Stage, cb progress.Callback) (*Outcome, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("coordinator: no algorithms requested")
	}

	if c.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Budget)
		defer cancel()
	}

	switch strategy {
	case StrategySingle:
		return c.runSingle(ctx, start, cfg, stages[0], cb)
	case StrategySequential:
		return c.runSequential(ctx, start, cfg, stages, cb)
	case StrategyParallel:
		return c.runParallel(ctx, start, cfg, strategy, stages, cb)
	case StrategyBestOf:
		out, err := c.runParallel(ctx, start, cfg, strategy, stages, cb)
		if err != nil || out == nil {
			return out, err
		}
		if out.Best != nil {
			out.Runs = []*algorithm.RunResult{out.Best}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("coordinator: unknown strategy %q", strategy)
	}
}

func (c *Coordinator) runOne(ctx context.Context, snap *model.Snapshot, cfg *config.Config, stage Stage, cb progress.Callback) (*algorithm.RunResult, error) {
	algo := algorithm.New(stage.Algorithm)
	if algo == nil {
		return nil, fmt.Errorf("coordinator: unknown algorithm %q", stage.Algorithm)
	}
	rng := rand.New(rand.NewSource(stage.Seed))
	return algo.Run(ctx, snap, rng, cfg, c.Checker, cb)
}

func (c *Coordinator) runSingle(ctx context.Context, start *model.Snapshot, cfg *config.Config, stage Stage, cb progress.Callback) (*Outcome, error) {
	result, err := c.runOne(ctx, start, cfg, stage, cb)
	if err != nil {
		var failed *algorithm.FailedError
		if isFailedError(err, &failed) {
			return &Outcome{Strategy: StrategySingle, Failures: []*algorithm.FailedError{failed}}, nil
		}
		return nil, err
	}
	return &Outcome{Strategy: StrategySingle, Runs: []*algorithm.RunResult{result}, Best: result, Cancelled: result.Cancelled}, nil
}

// runSequential chains every stage's best snapshot into the next stage's
// starting point. Only the first stage may be random-swap; every later
// stage must be a refinement algorithm.
func (c *Coordinator) runSequential(ctx context.Context, start *model.Snapshot, cfg *config.Config, stages []Stage, cb progress.Callback) (*Outcome, error) {
	for i, stage := range stages {
		if i > 0 && stage.Algorithm == config.AlgoRandomSwap {
			return nil, &SequentialChainError{Position: i, Algorithm: stage.Algorithm}
		}
	}

	out := &Outcome{Strategy: StrategySequential}
	current := start
	for _, stage := range stages {
		result, err := c.runOne(ctx, current, cfg, stage, cb)
		if err != nil {
			var failed *algorithm.FailedError
			if isFailedError(err, &failed) {
				out.Failures = append(out.Failures, failed)
				break
			}
			return nil, err
		}
		out.Runs = append(out.Runs, result)
		out.Best = result
		if result.Cancelled {
			out.Cancelled = true
			break
		}
		current = result.BestSnapshot
	}
	return out, nil
}

// runParallel runs every stage independently against an isolated deep copy
// of start, on its own goroutine and rng, and joins on completion.
func (c *Coordinator) runParallel(ctx context.Context, start *model.Snapshot, cfg *config.Config, strategy Strategy, stages []Stage, cb progress.Callback) (*Outcome, error) {
	type outcome struct {
		result *algorithm.RunResult
		failed *algorithm.FailedError
		err    error
	}

	results := make([]outcome, len(stages))
	var wg sync.WaitGroup
	for i, stage := range stages {
		wg.Add(1)
		go func(i int, stage Stage) {
			defer wg.Done()
			snap := start.DeepCopy()
			result, err := c.runOne(ctx, snap, cfg, stage, cb)
			if err != nil {
				var failed *algorithm.FailedError
				if isFailedError(err, &failed) {
					results[i] = outcome{failed: failed}
					return
				}
				results[i] = outcome{err: err}
				return
			}
			results[i] = outcome{result: result}
		}(i, stage)
	}
	wg.Wait()

	out := &Outcome{Strategy: strategy}
	var bestStage Stage
	for i, r := range results {
		if r.err != nil {
			return nil, r.err
		}
		if r.failed != nil {
			out.Failures = append(out.Failures, r.failed)
			continue
		}
		out.Runs = append(out.Runs, r.result)
		if r.result.Cancelled {
			out.Cancelled = true
		}
		if out.Best == nil || betterRun(stages[i], r.result, bestStage, out.Best) {
			out.Best = r.result
			bestStage = stages[i]
		}
	}
	return out, nil
}

// betterRun reports whether candidate beats the current best. A strictly
// higher score always wins; an exact tie is broken by (algorithm, seed)
// ascending so the reported winner is reproducible regardless of goroutine
// completion order.
func betterRun(candidateStage Stage, candidate *algorithm.RunResult, bestStage Stage, best *algorithm.RunResult) bool {
	if candidate.BestScore != best.BestScore {
		return candidate.BestScore > best.BestScore
	}
	if candidateStage.Algorithm != bestStage.Algorithm {
		return candidateStage.Algorithm < bestStage.Algorithm
	}
	return candidateStage.Seed < bestStage.Seed
}

func isFailedError(err error, target **algorithm.FailedError) bool {
	failed, ok := err.(*algorithm.FailedError)
	if !ok {
		return false
	}
	*target = failed
	return true
}

// SequentialSeeds returns len(names) seeds starting at base and incrementing
// by one, the coordinator's default when the caller supplies no explicit
// per-stage seeds.
func SequentialSeeds(base int64, names []string) []Stage {
	stages := make([]Stage, len(names))
	for i, name := range names {
		stages[i] = Stage{Algorithm: name, Seed: base + int64(i)}
	}
	return stages
}
