// Package baseline runs the random-swap algorithm N times against the same
// starting snapshot and summarizes the resulting score distribution, giving
// later runs and reports something to compare against (spec.md §4.7).
package baseline

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/noah-isme/classplacer/internal/core/algorithm"
	"github.com/noah-isme/classplacer/internal/core/config"
	"github.com/noah-isme/classplacer/internal/core/constraints"
	"github.com/noah-isme/classplacer/internal/core/model"
	"github.com/noah-isme/classplacer/internal/core/progress"
)

// RunSample is one baseline run's outcome.
type RunSample struct {
	Seed           int64
	InitialScore   float64
	FinalScore     float64
	Improvement    float64
	Duration       time.Duration
	IterationsUsed int
}

// Result is the full baseline outcome: every sample plus its statistics.
type Result struct {
	Samples []RunSample
	Mean    float64
	Median  float64
	StdDev  float64
	Min     float64
	Max     float64
}

// PercentileRank returns the fraction of samples (0..100) whose final score
// is less than or equal to score, for comparing a later run against this
// baseline's distribution.
func (r *Result) PercentileRank(score float64) float64 {
	if len(r.Samples) == 0 {
		return 0
	}
	count := 0
	for _, s := range r.Samples {
		if s.FinalScore <= score {
			count++
		}
	}
	return 100 * float64(count) / float64(len(r.Samples))
}

// Options configures a baseline run.
type Options struct {
	NumRuns  int
	BaseSeed int64
	// Seeds, if non-empty, overrides sequential seed derivation with an
	// explicit per-run list; len(Seeds) must equal NumRuns.
	Seeds []int64
}

// Generate runs random-swap NumRuns times against snap and returns the
// summarized result. Each run gets its own deep-copied starting snapshot so
// runs never interfere with one another.
func Generate(ctx context.Context, snap *model.Snapshot, cfg *config.Config, checker *constraints.Checker, opts Options, cb progress.Callback) (*Result, error) {
	numRuns := opts.NumRuns
	if numRuns <= 0 {
		numRuns = 10
	}
	seeds := opts.Seeds
	if len(seeds) == 0 {
		seeds = make([]int64, numRuns)
		for i := range seeds {
			seeds[i] = opts.BaseSeed + int64(i)
		}
	}

	result := &Result{Samples: make([]RunSample, 0, len(seeds))}
	algo := &algorithm.RandomSwap{}

	sink := progress.NewSink(cb, progress.LevelNormal, len(seeds))
	sink.Start(0)

	for i, seed := range seeds {
		if err := ctx.Err(); err != nil {
			break
		}
		rng := rand.New(rand.NewSource(seed))
		runResult, err := algo.Run(ctx, snap.DeepCopy(), rng, cfg, checker, nil)
		if err != nil {
			return nil, err
		}
		sample := RunSample{
			Seed:           seed,
			InitialScore:   runResult.InitialScore,
			FinalScore:     runResult.BestScore,
			Improvement:    runResult.BestScore - runResult.InitialScore,
			Duration:       runResult.Elapsed,
			IterationsUsed: runResult.IterationsUsed,
		}
		result.Samples = append(result.Samples, sample)
		sink.Accepted(i+1, sample.FinalScore, sample.FinalScore, nil)
	}

	summarize(result)
	sink.End(len(result.Samples), result.Mean, result.Max)
	return result, nil
}

func summarize(r *Result) {
	if len(r.Samples) == 0 {
		return
	}
	scores := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		scores[i] = s.FinalScore
	}
	sort.Float64s(scores)

	var sum float64
	for _, v := range scores {
		sum += v
	}
	r.Mean = sum / float64(len(scores))
	r.Min = scores[0]
	r.Max = scores[len(scores)-1]

	mid := len(scores) / 2
	if len(scores)%2 == 0 {
		r.Median = (scores[mid-1] + scores[mid]) / 2
	} else {
		r.Median = scores[mid]
	}

	var sq float64
	for _, v := range scores {
		sq += (v - r.Mean) * (v - r.Mean)
	}
	r.StdDev = math.Sqrt(sq / float64(len(scores)))
}
