package algorithm

import (
	"context"
	"math/rand"
	"time"

	"github.com/noah-isme/classplacer/internal/core/config"
	"github.com/noah-isme/classplacer/internal/core/constraints"
	"github.com/noah-isme/classplacer/internal/core/model"
	"github.com/noah-isme/classplacer/internal/core/neighborhood"
	"github.com/noah-isme/classplacer/internal/core/progress"
)

// RandomSwap is the reference baseline algorithm: repeatedly swap a random
// pair of non-locked students from two distinct classes, keeping the result
// only when it strictly improves (or ties, if configured) the current best.
type RandomSwap struct{}

func (a *RandomSwap) Name() string { return config.AlgoRandomSwap }

func eligibleStudents(snap *model.Snapshot, class model.ClassID) []model.StudentID {
	var out []model.StudentID
	for _, id := range snap.Members(class) {
		st, ok := snap.StudentByID(id)
		if !ok {
			continue
		}
		if st.ForceClass != "" || st.ForceGroup != "" {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (a *RandomSwap) Run(ctx context.Context, snap *model.Snapshot, rng *rand.Rand, cfg *config.Config, checker *constraints.Checker, cb progress.Callback) (*RunResult, error) {
	start := time.Now()
	params := cfg.Algorithm(config.AlgoRandomSwap)
	maxAttempts := params.MaxSwapAttempts
	if maxAttempts <= 0 {
		maxAttempts = 50
	}

	initial := score(snap, cfg)
	current := snap
	currentScore := initial
	best := snap
	bestScore := initial

	sink := progress.NewSink(cb, progress.LevelNormal, cfg.Optimization.MaxIterations)
	sink.Start(initial)

	classIDs := current.SortedClassIDs()
	result := &RunResult{Algorithm: a.Name(), InitialScore: initial, BestScore: bestScore, BestSnapshot: best}

	if len(classIDs) < 2 {
		result.Elapsed = time.Since(start)
		return result, nil
	}

	consecutiveNonImproving := 0
	iterations := 0
	for iterations < cfg.Optimization.MaxIterations {
		if err := ctx.Err(); err != nil {
			result.Cancelled = true
			break
		}

		attempts := 0
		var applied *model.Snapshot
		for attempts < maxAttempts {
			attempts++
			ca := classIDs[rng.Intn(len(classIDs))]
			cbID := classIDs[rng.Intn(len(classIDs))]
			if ca == cbID {
				continue
			}
			studentsA := eligibleStudents(current, ca)
			studentsB := eligibleStudents(current, cbID)
			if len(studentsA) == 0 || len(studentsB) == 0 {
				continue
			}
			sa := studentsA[rng.Intn(len(studentsA))]
			sb := studentsB[rng.Intn(len(studentsB))]

			sink.Proposed(iterations, currentScore, bestScore, nil)
			res := neighborhood.Swap(current, checker, sa, sb)
			if res.Rejected {
				continue
			}
			applied = res.Snapshot
			break
		}
		if applied == nil {
			result.Stuck = true
			break
		}

		iterations++
		newScore := score(applied, cfg)
		improved := newScore > currentScore
		accept := improved || (newScore == currentScore && cfg.Optimization.AcceptNeutralMoves)
		if !accept {
			consecutiveNonImproving++
		} else {
			current = applied
			currentScore = newScore
			if newScore > bestScore {
				best = applied
				bestScore = newScore
				consecutiveNonImproving = 0
			} else {
				consecutiveNonImproving++
			}
		}
		sink.Accepted(iterations, currentScore, bestScore, nil)

		if consecutiveNonImproving >= cfg.Optimization.EarlyStopThreshold {
			result.EarlyStopped = true
			break
		}
	}

	result.IterationsUsed = iterations
	result.BestScore = bestScore
	result.BestSnapshot = best
	result.ConstraintViolationsAtEnd = len(checker.Validate(best))
	result.Elapsed = time.Since(start)
	sink.End(iterations, currentScore, bestScore)
	return result, nil
}
