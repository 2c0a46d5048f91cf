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

// LocalSearch is a greedy pass-based optimizer: for every student, it
// evaluates every legal single move and every legal single-partner swap
// with a student in another class, and applies the single best-improving
// candidate it finds before moving to the next student.
type LocalSearch struct{}

func (a *LocalSearch) Name() string { return config.AlgoLocalSearch }

type candidateMove struct {
	delta    float64
	snapshot *model.Snapshot
}

func (a *LocalSearch) Run(ctx context.Context, snap *model.Snapshot, rng *rand.Rand, cfg *config.Config, checker *constraints.Checker, cb progress.Callback) (*RunResult, error) {
	start := time.Now()
	params := cfg.Algorithm(config.AlgoLocalSearch)
	maxPasses := params.MaxPasses
	if maxPasses <= 0 {
		maxPasses = 20
	}
	minImprovement := params.MinImprovement

	initial := score(snap, cfg)
	current := snap
	currentScore := initial
	best := snap
	bestScore := initial

	sink := progress.NewSink(cb, progress.LevelNormal, maxPasses*len(snap.Students()))
	sink.Start(initial)

	result := &RunResult{Algorithm: a.Name(), InitialScore: initial, BestScore: bestScore, BestSnapshot: best}
	iterations := 0

	if cfg.Optimization.MaxIterations <= 0 {
		result.Elapsed = time.Since(start)
		return result, nil
	}

	for pass := 0; pass < maxPasses && iterations < cfg.Optimization.MaxIterations; pass++ {
		if err := ctx.Err(); err != nil {
			result.Cancelled = true
			break
		}
		passStartScore := currentScore
		for _, id := range current.StudentIDs() {
			if err := ctx.Err(); err != nil {
				result.Cancelled = true
				break
			}
			if iterations >= cfg.Optimization.MaxIterations {
				break
			}
			st, _ := current.StudentByID(id)
			if st.ForceClass != "" || st.ForceGroup != "" {
				continue
			}

			var bestCandidate *candidateMove
			var bestClass model.ClassID
			var bestPartner model.StudentID

			for _, target := range current.SortedClassIDs() {
				if target == current.ClassOf(id) {
					continue
				}
				sink.Proposed(iterations, currentScore, bestScore, nil)
				res := neighborhood.Move(current, checker, id, target)
				if res.Rejected {
					continue
				}
				delta := score(res.Snapshot, cfg) - currentScore
				if delta <= 0 {
					continue
				}
				if bestCandidate == nil || delta > bestCandidate.delta ||
					(delta == bestCandidate.delta && (bestPartner != "" || target < bestClass)) {
					bestCandidate = &candidateMove{delta: delta, snapshot: res.Snapshot}
					bestClass = target
					bestPartner = ""
				}
			}

			for _, otherClass := range current.SortedClassIDs() {
				if otherClass == current.ClassOf(id) {
					continue
				}
				for _, partner := range current.Members(otherClass) {
					sink.Proposed(iterations, currentScore, bestScore, nil)
					res := neighborhood.Swap(current, checker, id, partner)
					if res.Rejected {
						continue
					}
					delta := score(res.Snapshot, cfg) - currentScore
					if delta <= 0 {
						continue
					}
					better := bestCandidate == nil || delta > bestCandidate.delta
					tie := bestCandidate != nil && delta == bestCandidate.delta &&
						(otherClass < bestClass || (otherClass == bestClass && bestPartner != "" && partner < bestPartner))
					if better || tie {
						bestCandidate = &candidateMove{delta: delta, snapshot: res.Snapshot}
						bestClass = otherClass
						bestPartner = partner
					}
				}
			}

			if bestCandidate != nil {
				current = bestCandidate.snapshot
				currentScore += bestCandidate.delta
				iterations++
				if currentScore > bestScore {
					best = current
					bestScore = currentScore
				}
				sink.Accepted(iterations, currentScore, bestScore, nil)
			}
		}

		if result.Cancelled {
			break
		}
		improvement := currentScore - passStartScore
		if improvement < minImprovement {
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
