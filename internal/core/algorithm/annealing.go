package algorithm

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/noah-isme/classplacer/internal/core/config"
	"github.com/noah-isme/classplacer/internal/core/constraints"
	"github.com/noah-isme/classplacer/internal/core/model"
	"github.com/noah-isme/classplacer/internal/core/neighborhood"
	"github.com/noah-isme/classplacer/internal/core/progress"
)

// SimulatedAnnealing explores worsening moves early (high temperature) and
// tightens toward pure hill-climbing as the temperature cools, reheating
// when the walk stagnates for too long.
type SimulatedAnnealing struct{}

func (a *SimulatedAnnealing) Name() string { return config.AlgoAnnealing }

func (a *SimulatedAnnealing) proposeNeighbor(snap *model.Snapshot, checker *constraints.Checker, rng *rand.Rand, maxAttempts int) *model.Snapshot {
	classIDs := snap.SortedClassIDs()
	if len(classIDs) < 2 {
		return nil
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		ca := classIDs[rng.Intn(len(classIDs))]
		cb := classIDs[rng.Intn(len(classIDs))]
		if ca == cb {
			continue
		}
		studentsA := eligibleStudents(snap, ca)
		if len(studentsA) == 0 {
			continue
		}
		sa := studentsA[rng.Intn(len(studentsA))]

		var res neighborhood.Result
		if rng.Intn(2) == 0 {
			res = neighborhood.Move(snap, checker, sa, cb)
		} else {
			studentsB := eligibleStudents(snap, cb)
			if len(studentsB) == 0 {
				continue
			}
			sb := studentsB[rng.Intn(len(studentsB))]
			res = neighborhood.Swap(snap, checker, sa, sb)
		}
		if res.Rejected {
			continue
		}
		return res.Snapshot
	}
	return nil
}

func (a *SimulatedAnnealing) Run(ctx context.Context, snap *model.Snapshot, rng *rand.Rand, cfg *config.Config, checker *constraints.Checker, cb progress.Callback) (*RunResult, error) {
	start := time.Now()
	params := cfg.Algorithm(config.AlgoAnnealing)

	temperature := params.InitialTemperature
	if temperature <= 0 {
		temperature = 100
	}
	minTemperature := params.MinTemperature
	coolingRate := params.CoolingRate
	if coolingRate <= 0 || coolingRate >= 1 {
		coolingRate = 0.95
	}
	reheatThreshold := params.ReheatThreshold
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

	result := &RunResult{Algorithm: a.Name(), InitialScore: initial, BestScore: bestScore, BestSnapshot: best}
	if len(current.SortedClassIDs()) < 2 {
		result.Elapsed = time.Since(start)
		return result, nil
	}

	stagnation := 0
	iterations := 0
	for iterations < cfg.Optimization.MaxIterations {
		if err := ctx.Err(); err != nil {
			result.Cancelled = true
			break
		}
		if minTemperature > 0 && temperature <= minTemperature {
			break
		}

		sink.Proposed(iterations, currentScore, bestScore, nil)
		candidate := a.proposeNeighbor(current, checker, rng, maxAttempts)
		if candidate == nil {
			result.Stuck = true
			break
		}
		iterations++

		candidateScore := score(candidate, cfg)
		delta := candidateScore - currentScore

		accept := delta >= 0
		if !accept && temperature > 0 {
			probability := math.Exp(delta / temperature)
			accept = rng.Float64() < probability
		}

		if accept {
			current = candidate
			currentScore = candidateScore
			if candidateScore > bestScore {
				best = candidate
				bestScore = candidateScore
				stagnation = 0
			} else {
				stagnation++
			}
		} else {
			stagnation++
		}

		sink.Accepted(iterations, currentScore, bestScore, map[string]float64{"temperature": temperature})
		temperature *= coolingRate

		if reheatThreshold > 0 && stagnation >= reheatThreshold && temperature < params.InitialTemperature/10 {
			temperature = params.InitialTemperature / 2
			stagnation = 0
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
