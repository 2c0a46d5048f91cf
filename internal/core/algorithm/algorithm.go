// Package algorithm implements the four optimization strategies that share
// one contract: they never mutate their input snapshot, never score an
// invalid snapshot, and cooperatively check ctx.Done() at least once per
// iteration (spec.md §4.5).
package algorithm

import (
	"context"
	"math/rand"
	"time"

	"github.com/noah-isme/classplacer/internal/core/config"
	"github.com/noah-isme/classplacer/internal/core/constraints"
	"github.com/noah-isme/classplacer/internal/core/model"
	"github.com/noah-isme/classplacer/internal/core/progress"
	"github.com/noah-isme/classplacer/internal/core/scorer"
)

// RunResult is the outcome contract every algorithm returns.
type RunResult struct {
	Algorithm                 string
	InitialScore              float64
	BestScore                 float64
	BestSnapshot              *model.Snapshot
	IterationsUsed            int
	EarlyStopped              bool
	Elapsed                   time.Duration
	ConstraintViolationsAtEnd int
	Cancelled                 bool
	Stuck                     bool
}

// Algorithm is the shared capability set every strategy implements, so the
// coordinator can hold them as a tagged collection without a type switch
// (spec.md §9's "polymorphism over capability set" note).
type Algorithm interface {
	Name() string
	Run(ctx context.Context, snap *model.Snapshot, rng *rand.Rand, cfg *config.Config, checker *constraints.Checker, cb progress.Callback) (*RunResult, error)
}

// FailedError is the only run outcome that aborts a coordinator chain
// outright; every other terminal state (stuck, cancelled, timeout) is
// reported as a RunResult field instead.
type FailedError struct {
	Algorithm string
	Reason    string
}

func (e *FailedError) Error() string {
	return "algorithm " + e.Algorithm + " failed: " + e.Reason
}

// score is a small helper shared by every algorithm implementation.
func score(snap *model.Snapshot, cfg *config.Config) float64 {
	return scorer.Score(snap, cfg).Final
}

// legalTargets returns every class id a student could legally move to
// (excluding its current class), used by local search and evolutionary
// repair.
func legalTargets(snap *model.Snapshot, checker *constraints.Checker, id model.StudentID) []model.ClassID {
	current := snap.ClassOf(id)
	var out []model.ClassID
	for _, cid := range snap.SortedClassIDs() {
		if cid == current {
			continue
		}
		if ok, _ := checker.IsMoveAllowed(snap, id, cid); ok {
			out = append(out, cid)
		}
	}
	return out
}

// New constructs an algorithm by config name.
func New(name string) Algorithm {
	switch name {
	case config.AlgoRandomSwap:
		return &RandomSwap{}
	case config.AlgoLocalSearch:
		return &LocalSearch{}
	case config.AlgoAnnealing:
		return &SimulatedAnnealing{}
	case config.AlgoEvolution:
		return &Evolutionary{}
	default:
		return nil
	}
}
