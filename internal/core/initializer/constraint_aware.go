package initializer

import (
	"math/rand"

	"github.com/noah-isme/classplacer/internal/core/config"
	"github.com/noah-isme/classplacer/internal/core/constraints"
	"github.com/noah-isme/classplacer/internal/core/model"
)

// ConstraintAware is the default strategy. It seeds force-groups into the
// class that currently minimizes their combined disruption, then places
// every remaining student by scanning classes in ascending marginal cost.
type ConstraintAware struct{}

func (c *ConstraintAware) Name() string { return "constraint_aware" }

const (
	marginalCostConflictWeight = 2.0
	marginalCostFriendWeight   = 1.0
)

// marginalCost estimates the disruption of adding candidates to cid: a size
// penalty for exceeding the preferred class size, plus alpha times conflict
// edges added, minus beta times preferred-friend edges added.
func marginalCost(snap *model.Snapshot, cid model.ClassID, candidates []model.StudentID, preferredSize int) float64 {
	candidateSet := make(map[model.StudentID]bool, len(candidates))
	for _, id := range candidates {
		candidateSet[id] = true
	}

	var conflictEdges, friendEdges int
	for _, id := range snap.Members(cid) {
		st, ok := snap.StudentByID(id)
		if !ok {
			continue
		}
		for _, d := range st.DislikedPeers {
			if candidateSet[d] {
				conflictEdges++
			}
		}
		for _, f := range st.PreferredFriends {
			if candidateSet[f] {
				friendEdges++
			}
		}
	}

	newSize := snap.ClassSize(cid) + len(candidates)
	var sizePenalty float64
	if preferredSize > 0 && newSize > preferredSize {
		sizePenalty = float64(newSize - preferredSize)
	}

	return sizePenalty + marginalCostConflictWeight*float64(conflictEdges) - marginalCostFriendWeight*float64(friendEdges)
}

func disruptionGroupPlacer(preferredSize int) groupPlacer {
	return func(snap *model.Snapshot, classIDs []model.ClassID, members []model.StudentID) model.ClassID {
		best := classIDs[0]
		bestCost := marginalCost(snap, best, members, preferredSize)
		for _, cid := range classIDs[1:] {
			cost := marginalCost(snap, cid, members, preferredSize)
			if cost < bestCost {
				bestCost = cost
				best = cid
			}
		}
		return best
	}
}

func (c *ConstraintAware) Initialize(students []model.Student, classIDs []model.ClassID, columns []string, rng *rand.Rand, cfg *config.Config, checker *constraints.Checker) (*model.Snapshot, error) {
	snap := model.NewSnapshot(students, classIDs, columns)
	preferredSize := cfg.ClassConfig.PreferredClassSize
	if err := placeLocks(snap, classIDs, cfg.ClassConfig.MaxClassSize, disruptionGroupPlacer(preferredSize)); err != nil {
		return nil, err
	}

	for _, st := range unlockedStudents(snap) {
		best := classIDs[0]
		bestCost := marginalCost(snap, best, []model.StudentID{st.ID}, preferredSize)
		for _, cid := range classIDs[1:] {
			cost := marginalCost(snap, cid, []model.StudentID{st.ID}, preferredSize)
			if cost < bestCost {
				bestCost = cost
				best = cid
			}
		}
		snap.PlaceStudent(st.ID, best)
	}
	return snap, nil
}
