package initializer

import (
	"math/rand"

	"github.com/noah-isme/classplacer/internal/core/config"
	"github.com/noah-isme/classplacer/internal/core/constraints"
	"github.com/noah-isme/classplacer/internal/core/model"
)

// Random shuffles the unlocked students and deals them round-robin into the
// K classes, after placing force-locked students and force-groups.
type Random struct{}

func (r *Random) Name() string { return "random" }

func (r *Random) Initialize(students []model.Student, classIDs []model.ClassID, columns []string, rng *rand.Rand, cfg *config.Config, checker *constraints.Checker) (*model.Snapshot, error) {
	snap := model.NewSnapshot(students, classIDs, columns)
	if err := placeLocks(snap, classIDs, cfg.ClassConfig.MaxClassSize, nil); err != nil {
		return nil, err
	}

	remaining := unlockedStudents(snap)
	rng.Shuffle(len(remaining), func(i, j int) { remaining[i], remaining[j] = remaining[j], remaining[i] })

	for i, st := range remaining {
		snap.PlaceStudent(st.ID, classIDs[i%len(classIDs)])
	}
	return snap, nil
}
