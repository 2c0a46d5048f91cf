package initializer

import (
	"math/rand"
	"sort"

	"github.com/noah-isme/classplacer/internal/core/config"
	"github.com/noah-isme/classplacer/internal/core/constraints"
	"github.com/noah-isme/classplacer/internal/core/model"
)

// AcademicBalanced sorts unlocked students by academic score descending and
// serpentine-distributes them (0,1,...,K-1,K-1,...,1,0,...) so each class
// ends up with a similar academic mean.
type AcademicBalanced struct{}

func (a *AcademicBalanced) Name() string { return "academic_balanced" }

func (a *AcademicBalanced) Initialize(students []model.Student, classIDs []model.ClassID, columns []string, rng *rand.Rand, cfg *config.Config, checker *constraints.Checker) (*model.Snapshot, error) {
	snap := model.NewSnapshot(students, classIDs, columns)
	if err := placeLocks(snap, classIDs, cfg.ClassConfig.MaxClassSize, nil); err != nil {
		return nil, err
	}

	remaining := unlockedStudents(snap)
	sort.SliceStable(remaining, func(i, j int) bool {
		return remaining[i].AcademicScore > remaining[j].AcademicScore
	})

	k := len(classIDs)
	if k == 0 {
		return snap, nil
	}
	idx, direction := 0, 1
	for _, st := range remaining {
		snap.PlaceStudent(st.ID, classIDs[idx])
		if idx+direction < 0 || idx+direction >= k {
			direction = -direction
		} else {
			idx += direction
		}
	}
	return snap, nil
}
