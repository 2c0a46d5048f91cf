package initializer

import (
	"math/rand"

	"github.com/noah-isme/classplacer/internal/core/config"
	"github.com/noah-isme/classplacer/internal/core/constraints"
	"github.com/noah-isme/classplacer/internal/core/model"
)

// Balanced starts from the same round-robin deal as Random, then repeatedly
// moves one unlocked student from the largest class to the smallest until
// every class's size is within one of every other's.
type Balanced struct{}

func (b *Balanced) Name() string { return "balanced" }

func (b *Balanced) Initialize(students []model.Student, classIDs []model.ClassID, columns []string, rng *rand.Rand, cfg *config.Config, checker *constraints.Checker) (*model.Snapshot, error) {
	snap := model.NewSnapshot(students, classIDs, columns)
	if err := placeLocks(snap, classIDs, cfg.ClassConfig.MaxClassSize, nil); err != nil {
		return nil, err
	}

	remaining := unlockedStudents(snap)
	rng.Shuffle(len(remaining), func(i, j int) { remaining[i], remaining[j] = remaining[j], remaining[i] })
	for i, st := range remaining {
		snap.PlaceStudent(st.ID, classIDs[i%len(classIDs)])
	}

	for {
		largest, smallest := extremeClasses(snap, classIDs)
		if largest == "" || snap.ClassSize(largest)-snap.ClassSize(smallest) <= 1 {
			break
		}
		mover := movableStudent(snap, largest)
		if mover == "" {
			break
		}
		snap.PlaceStudent(mover, smallest)
	}
	return snap, nil
}

func extremeClasses(snap *model.Snapshot, classIDs []model.ClassID) (largest, smallest model.ClassID) {
	if len(classIDs) == 0 {
		return "", ""
	}
	largest, smallest = classIDs[0], classIDs[0]
	for _, cid := range classIDs[1:] {
		size := snap.ClassSize(cid)
		if size > snap.ClassSize(largest) {
			largest = cid
		}
		if size < snap.ClassSize(smallest) {
			smallest = cid
		}
	}
	return largest, smallest
}

func movableStudent(snap *model.Snapshot, class model.ClassID) model.StudentID {
	for _, id := range snap.Members(class) {
		st, ok := snap.StudentByID(id)
		if ok && st.ForceClass == "" && st.ForceGroup == "" {
			return id
		}
	}
	return ""
}
