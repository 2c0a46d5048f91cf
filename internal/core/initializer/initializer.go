// Package initializer builds the first fully assigned snapshot an
// optimization run starts from. Every strategy places force-locked students
// and force-groups first, then distributes the remainder by its own rule
// (spec.md §4.3). Lock placement fails with InfeasibleError when the locks
// cannot be met; no strategy checks the minimum-friends rule, so a returned
// snapshot can leave a student short of preferred friends.
package initializer

import (
	"fmt"
	"math/rand"

	"github.com/noah-isme/classplacer/internal/core/config"
	"github.com/noah-isme/classplacer/internal/core/constraints"
	"github.com/noah-isme/classplacer/internal/core/model"
)

// InfeasibleError reports that no snapshot satisfying every hard constraint
// exists for the given roster and class capacity.
type InfeasibleError struct {
	Reason string
}

func (e *InfeasibleError) Error() string {
	return "infeasible initialization: " + e.Reason
}

// Strategy produces a fully assigned snapshot that honours every
// force_class/force_group lock, from a roster and an explicit, pre-sized
// list of empty classes. The minimum-friends rule is not checked.
type Strategy interface {
	Name() string
	Initialize(students []model.Student, classIDs []model.ClassID, columns []string, rng *rand.Rand, cfg *config.Config, checker *constraints.Checker) (*model.Snapshot, error)
}

// New constructs a strategy by config name, defaulting to constraint_aware
// for an empty or unrecognized name.
func New(name string) Strategy {
	switch name {
	case "random":
		return &Random{}
	case "balanced":
		return &Balanced{}
	case "academic_balanced":
		return &AcademicBalanced{}
	default:
		return &ConstraintAware{}
	}
}

// ClassIDs builds the K sequential class ids "1".."K" used when a caller has
// no pre-existing class id scheme of its own.
func ClassIDs(k int) []model.ClassID {
	out := make([]model.ClassID, k)
	for i := 0; i < k; i++ {
		out[i] = model.ClassID(fmt.Sprintf("%d", i+1))
	}
	return out
}

// groupPlacer decides which class an unlocked force-group should be seeded
// into; strategies that care about disruption supply their own.
type groupPlacer func(snap *model.Snapshot, classIDs []model.ClassID, members []model.StudentID) model.ClassID

func smallestClass(snap *model.Snapshot, classIDs []model.ClassID) model.ClassID {
	best := classIDs[0]
	bestSize := snap.ClassSize(best)
	for _, cid := range classIDs[1:] {
		if size := snap.ClassSize(cid); size < bestSize {
			best = cid
			bestSize = size
		}
	}
	return best
}

func defaultGroupPlacer(snap *model.Snapshot, classIDs []model.ClassID, _ []model.StudentID) model.ClassID {
	return smallestClass(snap, classIDs)
}

// placeLocks seeds every force-class and force-group placement before any
// strategy-specific distribution runs. It fails fast when the locks
// themselves are infeasible: a group spanning incompatible force-classes,
// or a lock/group too large for the max class size.
func placeLocks(snap *model.Snapshot, classIDs []model.ClassID, maxClassSize int, placer groupPlacer) error {
	if placer == nil {
		placer = defaultGroupPlacer
	}
	classSet := make(map[model.ClassID]bool, len(classIDs))
	for _, cid := range classIDs {
		classSet[cid] = true
	}

	for _, st := range snap.Students() {
		if st.ForceClass != "" && !classSet[st.ForceClass] {
			return &InfeasibleError{Reason: fmt.Sprintf("student %s is force-locked to unknown class %q", st.ID, st.ForceClass)}
		}
	}

	groupForcedClass := map[string]model.ClassID{}
	for _, st := range snap.Students() {
		if st.ForceGroup == "" || st.ForceClass == "" {
			continue
		}
		if existing, ok := groupForcedClass[st.ForceGroup]; ok && existing != st.ForceClass {
			return &InfeasibleError{Reason: fmt.Sprintf("force group %q spans incompatible force classes", st.ForceGroup)}
		}
		groupForcedClass[st.ForceGroup] = st.ForceClass
	}

	seenGroup := map[string]bool{}
	for _, st := range snap.Students() {
		if st.ForceGroup == "" || seenGroup[st.ForceGroup] {
			continue
		}
		seenGroup[st.ForceGroup] = true
		members := snap.GroupMembers(st.ForceGroup)
		if maxClassSize > 0 && len(members) > maxClassSize {
			return &InfeasibleError{Reason: fmt.Sprintf("force group %q has %d members, exceeding max class size %d", st.ForceGroup, len(members), maxClassSize)}
		}
		target, ok := groupForcedClass[st.ForceGroup]
		if !ok {
			target = placer(snap, classIDs, members)
		}
		for _, id := range members {
			snap.PlaceStudent(id, target)
		}
	}

	for _, st := range snap.Students() {
		if st.ForceClass == "" || st.ForceGroup != "" {
			continue
		}
		snap.PlaceStudent(st.ID, st.ForceClass)
	}

	if maxClassSize > 0 {
		for _, cid := range classIDs {
			if snap.ClassSize(cid) > maxClassSize {
				return &InfeasibleError{Reason: fmt.Sprintf("class %q exceeds max class size %d after placing locks", cid, maxClassSize)}
			}
		}
	}
	return nil
}

func unlockedStudents(snap *model.Snapshot) []model.Student {
	var out []model.Student
	for _, st := range snap.Students() {
		if st.ForceClass == "" && st.ForceGroup == "" {
			out = append(out, st)
		}
	}
	return out
}
