// Package neighborhood implements the three primitive moves every
// optimization algorithm uses to explore the assignment space: move, swap,
// and move_group. Every operation is pure — it returns a new snapshot and
// leaves its input untouched — and is rejected outright rather than ever
// producing a snapshot with an unresolved hard-constraint violation.
package neighborhood

import (
	"github.com/noah-isme/classplacer/internal/core/constraints"
	"github.com/noah-isme/classplacer/internal/core/model"
)

// Result is the outcome of a proposed neighborhood operation.
type Result struct {
	Snapshot *model.Snapshot
	Rejected bool
	Reason   string
}

// Move relocates a single student to target. Rejected if the student is
// force-locked to another class, belongs to a force group (use MoveGroup),
// or the move would violate minimum-friends for any affected student.
func Move(snap *model.Snapshot, checker *constraints.Checker, id model.StudentID, target model.ClassID) Result {
	if ok, reason := checker.IsMoveAllowed(snap, id, target); !ok {
		return Result{Rejected: true, Reason: reason}
	}
	next := snap.DeepCopy()
	next.PlaceStudent(id, target)
	return Result{Snapshot: next}
}

// Swap exchanges the classes of two students. Rejected if either is
// force-locked, either belongs to a force group, or the resulting snapshot
// violates minimum-friends.
func Swap(snap *model.Snapshot, checker *constraints.Checker, a, b model.StudentID) Result {
	if ok, reason := checker.IsSwapAllowed(snap, a, b); !ok {
		return Result{Rejected: true, Reason: reason}
	}
	classA, classB := snap.ClassOf(a), snap.ClassOf(b)
	next := snap.DeepCopy()
	next.PlaceStudent(a, classB)
	next.PlaceStudent(b, classA)
	return Result{Snapshot: next}
}

// MoveGroup relocates every member of a force-group tag atomically.
// Rejected if any member has a force_class inconsistent with target, or the
// target class cannot hold the group without violating minimum-friends.
func MoveGroup(snap *model.Snapshot, checker *constraints.Checker, tag string, target model.ClassID) Result {
	if ok, reason := checker.IsGroupMoveAllowed(snap, tag, target); !ok {
		return Result{Rejected: true, Reason: reason}
	}
	next := snap.DeepCopy()
	for _, id := range snap.GroupMembers(tag) {
		next.PlaceStudent(id, target)
	}
	return Result{Snapshot: next}
}
