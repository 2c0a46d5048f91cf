// Package constraints implements the hard-constraint checker: placement
// locks (force_class, force_group) and the minimum-friends rule. It never
// repairs a snapshot; it only classifies, validates, and predicts whether a
// proposed move would create a violation.
package constraints

import (
	"sort"

	"github.com/noah-isme/classplacer/internal/core/config"
	"github.com/noah-isme/classplacer/internal/core/model"
)

// Checker evaluates hard constraints against a snapshot.
type Checker struct {
	MinFriends              int
	RespectForceConstraints bool
}

// New builds a checker from the constraints section of the configuration.
func New(cfg config.Constraints) *Checker {
	return &Checker{MinFriends: cfg.MinimumFriends, RespectForceConstraints: cfg.RespectForceConstraints}
}

// AssignmentState summarizes how complete a snapshot's assignment is.
type AssignmentState string

const (
	FullyAssigned     AssignmentState = "fully_assigned"
	PartiallyAssigned AssignmentState = "partially_assigned"
	Unassigned        AssignmentState = "unassigned"
	Mixed             AssignmentState = "mixed"
)

// Classify reports the assignment state of a snapshot.
func Classify(snap *model.Snapshot) AssignmentState {
	total := len(snap.Students())
	if total == 0 {
		return FullyAssigned
	}
	assigned := total - len(snap.UnassignedStudentIDs())
	switch {
	case assigned == 0:
		return Unassigned
	case assigned == total:
		return FullyAssigned
	default:
		return PartiallyAssigned
	}
}

// ViolationKind distinguishes the two hard-constraint categories.
type ViolationKind string

const (
	ViolationForceClass ViolationKind = "force_class"
	ViolationForceGroup ViolationKind = "force_group"
	ViolationMinFriends ViolationKind = "min_friends"
)

// Violation is one hard-constraint breach found by Validate.
type Violation struct {
	Kind      ViolationKind
	StudentID model.StudentID
	Detail    string
}

// requiredFriends is min(m, |preferred_friends|) for a student.
func (c *Checker) requiredFriends(st *model.Student) int {
	if len(st.PreferredFriends) == 0 {
		return 0
	}
	if c.MinFriends < len(st.PreferredFriends) {
		return c.MinFriends
	}
	return len(st.PreferredFriends)
}

// satisfiedFriends counts how many of a student's preferred friends share
// their current class in snap.
func satisfiedFriends(snap *model.Snapshot, id model.StudentID) int {
	st, ok := snap.StudentByID(id)
	if !ok || len(st.PreferredFriends) == 0 {
		return 0
	}
	class := snap.ClassOf(id)
	if class == "" {
		return 0
	}
	count := 0
	for _, f := range st.PreferredFriends {
		if snap.ClassOf(f) == class {
			count++
		}
	}
	return count
}

// MinFriendDeficits returns, for every student whose minimum-friends
// requirement is unmet, how many friends short of it they are. Students who
// meet the requirement, or have no preferred friends, are not included.
func (c *Checker) MinFriendDeficits(snap *model.Snapshot) map[model.StudentID]int {
	out := make(map[model.StudentID]int)
	for _, st := range snap.Students() {
		required := c.requiredFriends(&st)
		if required == 0 {
			continue
		}
		got := satisfiedFriends(snap, st.ID)
		if got < required {
			out[st.ID] = required - got
		}
	}
	return out
}

// Validate returns every hard-constraint violation in a snapshot: force-class
// violations (by student id), then split force groups (by group tag, then
// student id), then min-friends violations (by student id).
func (c *Checker) Validate(snap *model.Snapshot) []Violation {
	var violations []Violation

	ids := snap.StudentIDs()
	sortedIDs := append([]model.StudentID(nil), ids...)
	sort.Slice(sortedIDs, func(i, j int) bool { return sortedIDs[i] < sortedIDs[j] })

	if c.RespectForceConstraints {
		for _, id := range sortedIDs {
			st, _ := snap.StudentByID(id)
			if st.ForceClass != "" && snap.ClassOf(id) != st.ForceClass {
				violations = append(violations, Violation{Kind: ViolationForceClass, StudentID: id, Detail: "not placed in forced class " + string(st.ForceClass)})
			}
		}
		groups := make(map[string][]model.StudentID)
		for _, id := range sortedIDs {
			st, _ := snap.StudentByID(id)
			if st.ForceGroup != "" {
				groups[st.ForceGroup] = append(groups[st.ForceGroup], id)
			}
		}
		tags := make([]string, 0, len(groups))
		for tag := range groups {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		for _, tag := range tags {
			members := groups[tag]
			class := snap.ClassOf(members[0])
			for _, id := range members[1:] {
				if snap.ClassOf(id) != class {
					violations = append(violations, Violation{Kind: ViolationForceGroup, StudentID: id, Detail: "force group " + tag + " is split across classes"})
				}
			}
		}
	}

	deficits := c.MinFriendDeficits(snap)
	deficitIDs := make([]model.StudentID, 0, len(deficits))
	for id := range deficits {
		deficitIDs = append(deficitIDs, id)
	}
	sort.Slice(deficitIDs, func(i, j int) bool { return deficitIDs[i] < deficitIDs[j] })
	for _, id := range deficitIDs {
		violations = append(violations, Violation{Kind: ViolationMinFriends, StudentID: id, Detail: "short of minimum friends"})
	}

	return violations
}

// IsMoveAllowed reports whether moving a single student to target would
// keep the snapshot free of hard-constraint violations, without mutating
// snap. It rejects locked students outright and simulates the move to check
// the minimum-friends rule for every affected student.
func (c *Checker) IsMoveAllowed(snap *model.Snapshot, id model.StudentID, target model.ClassID) (bool, string) {
	st, ok := snap.StudentByID(id)
	if !ok {
		return false, "unknown student"
	}
	if c.RespectForceConstraints {
		if st.ForceClass != "" && st.ForceClass != target {
			return false, "student is force-locked to another class"
		}
		if st.ForceGroup != "" {
			return false, "student belongs to a force group; use group move"
		}
	}
	if snap.ClassOf(id) == target {
		return true, ""
	}

	affected := c.affectedByDeparture(snap, id)
	affected[id] = true

	sim := snap.DeepCopy()
	sim.PlaceStudent(id, target)
	return c.checkAffected(sim, affected)
}

// IsSwapAllowed reports whether swapping a and b would keep the snapshot
// free of hard-constraint violations.
func (c *Checker) IsSwapAllowed(snap *model.Snapshot, a, b model.StudentID) (bool, string) {
	sa, ok := snap.StudentByID(a)
	if !ok {
		return false, "unknown student"
	}
	sb, ok := snap.StudentByID(b)
	if !ok {
		return false, "unknown student"
	}
	if c.RespectForceConstraints {
		if sa.ForceClass != "" || sb.ForceClass != "" {
			return false, "a swap participant is force-locked"
		}
		if sa.ForceGroup != "" || sb.ForceGroup != "" {
			return false, "a swap participant belongs to a force group"
		}
	}
	classA, classB := snap.ClassOf(a), snap.ClassOf(b)
	if classA == classB {
		return true, ""
	}

	affected := c.affectedByDeparture(snap, a)
	for k := range c.affectedByDeparture(snap, b) {
		affected[k] = true
	}
	affected[a] = true
	affected[b] = true

	sim := snap.DeepCopy()
	sim.PlaceStudent(a, classB)
	sim.PlaceStudent(b, classA)
	return c.checkAffected(sim, affected)
}

// IsGroupMoveAllowed reports whether moving every member of a force group
// to target is legal: every member's own force_class (if any) must agree
// with target, and the resulting snapshot must not violate minimum-friends
// for any affected student.
func (c *Checker) IsGroupMoveAllowed(snap *model.Snapshot, tag string, target model.ClassID) (bool, string) {
	members := snap.GroupMembers(tag)
	if len(members) == 0 {
		return false, "unknown or empty force group"
	}
	if c.RespectForceConstraints {
		for _, id := range members {
			st, _ := snap.StudentByID(id)
			if st.ForceClass != "" && st.ForceClass != target {
				return false, "group contains a student force-locked elsewhere"
			}
		}
	}

	affected := map[model.StudentID]bool{}
	for _, id := range members {
		for k := range c.affectedByDeparture(snap, id) {
			affected[k] = true
		}
		affected[id] = true
	}

	sim := snap.DeepCopy()
	for _, id := range members {
		sim.PlaceStudent(id, target)
	}
	return c.checkAffected(sim, affected)
}

// affectedByDeparture returns the set of students, other than id itself,
// whose satisfied-friend count could drop if id leaves its current class:
// exactly the members of id's current class who list id as a preferred
// friend.
func (c *Checker) affectedByDeparture(snap *model.Snapshot, id model.StudentID) map[model.StudentID]bool {
	out := map[model.StudentID]bool{}
	class := snap.ClassOf(id)
	if class == "" {
		return out
	}
	for _, peer := range snap.Members(class) {
		if peer == id {
			continue
		}
		peerSt, ok := snap.StudentByID(peer)
		if !ok {
			continue
		}
		for _, f := range peerSt.PreferredFriends {
			if f == id {
				out[peer] = true
				break
			}
		}
	}
	return out
}

func (c *Checker) checkAffected(sim *model.Snapshot, affected map[model.StudentID]bool) (bool, string) {
	if c.MinFriends <= 0 {
		return true, ""
	}
	for id := range affected {
		st, ok := sim.StudentByID(id)
		if !ok {
			continue
		}
		required := c.requiredFriends(st)
		if required == 0 {
			continue
		}
		if satisfiedFriends(sim, id) < required {
			return false, "would violate minimum friends for " + string(id)
		}
	}
	return true, ""
}
