package constraints_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classplacer/internal/core/config"
	"github.com/noah-isme/classplacer/internal/core/constraints"
	"github.com/noah-isme/classplacer/internal/core/model"
	"github.com/noah-isme/classplacer/internal/core/neighborhood"
)

func columns() []string {
	return []string{"student_id", "first_name", "last_name", "gender", "academic_score", "behavior_rank", "studentiality_rank", "assistance_package"}
}

// TestForceGroupAtomicity covers S3: a force group must move or stay
// together. Moving a single member out is rejected; moving the whole group
// with neighborhood.MoveGroup is accepted. MoveGroup checks force locks and
// minimum friends only; it does not check the target class's size.
func TestForceGroupAtomicity(t *testing.T) {
	students := []model.Student{
		{ID: "700000001", FirstName: "A", LastName: "One", Gender: model.GenderMale, AcademicScore: 70, ForceGroup: "g1"},
		{ID: "700000002", FirstName: "B", LastName: "Two", Gender: model.GenderMale, AcademicScore: 70, ForceGroup: "g1"},
		{ID: "700000003", FirstName: "C", LastName: "Three", Gender: model.GenderFemale, AcademicScore: 70},
		{ID: "700000004", FirstName: "D", LastName: "Four", Gender: model.GenderFemale, AcademicScore: 70},
	}
	snap := model.NewSnapshot(students, []model.ClassID{"1", "2"}, columns())
	snap.PlaceStudent("700000001", "1")
	snap.PlaceStudent("700000002", "1")
	snap.PlaceStudent("700000003", "2")
	snap.PlaceStudent("700000004", "2")

	checker := constraints.New(config.Constraints{MinimumFriends: 1, RespectForceConstraints: true})

	moveRes := neighborhood.Move(snap, checker, "700000001", "2")
	assert.True(t, moveRes.Rejected, "moving a single force-group member alone must be rejected")

	groupRes := neighborhood.MoveGroup(snap, checker, "g1", "2")
	require.False(t, groupRes.Rejected, "moving the whole force group must be accepted: %s", groupRes.Reason)
	assert.Equal(t, model.ClassID("2"), groupRes.Snapshot.ClassOf("700000001"))
	assert.Equal(t, model.ClassID("2"), groupRes.Snapshot.ClassOf("700000002"))
}

// TestMinFriendsRejection covers S4: a student with two preferred friends
// and a minimum-friends requirement of 1 can lose one friend to a swap but
// not both.
func TestMinFriendsRejection(t *testing.T) {
	students := []model.Student{
		{ID: "800000001", FirstName: "X", LastName: "One", Gender: model.GenderMale, AcademicScore: 70, PreferredFriends: []model.StudentID{"800000002", "800000003"}},
		{ID: "800000002", FirstName: "Y", LastName: "Two", Gender: model.GenderMale, AcademicScore: 70},
		{ID: "800000003", FirstName: "Z", LastName: "Three", Gender: model.GenderMale, AcademicScore: 70},
		{ID: "800000004", FirstName: "W", LastName: "Four", Gender: model.GenderFemale, AcademicScore: 70},
		{ID: "800000005", FirstName: "V", LastName: "Five", Gender: model.GenderFemale, AcademicScore: 70},
	}
	snap := model.NewSnapshot(students, []model.ClassID{"1", "2"}, columns())
	snap.PlaceStudent("800000001", "1")
	snap.PlaceStudent("800000002", "1")
	snap.PlaceStudent("800000003", "1")
	snap.PlaceStudent("800000004", "2")
	snap.PlaceStudent("800000005", "2")

	checker := constraints.New(config.Constraints{MinimumFriends: 1, RespectForceConstraints: true})

	// One friend (800000002) leaves; 800000003 remains, so the minimum of 1
	// is still met.
	firstSwap := neighborhood.Swap(snap, checker, "800000002", "800000004")
	require.False(t, firstSwap.Rejected, "swapping one friend out while one remains must be allowed: %s", firstSwap.Reason)

	// The last remaining friend (800000003) leaves for a non-friend
	// (800000005), dropping 800000001's satisfied-friend count to 0.
	afterFirst := firstSwap.Snapshot
	secondSwap := neighborhood.Swap(afterFirst, checker, "800000003", "800000005")
	assert.True(t, secondSwap.Rejected, "swapping the last remaining friend out must be rejected")
}

// TestMinFriendsDisabledAtZero covers B4: MinFriends == 0 disables the
// constraint entirely, so a move that would otherwise strand a student's
// friend requirement is allowed.
func TestMinFriendsDisabledAtZero(t *testing.T) {
	students := []model.Student{
		{ID: "900000001", FirstName: "X", LastName: "One", Gender: model.GenderMale, AcademicScore: 70, PreferredFriends: []model.StudentID{"900000002"}},
		{ID: "900000002", FirstName: "Y", LastName: "Two", Gender: model.GenderMale, AcademicScore: 70},
	}
	snap := model.NewSnapshot(students, []model.ClassID{"1", "2"}, columns())
	snap.PlaceStudent("900000001", "1")
	snap.PlaceStudent("900000002", "1")

	checker := constraints.New(config.Constraints{MinimumFriends: 0, RespectForceConstraints: true})

	res := neighborhood.Move(snap, checker, "900000002", "2")
	assert.False(t, res.Rejected, "minimum friends must not block anything when disabled: %s", res.Reason)
}
