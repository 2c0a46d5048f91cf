package scorer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classplacer/internal/core/config"
	"github.com/noah-isme/classplacer/internal/core/model"
)

func columns() []string {
	return []string{"student_id", "first_name", "last_name", "gender", "academic_score", "behavior_rank", "studentiality_rank", "assistance_package"}
}

// TestScorerSanity reproduces S1: two mutual friends, both gender M, in one
// class. Student and school layers are trivially perfect; the class layer's
// gender balance is 0, not 100, because both students share one gender with
// no opposite-gender ratio to offset it (100 - 100*|1-0| = 0). A single-gender
// class is not exempt from the formula, matching
// original_source/src/meshachvetz/scorer/class_scorer.py's
// calculate_gender_balance, which has no such exception.
func TestScorerSanity(t *testing.T) {
	students := []model.Student{
		{ID: "101000001", FirstName: "A", LastName: "One", Gender: model.GenderMale, AcademicScore: 90, BehaviorRank: model.RankA, StudentialityRank: model.RankA, PreferredFriends: []model.StudentID{"101000002"}},
		{ID: "101000002", FirstName: "B", LastName: "Two", Gender: model.GenderMale, AcademicScore: 80, BehaviorRank: model.RankA, StudentialityRank: model.RankA, PreferredFriends: []model.StudentID{"101000001"}},
	}
	snap := model.NewSnapshot(students, []model.ClassID{"1"}, columns())
	snap.PlaceStudent("101000001", "1")
	snap.PlaceStudent("101000002", "1")

	cfg := config.Default()
	result := Score(snap, &cfg)

	assert.InDelta(t, 100, result.StudentLayer, 1e-9)
	assert.InDelta(t, 0, result.ClassLayer, 1e-9)
	assert.InDelta(t, 100, result.SchoolLayer, 1e-9)

	c := cfg.Weights.Layers
	expectedFinal := (c.Student*100 + c.Class*0 + c.School*100) / (c.Student + c.Class + c.School)
	assert.InDelta(t, expectedFinal, result.Final, 1e-9)
}

// TestScorerFriendVsDislike reproduces S2: two all-male classes, whose
// gender balance must score 0 for both classes even though the roster has no
// female students at all (a single-gender roster is not a free pass).
func TestScorerFriendVsDislike(t *testing.T) {
	students := []model.Student{
		{ID: "200000001", FirstName: "A", LastName: "One", Gender: model.GenderMale, AcademicScore: 70, PreferredFriends: []model.StudentID{"200000002"}},
		{ID: "200000002", FirstName: "B", LastName: "Two", Gender: model.GenderMale, AcademicScore: 70},
		{ID: "200000003", FirstName: "C", LastName: "Three", Gender: model.GenderMale, AcademicScore: 70, DislikedPeers: []model.StudentID{"200000001"}},
	}
	snap := model.NewSnapshot(students, []model.ClassID{"1", "2"}, columns())
	snap.PlaceStudent("200000001", "1")
	snap.PlaceStudent("200000002", "1")
	snap.PlaceStudent("200000003", "2")

	cfg := config.Default()
	result := Score(snap, &cfg)

	require.Len(t, result.PerClass, 2)
	for cid, breakdown := range result.PerClass {
		assert.InDeltaf(t, 0, breakdown.GenderBalance, 1e-9, "class %s should score 0 on gender balance", cid)
	}
	assert.InDelta(t, 100, result.StudentLayer, 1e-9)
	assert.InDelta(t, 0, result.ClassLayer, 1e-9)

	// School layer: size vector (2,1) has population stddev 0.5, size_factor
	// defaults to 5.0, so size score = 100 - 0.5*5 = 97.5; every other
	// school metric is trivially 100 (each per-class vector is constant, and
	// no student has a school of origin).
	assert.InDelta(t, 97.5, result.School.Size, 1e-9)

	expectedSchoolLayer := 100.0
	c := cfg.Weights.SchoolLayer
	num := c.Academic*100 + c.Behavior*100 + c.Studentiality*100 + c.Size*97.5 + c.Assistance*100 + c.SchoolOrigin*100
	den := c.Academic + c.Behavior + c.Studentiality + c.Size + c.Assistance + c.SchoolOrigin
	if den > 0 {
		expectedSchoolLayer = num / den
	}
	assert.InDelta(t, expectedSchoolLayer, result.SchoolLayer, 1e-6)

	expectedFinal := cfg.Weights.Layers.Student*100 + cfg.Weights.Layers.Class*0 + cfg.Weights.Layers.School*expectedSchoolLayer
	expectedFinal /= cfg.Weights.Layers.Student + cfg.Weights.Layers.Class + cfg.Weights.Layers.School
	assert.InDelta(t, expectedFinal, result.Final, 1e-6)
	assert.True(t, math.Abs(result.Final-94.94) < 0.5, "final score should be close to the worked example's ~94.94, got %.4f", result.Final)
}

// TestScoreEmptyClassGenderBalance covers the gender-balance half of B2: an
// empty class scores 100 on gender balance.
func TestScoreEmptyClassGenderBalance(t *testing.T) {
	students := []model.Student{
		{ID: "300000001", FirstName: "A", LastName: "One", Gender: model.GenderMale, AcademicScore: 70},
	}
	snap := model.NewSnapshot(students, []model.ClassID{"1", "2"}, columns())
	snap.PlaceStudent("300000001", "1")

	cfg := config.Default()
	result := Score(snap, &cfg)

	empty := result.PerClass["2"]
	assert.Equal(t, 0, empty.Size)
	assert.InDelta(t, 100, empty.GenderBalance, 1e-9)
}

// TestScoreOriginEmptyStringExcluded covers B3: a student with no recorded
// school of origin (empty string) must not be counted as an origin group in
// representation or dominance.
func TestScoreOriginEmptyStringExcluded(t *testing.T) {
	students := []model.Student{
		{ID: "600000001", FirstName: "A", LastName: "One", Gender: model.GenderMale, AcademicScore: 70, SchoolOfOrigin: "elm"},
		{ID: "600000002", FirstName: "B", LastName: "Two", Gender: model.GenderFemale, AcademicScore: 70, SchoolOfOrigin: ""},
	}
	snap := model.NewSnapshot(students, []model.ClassID{"1"}, columns())
	snap.PlaceStudent("600000001", "1")
	snap.PlaceStudent("600000002", "1")

	totals := snap.OriginCounts()
	require.Len(t, totals, 1)
	_, hasEmpty := totals[""]
	assert.False(t, hasEmpty, "empty-string origin must not be counted")

	classCounts := snap.ClassOriginCounts("1")
	_, hasEmpty = classCounts[""]
	assert.False(t, hasEmpty, "empty-string origin must not appear in per-class counts")

	// "elm" (1 student) is present in the only class, so representation is
	// 100. The class holds 2 students, so elm's share is 0.5 and
	// non-dominance is 100*(0.6-0.5)/0.6 ≈ 16.67; 0.7*100 + 0.3*16.67 = 75.
	// The blank-origin student counts toward class size but not as an origin.
	cfg := config.Default()
	result := Score(snap, &cfg)
	assert.InDelta(t, 75, result.School.SchoolOrigin, 1e-9)
}

// TestScoreAllZeroSubWeightsCollapse covers B1: zeroing every school
// sub-weight must not divide by zero, and the layer collapses to 0 rather
// than panicking or propagating NaN.
func TestScoreAllZeroSubWeightsCollapse(t *testing.T) {
	students := []model.Student{
		{ID: "400000001", FirstName: "A", LastName: "One", Gender: model.GenderMale, AcademicScore: 70},
	}
	snap := model.NewSnapshot(students, []model.ClassID{"1"}, columns())
	snap.PlaceStudent("400000001", "1")

	cfg := config.Default()
	cfg.Weights.SchoolLayer = config.SchoolLayerWeights{}
	result := Score(snap, &cfg)

	assert.False(t, math.IsNaN(result.SchoolLayer))
	assert.InDelta(t, 0, result.SchoolLayer, 1e-9)
}

// TestScoreDeterministicAndPermutationInvariant covers P5/P6: scoring twice
// gives the same result, and reordering the student/class slices does not
// change any layer score.
func TestScoreDeterministicAndPermutationInvariant(t *testing.T) {
	students := []model.Student{
		{ID: "500000001", FirstName: "A", LastName: "One", Gender: model.GenderMale, AcademicScore: 91, PreferredFriends: []model.StudentID{"500000002"}},
		{ID: "500000002", FirstName: "B", LastName: "Two", Gender: model.GenderFemale, AcademicScore: 60, DislikedPeers: []model.StudentID{"500000003"}},
		{ID: "500000003", FirstName: "C", LastName: "Three", Gender: model.GenderMale, AcademicScore: 75},
	}
	classIDs := []model.ClassID{"1", "2"}
	build := func(order []model.Student, classOrder []model.ClassID) *model.Snapshot {
		snap := model.NewSnapshot(order, classOrder, columns())
		snap.PlaceStudent("500000001", "1")
		snap.PlaceStudent("500000002", "1")
		snap.PlaceStudent("500000003", "2")
		return snap
	}

	cfg := config.Default()
	snapA := build(students, classIDs)
	resultA1 := Score(snapA, &cfg)
	resultA2 := Score(snapA, &cfg)
	assert.Equal(t, resultA1.Final, resultA2.Final)

	reversedStudents := []model.Student{students[2], students[1], students[0]}
	reversedClasses := []model.ClassID{"2", "1"}
	snapB := build(reversedStudents, reversedClasses)
	resultB := Score(snapB, &cfg)

	assert.InDelta(t, resultA1.StudentLayer, resultB.StudentLayer, 1e-9)
	assert.InDelta(t, resultA1.ClassLayer, resultB.ClassLayer, 1e-9)
	assert.InDelta(t, resultA1.SchoolLayer, resultB.SchoolLayer, 1e-9)
	assert.InDelta(t, resultA1.Final, resultB.Final, 1e-9)
}
