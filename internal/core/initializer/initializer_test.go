package initializer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classplacer/internal/core/config"
	"github.com/noah-isme/classplacer/internal/core/constraints"
	"github.com/noah-isme/classplacer/internal/core/model"
)

func roster(n int) []model.Student {
	students := make([]model.Student, 0, n)
	for i := 0; i < n; i++ {
		gender := model.GenderMale
		if i%2 == 0 {
			gender = model.GenderFemale
		}
		students = append(students, model.Student{
			ID:            model.StudentID(string(rune('a' + i))),
			Gender:        gender,
			AcademicScore: float64(50 + i),
		})
	}
	return students
}

func newChecker() *constraints.Checker {
	cfg := config.Default()
	return constraints.New(cfg.Constraints)
}

func TestNewDefaultsToConstraintAware(t *testing.T) {
	assert.IsType(t, &ConstraintAware{}, New(""))
	assert.IsType(t, &ConstraintAware{}, New("something_unknown"))
	assert.IsType(t, &Random{}, New("random"))
	assert.IsType(t, &Balanced{}, New("balanced"))
	assert.IsType(t, &AcademicBalanced{}, New("academic_balanced"))
}

func runStrategy(t *testing.T, strategy Strategy, students []model.Student, k int) *model.Snapshot {
	t.Helper()
	cfg := config.Default()
	classIDs := ClassIDs(k)
	checker := newChecker()
	rng := rand.New(rand.NewSource(11))

	snap, err := strategy.Initialize(students, classIDs, nil, rng, &cfg, checker)
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Empty(t, checker.Validate(snap))
	assert.Empty(t, snap.UnassignedStudentIDs())
	return snap
}

func TestRandomProducesFeasibleFullAssignment(t *testing.T) {
	runStrategy(t, &Random{}, roster(20), 3)
}

func TestBalancedEqualizesClassSizes(t *testing.T) {
	snap := runStrategy(t, &Balanced{}, roster(20), 3)
	classIDs := ClassIDs(3)
	min, max := snap.ClassSize(classIDs[0]), snap.ClassSize(classIDs[0])
	for _, cid := range classIDs[1:] {
		size := snap.ClassSize(cid)
		if size < min {
			min = size
		}
		if size > max {
			max = size
		}
	}
	assert.LessOrEqual(t, max-min, 1)
}

func TestAcademicBalancedEqualizesMeans(t *testing.T) {
	snap := runStrategy(t, &AcademicBalanced{}, roster(30), 3)
	classIDs := ClassIDs(3)
	var means []float64
	for _, cid := range classIDs {
		mean, ok := snap.ClassMeanAcademic(cid)
		require.True(t, ok)
		means = append(means, mean)
	}
	for _, m := range means[1:] {
		assert.InDelta(t, means[0], m, 5.0)
	}
}

func TestConstraintAwarePlacesForceGroupsTogether(t *testing.T) {
	students := roster(12)
	students[0].ForceGroup = "g1"
	students[1].ForceGroup = "g1"
	students[2].ForceClass = model.ClassID("2")

	snap := runStrategy(t, &ConstraintAware{}, students, 3)
	assert.Equal(t, snap.ClassOf(students[0].ID), snap.ClassOf(students[1].ID))
	assert.Equal(t, model.ClassID("2"), snap.ClassOf(students[2].ID))
}

func TestConstraintAwareRejectsOversizedForceGroup(t *testing.T) {
	students := roster(6)
	for i := range students {
		students[i].ForceGroup = "everyone"
	}
	cfg := config.Default()
	cfg.ClassConfig.MaxClassSize = 3
	classIDs := ClassIDs(2)
	checker := newChecker()
	rng := rand.New(rand.NewSource(1))

	_, err := New("constraint_aware").Initialize(students, classIDs, nil, rng, &cfg, checker)
	require.Error(t, err)
	var infeasible *InfeasibleError
	assert.ErrorAs(t, err, &infeasible)
}

func TestPlaceLocksRejectsSplitForceGroupAcrossForceClasses(t *testing.T) {
	students := roster(4)
	students[0].ForceGroup = "g1"
	students[0].ForceClass = model.ClassID("1")
	students[1].ForceGroup = "g1"
	students[1].ForceClass = model.ClassID("2")

	cfg := config.Default()
	classIDs := ClassIDs(2)
	checker := newChecker()
	rng := rand.New(rand.NewSource(1))

	_, err := New("random").Initialize(students, classIDs, nil, rng, &cfg, checker)
	require.Error(t, err)
}
