package baseline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classplacer/internal/core/config"
	"github.com/noah-isme/classplacer/internal/core/constraints"
	"github.com/noah-isme/classplacer/internal/core/model"
)

func seedSnapshot(n, k int) *model.Snapshot {
	students := make([]model.Student, 0, n)
	classIDs := make([]model.ClassID, k)
	for i := 0; i < k; i++ {
		classIDs[i] = model.ClassID(fmt.Sprintf("C%d", i+1))
	}
	for i := 0; i < n; i++ {
		gender := model.GenderMale
		if i%2 == 0 {
			gender = model.GenderFemale
		}
		students = append(students, model.Student{
			ID:            model.StudentID(fmt.Sprintf("S%03d", i)),
			Gender:        gender,
			AcademicScore: float64(60 + i),
		})
	}
	snap := model.NewSnapshot(students, classIDs, nil)
	for i, st := range students {
		snap.PlaceStudent(st.ID, classIDs[i%k])
	}
	return snap
}

func TestGenerateProducesOneSamplePerRun(t *testing.T) {
	snap := seedSnapshot(12, 3)
	cfg := config.Default()
	cfg.Optimization.MaxIterations = 20
	checker := constraints.New(cfg.Constraints)

	result, err := Generate(context.Background(), snap, &cfg, checker, Options{NumRuns: 5, BaseSeed: 1}, nil)
	require.NoError(t, err)
	assert.Len(t, result.Samples, 5)
	assert.GreaterOrEqual(t, result.Max, result.Mean)
	assert.LessOrEqual(t, result.Min, result.Mean)
}

func TestGenerateUsesExplicitSeeds(t *testing.T) {
	snap := seedSnapshot(12, 3)
	cfg := config.Default()
	cfg.Optimization.MaxIterations = 20
	checker := constraints.New(cfg.Constraints)

	seeds := []int64{100, 200, 300}
	result, err := Generate(context.Background(), snap, &cfg, checker, Options{NumRuns: 3, Seeds: seeds}, nil)
	require.NoError(t, err)
	require.Len(t, result.Samples, 3)
	for i, sample := range result.Samples {
		assert.Equal(t, seeds[i], sample.Seed)
	}
}

func TestPercentileRankOfMaxIsHundred(t *testing.T) {
	snap := seedSnapshot(12, 3)
	cfg := config.Default()
	cfg.Optimization.MaxIterations = 20
	checker := constraints.New(cfg.Constraints)

	result, err := Generate(context.Background(), snap, &cfg, checker, Options{NumRuns: 6, BaseSeed: 7}, nil)
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.PercentileRank(result.Max))
	assert.Equal(t, 0.0, result.PercentileRank(result.Min-1))
}

func TestPercentileRankOfEmptyResultIsZero(t *testing.T) {
	result := &Result{}
	assert.Equal(t, 0.0, result.PercentileRank(50))
}
