package algorithm

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classplacer/internal/core/config"
	"github.com/noah-isme/classplacer/internal/core/constraints"
	"github.com/noah-isme/classplacer/internal/core/model"
	"github.com/noah-isme/classplacer/internal/core/progress"
)

func buildRoster(n int) []model.Student {
	students := make([]model.Student, 0, n)
	for i := 0; i < n; i++ {
		gender := model.GenderMale
		if i%2 == 0 {
			gender = model.GenderFemale
		}
		students = append(students, model.Student{
			ID:            model.StudentID(fmt.Sprintf("S%03d", i)),
			FirstName:     "Student",
			Gender:        gender,
			AcademicScore: float64(60 + i),
			BehaviorRank:  model.RankA,
		})
	}
	return students
}

func seedSnapshot(n, k int) *model.Snapshot {
	students := buildRoster(n)
	classIDs := make([]model.ClassID, k)
	for i := 0; i < k; i++ {
		classIDs[i] = model.ClassID(fmt.Sprintf("C%d", i+1))
	}
	snap := model.NewSnapshot(students, classIDs, nil)
	for i, st := range students {
		snap.PlaceStudent(st.ID, classIDs[i%k])
	}
	return snap
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Optimization.MaxIterations = 40
	cfg.Optimization.EarlyStopThreshold = 15
	return &cfg
}

func runAlgorithm(t *testing.T, name string) *RunResult {
	t.Helper()
	algo := New(name)
	require.NotNil(t, algo)

	snap := seedSnapshot(12, 3)
	cfg := testConfig()
	checker := constraints.New(cfg.Constraints)
	rng := rand.New(rand.NewSource(7))

	result, err := algo.Run(context.Background(), snap, rng, cfg, checker, nil)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestTournamentSelectBreaksTiesUniformlyAtRandom(t *testing.T) {
	first := &model.Snapshot{}
	second := &model.Snapshot{}
	pop := []individual{
		{snapshot: first, score: 50},
		{snapshot: second, score: 50},
	}

	sawFirst, sawSecond := false, false
	for i := 0; i < 200 && !(sawFirst && sawSecond); i++ {
		rng := rand.New(rand.NewSource(int64(i)))
		winner := tournamentSelect(pop, 2, rng)
		switch winner.snapshot {
		case first:
			sawFirst = true
		case second:
			sawSecond = true
		}
	}
	assert.True(t, sawFirst, "the first tied individual should sometimes win")
	assert.True(t, sawSecond, "the second tied individual should sometimes win")
}

func TestNewDispatchesKnownNames(t *testing.T) {
	assert.IsType(t, &RandomSwap{}, New(config.AlgoRandomSwap))
	assert.IsType(t, &LocalSearch{}, New(config.AlgoLocalSearch))
	assert.IsType(t, &SimulatedAnnealing{}, New(config.AlgoAnnealing))
	assert.IsType(t, &Evolutionary{}, New(config.AlgoEvolution))
	assert.Nil(t, New("not_a_real_algorithm"))
}

func TestRandomSwapNeverWorsensBest(t *testing.T) {
	result := runAlgorithm(t, config.AlgoRandomSwap)
	assert.Equal(t, config.AlgoRandomSwap, result.Algorithm)
	assert.GreaterOrEqual(t, result.BestScore, result.InitialScore)
	assert.NotNil(t, result.BestSnapshot)
	assert.Equal(t, 0, result.ConstraintViolationsAtEnd)
}

func TestLocalSearchNeverWorsensBest(t *testing.T) {
	result := runAlgorithm(t, config.AlgoLocalSearch)
	assert.GreaterOrEqual(t, result.BestScore, result.InitialScore)
	assert.Equal(t, 0, result.ConstraintViolationsAtEnd)
}

func TestSimulatedAnnealingNeverWorsensBest(t *testing.T) {
	result := runAlgorithm(t, config.AlgoAnnealing)
	assert.GreaterOrEqual(t, result.BestScore, result.InitialScore)
	assert.Equal(t, 0, result.ConstraintViolationsAtEnd)
}

func TestEvolutionaryNeverWorsensBest(t *testing.T) {
	result := runAlgorithm(t, config.AlgoEvolution)
	assert.GreaterOrEqual(t, result.BestScore, result.InitialScore)
	assert.Equal(t, 0, result.ConstraintViolationsAtEnd)
}

func TestRandomSwapCancellationStopsEarly(t *testing.T) {
	algo := &RandomSwap{}
	snap := seedSnapshot(12, 3)
	cfg := testConfig()
	cfg.Optimization.MaxIterations = 100000
	checker := constraints.New(cfg.Constraints)
	rng := rand.New(rand.NewSource(3))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := algo.Run(ctx, snap, rng, cfg, checker, nil)
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
}

func TestRandomSwapSingleClassIsANoop(t *testing.T) {
	algo := &RandomSwap{}
	snap := seedSnapshot(6, 1)
	cfg := testConfig()
	checker := constraints.New(cfg.Constraints)
	rng := rand.New(rand.NewSource(1))

	result, err := algo.Run(context.Background(), snap, rng, cfg, checker, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.IterationsUsed)
	assert.Equal(t, result.InitialScore, result.BestScore)
}

func TestLocalSearchRespectsForceClassLock(t *testing.T) {
	algo := &LocalSearch{}
	snap := seedSnapshot(9, 3)
	lockedID := model.StudentID("S000")
	locked, _ := snap.StudentByID(lockedID)
	locked.ForceClass = snap.ClassOf(lockedID)

	cfg := testConfig()
	checker := constraints.New(cfg.Constraints)
	rng := rand.New(rand.NewSource(2))

	before := snap.ClassOf(lockedID)
	result, err := algo.Run(context.Background(), snap, rng, cfg, checker, nil)
	require.NoError(t, err)
	assert.Equal(t, before, result.BestSnapshot.ClassOf(lockedID))
}

func TestProgressCallbackFiresOnRun(t *testing.T) {
	var events int
	algo := &RandomSwap{}
	snap := seedSnapshot(12, 3)
	cfg := testConfig()
	checker := constraints.New(cfg.Constraints)
	rng := rand.New(rand.NewSource(9))

	_, err := algo.Run(context.Background(), snap, rng, cfg, checker, func(e progress.Event) {
		events++
	})
	require.NoError(t, err)
	assert.Greater(t, events, 0)
}
