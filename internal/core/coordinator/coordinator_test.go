package coordinator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classplacer/internal/core/algorithm"
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

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Optimization.MaxIterations = 25
	cfg.Optimization.EarlyStopThreshold = 10
	return &cfg
}

func TestSingleStrategyReturnsOneRun(t *testing.T) {
	snap := seedSnapshot(12, 3)
	cfg := testConfig()
	coord := New(constraints.New(cfg.Constraints), 0)

	out, err := coord.Run(context.Background(), snap, cfg, StrategySingle, []Stage{{Algorithm: config.AlgoRandomSwap, Seed: 1}}, nil)
	require.NoError(t, err)
	require.Len(t, out.Runs, 1)
	assert.Same(t, out.Runs[0], out.Best)
}

func TestParallelStrategyRunsEveryStageAndPicksBest(t *testing.T) {
	snap := seedSnapshot(12, 3)
	cfg := testConfig()
	coord := New(constraints.New(cfg.Constraints), 0)

	stages := []Stage{
		{Algorithm: config.AlgoRandomSwap, Seed: 1},
		{Algorithm: config.AlgoLocalSearch, Seed: 2},
	}
	out, err := coord.Run(context.Background(), snap, cfg, StrategyParallel, stages, nil)
	require.NoError(t, err)
	require.Len(t, out.Runs, 2)
	require.NotNil(t, out.Best)
	for _, r := range out.Runs {
		assert.LessOrEqual(t, r.BestScore, out.Best.BestScore+1e-9)
	}
}

func TestBestOfStrategyKeepsOnlyTheWinner(t *testing.T) {
	snap := seedSnapshot(12, 3)
	cfg := testConfig()
	coord := New(constraints.New(cfg.Constraints), 0)

	stages := []Stage{
		{Algorithm: config.AlgoRandomSwap, Seed: 1},
		{Algorithm: config.AlgoLocalSearch, Seed: 2},
	}
	out, err := coord.Run(context.Background(), snap, cfg, StrategyBestOf, stages, nil)
	require.NoError(t, err)
	require.Len(t, out.Runs, 1)
	assert.Same(t, out.Best, out.Runs[0])
}

func TestSequentialStrategyChainsStartingSnapshots(t *testing.T) {
	snap := seedSnapshot(12, 3)
	cfg := testConfig()
	coord := New(constraints.New(cfg.Constraints), 0)

	stages := SequentialSeeds(1, []string{config.AlgoRandomSwap, config.AlgoLocalSearch, config.AlgoEvolution})
	out, err := coord.Run(context.Background(), snap, cfg, StrategySequential, stages, nil)
	require.NoError(t, err)
	require.Len(t, out.Runs, 3)

	for i := 1; i < len(out.Runs); i++ {
		assert.Equal(t, out.Runs[i-1].BestScore, out.Runs[i].InitialScore)
	}
	assert.GreaterOrEqual(t, out.Best.BestScore, out.Runs[0].InitialScore)
}

func TestSequentialStrategyRejectsRandomSwapAfterFirstStage(t *testing.T) {
	snap := seedSnapshot(12, 3)
	cfg := testConfig()
	coord := New(constraints.New(cfg.Constraints), 0)

	stages := SequentialSeeds(1, []string{config.AlgoLocalSearch, config.AlgoRandomSwap})
	_, err := coord.Run(context.Background(), snap, cfg, StrategySequential, stages, nil)
	require.Error(t, err)
	var chainErr *SequentialChainError
	assert.ErrorAs(t, err, &chainErr)
}

func TestCoordinatorBudgetCancelsRuns(t *testing.T) {
	snap := seedSnapshot(12, 3)
	cfg := config.Default()
	cfg.Optimization.MaxIterations = 100000
	coord := New(constraints.New(cfg.Constraints), time.Nanosecond)

	out, err := coord.Run(context.Background(), snap, &cfg, StrategySingle, []Stage{{Algorithm: config.AlgoRandomSwap, Seed: 1}}, nil)
	require.NoError(t, err)
	assert.True(t, out.Cancelled)
}

func TestBetterRunBreaksTiesByAlgorithmThenSeed(t *testing.T) {
	a := &algorithm.RunResult{BestScore: 80}
	b := &algorithm.RunResult{BestScore: 80}

	// Equal scores, different algorithm names: lexicographically smaller
	// algorithm name wins regardless of which result is "current best".
	assert.True(t, betterRun(Stage{Algorithm: "annealing", Seed: 5}, a, Stage{Algorithm: "evolutionary", Seed: 1}, b))
	assert.False(t, betterRun(Stage{Algorithm: "evolutionary", Seed: 1}, a, Stage{Algorithm: "annealing", Seed: 5}, b))

	// Equal scores and algorithm: smaller seed wins.
	assert.True(t, betterRun(Stage{Algorithm: "annealing", Seed: 1}, a, Stage{Algorithm: "annealing", Seed: 2}, b))
	assert.False(t, betterRun(Stage{Algorithm: "annealing", Seed: 2}, a, Stage{Algorithm: "annealing", Seed: 1}, b))

	// A strictly higher score always wins regardless of algorithm or seed.
	higher := &algorithm.RunResult{BestScore: 90}
	assert.True(t, betterRun(Stage{Algorithm: "zzz", Seed: 99}, higher, Stage{Algorithm: "aaa", Seed: 0}, a))
}

func TestParallelStrategyTieBreaksByAlgorithmThenSeed(t *testing.T) {
	out := &Outcome{}
	stages := []Stage{
		{Algorithm: "local_search", Seed: 3},
		{Algorithm: "annealing", Seed: 7},
		{Algorithm: "annealing", Seed: 2},
	}
	runs := []*algorithm.RunResult{
		{Algorithm: stages[0].Algorithm, BestScore: 50},
		{Algorithm: stages[1].Algorithm, BestScore: 50},
		{Algorithm: stages[2].Algorithm, BestScore: 50},
	}

	var bestStage Stage
	for i, r := range runs {
		if out.Best == nil || betterRun(stages[i], r, bestStage, out.Best) {
			out.Best = r
			bestStage = stages[i]
		}
	}

	require.NotNil(t, out.Best)
	assert.Equal(t, "annealing", bestStage.Algorithm)
	assert.Equal(t, int64(2), bestStage.Seed)
}

func TestUnknownStrategyIsRejected(t *testing.T) {
	snap := seedSnapshot(6, 2)
	cfg := testConfig()
	coord := New(constraints.New(cfg.Constraints), 0)

	_, err := coord.Run(context.Background(), snap, cfg, Strategy("bogus"), []Stage{{Algorithm: config.AlgoRandomSwap}}, nil)
	assert.Error(t, err)
}
