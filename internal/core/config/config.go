// Package config defines the assignment engine's configuration document:
// layer weights, normalization factors, class capacity rules, hard
// constraint knobs, and per-algorithm optimization parameters. It is pure
// data with defaults; the ambient pkg/config package is responsible for
// reading it from disk/env and handing an instance to the core.
package config

// LayerWeights are the final-score layer weights (student/class/school).
type LayerWeights struct {
	Student float64
	Class   float64
	School  float64
}

// StudentLayerWeights are the student-layer sub-weights.
type StudentLayerWeights struct {
	Friends  float64
	Dislikes float64
}

// ClassLayerWeights are the class-layer sub-weights.
type ClassLayerWeights struct {
	GenderBalance float64
}

// SchoolLayerWeights are the school-layer sub-weights.
type SchoolLayerWeights struct {
	Academic       float64
	Behavior       float64
	Studentiality  float64
	Size           float64
	Assistance     float64
	SchoolOrigin   float64
}

// Weights bundles every layer's weights.
type Weights struct {
	Layers       LayerWeights
	StudentLayer StudentLayerWeights
	ClassLayer   ClassLayerWeights
	SchoolLayer  SchoolLayerWeights
}

// NormalizationFactors are the sigma-to-penalty multipliers used by the
// school layer's spread metrics.
type NormalizationFactors struct {
	AcademicScore     float64
	BehaviorRank      float64
	StudentialityRank float64
	ClassSize         float64
	AssistanceCount   float64
	SchoolOrigin      float64
}

// ClassCapacity holds the class-size settings. MaxClassSize caps force-lock
// placement during initialization and the evolutionary crossover repair;
// PreferredClassSize is read by the constraint_aware initializer. Neighborhood
// operations check no size bound, and MinClassSize and AllowUnevenClasses are
// validated and persisted but not read by the engine.
type ClassCapacity struct {
	TargetClasses      int `validate:"gte=0"` // 0 means derive from roster size
	MinClassSize       int `validate:"gte=1"`
	MaxClassSize       int `validate:"gtefield=MinClassSize"`
	PreferredClassSize int `validate:"gte=1"`
	AllowUnevenClasses bool
}

// Constraints holds the hard-constraint knobs.
type Constraints struct {
	MinimumFriends          int `validate:"gte=0"`
	RespectForceConstraints bool
}

// AlgorithmParams is the per-algorithm knob bag; only the fields relevant to
// a given algorithm are read by it.
type AlgorithmParams struct {
	PopulationSize     int
	Generations        int
	StagnationLimit    int
	EliteSize          int
	TournamentSize     int
	MutationRate       float64
	CrossoverRate      float64
	InitialTemperature float64
	CoolingRate        float64
	MinTemperature     float64
	ReheatThreshold    int
	MaxPasses          int
	MinImprovement     float64
	MaxSwapAttempts    int
}

// Optimization holds the shared iteration budget plus per-algorithm params.
type Optimization struct {
	MaxIterations      int `validate:"gte=1"`
	EarlyStopThreshold int `validate:"gte=0"`
	AcceptNeutralMoves bool
	MaxSwapAttempts    int `validate:"gte=1"`
	Algorithms         map[string]AlgorithmParams
}

// Config is the full assignment-engine configuration document.
type Config struct {
	Weights       Weights
	Normalization NormalizationFactors
	ClassConfig   ClassCapacity `validate:"required"`
	Constraints   Constraints   `validate:"required"`
	Optimization  Optimization  `validate:"required"`
	InitStrategy  string        `validate:"oneof=random balanced academic_balanced constraint_aware"`
	RandomSeed    int64
}

// Algorithm names recognised by the coordinator and CLI.
const (
	AlgoRandomSwap  = "random_swap"
	AlgoLocalSearch = "local_search"
	AlgoAnnealing   = "simulated_annealing"
	AlgoEvolution   = "evolutionary"
)

// Default returns the configuration document with every default from
// spec.md §6.3.
func Default() Config {
	return Config{
		Weights: Weights{
			Layers:       LayerWeights{Student: 0.75, Class: 0.05, School: 0.20},
			StudentLayer: StudentLayerWeights{Friends: 0.7, Dislikes: 0.3},
			ClassLayer:   ClassLayerWeights{GenderBalance: 1.0},
			SchoolLayer: SchoolLayerWeights{
				Academic: 0.05, Behavior: 0.4, Studentiality: 0.4,
				Size: 0.0, Assistance: 0.15, SchoolOrigin: 0.0,
			},
		},
		Normalization: NormalizationFactors{
			AcademicScore: 2.0, BehaviorRank: 35.0, StudentialityRank: 35.0,
			ClassSize: 5.0, AssistanceCount: 10.0, SchoolOrigin: 20.0,
		},
		ClassConfig: ClassCapacity{
			TargetClasses: 0, MinClassSize: 15, MaxClassSize: 30,
			PreferredClassSize: 25, AllowUnevenClasses: true,
		},
		Constraints: Constraints{MinimumFriends: 1, RespectForceConstraints: true},
		Optimization: Optimization{
			MaxIterations: 1000, EarlyStopThreshold: 100, AcceptNeutralMoves: false,
			MaxSwapAttempts: 50,
			Algorithms: map[string]AlgorithmParams{
				AlgoRandomSwap: {MaxSwapAttempts: 50},
				AlgoLocalSearch: {MaxPasses: 20, MinImprovement: 0.01},
				AlgoAnnealing: {
					InitialTemperature: 100.0, CoolingRate: 0.995, MinTemperature: 0.01,
					ReheatThreshold: 150,
				},
				AlgoEvolution: {
					PopulationSize: 30, Generations: 100, StagnationLimit: 20,
					EliteSize: 2, TournamentSize: 3, MutationRate: 0.1, CrossoverRate: 0.7,
				},
			},
		},
		InitStrategy: "constraint_aware",
		RandomSeed:   1,
	}
}

// Algorithm returns the knob bag for a named algorithm, falling back to a
// zero-value AlgorithmParams merged with the top-level Optimization budget.
func (c Config) Algorithm(name string) AlgorithmParams {
	p := c.Optimization.Algorithms[name]
	if p.MaxSwapAttempts == 0 {
		p.MaxSwapAttempts = c.Optimization.MaxSwapAttempts
	}
	return p
}

// TargetClasses computes K from roster size N when ClassConfig.TargetClasses
// is unset (spec.md §4.3).
func (c Config) TargetClasses(n int) int {
	if c.ClassConfig.TargetClasses > 0 {
		return c.ClassConfig.TargetClasses
	}
	switch {
	case n <= 25:
		return 1
	case n <= 50:
		return 2
	case n <= 75:
		return 3
	case n <= 100:
		return 4
	default:
		k := (n + 24) / 25
		if k < 4 {
			k = 4
		}
		if k > 8 {
			k = 8
		}
		return k
	}
}
