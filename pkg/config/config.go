// Package config loads the CLI's configuration document: the assignment
// engine's tunables (weights, capacities, constraints, optimization
// parameters) plus the handful of ambient settings the CLI itself needs
// (log level/format, default output directory). It layers a YAML file on
// top of the engine's built-in defaults and lets environment variables
// override either.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	coreconfig "github.com/noah-isme/classplacer/internal/core/config"
)

var validate = validator.New()

// Ambient holds the CLI-only settings that sit alongside the engine's
// tunable document.
type Ambient struct {
	LogLevel  string
	LogFormat string
	OutputDir string
}

// Config is the full document a loaded config file/environment produces:
// the engine's tunables plus the CLI's own ambient settings.
type Config struct {
	Engine  coreconfig.Config
	Ambient Ambient
}

// Default returns the document the CLI starts from when no file is given.
func Default() *Config {
	return &Config{
		Engine: coreconfig.Default(),
		Ambient: Ambient{
			LogLevel:  "normal",
			LogFormat: "console",
			OutputDir: ".",
		},
	}
}

// Load reads path (if non-empty and it exists) as YAML, overlays it and
// CLASSPLACER_-prefixed environment variables onto the built-in defaults,
// and returns the merged document. A missing path is not an error: the
// caller gets Default() plus whatever the environment supplies.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CLASSPLACER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v, Default())

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				var notFound viper.ConfigFileNotFoundError
				if !errors.As(err, &notFound) {
					return nil, err
				}
			}
		}
	}

	cfg := Default()
	engine := &cfg.Engine

	engine.Weights.Layers.Student = v.GetFloat64("weights.layers.student")
	engine.Weights.Layers.Class = v.GetFloat64("weights.layers.class")
	engine.Weights.Layers.School = v.GetFloat64("weights.layers.school")
	engine.Weights.StudentLayer.Friends = v.GetFloat64("weights.student_layer.friends")
	engine.Weights.StudentLayer.Dislikes = v.GetFloat64("weights.student_layer.dislikes")
	engine.Weights.ClassLayer.GenderBalance = v.GetFloat64("weights.class_layer.gender_balance")
	engine.Weights.SchoolLayer.Academic = v.GetFloat64("weights.school_layer.academic")
	engine.Weights.SchoolLayer.Behavior = v.GetFloat64("weights.school_layer.behavior")
	engine.Weights.SchoolLayer.Studentiality = v.GetFloat64("weights.school_layer.studentiality")
	engine.Weights.SchoolLayer.Size = v.GetFloat64("weights.school_layer.size")
	engine.Weights.SchoolLayer.Assistance = v.GetFloat64("weights.school_layer.assistance")
	engine.Weights.SchoolLayer.SchoolOrigin = v.GetFloat64("weights.school_layer.school_origin")

	engine.Normalization.AcademicScore = v.GetFloat64("normalization.academic_score")
	engine.Normalization.BehaviorRank = v.GetFloat64("normalization.behavior_rank")
	engine.Normalization.StudentialityRank = v.GetFloat64("normalization.studentiality_rank")
	engine.Normalization.ClassSize = v.GetFloat64("normalization.class_size")
	engine.Normalization.AssistanceCount = v.GetFloat64("normalization.assistance_count")
	engine.Normalization.SchoolOrigin = v.GetFloat64("normalization.school_origin")

	engine.ClassConfig.TargetClasses = v.GetInt("class_config.target_classes")
	engine.ClassConfig.MinClassSize = v.GetInt("class_config.min_class_size")
	engine.ClassConfig.MaxClassSize = v.GetInt("class_config.max_class_size")
	engine.ClassConfig.PreferredClassSize = v.GetInt("class_config.preferred_class_size")
	engine.ClassConfig.AllowUnevenClasses = v.GetBool("class_config.allow_uneven_classes")

	engine.Constraints.MinimumFriends = v.GetInt("constraints.minimum_friends")
	engine.Constraints.RespectForceConstraints = v.GetBool("constraints.respect_force_constraints")

	engine.Optimization.MaxIterations = v.GetInt("optimization.max_iterations")
	engine.Optimization.EarlyStopThreshold = v.GetInt("optimization.early_stop_threshold")
	engine.Optimization.AcceptNeutralMoves = v.GetBool("optimization.accept_neutral_moves")
	engine.Optimization.MaxSwapAttempts = v.GetInt("optimization.max_swap_attempts")

	engine.Optimization.Algorithms = map[string]coreconfig.AlgorithmParams{
		coreconfig.AlgoRandomSwap: {
			MaxSwapAttempts: v.GetInt("optimization.algorithms.random_swap.max_swap_attempts"),
		},
		coreconfig.AlgoLocalSearch: {
			MaxPasses:      v.GetInt("optimization.algorithms.local_search.max_passes"),
			MinImprovement: v.GetFloat64("optimization.algorithms.local_search.min_improvement"),
		},
		coreconfig.AlgoAnnealing: {
			InitialTemperature: v.GetFloat64("optimization.algorithms.simulated_annealing.initial_temperature"),
			CoolingRate:        v.GetFloat64("optimization.algorithms.simulated_annealing.cooling_rate"),
			MinTemperature:     v.GetFloat64("optimization.algorithms.simulated_annealing.min_temperature"),
			ReheatThreshold:    v.GetInt("optimization.algorithms.simulated_annealing.reheat_threshold"),
		},
		coreconfig.AlgoEvolution: {
			PopulationSize:  v.GetInt("optimization.algorithms.evolutionary.population_size"),
			Generations:     v.GetInt("optimization.algorithms.evolutionary.generations"),
			StagnationLimit: v.GetInt("optimization.algorithms.evolutionary.stagnation_limit"),
			EliteSize:       v.GetInt("optimization.algorithms.evolutionary.elite_size"),
			TournamentSize:  v.GetInt("optimization.algorithms.evolutionary.tournament_size"),
			MutationRate:    v.GetFloat64("optimization.algorithms.evolutionary.mutation_rate"),
			CrossoverRate:   v.GetFloat64("optimization.algorithms.evolutionary.crossover_rate"),
		},
	}

	engine.InitStrategy = v.GetString("init_strategy")
	engine.RandomSeed = v.GetInt64("random_seed")

	cfg.Ambient.LogLevel = v.GetString("ambient.log_level")
	cfg.Ambient.LogFormat = v.GetString("ambient.log_format")
	cfg.Ambient.OutputDir = v.GetString("ambient.output_dir")

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the engine document's structural bounds (class size
// ordering, non-negative counters, a recognised init strategy) via struct
// tags, independent of where the document came from.
func Validate(cfg *Config) error {
	return validate.Struct(cfg.Engine)
}

// setDefaults seeds viper with defaults derived from a Config so that
// unset keys in the file/environment fall back to it.
func setDefaults(v *viper.Viper, cfg *Config) {
	e := cfg.Engine
	v.SetDefault("weights.layers.student", e.Weights.Layers.Student)
	v.SetDefault("weights.layers.class", e.Weights.Layers.Class)
	v.SetDefault("weights.layers.school", e.Weights.Layers.School)
	v.SetDefault("weights.student_layer.friends", e.Weights.StudentLayer.Friends)
	v.SetDefault("weights.student_layer.dislikes", e.Weights.StudentLayer.Dislikes)
	v.SetDefault("weights.class_layer.gender_balance", e.Weights.ClassLayer.GenderBalance)
	v.SetDefault("weights.school_layer.academic", e.Weights.SchoolLayer.Academic)
	v.SetDefault("weights.school_layer.behavior", e.Weights.SchoolLayer.Behavior)
	v.SetDefault("weights.school_layer.studentiality", e.Weights.SchoolLayer.Studentiality)
	v.SetDefault("weights.school_layer.size", e.Weights.SchoolLayer.Size)
	v.SetDefault("weights.school_layer.assistance", e.Weights.SchoolLayer.Assistance)
	v.SetDefault("weights.school_layer.school_origin", e.Weights.SchoolLayer.SchoolOrigin)

	v.SetDefault("normalization.academic_score", e.Normalization.AcademicScore)
	v.SetDefault("normalization.behavior_rank", e.Normalization.BehaviorRank)
	v.SetDefault("normalization.studentiality_rank", e.Normalization.StudentialityRank)
	v.SetDefault("normalization.class_size", e.Normalization.ClassSize)
	v.SetDefault("normalization.assistance_count", e.Normalization.AssistanceCount)
	v.SetDefault("normalization.school_origin", e.Normalization.SchoolOrigin)

	v.SetDefault("class_config.target_classes", e.ClassConfig.TargetClasses)
	v.SetDefault("class_config.min_class_size", e.ClassConfig.MinClassSize)
	v.SetDefault("class_config.max_class_size", e.ClassConfig.MaxClassSize)
	v.SetDefault("class_config.preferred_class_size", e.ClassConfig.PreferredClassSize)
	v.SetDefault("class_config.allow_uneven_classes", e.ClassConfig.AllowUnevenClasses)

	v.SetDefault("constraints.minimum_friends", e.Constraints.MinimumFriends)
	v.SetDefault("constraints.respect_force_constraints", e.Constraints.RespectForceConstraints)

	v.SetDefault("optimization.max_iterations", e.Optimization.MaxIterations)
	v.SetDefault("optimization.early_stop_threshold", e.Optimization.EarlyStopThreshold)
	v.SetDefault("optimization.accept_neutral_moves", e.Optimization.AcceptNeutralMoves)
	v.SetDefault("optimization.max_swap_attempts", e.Optimization.MaxSwapAttempts)

	randomSwap := e.Optimization.Algorithms[coreconfig.AlgoRandomSwap]
	v.SetDefault("optimization.algorithms.random_swap.max_swap_attempts", randomSwap.MaxSwapAttempts)

	localSearch := e.Optimization.Algorithms[coreconfig.AlgoLocalSearch]
	v.SetDefault("optimization.algorithms.local_search.max_passes", localSearch.MaxPasses)
	v.SetDefault("optimization.algorithms.local_search.min_improvement", localSearch.MinImprovement)

	annealing := e.Optimization.Algorithms[coreconfig.AlgoAnnealing]
	v.SetDefault("optimization.algorithms.simulated_annealing.initial_temperature", annealing.InitialTemperature)
	v.SetDefault("optimization.algorithms.simulated_annealing.cooling_rate", annealing.CoolingRate)
	v.SetDefault("optimization.algorithms.simulated_annealing.min_temperature", annealing.MinTemperature)
	v.SetDefault("optimization.algorithms.simulated_annealing.reheat_threshold", annealing.ReheatThreshold)

	evolutionary := e.Optimization.Algorithms[coreconfig.AlgoEvolution]
	v.SetDefault("optimization.algorithms.evolutionary.population_size", evolutionary.PopulationSize)
	v.SetDefault("optimization.algorithms.evolutionary.generations", evolutionary.Generations)
	v.SetDefault("optimization.algorithms.evolutionary.stagnation_limit", evolutionary.StagnationLimit)
	v.SetDefault("optimization.algorithms.evolutionary.elite_size", evolutionary.EliteSize)
	v.SetDefault("optimization.algorithms.evolutionary.tournament_size", evolutionary.TournamentSize)
	v.SetDefault("optimization.algorithms.evolutionary.mutation_rate", evolutionary.MutationRate)
	v.SetDefault("optimization.algorithms.evolutionary.crossover_rate", evolutionary.CrossoverRate)

	v.SetDefault("init_strategy", e.InitStrategy)
	v.SetDefault("random_seed", e.RandomSeed)

	v.SetDefault("ambient.log_level", cfg.Ambient.LogLevel)
	v.SetDefault("ambient.log_format", cfg.Ambient.LogFormat)
	v.SetDefault("ambient.output_dir", cfg.Ambient.OutputDir)
}

// Save writes cfg to path as YAML, used by the `config set`/`config reset`
// commands to persist an edited document.
func Save(path string, cfg *Config) error {
	v := viper.New()
	v.SetConfigType("yaml")

	e := cfg.Engine
	v.Set("weights.layers.student", e.Weights.Layers.Student)
	v.Set("weights.layers.class", e.Weights.Layers.Class)
	v.Set("weights.layers.school", e.Weights.Layers.School)
	v.Set("weights.student_layer.friends", e.Weights.StudentLayer.Friends)
	v.Set("weights.student_layer.dislikes", e.Weights.StudentLayer.Dislikes)
	v.Set("weights.class_layer.gender_balance", e.Weights.ClassLayer.GenderBalance)
	v.Set("weights.school_layer.academic", e.Weights.SchoolLayer.Academic)
	v.Set("weights.school_layer.behavior", e.Weights.SchoolLayer.Behavior)
	v.Set("weights.school_layer.studentiality", e.Weights.SchoolLayer.Studentiality)
	v.Set("weights.school_layer.size", e.Weights.SchoolLayer.Size)
	v.Set("weights.school_layer.assistance", e.Weights.SchoolLayer.Assistance)
	v.Set("weights.school_layer.school_origin", e.Weights.SchoolLayer.SchoolOrigin)

	v.Set("normalization.academic_score", e.Normalization.AcademicScore)
	v.Set("normalization.behavior_rank", e.Normalization.BehaviorRank)
	v.Set("normalization.studentiality_rank", e.Normalization.StudentialityRank)
	v.Set("normalization.class_size", e.Normalization.ClassSize)
	v.Set("normalization.assistance_count", e.Normalization.AssistanceCount)
	v.Set("normalization.school_origin", e.Normalization.SchoolOrigin)

	v.Set("class_config.target_classes", e.ClassConfig.TargetClasses)
	v.Set("class_config.min_class_size", e.ClassConfig.MinClassSize)
	v.Set("class_config.max_class_size", e.ClassConfig.MaxClassSize)
	v.Set("class_config.preferred_class_size", e.ClassConfig.PreferredClassSize)
	v.Set("class_config.allow_uneven_classes", e.ClassConfig.AllowUnevenClasses)

	v.Set("constraints.minimum_friends", e.Constraints.MinimumFriends)
	v.Set("constraints.respect_force_constraints", e.Constraints.RespectForceConstraints)

	v.Set("optimization.max_iterations", e.Optimization.MaxIterations)
	v.Set("optimization.early_stop_threshold", e.Optimization.EarlyStopThreshold)
	v.Set("optimization.accept_neutral_moves", e.Optimization.AcceptNeutralMoves)
	v.Set("optimization.max_swap_attempts", e.Optimization.MaxSwapAttempts)

	randomSwap := e.Optimization.Algorithms[coreconfig.AlgoRandomSwap]
	v.Set("optimization.algorithms.random_swap.max_swap_attempts", randomSwap.MaxSwapAttempts)

	localSearch := e.Optimization.Algorithms[coreconfig.AlgoLocalSearch]
	v.Set("optimization.algorithms.local_search.max_passes", localSearch.MaxPasses)
	v.Set("optimization.algorithms.local_search.min_improvement", localSearch.MinImprovement)

	annealing := e.Optimization.Algorithms[coreconfig.AlgoAnnealing]
	v.Set("optimization.algorithms.simulated_annealing.initial_temperature", annealing.InitialTemperature)
	v.Set("optimization.algorithms.simulated_annealing.cooling_rate", annealing.CoolingRate)
	v.Set("optimization.algorithms.simulated_annealing.min_temperature", annealing.MinTemperature)
	v.Set("optimization.algorithms.simulated_annealing.reheat_threshold", annealing.ReheatThreshold)

	evolutionary := e.Optimization.Algorithms[coreconfig.AlgoEvolution]
	v.Set("optimization.algorithms.evolutionary.population_size", evolutionary.PopulationSize)
	v.Set("optimization.algorithms.evolutionary.generations", evolutionary.Generations)
	v.Set("optimization.algorithms.evolutionary.stagnation_limit", evolutionary.StagnationLimit)
	v.Set("optimization.algorithms.evolutionary.elite_size", evolutionary.EliteSize)
	v.Set("optimization.algorithms.evolutionary.tournament_size", evolutionary.TournamentSize)
	v.Set("optimization.algorithms.evolutionary.mutation_rate", evolutionary.MutationRate)
	v.Set("optimization.algorithms.evolutionary.crossover_rate", evolutionary.CrossoverRate)

	v.Set("init_strategy", e.InitStrategy)
	v.Set("random_seed", e.RandomSeed)

	v.Set("ambient.log_level", cfg.Ambient.LogLevel)
	v.Set("ambient.log_format", cfg.Ambient.LogFormat)
	v.Set("ambient.output_dir", cfg.Ambient.OutputDir)

	return v.WriteConfigAs(path)
}
