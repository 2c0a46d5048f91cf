package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	coreconfig "github.com/noah-isme/classplacer/internal/core/config"
	pkgconfig "github.com/noah-isme/classplacer/pkg/config"
	clierrors "github.com/noah-isme/classplacer/pkg/errors"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit the configuration document",
	}
	cmd.AddCommand(newConfigShowCommand(), newConfigSetCommand(), newConfigResetCommand(), newConfigStatusCommand())
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := pkgconfig.Load(path)
			if err != nil {
				return clierrors.Wrap(err, clierrors.ErrConfigInvalid.Code, clierrors.ErrConfigInvalid.Status, "failed to load configuration")
			}
			e := cfg.Engine
			fmt.Printf("weights.layers.student: %v\n", e.Weights.Layers.Student)
			fmt.Printf("weights.layers.class: %v\n", e.Weights.Layers.Class)
			fmt.Printf("weights.layers.school: %v\n", e.Weights.Layers.School)
			fmt.Printf("class_config.min_class_size: %v\n", e.ClassConfig.MinClassSize)
			fmt.Printf("class_config.max_class_size: %v\n", e.ClassConfig.MaxClassSize)
			fmt.Printf("constraints.minimum_friends: %v\n", e.Constraints.MinimumFriends)
			fmt.Printf("optimization.max_iterations: %v\n", e.Optimization.MaxIterations)
			fmt.Printf("optimization.algorithms.evolutionary.population_size: %v\n", e.Optimization.Algorithms[coreconfig.AlgoEvolution].PopulationSize)
			fmt.Printf("optimization.algorithms.evolutionary.tournament_size: %v\n", e.Optimization.Algorithms[coreconfig.AlgoEvolution].TournamentSize)
			fmt.Printf("optimization.algorithms.simulated_annealing.initial_temperature: %v\n", e.Optimization.Algorithms[coreconfig.AlgoAnnealing].InitialTemperature)
			fmt.Printf("optimization.algorithms.local_search.max_passes: %v\n", e.Optimization.Algorithms[coreconfig.AlgoLocalSearch].MaxPasses)
			fmt.Printf("init_strategy: %v\n", e.InitStrategy)
			fmt.Printf("random_seed: %v\n", e.RandomSeed)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "config", "", "path to a configuration YAML file")
	return cmd
}

// configSetters maps the dotted keys config set understands to a function
// that applies a raw string value onto a loaded document.
var configSetters = map[string]func(cfg *pkgconfig.Config, raw string) error{
	"weights.layers.student": setFloat(func(c *pkgconfig.Config) *float64 { return &c.Engine.Weights.Layers.Student }),
	"weights.layers.class":   setFloat(func(c *pkgconfig.Config) *float64 { return &c.Engine.Weights.Layers.Class }),
	"weights.layers.school":  setFloat(func(c *pkgconfig.Config) *float64 { return &c.Engine.Weights.Layers.School }),
	"constraints.minimum_friends": func(cfg *pkgconfig.Config, raw string) error {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		cfg.Engine.Constraints.MinimumFriends = v
		return nil
	},
	"optimization.max_iterations": func(cfg *pkgconfig.Config, raw string) error {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		cfg.Engine.Optimization.MaxIterations = v
		return nil
	},
	"class_config.max_class_size": func(cfg *pkgconfig.Config, raw string) error {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		cfg.Engine.ClassConfig.MaxClassSize = v
		return nil
	},
	"class_config.min_class_size": func(cfg *pkgconfig.Config, raw string) error {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		cfg.Engine.ClassConfig.MinClassSize = v
		return nil
	},
	"init_strategy": func(cfg *pkgconfig.Config, raw string) error {
		cfg.Engine.InitStrategy = raw
		return nil
	},
	"random_seed": func(cfg *pkgconfig.Config, raw string) error {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		cfg.Engine.RandomSeed = v
		return nil
	},
	"optimization.algorithms.random_swap.max_swap_attempts": setAlgoInt(coreconfig.AlgoRandomSwap, func(p *coreconfig.AlgorithmParams) *int { return &p.MaxSwapAttempts }),
	"optimization.algorithms.local_search.max_passes":       setAlgoInt(coreconfig.AlgoLocalSearch, func(p *coreconfig.AlgorithmParams) *int { return &p.MaxPasses }),
	"optimization.algorithms.local_search.min_improvement":  setAlgoFloat(coreconfig.AlgoLocalSearch, func(p *coreconfig.AlgorithmParams) *float64 { return &p.MinImprovement }),
	"optimization.algorithms.simulated_annealing.initial_temperature": setAlgoFloat(coreconfig.AlgoAnnealing, func(p *coreconfig.AlgorithmParams) *float64 { return &p.InitialTemperature }),
	"optimization.algorithms.simulated_annealing.cooling_rate":        setAlgoFloat(coreconfig.AlgoAnnealing, func(p *coreconfig.AlgorithmParams) *float64 { return &p.CoolingRate }),
	"optimization.algorithms.simulated_annealing.min_temperature":     setAlgoFloat(coreconfig.AlgoAnnealing, func(p *coreconfig.AlgorithmParams) *float64 { return &p.MinTemperature }),
	"optimization.algorithms.simulated_annealing.reheat_threshold":    setAlgoInt(coreconfig.AlgoAnnealing, func(p *coreconfig.AlgorithmParams) *int { return &p.ReheatThreshold }),
	"optimization.algorithms.evolutionary.population_size":  setAlgoInt(coreconfig.AlgoEvolution, func(p *coreconfig.AlgorithmParams) *int { return &p.PopulationSize }),
	"optimization.algorithms.evolutionary.generations":      setAlgoInt(coreconfig.AlgoEvolution, func(p *coreconfig.AlgorithmParams) *int { return &p.Generations }),
	"optimization.algorithms.evolutionary.stagnation_limit": setAlgoInt(coreconfig.AlgoEvolution, func(p *coreconfig.AlgorithmParams) *int { return &p.StagnationLimit }),
	"optimization.algorithms.evolutionary.elite_size":       setAlgoInt(coreconfig.AlgoEvolution, func(p *coreconfig.AlgorithmParams) *int { return &p.EliteSize }),
	"optimization.algorithms.evolutionary.tournament_size":  setAlgoInt(coreconfig.AlgoEvolution, func(p *coreconfig.AlgorithmParams) *int { return &p.TournamentSize }),
	"optimization.algorithms.evolutionary.mutation_rate":    setAlgoFloat(coreconfig.AlgoEvolution, func(p *coreconfig.AlgorithmParams) *float64 { return &p.MutationRate }),
	"optimization.algorithms.evolutionary.crossover_rate":   setAlgoFloat(coreconfig.AlgoEvolution, func(p *coreconfig.AlgorithmParams) *float64 { return &p.CrossoverRate }),
}

// setAlgoInt and setAlgoFloat build a setter for one field of one
// algorithm's knob bag. Optimization.Algorithms is a map of structs, so the
// field can't be addressed directly; each setter reads the current entry,
// mutates a local copy through field, and writes the copy back.
func setAlgoInt(algo string, field func(*coreconfig.AlgorithmParams) *int) func(*pkgconfig.Config, string) error {
	return func(cfg *pkgconfig.Config, raw string) error {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		p := cfg.Engine.Optimization.Algorithms[algo]
		*field(&p) = v
		if cfg.Engine.Optimization.Algorithms == nil {
			cfg.Engine.Optimization.Algorithms = map[string]coreconfig.AlgorithmParams{}
		}
		cfg.Engine.Optimization.Algorithms[algo] = p
		return nil
	}
}

func setAlgoFloat(algo string, field func(*coreconfig.AlgorithmParams) *float64) func(*pkgconfig.Config, string) error {
	return func(cfg *pkgconfig.Config, raw string) error {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		p := cfg.Engine.Optimization.Algorithms[algo]
		*field(&p) = v
		if cfg.Engine.Optimization.Algorithms == nil {
			cfg.Engine.Optimization.Algorithms = map[string]coreconfig.AlgorithmParams{}
		}
		cfg.Engine.Optimization.Algorithms[algo] = p
		return nil
	}
}

func setFloat(field func(*pkgconfig.Config) *float64) func(*pkgconfig.Config, string) error {
	return func(cfg *pkgconfig.Config, raw string) error {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		*field(cfg) = v
		return nil
	}
}

func newConfigSetCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a single configuration key and persist it to --config",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				return clierrors.Clone(clierrors.ErrConfigInvalid, "config set requires --config PATH")
			}
			cfg, err := pkgconfig.Load(path)
			if err != nil {
				return clierrors.Wrap(err, clierrors.ErrConfigInvalid.Code, clierrors.ErrConfigInvalid.Status, "failed to load configuration")
			}
			setter, ok := configSetters[args[0]]
			if !ok {
				return clierrors.Clone(clierrors.ErrConfigInvalid, fmt.Sprintf("unknown configuration key %q", args[0]))
			}
			if err := setter(cfg, args[1]); err != nil {
				return clierrors.Wrap(err, clierrors.ErrConfigInvalid.Code, clierrors.ErrConfigInvalid.Status, fmt.Sprintf("invalid value for %q", args[0]))
			}
			if err := pkgconfig.Validate(cfg); err != nil {
				return clierrors.Wrap(err, clierrors.ErrConfigInvalid.Code, clierrors.ErrConfigInvalid.Status, fmt.Sprintf("%q would violate configuration bounds", args[0]))
			}
			if err := pkgconfig.Save(path, cfg); err != nil {
				return clierrors.Wrap(err, clierrors.ErrUnexpected.Code, clierrors.ErrUnexpected.Status, "failed to save configuration")
			}
			fmt.Printf("set %s = %s\n", args[0], args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "config", "", "path to a configuration YAML file")
	return cmd
}

func newConfigResetCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset --config to the built-in defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				return clierrors.Clone(clierrors.ErrConfigInvalid, "config reset requires --config PATH")
			}
			if err := pkgconfig.Save(path, pkgconfig.Default()); err != nil {
				return clierrors.Wrap(err, clierrors.ErrUnexpected.Code, clierrors.ErrUnexpected.Status, "failed to save configuration")
			}
			fmt.Printf("reset %s to defaults\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "config", "", "path to a configuration YAML file")
	return cmd
}

func newConfigStatusCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether --config resolves to a file on disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				fmt.Println("config: using built-in defaults (no --config given)")
				return nil
			}
			if _, err := os.Stat(path); err != nil {
				fmt.Printf("config: %s not found, built-in defaults apply\n", path)
				return nil
			}
			fmt.Printf("config: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "config", "", "path to a configuration YAML file")
	return cmd
}
