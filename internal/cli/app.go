// Package cli implements the classplacer command surface: score, optimize,
// baseline, generate-assignment, validate, config, and interactive
// (spec.md §6.4). Every command shares the same flag-driven configuration
// resolution and roster loading path defined in this file.
package cli

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	coreconfig "github.com/noah-isme/classplacer/internal/core/config"
	"github.com/noah-isme/classplacer/internal/core/constraints"
	"github.com/noah-isme/classplacer/internal/core/model"
	"github.com/noah-isme/classplacer/internal/table"
	pkgconfig "github.com/noah-isme/classplacer/pkg/config"
	clierrors "github.com/noah-isme/classplacer/pkg/errors"
	"github.com/noah-isme/classplacer/pkg/logger"
)

// commonFlags holds every flag shared across commands (spec.md §6.4).
type commonFlags struct {
	configPath     string
	outputPath     string
	logLevel       string
	skipValidation bool
	minFriends     int
	maxIterations  int
	earlyStop      int
	algorithm      string
	algorithms     []string
	strategy       string
	initStrategy   string
	targetClasses  int
	randomSeed     int64
	numRuns        int
	reports        bool
}

// App bundles the resolved configuration and logger a command needs to run.
type App struct {
	Flags  commonFlags
	Config *pkgconfig.Config
	Log    *zap.Logger
}

func registerCommonFlags(cmd *cobra.Command, f *commonFlags) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "path to a configuration YAML file")
	cmd.Flags().StringVar(&f.outputPath, "output", "", "directory to write run artifacts into")
	cmd.Flags().StringVar(&f.logLevel, "log-level", logger.LevelNormal, "one of minimal, normal, detailed, debug")
	cmd.Flags().BoolVar(&f.skipValidation, "skip-validation", false, "normalize invalid cells instead of failing")
	cmd.Flags().IntVar(&f.minFriends, "min-friends", -1, "override constraints.minimum_friends")
	cmd.Flags().IntVar(&f.maxIterations, "max-iterations", -1, "override optimization.max_iterations")
	cmd.Flags().IntVar(&f.earlyStop, "early-stop", -1, "override optimization.early_stop_threshold")
	cmd.Flags().StringVar(&f.algorithm, "algorithm", "", "algorithm name for single-strategy runs")
	cmd.Flags().StringSliceVar(&f.algorithms, "algorithms", nil, "algorithm names for multi-strategy runs")
	cmd.Flags().StringVar(&f.strategy, "strategy", "single", "one of single, parallel, sequential, best_of")
	cmd.Flags().StringVar(&f.initStrategy, "init-strategy", "", "override the initialization strategy")
	cmd.Flags().IntVar(&f.targetClasses, "target-classes", -1, "override class_config.target_classes")
	cmd.Flags().Int64Var(&f.randomSeed, "random-seed", -1, "override random_seed")
	cmd.Flags().IntVar(&f.numRuns, "num-runs", -1, "number of baseline runs")
	cmd.Flags().BoolVar(&f.reports, "reports", false, "write the full run-directory artifact bundle instead of a terminal-only summary")
}

// resolve loads the configuration document, applies flag overrides, and
// builds the logger a command uses for the rest of its run.
func (f commonFlags) resolve() (*App, error) {
	cfg, err := pkgconfig.Load(f.configPath)
	if err != nil {
		return nil, clierrors.Wrap(err, clierrors.ErrConfigInvalid.Code, clierrors.ErrConfigInvalid.Status, "failed to load configuration")
	}

	if f.logLevel != "" {
		cfg.Ambient.LogLevel = f.logLevel
	}
	if f.minFriends >= 0 {
		cfg.Engine.Constraints.MinimumFriends = f.minFriends
	}
	if f.maxIterations >= 0 {
		cfg.Engine.Optimization.MaxIterations = f.maxIterations
	}
	if f.earlyStop >= 0 {
		cfg.Engine.Optimization.EarlyStopThreshold = f.earlyStop
	}
	if f.initStrategy != "" {
		cfg.Engine.InitStrategy = f.initStrategy
	}
	if f.targetClasses >= 0 {
		cfg.Engine.ClassConfig.TargetClasses = f.targetClasses
	}
	if f.randomSeed >= 0 {
		cfg.Engine.RandomSeed = f.randomSeed
	}
	if f.outputPath != "" {
		cfg.Ambient.OutputDir = f.outputPath
	}

	if err := pkgconfig.Validate(cfg); err != nil {
		return nil, clierrors.Wrap(err, clierrors.ErrConfigInvalid.Code, clierrors.ErrConfigInvalid.Status, "flag overrides produced an invalid configuration")
	}

	log, err := logger.New(cfg.Ambient.LogLevel, cfg.Ambient.LogFormat)
	if err != nil {
		return nil, clierrors.Wrap(err, clierrors.ErrUnexpected.Code, clierrors.ErrUnexpected.Status, "failed to build logger")
	}

	return &App{Flags: f, Config: cfg, Log: log}, nil
}

// loadRoster reads and parses a roster file into a Snapshot, honoring
// --skip-validation. Validation failures are returned as *errors.Error with
// ExitValidation so main.go can map them to the right exit code.
func (a *App) loadRoster(path string) (*model.Snapshot, error) {
	raw, err := table.Read(path)
	if err != nil {
		return nil, clierrors.Wrap(err, clierrors.ErrValidation.Code, clierrors.ErrValidation.Status, "failed to read roster file")
	}

	snap, validationErrs, err := table.ToSnapshot(raw, a.Flags.skipValidation)
	if err != nil {
		return nil, clierrors.Wrap(err, clierrors.ErrValidation.Code, clierrors.ErrValidation.Status, "roster structure is invalid")
	}
	if len(validationErrs) > 0 {
		for _, e := range validationErrs {
			a.Log.Warn("validation error", zap.Error(e))
		}
		return nil, clierrors.Clone(clierrors.ErrValidation, fmt.Sprintf("roster failed validation with %d error(s)", len(validationErrs)))
	}
	return snap, nil
}

// checker builds a constraint checker from the resolved configuration.
func (a *App) checker() *constraints.Checker {
	return constraints.New(a.Config.Engine.Constraints)
}

// rng builds the deterministic rng the resolved random seed drives.
func (a *App) rng() *rand.Rand {
	return rand.New(rand.NewSource(a.Config.Engine.RandomSeed))
}

// resolveAlgorithmNames returns the algorithm list a run should use: the
// explicit --algorithms slice, or a single-element list built from
// --algorithm (defaulting to random_swap), depending on which was set.
func (a *App) resolveAlgorithmNames() []string {
	if len(a.Flags.algorithms) > 0 {
		return a.Flags.algorithms
	}
	if a.Flags.algorithm != "" {
		return []string{a.Flags.algorithm}
	}
	return []string{coreconfig.AlgoRandomSwap}
}
