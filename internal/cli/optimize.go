package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/classplacer/internal/core/coordinator"
	"github.com/noah-isme/classplacer/internal/core/progress"
	"github.com/noah-isme/classplacer/internal/core/scorer"
	"github.com/noah-isme/classplacer/internal/report"
	clierrors "github.com/noah-isme/classplacer/pkg/errors"
)

func newOptimizeCommand() *cobra.Command {
	var f commonFlags
	cmd := &cobra.Command{
		Use:   "optimize FILE",
		Short: "Run one or more optimization algorithms against a roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := f.resolve()
			if err != nil {
				return err
			}
			return app.runOptimize(cmd.Context(), args[0])
		},
	}
	registerCommonFlags(cmd, &f)
	return cmd
}

func (a *App) runOptimize(ctx context.Context, path string) error {
	snap, err := a.loadRoster(path)
	if err != nil {
		return err
	}
	checker := a.checker()

	start, err := a.startingSnapshot(snap, checker)
	if err != nil {
		return err
	}

	names := a.resolveAlgorithmNames()
	stages := coordinator.SequentialSeeds(a.Config.Engine.RandomSeed, names)
	coord := coordinator.New(checker, 0)

	cb := progress.Callback(func(e progress.Event) {
		a.Log.Debug("progress", zap.Int("iteration", e.Iteration), zap.Float64("best_score", e.BestScore))
	})

	outcome, err := coord.Run(ctx, start, &a.Config.Engine, coordinator.Strategy(a.Flags.strategy), stages, cb)
	if err != nil {
		var chainErr *coordinator.SequentialChainError
		if isChainError(err, &chainErr) {
			return clierrors.Wrap(err, clierrors.ErrValidation.Code, clierrors.ErrValidation.Status, chainErr.Error())
		}
		return clierrors.Wrap(err, clierrors.ErrUnexpected.Code, clierrors.ErrUnexpected.Status, "optimization run failed")
	}
	if outcome.Best == nil {
		return clierrors.Clone(clierrors.ErrAlgorithmFailed, "every algorithm run failed; no result to report")
	}

	best := outcome.Best
	fmt.Printf("initial_score: %.4f\n", best.InitialScore)
	fmt.Printf("best_score: %.4f\n", best.BestScore)
	fmt.Printf("iterations_used: %d\n", best.IterationsUsed)
	if outcome.Cancelled {
		fmt.Println("status: cancelled")
	}

	result := scorer.Score(best.BestSnapshot, &a.Config.Engine)
	violations := checker.Validate(best.BestSnapshot)

	if a.Flags.reports {
		w := report.New(a.Config.Ambient.OutputDir)
		info := report.Info{
			Operation:            "optimize",
			InputPath:            path,
			Algorithm:            string(outcome.Strategy),
			InitialScore:         best.InitialScore,
			FinalScore:           best.BestScore,
			Duration:             best.Elapsed,
			Iterations:           best.IterationsUsed,
			ConstraintsSatisfied: len(violations) == 0,
		}
		dir, err := w.WriteRun(info, best.BestSnapshot, result, a.Config, time.Now())
		if err != nil {
			return clierrors.Wrap(err, clierrors.ErrUnexpected.Code, clierrors.ErrUnexpected.Status, "failed to write report")
		}
		fmt.Printf("report written to %s\n", dir)
	}

	if outcome.Cancelled {
		return clierrors.ErrCancelled
	}
	return nil
}

func isChainError(err error, target **coordinator.SequentialChainError) bool {
	chainErr, ok := err.(*coordinator.SequentialChainError)
	if !ok {
		return false
	}
	*target = chainErr
	return true
}
