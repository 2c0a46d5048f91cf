package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/classplacer/internal/core/baseline"
	"github.com/noah-isme/classplacer/internal/core/progress"
	clierrors "github.com/noah-isme/classplacer/pkg/errors"
)

func newBaselineCommand() *cobra.Command {
	var f commonFlags
	cmd := &cobra.Command{
		Use:   "baseline FILE",
		Short: "Run random-swap N times and summarize the score distribution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := f.resolve()
			if err != nil {
				return err
			}
			return app.runBaseline(cmd.Context(), args[0])
		},
	}
	registerCommonFlags(cmd, &f)
	return cmd
}

func (a *App) runBaseline(ctx context.Context, path string) error {
	snap, err := a.loadRoster(path)
	if err != nil {
		return err
	}
	checker := a.checker()

	start, err := a.startingSnapshot(snap, checker)
	if err != nil {
		return err
	}

	opts := baseline.Options{BaseSeed: a.Config.Engine.RandomSeed}
	if a.Flags.numRuns > 0 {
		opts.NumRuns = a.Flags.numRuns
	}

	result, err := baseline.Generate(ctx, start, &a.Config.Engine, checker, opts, progress.Callback(nil))
	if err != nil {
		return clierrors.Wrap(err, clierrors.ErrUnexpected.Code, clierrors.ErrUnexpected.Status, "baseline run failed")
	}

	fmt.Printf("runs: %d\n", len(result.Samples))
	fmt.Printf("mean: %.4f\n", result.Mean)
	fmt.Printf("median: %.4f\n", result.Median)
	fmt.Printf("stddev: %.4f\n", result.StdDev)
	fmt.Printf("min: %.4f\n", result.Min)
	fmt.Printf("max: %.4f\n", result.Max)
	return nil
}
