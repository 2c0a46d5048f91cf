package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/classplacer/internal/core/scorer"
	"github.com/noah-isme/classplacer/internal/report"
	clierrors "github.com/noah-isme/classplacer/pkg/errors"
)

func newGenerateAssignmentCommand() *cobra.Command {
	var f commonFlags
	cmd := &cobra.Command{
		Use:   "generate-assignment FILE",
		Short: "Produce an initial class assignment without running an optimizer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := f.resolve()
			if err != nil {
				return err
			}
			return app.runGenerateAssignment(args[0])
		},
	}
	registerCommonFlags(cmd, &f)
	return cmd
}

func (a *App) runGenerateAssignment(path string) error {
	snap, err := a.loadRoster(path)
	if err != nil {
		return err
	}
	checker := a.checker()

	start, err := a.startingSnapshot(snap, checker)
	if err != nil {
		return err
	}

	result := scorer.Score(start, &a.Config.Engine)
	violations := checker.Validate(start)
	fmt.Printf("assigned_classes: %d\n", start.TargetK)
	fmt.Printf("initial_score: %.4f\n", result.Final)

	outDir := a.Config.Ambient.OutputDir
	if outDir == "" {
		outDir = "."
	}
	w := report.New(outDir)
	info := report.Info{
		Operation:            "generate-assignment",
		InputPath:            path,
		Algorithm:            a.Config.Engine.InitStrategy,
		InitialScore:         result.Final,
		FinalScore:           result.Final,
		ConstraintsSatisfied: len(violations) == 0,
	}
	dir, err := w.WriteRun(info, start, result, a.Config, time.Now())
	if err != nil {
		return clierrors.Wrap(err, clierrors.ErrUnexpected.Code, clierrors.ErrUnexpected.Status, "failed to write report")
	}
	fmt.Printf("report written to %s\n", dir)
	return nil
}
