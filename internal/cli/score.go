package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/classplacer/internal/core/scorer"
	"github.com/noah-isme/classplacer/internal/report"
	clierrors "github.com/noah-isme/classplacer/pkg/errors"
)

func newScoreCommand() *cobra.Command {
	var f commonFlags
	cmd := &cobra.Command{
		Use:   "score FILE",
		Short: "Score a roster's current class assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := f.resolve()
			if err != nil {
				return err
			}
			return app.runScore(args[0])
		},
	}
	registerCommonFlags(cmd, &f)
	return cmd
}

func (a *App) runScore(path string) error {
	snap, err := a.loadRoster(path)
	if err != nil {
		return err
	}
	checker := a.checker()
	violations := checker.Validate(snap)
	if len(violations) > 0 {
		a.Log.Warn("hard constraint violations present", zap.Int("count", len(violations)))
	}

	result := scorer.Score(snap, &a.Config.Engine)
	fmt.Printf("final_score: %.4f\n", result.Final)
	fmt.Printf("student_layer: %.4f\n", result.StudentLayer)
	fmt.Printf("class_layer: %.4f\n", result.ClassLayer)
	fmt.Printf("school_layer: %.4f\n", result.SchoolLayer)

	if a.Flags.reports {
		w := report.New(a.Config.Ambient.OutputDir)
		info := report.Info{
			Operation:            "score",
			InputPath:            path,
			Algorithm:            "none",
			InitialScore:         result.Final,
			FinalScore:           result.Final,
			ConstraintsSatisfied: len(violations) == 0,
		}
		dir, err := w.WriteRun(info, snap, result, a.Config, time.Now())
		if err != nil {
			return clierrors.Wrap(err, clierrors.ErrUnexpected.Code, clierrors.ErrUnexpected.Status, "failed to write report")
		}
		fmt.Printf("report written to %s\n", dir)
	}
	return nil
}
