package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	clierrors "github.com/noah-isme/classplacer/pkg/errors"
)

func newValidateCommand() *cobra.Command {
	var f commonFlags
	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a roster file's structure and hard constraints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := f.resolve()
			if err != nil {
				return err
			}
			return app.runValidate(args[0])
		},
	}
	registerCommonFlags(cmd, &f)
	return cmd
}

func (a *App) runValidate(path string) error {
	snap, err := a.loadRoster(path)
	if err != nil {
		return err
	}

	checker := a.checker()
	violations := checker.Validate(snap)
	if len(violations) == 0 {
		fmt.Println("valid: no hard constraint violations")
		return nil
	}

	for _, v := range violations {
		fmt.Printf("violation: kind=%s student=%s detail=%s\n", v.Kind, v.StudentID, v.Detail)
	}
	return clierrors.Clone(clierrors.ErrValidation, fmt.Sprintf("%d hard constraint violation(s) found", len(violations)))
}
