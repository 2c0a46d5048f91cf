package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand assembles the full classplacer command surface.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "classplacer",
		Short:         "Assign students to classes and optimize the assignment against weighted scoring goals",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newScoreCommand(),
		newOptimizeCommand(),
		newBaselineCommand(),
		newGenerateAssignmentCommand(),
		newValidateCommand(),
		newConfigCommand(),
		newInteractiveCommand(),
	)

	return root
}
