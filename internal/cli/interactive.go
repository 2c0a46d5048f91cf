package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	clierrors "github.com/noah-isme/classplacer/pkg/errors"
)

func newInteractiveCommand() *cobra.Command {
	var f commonFlags
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Enter a menu-driven session for scoring, optimizing, and inspecting rosters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := f.resolve()
			if err != nil {
				return err
			}
			return app.runInteractive(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	registerCommonFlags(cmd, &f)
	return cmd
}

// session holds the state an interactive run accumulates between menu
// selections: the last roster path touched, so later options can default to
// it instead of asking again.
type session struct {
	rosterPath string
}

func (a *App) runInteractive(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	sess := &session{}

	for {
		fmt.Fprintln(out, "")
		fmt.Fprintln(out, "classplacer interactive session")
		fmt.Fprintln(out, "1) Score a roster")
		fmt.Fprintln(out, "2) Optimize a roster")
		fmt.Fprintln(out, "3) Generate an initial assignment")
		fmt.Fprintln(out, "4) Validate a roster")
		fmt.Fprintln(out, "5) Run a baseline distribution")
		fmt.Fprintln(out, "6) Show configuration")
		fmt.Fprintln(out, "7) Exit")
		fmt.Fprint(out, "select an option: ")

		if !scanner.Scan() {
			return nil
		}
		choice := strings.TrimSpace(scanner.Text())

		switch choice {
		case "1":
			a.interactiveScore(sess, scanner, out)
		case "2":
			a.interactiveOptimize(ctx, sess, scanner, out)
		case "3":
			a.interactiveGenerateAssignment(sess, scanner, out)
		case "4":
			a.interactiveValidate(sess, scanner, out)
		case "5":
			a.interactiveBaseline(ctx, sess, scanner, out)
		case "6":
			a.interactiveShowConfig(out)
		case "7", "":
			return nil
		default:
			fmt.Fprintf(out, "unrecognized option %q\n", choice)
		}
	}
}

func promptPath(sess *session, scanner *bufio.Scanner, out io.Writer) string {
	prompt := "roster file path"
	if sess.rosterPath != "" {
		prompt += fmt.Sprintf(" [%s]", sess.rosterPath)
	}
	fmt.Fprint(out, prompt+": ")
	if !scanner.Scan() {
		return sess.rosterPath
	}
	line := strings.TrimSpace(scanner.Text())
	if line == "" {
		return sess.rosterPath
	}
	sess.rosterPath = line
	return line
}

func (a *App) interactiveScore(sess *session, scanner *bufio.Scanner, out io.Writer) {
	path := promptPath(sess, scanner, out)
	if path == "" {
		fmt.Fprintln(out, "no roster path given")
		return
	}
	if err := a.runScore(path); err != nil {
		fmt.Fprintf(out, "error: %v\n", clierrors.FromError(err))
	}
}

func (a *App) interactiveOptimize(ctx context.Context, sess *session, scanner *bufio.Scanner, out io.Writer) {
	path := promptPath(sess, scanner, out)
	if path == "" {
		fmt.Fprintln(out, "no roster path given")
		return
	}
	if err := a.runOptimize(ctx, path); err != nil {
		fmt.Fprintf(out, "error: %v\n", clierrors.FromError(err))
	}
}

func (a *App) interactiveGenerateAssignment(sess *session, scanner *bufio.Scanner, out io.Writer) {
	path := promptPath(sess, scanner, out)
	if path == "" {
		fmt.Fprintln(out, "no roster path given")
		return
	}
	if err := a.runGenerateAssignment(path); err != nil {
		fmt.Fprintf(out, "error: %v\n", clierrors.FromError(err))
	}
}

func (a *App) interactiveValidate(sess *session, scanner *bufio.Scanner, out io.Writer) {
	path := promptPath(sess, scanner, out)
	if path == "" {
		fmt.Fprintln(out, "no roster path given")
		return
	}
	if err := a.runValidate(path); err != nil {
		fmt.Fprintf(out, "error: %v\n", clierrors.FromError(err))
	}
}

func (a *App) interactiveBaseline(ctx context.Context, sess *session, scanner *bufio.Scanner, out io.Writer) {
	path := promptPath(sess, scanner, out)
	if path == "" {
		fmt.Fprintln(out, "no roster path given")
		return
	}
	fmt.Fprint(out, "number of runs [config default]: ")
	if scanner.Scan() {
		if raw := strings.TrimSpace(scanner.Text()); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				a.Flags.numRuns = n
			}
		}
	}
	if err := a.runBaseline(ctx, path); err != nil {
		fmt.Fprintf(out, "error: %v\n", clierrors.FromError(err))
	}
}

func (a *App) interactiveShowConfig(out io.Writer) {
	e := a.Config.Engine
	fmt.Fprintf(out, "weights.layers: student=%.2f class=%.2f school=%.2f\n",
		e.Weights.Layers.Student, e.Weights.Layers.Class, e.Weights.Layers.School)
	fmt.Fprintf(out, "class_config: min=%d max=%d\n", e.ClassConfig.MinClassSize, e.ClassConfig.MaxClassSize)
	fmt.Fprintf(out, "constraints.minimum_friends: %d\n", e.Constraints.MinimumFriends)
	fmt.Fprintf(out, "optimization.max_iterations: %d\n", e.Optimization.MaxIterations)
	fmt.Fprintf(out, "init_strategy: %s\n", e.InitStrategy)
}
