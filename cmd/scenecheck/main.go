package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"scenecheck/internal/version"
)

// exitError carries a process exit code without an error message, e.g. a
// check run that found issues.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// newRootCmd builds the command tree with its persistent flags.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "scenecheck",
		Short:         "Validate and repair animation scene files",
		Long:          `scenecheck runs pluggable checks against a scene, reports their status and applies safe fixes`,
		Version:       version.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newCheckCmd())
	root.AddCommand(newFixCmd())
	root.AddCommand(newSelectCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newDemoCmd())
	root.AddCommand(newUICmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())

	flags := root.PersistentFlags()
	flags.String("config", "", "path to scenecheck.toml (default: discovered next to the scene)")
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show timing information")
	flags.Int("max-issues", -1, "maximum number of issues kept per check (0 = unlimited, -1 = from config)")
	flags.String("log-level", "", "log level (DEBUG|INFO|WARN|ERROR, default from config)")
	flags.String("log-format", "", "log format (console|json, default from config)")
	return root
}

// main executes the root command. Errors are printed to stderr and exit with
// status 1 unless they carry their own exit code.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the stdout width, or 0 when stdout is not a terminal.
func terminalWidth() int {
	if !isTerminal(os.Stdout) {
		return 0
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}
