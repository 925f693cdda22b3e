package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scenecheck/internal/check"
	"scenecheck/internal/report"
	"scenecheck/internal/session"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [flags] <scene>",
		Short: "Run every enabled check against a scene",
		Long: `Run the configured checks against a scene file (.yaml, .json or .msgpack) and
report per-check status. Exits with status 1 when the aggregate status is not OK.`,
		Args: cobra.ExactArgs(1),
		RunE: runCheck,
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|json|short)")
	cmd.Flags().StringSlice("only", nil, "run only these check ids")
	cmd.Flags().StringSlice("skip", nil, "skip these check ids")
	cmd.Flags().Bool("with-notes", false, "include issue notes in output")
	cmd.Flags().Bool("suggest", false, "include fix suggestions and issue ids in output")
	cmd.Flags().Bool("all", false, "also list checks that passed or are disabled")
	cmd.Flags().String("ui", "off", "interactive presenter (auto|on|off)")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	switch format {
	case "pretty", "json", "short":
	default:
		return fmt.Errorf("unknown format %q (must be pretty, json or short)", format)
	}
	only, err := cmd.Flags().GetStringSlice("only")
	if err != nil {
		return fmt.Errorf("failed to get only flag: %w", err)
	}
	skip, err := cmd.Flags().GetStringSlice("skip")
	if err != nil {
		return fmt.Errorf("failed to get skip flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	suggest, err := cmd.Flags().GetBool("suggest")
	if err != nil {
		return fmt.Errorf("failed to get suggest flag: %w", err)
	}
	showAll, err := cmd.Flags().GetBool("all")
	if err != nil {
		return fmt.Errorf("failed to get all flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	if shouldUseTUI(mode) {
		return runInteractive(cmd, args[0], envOptions{only: only, skip: skip})
	}

	env, err := setupEnv(cmd, args[0], envOptions{only: only, skip: skip})
	if err != nil {
		return err
	}
	defer env.finish(cmd)

	snap, err := env.runAll(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		err = report.JSON(out, snap, report.JSONOpts{Scene: env.scenePath, Indent: true})
	case "short":
		err = report.Short(out, snap)
	default:
		if env.flags.quiet && snap.Aggregate == check.StatusOK {
			break
		}
		err = report.Pretty(out, snap, report.PrettyOpts{
			Color:      env.flags.color,
			Width:      terminalWidth(),
			Scene:      env.scenePath,
			ShowNotes:  withNotes,
			ShowFixes:  suggest,
			ShowOK:     showAll,
			ShowHidden: showAll,
		})
	}
	if err != nil {
		return err
	}
	return exitFor(snap)
}

// exitFor maps the aggregate status to the process exit code.
func exitFor(snap session.Snapshot) error {
	if snap.Aggregate == check.StatusOK {
		return nil
	}
	return &exitError{code: 1}
}
