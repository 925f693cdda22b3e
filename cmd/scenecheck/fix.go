package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scenecheck/internal/fix"
	"scenecheck/internal/logger"
)

func newFixCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix [flags] <scene>",
		Short: "Apply available fixes to a scene",
		Long: `Run the checks, apply fixes according to the chosen strategy and re-verify
each one. The scene is saved in place unless --out or --dry-run is given.`,
		Args: cobra.ExactArgs(1),
		RunE: runFix,
	}
	cmd.Flags().Bool("all", false, "apply every fixable issue, one at a time")
	cmd.Flags().Bool("once", false, "apply the first fixable issue (default)")
	cmd.Flags().String("id", "", "apply the fix of a specific issue id")
	cmd.Flags().String("check", "", "only consider issues of this check")
	cmd.Flags().Bool("dry-run", false, "list the fixes that would be applied without changing the scene")
	cmd.Flags().String("out", "", "write the fixed scene to this path instead of overwriting the input")
	return cmd
}

func runFix(cmd *cobra.Command, args []string) error {
	applyAll, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	applyOnceFlag, err := cmd.Flags().GetBool("once")
	if err != nil {
		return err
	}
	targetID, err := cmd.Flags().GetString("id")
	if err != nil {
		return err
	}
	checkID, err := cmd.Flags().GetString("check")
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}
	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}

	if targetID != "" && (applyAll || applyOnceFlag) {
		return fmt.Errorf("--id cannot be combined with --all or --once")
	}
	if applyAll && applyOnceFlag {
		return fmt.Errorf("--all and --once are mutually exclusive")
	}

	mode := fix.ApplyModeOnce
	if targetID != "" {
		mode = fix.ApplyModeID
	} else if applyAll {
		mode = fix.ApplyModeAll
	}
	opts := fix.ApplyOptions{
		Mode:     mode,
		TargetID: targetID,
		CheckID:  checkID,
		DryRun:   dryRun,
	}

	env, err := setupEnv(cmd, args[0], envOptions{})
	if err != nil {
		return err
	}
	defer env.finish(cmd)
	fixLog := logger.For(env.log, logger.ComponentFix)

	if _, err := env.runAll(cmd.Context()); err != nil {
		return err
	}

	var res *fix.ApplyResult
	applyErr := env.timer.Measure("fix", func() error {
		var err error
		res, err = fix.Apply(cmd.Context(), env.session, opts)
		return err
	})
	fixLog.Debugw("apply finished", "mode", mode.String(), "check", checkID, "error", applyErr)

	if err := fix.WriteSummary(cmd.OutOrStdout(), res, applyErr); err != nil {
		return err
	}

	if res.Changed() && !dryRun {
		if err := env.save(outPath); err != nil {
			return fmt.Errorf("fix: %w", err)
		}
	}
	if !env.flags.quiet && !dryRun && res != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Scene status: %s\n", res.Snapshot.Aggregate)
	}
	return nil
}
