package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSelectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select [flags] <scene> <issue-id>",
		Short: "Select the nodes an issue points at",
		Long: `Run the checks and select the target nodes of one issue. Targets that no
longer exist are reported and skipped. With --save the selection is written
back to the scene file.`,
		Args: cobra.ExactArgs(2),
		RunE: runSelect,
	}
	cmd.Flags().Bool("save", false, "store the selection in the scene file")
	return cmd
}

func runSelect(cmd *cobra.Command, args []string) error {
	save, err := cmd.Flags().GetBool("save")
	if err != nil {
		return err
	}
	env, err := setupEnv(cmd, args[0], envOptions{})
	if err != nil {
		return err
	}
	defer env.finish(cmd)

	if _, err := env.runAll(cmd.Context()); err != nil {
		return err
	}
	res, err := env.session.SelectIssue(cmd.Context(), args[1])
	if err != nil {
		return fmt.Errorf("select: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(res.Selected) == 0 {
		reason := res.Reason
		if reason == "" {
			reason = "no targets"
		}
		fmt.Fprintf(out, "Nothing selected: %s\n", reason)
		return nil
	}
	names := make([]string, len(res.Selected))
	for i, ref := range res.Selected {
		names[i] = string(ref)
	}
	fmt.Fprintf(out, "Selected %d node(s): %s\n", len(names), strings.Join(names, ", "))
	for _, ref := range res.Missing {
		fmt.Fprintf(out, "  missing: %s\n", ref)
	}
	if save {
		return env.save("")
	}
	return nil
}
