package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"scenecheck/internal/session"
	"scenecheck/internal/ui"
)

func newUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui [flags] <scene>",
		Short: "Open the interactive check panel",
		Long: `Open an interactive panel listing every check and its issues. Run, fix and
select from the keyboard; fixes are saved to the scene on exit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, args[0], envOptions{})
		},
	}
	cmd.Flags().Bool("no-save", false, "do not write fixes back to the scene on exit")
	return cmd
}

// changeTracker remembers whether any fix mutated the scene.
type changeTracker struct {
	*session.Session
	mu      sync.Mutex
	changed bool
}

func (t *changeTracker) FixIssue(ctx context.Context, issueID string) (session.FixOutcome, error) {
	out, err := t.Session.FixIssue(ctx, issueID)
	if out.Result.Changed {
		t.mu.Lock()
		t.changed = true
		t.mu.Unlock()
	}
	return out, err
}

func (t *changeTracker) Changed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.changed
}

func runInteractive(cmd *cobra.Command, scenePath string, opts envOptions) error {
	noSave := false
	if f := cmd.Flags().Lookup("no-save"); f != nil {
		v, err := cmd.Flags().GetBool("no-save")
		if err != nil {
			return err
		}
		noSave = v
	}

	events := make(chan session.Snapshot, 256)
	opts.sink = session.ChannelSink{Ch: events}
	env, err := setupEnv(cmd, scenePath, opts)
	if err != nil {
		return err
	}
	defer env.finish(cmd)

	tracker := &changeTracker{Session: env.session}
	uiErr := ui.Run(cmd.Context(), tracker, events, cmd.OutOrStdout(), ui.Options{
		Title:      "scenecheck " + scenePath,
		RunOnStart: true,
	})
	// Commands still in flight may publish after the program stopped reading.
	go func() {
		for range events {
		}
	}()
	if uiErr != nil {
		return fmt.Errorf("ui: %w", uiErr)
	}

	if tracker.Changed() && !noSave {
		if err := env.save(""); err != nil {
			return err
		}
		if !env.flags.quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Saved fixes to %s\n", scenePath)
		}
	}
	return exitFor(env.session.Snapshot())
}
