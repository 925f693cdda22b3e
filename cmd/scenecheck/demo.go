package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scenecheck/internal/scene/memscene"
)

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo <out.yaml|out.json|out.msgpack>",
		Short: "Write a demo scene that fails every check",
		Long: `Write a small scene with an illegal node name, a camera with a huge near clip,
a stray image plane, an NTSC time unit and keys outside the playback range.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := memscene.Save(args[0], memscene.ReelDisaster()); err != nil {
				return fmt.Errorf("demo: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote demo scene to %s\n", args[0])
			return nil
		},
	}
}
