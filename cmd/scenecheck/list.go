package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"scenecheck/internal/checks"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [flags] [dir]",
		Short: "List the configured checks",
		Long: `List the checks in run order with their state. The configuration is
discovered from [dir] (default: the current directory) unless --config is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runList,
	}
	cmd.Flags().String("filter", "", "only show checks whose id, label or description contains this text")
	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	filter, err := cmd.Flags().GetString("filter")
	if err != nil {
		return err
	}
	g, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	} else if wd, err := os.Getwd(); err == nil {
		dir = wd
	}
	cfg, err := loadConfig(g, dir)
	if err != nil {
		return err
	}
	reg, err := checks.Build(cfg)
	if err != nil {
		return err
	}

	query := strings.ToLower(strings.TrimSpace(filter))
	cell := lipgloss.NewStyle().PaddingRight(2)
	header := cell.Bold(true)
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers("ID", "LABEL", "ENABLED", "FIX", "DESCRIPTION")
	shown := 0
	for _, c := range reg.All() {
		text := strings.ToLower(c.ID() + " " + c.Label() + " " + c.Description())
		if query != "" && !strings.Contains(text, query) {
			continue
		}
		fix := "manual"
		if c.SupportsFix() {
			fix = "auto"
		}
		tbl.Row(c.ID(), c.Label(), fmt.Sprint(reg.IsEnabled(c.ID())), fix, c.Description())
		shown++
	}
	if shown > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), tbl.String())
	}
	if shown == 0 && !g.quiet {
		fmt.Fprintln(cmd.OutOrStdout(), "no checks match")
	}
	return nil
}
