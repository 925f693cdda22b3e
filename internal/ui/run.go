package ui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"scenecheck/internal/session"
)

// Run starts the presenter on out and blocks until the user quits or ctx is
// done. events should be fed by the session's sink.
func Run(ctx context.Context, cmds Commands, events <-chan session.Snapshot, out io.Writer, opts Options) error {
	model := NewModel(ctx, cmds, events, opts)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
