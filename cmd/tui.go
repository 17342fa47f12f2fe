package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/chapgen/cli/internal/shared"
	"github.com/chapgen/cli/internal/ui"
)

// TUI launches the interactive terminal interface over the live connection.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to a file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("~/.chapgen/tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	app, err := r.bootstrap(ctx, true)
	if err != nil {
		return err
	}
	defer app.Close()

	model := ui.NewModel(ctx, app.session, app.socket, app.tracker, app.router, app.engine, app.state)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
