package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/snx/internal/shared"
	"github.com/desertthunder/snx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive liked songs search.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.TUIFile)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	ix, err := r.indexer()
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, ix, ui.Options{
		UIPageSize: r.config.Index.UIPageSize,
		Open:       r.open,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if sweep := model.LastSweep(); sweep != nil {
		r.logger.Info("index rebuilt in TUI", "pages", sweep.Pages, "items", sweep.Items)
	}
	return nil
}
