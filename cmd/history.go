package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/snx/internal/formatter"
	"github.com/urfave/cli/v3"
)

// History lists recorded sweeps, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.database(); err != nil {
		return err
	}

	criteria := map[string]any{"limit": cmd.Int("limit")}
	if task := cmd.String("task"); task != "" {
		criteria["task"] = task
	}
	sweeps, err := r.sweeps.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list sweeps: %w", err)
	}

	if cmd.Bool("json") {
		rows := make([]map[string]any, 0, len(sweeps))
		for _, s := range sweeps {
			rows = append(rows, map[string]any{
				"id":              s.ID(),
				"sequence":        s.Sequence(),
				"task":            s.Task(),
				"endpoint":        s.Endpoint(),
				"total":           s.TotalCount(),
				"pages":           s.Pages(),
				"pages_succeeded": s.PagesSucceeded(),
				"pages_failed":    s.PagesFailed(),
				"items":           s.ItemsCollected(),
				"stopped":         s.Stopped(),
				"error":           s.ErrorMessage(),
				"started_at":      s.StartedAt(),
			})
		}
		return r.writeJSON(rows, true)
	}

	if len(sweeps) == 0 {
		return r.writePlain("No sweeps recorded\n")
	}
	formatter.RenderSweeps(r.output, sweeps)
	return nil
}
