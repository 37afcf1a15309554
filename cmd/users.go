package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/snx/internal/formatter"
	"github.com/desertthunder/snx/internal/models"
	"github.com/urfave/cli/v3"
)

// NotificationHandles prints the handles in the notification feed.
func (r *Runner) NotificationHandles(ctx context.Context, cmd *cli.Command) error {
	var handles []string
	err := r.spin(ctx, "Reading notifications...", func(ctx context.Context) error {
		var err error
		handles, err = r.engine.NotificationHandles(ctx)
		return err
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(handles, false)
	}
	for _, h := range handles {
		r.writePlain("%s\n", h)
	}
	return nil
}

// NotificationScores scores every handle in the notification feed.
func (r *Runner) NotificationScores(ctx context.Context, cmd *cli.Command) error {
	handles, err := r.engine.NotificationHandles(ctx)
	if err != nil {
		return err
	}
	if len(handles) == 0 {
		return r.writePlain("No handles in the notification feed\n")
	}
	r.logger.Info("scoring notification handles", "count", len(handles))
	return r.score(ctx, cmd, handles)
}

// UsersScore prints creator stats for the given handles.
func (r *Runner) UsersScore(ctx context.Context, cmd *cli.Command) error {
	return r.score(ctx, cmd, cmd.StringArgs("handles"))
}

func (r *Runner) score(ctx context.Context, cmd *cli.Command, handles []string) error {
	progress, stop := r.streamProgress()
	scores := r.engine.Scores(ctx, progress, handles)
	stop()

	if err := ctx.Err(); err != nil {
		return err
	}

	if path := cmd.String("csv"); path != "" {
		if err := formatter.WriteScoresCSV(scores, path); err != nil {
			return err
		}
		r.logger.Info("scores written", "path", path, "rows", len(scores))
	}

	if cmd.Bool("json") {
		return r.writeJSON(scores, true)
	}

	r.writePlain("\n")
	formatter.RenderScores(r.output, scores)
	if failed := countFailed(scores); failed > 0 {
		return r.writePlainln("%d of %d lookups failed", failed, len(scores))
	}
	return nil
}

// UsersTrending prints the trending users table.
func (r *Runner) UsersTrending(ctx context.Context, cmd *cli.Command) error {
	var users []models.TrendingUser
	err := r.spin(ctx, "Fetching trending users...", func(ctx context.Context) error {
		var err error
		users, err = r.engine.TrendingUsers(ctx, cmd.Int("size"))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to fetch trending users: %w", err)
	}

	if limit := cmd.Int("limit"); limit > 0 && limit < len(users) {
		users = users[:limit]
	}

	if cmd.Bool("json") {
		return r.writeJSON(users, true)
	}
	formatter.RenderTrending(r.output, users)
	return nil
}

func countFailed(scores []models.HandleScore) int {
	n := 0
	for _, s := range scores {
		if s.Stats == nil {
			n++
		}
	}
	return n
}
