package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/snx/internal/services"
	"github.com/desertthunder/snx/internal/shared"
	"github.com/desertthunder/snx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ProfilesList returns the action that sweeps one of your profile listings and prints its handles.
func (r *Runner) ProfilesList(list services.ProfileList) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		r.recordSweeps()
		r.logger.Info("collecting profiles", "list", list)

		handles, res, err := r.engine.Handles(ctx, nil, list)
		if err != nil {
			return fmt.Errorf("failed to collect %s: %w", list, err)
		}
		if !res.Complete() {
			r.logger.Warn("some pages failed", "list", list, "failed", len(res.Failed), "pages", res.Pages)
		}

		if cmd.Bool("json") {
			return r.writeJSON(handles.Items(), false)
		}
		for _, h := range handles.Items() {
			r.writePlain("%s\n", h)
		}
		return r.writePlainln("%d %s (%d/%d pages)", handles.Len(), list, res.Succeeded, res.Pages)
	}
}

// ProfilesUnfollow unfollows every followed profile that does not follow back.
//
// Without --live it only reports the candidates.
func (r *Runner) ProfilesUnfollow(ctx context.Context, cmd *cli.Command) error {
	live := cmd.Bool("live")
	if live {
		if err := r.ask("Unfollow everyone who does not follow you back?", cmd.Bool("yes")); err != nil {
			return err
		}
	}
	r.recordSweeps()

	progress, stop := r.streamProgress()
	result, err := r.engine.Unfollow(ctx, progress, tasks.UnfollowOpts{
		TestMode:     !live,
		AllowPartial: cmd.Bool("allow-partial"),
	})
	stop()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"test_mode":   result.TestMode,
			"followers":   result.Followers,
			"following":   result.Following,
			"to_unfollow": result.ToUnfollow,
			"unfollowed":  result.Unfollowed,
			"failed":      failedHandles(result.Failed),
		}, true)
	}

	r.writePlain("\n")
	r.writePlainHeader("Unfollow")
	r.writePlain("Followers: %d\n", result.Followers)
	r.writePlain("Following: %d\n", result.Following)
	r.writePlain("Not following back: %d\n", result.Count())

	if result.TestMode {
		for _, h := range result.ToUnfollow {
			r.writePlain("  %s\n", h)
		}
		return r.writePlainln("Dry run, nothing changed. Rerun with --live to unfollow.")
	}

	r.writePlain("Unfollowed: %d\n", len(result.Unfollowed))
	r.writeFailures(result.Failed)
	return nil
}

// ProfilesFollow follows the followers of --from until the cap is reached.
func (r *Runner) ProfilesFollow(ctx context.Context, cmd *cli.Command) error {
	source := shared.NormalizeHandle(cmd.String("from"))
	if source == "" {
		return fmt.Errorf("%w: --from is required", shared.ErrMissingArgument)
	}
	limit := cmd.Int("cap")
	if limit <= 0 {
		limit = r.engine.Options().FollowCap
	}

	title := fmt.Sprintf("Follow up to %d followers of %s?", limit, source)
	if err := r.ask(title, cmd.Bool("yes")); err != nil {
		return err
	}
	r.recordSweeps()

	progress, stop := r.streamProgress()
	result, err := r.engine.BulkFollow(ctx, progress, tasks.BulkFollowOpts{
		Source:    source,
		Cap:       limit,
		StartPage: cmd.Int("start-page"),
	})
	stop()
	if result == nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Bulk follow from " + result.Source)
	r.writePlain("Attempted: %d/%d\n", result.Attempted, result.Cap)
	r.writePlain("Followed: %d\n", len(result.Followed))
	if result.CapReached {
		r.writePlain("Cap reached\n")
	}
	r.writeFailures(result.Failed)
	return err
}

// ProfilesBlock blocks or unblocks handles.
func (r *Runner) ProfilesBlock(ctx context.Context, cmd *cli.Command) error {
	handles := cmd.StringArgs("handles")
	unblock := cmd.Bool("unblock")

	verb := "Block"
	if unblock {
		verb = "Unblock"
	}
	if err := r.ask(fmt.Sprintf("%s %d handle(s)?", verb, len(handles)), cmd.Bool("yes")); err != nil {
		return err
	}

	progress, stop := r.streamProgress()
	done, err := r.engine.Block(ctx, progress, handles, unblock)
	stop()

	r.writePlain("%sed %d/%d\n", verb, len(done), len(handles))
	return err
}

// ProfilesHooks prints a user's hooks.
func (r *Runner) ProfilesHooks(ctx context.Context, cmd *cli.Command) error {
	handle := cmd.StringArg("handle")
	hooks, err := r.engine.UserHooks(ctx, handle, cmd.Int("start"), cmd.Int("size"))
	if err != nil {
		return err
	}
	return r.writeRaw(hooks, cmd.Bool("pretty"))
}

func (r *Runner) writeFailures(failed []tasks.HandleFailure) {
	if len(failed) == 0 {
		return
	}
	r.writePlain("\nFailed (%d):\n", len(failed))
	for _, f := range failed {
		r.writePlain("  ✗ %s: %v\n", f.Handle, f.Err)
	}
}

func failedHandles(failed []tasks.HandleFailure) map[string]string {
	out := make(map[string]string, len(failed))
	for _, f := range failed {
		out[f.Handle] = f.Err.Error()
	}
	return out
}
