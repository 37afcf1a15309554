package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/snx/internal/fetch"
	"github.com/desertthunder/snx/internal/services"
	"github.com/desertthunder/snx/internal/shared"
	"golang.org/x/time/rate"
)

// HandleFailure is a per-handle error that did not stop its task.
type HandleFailure struct {
	Handle string
	Err    error
}

// UnfollowOpts configures [Engine.Unfollow].
type UnfollowOpts struct {
	TestMode     bool // report candidates without calling the follow endpoint
	AllowPartial bool // act even when some followers pages failed
}

// UnfollowResult contains the outcome of an unfollow run.
type UnfollowResult struct {
	TestMode   bool
	Followers  int
	Following  int
	ToUnfollow []string // following minus followers, in following order
	Unfollowed []string
	Failed     []HandleFailure

	FollowersSweep *fetch.Result
	FollowingSweep *fetch.Result
}

// Count is the number of profiles that do not follow back.
func (r *UnfollowResult) Count() int { return len(r.ToUnfollow) }

// BulkFollowOpts configures [Engine.BulkFollow].
type BulkFollowOpts struct {
	Source    string // handle whose followers are followed
	Cap       int    // follow calls to issue; the engine default when zero
	StartPage int    // first followers page to visit, 1-based
}

// BulkFollowResult contains the outcome of a bulk follow run.
type BulkFollowResult struct {
	Source     string
	Cap        int
	Attempted  int
	Followed   []string
	Failed     []HandleFailure
	CapReached bool
	Sweep      *fetch.Result
}

// Handles sweeps one of the signed-in user's profile listings.
func (e *Engine) Handles(ctx context.Context, progress chan<- ProgressUpdate, list services.ProfileList) (*fetch.Set[string], *fetch.Result, error) {
	phase := FetchFollowers
	if list == services.Following {
		phase = FetchFollowing
	}

	set := fetch.NewSet[string]()
	res, err := sweep(ctx, e, string(list), phase, set, e.suno.ProfilesSpec(list), progress)
	return set, res, err
}

// Unfollow unfollows every followed profile that does not follow back.
//
// Both listings are swept first. In test mode nothing is mutated. A live run returns an error
// wrapping [shared.ErrIncompleteSweep] when the followers sweep missed pages, since a missing
// follower would be unfollowed by mistake, unless opts.AllowPartial is set. Individual unfollow
// failures are recorded and the run continues.
func (e *Engine) Unfollow(ctx context.Context, progress chan<- ProgressUpdate, opts UnfollowOpts) (*UnfollowResult, error) {
	result := &UnfollowResult{TestMode: opts.TestMode}

	followers, res, err := e.Handles(ctx, progress, services.Followers)
	result.FollowersSweep = res
	if err != nil {
		return result, fmt.Errorf("failed to collect followers: %w", err)
	}

	following, res, err := e.Handles(ctx, progress, services.Following)
	result.FollowingSweep = res
	if err != nil {
		return result, fmt.Errorf("failed to collect following: %w", err)
	}

	result.Followers = followers.Len()
	result.Following = following.Len()
	result.ToUnfollow = following.Difference(followers)
	e.sendProgress(progress, compareUpdate(result.Following, result.Followers, result.Count()))

	logger := shared.WithLogger(e.logger, "task", "unfollow")
	logger.Info("compared listings", "followers", result.Followers, "following", result.Following, "to_unfollow", result.Count())

	if opts.TestMode {
		return result, nil
	}

	if !result.FollowersSweep.Complete() && !opts.AllowPartial {
		return result, fmt.Errorf("%w: %d followers pages failed; rerun or allow a partial run",
			shared.ErrIncompleteSweep, len(result.FollowersSweep.Failed))
	}

	limiter := rate.NewLimiter(rate.Every(e.opts.UnfollowDelay), 1)
	total := result.Count()
	for i, handle := range result.ToUnfollow {
		if err := limiter.Wait(ctx); err != nil {
			return result, err
		}

		err := e.suno.Follow(ctx, handle, true)
		e.sendProgress(progress, handleUpdate(Unfollow, i+1, total, handle, err))
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			logger.Warn("unfollow failed", "handle", handle, "error", err)
			result.Failed = append(result.Failed, HandleFailure{Handle: handle, Err: err})
			continue
		}
		logger.Debug("unfollowed", "handle", handle)
		result.Unfollowed = append(result.Unfollowed, handle)
	}

	return result, nil
}

// BulkFollow follows the followers of opts.Source until the cap is reached.
//
// Every issued follow call counts toward the cap, failed or not. The cap is checked before each
// call and the sweep stops as soon as it is reached. Handles already seen in this run are skipped.
// Each successful follow is followed by a home feed load, whose failure is only logged, and a
// random wait of up to FollowJitter on top of the FollowDelay pacing.
func (e *Engine) BulkFollow(ctx context.Context, progress chan<- ProgressUpdate, opts BulkFollowOpts) (*BulkFollowResult, error) {
	source := shared.NormalizeHandle(opts.Source)
	if source == "" {
		return nil, fmt.Errorf("%w: source handle is required", shared.ErrMissingArgument)
	}

	limit := opts.Cap
	if limit <= 0 {
		limit = e.opts.FollowCap
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: follow cap must be positive", shared.ErrInvalidArgument)
	}

	result := &BulkFollowResult{Source: source, Cap: limit}
	logger := shared.WithLogger(e.logger, "task", "follow", "source", source)
	limiter := rate.NewLimiter(rate.Every(e.opts.FollowDelay), 1)
	seen := fetch.NewSet[string]()

	spec := e.suno.FollowersOfSpec(source)
	spec.Skip = max(opts.StartPage-1, 0)
	spec.Each = func(ctx context.Context, _ int, handles []string) error {
		for _, handle := range handles {
			if result.Attempted >= limit {
				return fetch.ErrStop
			}
			if handle == "" || seen.Has(handle) {
				continue
			}
			seen.Add(handle)

			if err := limiter.Wait(ctx); err != nil {
				return err
			}

			result.Attempted++
			err := e.suno.Follow(ctx, handle, false)
			e.sendProgress(progress, handleUpdate(Follow, result.Attempted, limit, handle, err))
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("follow failed", "handle", handle, "error", err)
				result.Failed = append(result.Failed, HandleFailure{Handle: handle, Err: err})
				continue
			}
			logger.Debug("followed", "handle", handle, "count", result.Attempted)
			result.Followed = append(result.Followed, handle)

			if err := e.suno.TouchFeed(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("feed refresh failed", "handle", handle, "error", err)
			}
			if result.Attempted < limit {
				if err := e.sleep(ctx, e.jitter(e.opts.FollowJitter)); err != nil {
					return err
				}
			}
		}

		if result.Attempted >= limit {
			return fetch.ErrStop
		}
		return nil
	}

	res, err := sweep(ctx, e, "follow", FetchSourceFollowers, fetch.NewList[string](), spec, progress)
	result.Sweep = res
	result.CapReached = result.Attempted >= limit
	if result.CapReached {
		e.sendProgress(progress, capReachedUpdate(limit))
		logger.Info("reached follow cap", "cap", limit)
	}
	if err != nil {
		return result, fmt.Errorf("bulk follow from %s: %w", source, err)
	}
	return result, nil
}

// Block blocks handles in order, or unblocks them. The first failure ends the run and the handles
// processed before it are returned.
func (e *Engine) Block(ctx context.Context, progress chan<- ProgressUpdate, handles []string, unblock bool) ([]string, error) {
	handles = shared.NormalizeHandles(handles)
	if len(handles) == 0 {
		return nil, fmt.Errorf("%w: at least one handle is required", shared.ErrMissingArgument)
	}

	done := make([]string, 0, len(handles))
	for i, handle := range handles {
		err := e.suno.Block(ctx, handle, unblock)
		e.sendProgress(progress, handleUpdate(Block, i+1, len(handles), handle, err))
		if err != nil {
			return done, err
		}
		done = append(done, handle)
	}
	return done, nil
}

// NotificationHandles returns the distinct handles attached to the notification feed, in feed order.
func (e *Engine) NotificationHandles(ctx context.Context) ([]string, error) {
	profiles, err := e.suno.NotificationProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	set := fetch.NewSet[string]()
	for _, p := range profiles {
		if p.Handle != "" {
			set.Add(p.Handle)
		}
	}
	return set.Items(), nil
}
