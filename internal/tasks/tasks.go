package tasks

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/snx/internal/fetch"
	"github.com/desertthunder/snx/internal/models"
	"github.com/desertthunder/snx/internal/services"
	"github.com/desertthunder/snx/internal/shared"
)

// Suno is the part of [services.SunoService] the engine depends on.
type Suno interface {
	Doer() fetch.Doer
	ProfilesSpec(list services.ProfileList) fetch.PageSpec[string]
	FollowersOfSpec(handle string) fetch.PageSpec[string]
	Follow(ctx context.Context, handle string, unfollow bool) error
	TouchFeed(ctx context.Context) error
	Block(ctx context.Context, handle string, unblock bool) error
	NotificationProfiles(ctx context.Context) ([]models.Profile, error)
	UserID(ctx context.Context, handle string) (string, error)
	CreatorStats(ctx context.Context, userID string) (models.CreatorStats, error)
	AlignedLyrics(ctx context.Context, clipID string) ([]models.LyricLine, error)
	Comments(ctx context.Context, clipID string) (any, error)
	ParentClip(ctx context.Context, clipID string) (json.RawMessage, error)
	HideCreator(ctx context.Context, contentType, handle string) (json.RawMessage, error)
	Projects(ctx context.Context) ([]models.Project, error)
	ProjectClipIDs(ctx context.Context, projectID string) ([]string, error)
	RemoveProjectClips(ctx context.Context, projectID string, clipIDs []string) error
	TrendingUsers(ctx context.Context, size int) ([]models.TrendingUser, error)
	UserHooks(ctx context.Context, handle string, start, size int) (json.RawMessage, error)
}

var _ Suno = (*services.SunoService)(nil)

// SweepRecorder persists the outcome of a paginated sweep.
type SweepRecorder interface {
	Record(task, endpoint string, res *fetch.Result, err error) error
}

// Options holds pacing and limits for mutating tasks.
type Options struct {
	UnfollowDelay time.Duration // minimum gap between unfollow calls
	FollowDelay   time.Duration // minimum gap between follow calls
	FollowJitter  time.Duration // upper bound of the random wait added after each follow
	FollowCap     int           // follow calls issued per bulk follow run
	ScoreStagger  time.Duration // start offset between consecutive score lookups
}

// OptionsFromConfig maps the paging section of the config to [Options].
func OptionsFromConfig(c shared.PagingConfig) Options {
	return Options{
		UnfollowDelay: shared.Ms(c.UnfollowDelayMS),
		FollowDelay:   shared.Ms(c.FollowDelayMS),
		FollowJitter:  shared.Ms(c.FollowJitterMS),
		FollowCap:     c.FollowCap,
		ScoreStagger:  shared.Ms(c.ScoreStaggerMS),
	}
}

// Engine runs snx tasks against a [Suno] client.
type Engine struct {
	suno     Suno
	opts     Options
	recorder SweepRecorder
	logger   *log.Logger
	sleep    func(ctx context.Context, d time.Duration) error
	jitter   func(limit time.Duration) time.Duration
}

// NewEngine creates an Engine.
func NewEngine(suno Suno, opts Options, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{suno: suno, opts: opts, logger: logger, sleep: sleepContext, jitter: randomJitter}
}

// WithRecorder returns e with sweeps persisted through r.
func (e *Engine) WithRecorder(r SweepRecorder) *Engine {
	e.recorder = r
	return e
}

// Options returns the engine's pacing options.
func (e *Engine) Options() Options { return e.opts }

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// record hands a finished sweep to the recorder. Failures are logged only.
func (e *Engine) record(task, endpoint string, res *fetch.Result, err error) {
	if e.recorder == nil {
		return
	}
	if recErr := e.recorder.Record(task, endpoint, res, err); recErr != nil {
		e.logger.Warn("failed to record sweep", "task", task, "error", recErr)
	}
}

// sweep collects spec into acc, reporting each page under phase and recording the result as task.
func sweep[T any](ctx context.Context, e *Engine, task string, phase Phase, acc fetch.Accumulator[T], spec fetch.PageSpec[T], progress chan<- ProgressUpdate) (*fetch.Result, error) {
	spec.Logger = shared.WithLogger(e.logger, "task", task)

	each := spec.Each
	spec.Each = func(ctx context.Context, page int, items []T) error {
		e.sendProgress(progress, sweepPageUpdate(phase, page, acc.Len()))
		if each != nil {
			return each(ctx, page, items)
		}
		return nil
	}

	res, err := fetch.Collect(ctx, e.suno.Doer(), acc, spec)
	e.record(task, spec.TotalPath, res, err)
	if res != nil {
		e.sendProgress(progress, sweepDoneUpdate(phase, res))
	}
	return res, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return rand.N(limit)
}
