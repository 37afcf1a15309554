package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/snx/internal/fetch"
	"github.com/desertthunder/snx/internal/formatter"
	"github.com/desertthunder/snx/internal/index"
	"github.com/desertthunder/snx/internal/models"
	"github.com/desertthunder/snx/internal/shared"
	"github.com/desertthunder/snx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// recordedIndex records every build sweep in the sweep history.
type recordedIndex struct {
	*index.Index
	recorder tasks.SweepRecorder
	endpoint string
	onError  func(err error)
}

func (ix *recordedIndex) Build(ctx context.Context, onProgress func(index.Progress)) (*models.Snapshot, *fetch.Result, error) {
	snap, res, err := ix.Index.Build(ctx, onProgress)
	if ix.recorder != nil {
		if rerr := ix.recorder.Record("index", ix.endpoint, res, err); rerr != nil {
			ix.onError(rerr)
		}
	}
	return snap, res, err
}

func (r *Runner) indexer() (*recordedIndex, error) {
	ix, err := r.searchIndex()
	if err != nil {
		return nil, err
	}

	rec := &recordedIndex{
		Index:    ix,
		endpoint: r.suno.LikedSpec().TotalPath,
		onError:  func(err error) { r.logger.Warn("failed to record sweep", "task", "index", "error", err) },
	}
	r.recordSweeps()
	if r.sweeps != nil {
		rec.recorder = tasks.NewRepositoryRecorder(r.sweeps)
	}
	return rec, nil
}

// IndexBuild rebuilds the liked songs index.
func (r *Runner) IndexBuild(ctx context.Context, cmd *cli.Command) error {
	ix, err := r.indexer()
	if err != nil {
		return err
	}

	var (
		snap *models.Snapshot
		res  *fetch.Result
	)
	err = r.spin(ctx, "Indexing liked songs...", func(ctx context.Context) error {
		var err error
		snap, res, err = ix.Build(ctx, func(p index.Progress) {
			r.logger.Debug("index page", "pages", p.PagesDone, "items", p.Items)
		})
		return err
	})
	if err != nil {
		if res != nil {
			r.writePlain("Pages: %d/%d succeeded\n", res.Succeeded, res.Pages)
		}
		return err
	}

	return r.writePlain("✓ Indexed %d songs from %d pages into %s\n", snap.Total, res.Pages, ix.Store().Name())
}

// IndexSearch prints the liked songs whose title contains the query, or the closest titles.
func (r *Runner) IndexSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query is required", shared.ErrMissingArgument)
	}

	ix, err := r.searchIndex()
	if err != nil {
		return err
	}
	snap, err := ix.Load()
	if errors.Is(err, shared.ErrSnapshotNotFound) {
		return fmt.Errorf("%w: run 'snx index build' first", err)
	}
	if err != nil {
		return err
	}

	pageSize := r.config.Index.UIPageSize
	matches := index.Query(snap, query, pageSize)
	suggesting := false
	if len(matches) == 0 {
		matches = index.Suggest(snap, query, pageSize)
		suggesting = len(matches) > 0
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"query": query, "suggestions": suggesting, "matches": matches}, true)
	}

	switch {
	case len(matches) == 0:
		r.writePlain("No matches for %q\n", query)
		return nil
	case suggesting:
		r.writePlain("No exact matches for %q, closest titles:\n", query)
	}
	formatter.RenderMatches(r.output, matches)

	if cmd.Bool("open") {
		return r.open(shared.SongURL(matches[0].ID))
	}
	return nil
}

// IndexShow describes the stored index.
func (r *Runner) IndexShow(ctx context.Context, cmd *cli.Command) error {
	ix, err := r.searchIndex()
	if err != nil {
		return err
	}
	snap, err := ix.Load()
	if errors.Is(err, shared.ErrSnapshotNotFound) {
		return r.writePlain("No index stored in %s\n", ix.Store().Name())
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"store":     ix.Store().Name(),
			"version":   snap.Version,
			"createdAt": snap.CreatedAt,
			"total":     snap.Total,
		}, true)
	}

	r.writePlain("Store: %s\n", ix.Store().Name())
	r.writePlain("Version: %d\n", snap.Version)
	r.writePlain("Created: %s\n", snap.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	return r.writePlain("Songs: %d\n", snap.Total)
}

// IndexClear deletes the stored index.
func (r *Runner) IndexClear(ctx context.Context, cmd *cli.Command) error {
	ix, err := r.searchIndex()
	if err != nil {
		return err
	}
	if err := r.ask("Delete the stored index?", cmd.Bool("yes")); err != nil {
		return err
	}
	if err := ix.Clear(); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	return r.writePlain("✓ Cleared %s\n", ix.Store().Name())
}
