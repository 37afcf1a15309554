package tasks

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/snx/internal/models"
	"github.com/desertthunder/snx/internal/shared"
)

// DefaultWorkspace is the id of the workspace every account has.
const DefaultWorkspace = "default"

// MigrateOpts configures [Engine.MigrateWorkspace].
type MigrateOpts struct {
	Target string // workspace that keeps its songs; [DefaultWorkspace] when empty
	DryRun bool
}

// ProjectMove lists the songs taken out of one workspace.
type ProjectMove struct {
	ProjectID string   `json:"project_id"`
	Name      string   `json:"name,omitempty"`
	ClipIDs   []string `json:"clip_ids"`
}

// MigrateResult contains the outcome of a workspace migration.
type MigrateResult struct {
	Target   string        `json:"target"`
	DryRun   bool          `json:"dry_run"`
	Projects int           `json:"projects"`
	Moved    []ProjectMove `json:"moved"`
	Empty    []string      `json:"empty"`
}

// Songs is the number of songs removed, or that would be removed in a dry run.
func (r *MigrateResult) Songs() int {
	n := 0
	for _, m := range r.Moved {
		n += len(m.ClipIDs)
	}
	return n
}

// MigrateWorkspace removes the songs of every workspace other than the target from that workspace,
// leaving them in the target.
//
// Workspaces without songs are skipped. A target other than [DefaultWorkspace] must be one of the
// listed workspaces, otherwise nothing is touched and the error wraps [shared.ErrProjectNotFound].
// The first failure aborts the run and the moves completed before it are returned with the error.
func (e *Engine) MigrateWorkspace(ctx context.Context, progress chan<- ProgressUpdate, opts MigrateOpts) (*MigrateResult, error) {
	target := strings.TrimSpace(opts.Target)
	if target == "" {
		target = DefaultWorkspace
	}

	result := &MigrateResult{Target: target, DryRun: opts.DryRun}
	logger := shared.WithLogger(e.logger, "task", "migrate", "target", target)

	projects, err := e.suno.Projects(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list workspaces: %w", err)
	}
	result.Projects = len(projects)
	if target != DefaultWorkspace && !slices.ContainsFunc(projects, func(p models.Project) bool { return p.ID == target }) {
		return result, fmt.Errorf("%w: %s is not one of your %d workspaces", shared.ErrProjectNotFound, target, len(projects))
	}
	e.sendProgress(progress, projectsUpdate(len(projects)))
	logger.Info("found workspaces", "count", len(projects))

	for i, project := range projects {
		if project.ID == target {
			logger.Debug("skipping target workspace", "project", project.ID)
			continue
		}

		ids, err := e.suno.ProjectClipIDs(ctx, project.ID)
		if err != nil {
			return result, fmt.Errorf("failed to list songs in %s: %w", project.ID, err)
		}
		if len(ids) == 0 {
			result.Empty = append(result.Empty, project.ID)
			continue
		}

		move := ProjectMove{ProjectID: project.ID, Name: project.Name, ClipIDs: ids}
		if !opts.DryRun {
			if err := e.suno.RemoveProjectClips(ctx, project.ID, ids); err != nil {
				return result, err
			}
		}

		result.Moved = append(result.Moved, move)
		e.sendProgress(progress, migrateUpdate(i+1, len(projects), move, opts.DryRun))
		logger.Info("workspace migrated", "project", project.ID, "songs", len(ids), "dry_run", opts.DryRun)
	}

	return result, nil
}
