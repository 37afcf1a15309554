package tasks

import (
	"fmt"

	"github.com/desertthunder/snx/internal/fetch"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchFollowers Phase = iota
	FetchFollowing
	FetchSourceFollowers
	Compare
	Unfollow
	Follow
	Block
	Score
	FetchProjects
	MigrateProject
)

func (p Phase) String() string {
	switch p {
	case FetchFollowers:
		return "fetch_followers"
	case FetchFollowing:
		return "fetch_following"
	case FetchSourceFollowers:
		return "fetch_source_followers"
	case Compare:
		return "compare"
	case Unfollow:
		return "unfollow"
	case Follow:
		return "follow"
	case Block:
		return "block"
	case Score:
		return "score"
	case FetchProjects:
		return "fetch_projects"
	case MigrateProject:
		return "migrate_project"
	default:
		return ""
	}
}

func sweepPageUpdate(phase Phase, page, collected int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    page,
		Message: fmt.Sprintf("Page %d collected (%d so far)...", page, collected),
	}
}

func sweepDoneUpdate(phase Phase, res *fetch.Result) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    res.Succeeded,
		Total:   res.Pages - res.Skipped,
		Message: fmt.Sprintf("Collected %d handles from %d pages", res.Items, res.Succeeded),
		Data:    res,
	}
}

func compareUpdate(following, followers, candidates int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compare,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%d of %d followed profiles do not follow back (%d followers)", candidates, following, followers),
	}
}

func handleUpdate(phase Phase, step, total int, handle string, err error) ProgressUpdate {
	if err != nil {
		return ProgressUpdate{
			Phase:   phase,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, handle, err),
		}
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, handle),
	}
}

func capReachedUpdate(limit int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Follow,
		Step:    limit,
		Total:   limit,
		Message: fmt.Sprintf("Reached limit of %d follows, stopping", limit),
	}
}

func projectsUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchProjects,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d workspaces", count),
	}
}

func migrateUpdate(step, total int, move ProjectMove, dryRun bool) ProgressUpdate {
	verb := "Removed"
	if dryRun {
		verb = "Would remove"
	}
	return ProgressUpdate{
		Phase:   MigrateProject,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %d songs from %s", step, total, verb, len(move.ClipIDs), move.ProjectID),
		Data:    move,
	}
}
