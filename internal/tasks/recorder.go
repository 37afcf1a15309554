package tasks

import (
	"fmt"

	"github.com/desertthunder/snx/internal/fetch"
	"github.com/desertthunder/snx/internal/models"
)

// SweepStore stores sweep records, usually a repositories.SweepRepository.
type SweepStore interface {
	Create(sweep *models.Sweep) error
}

// RepositoryRecorder is a [SweepRecorder] backed by a [SweepStore].
type RepositoryRecorder struct {
	store SweepStore
}

// NewRepositoryRecorder creates a recorder writing to store.
func NewRepositoryRecorder(store SweepStore) *RepositoryRecorder {
	return &RepositoryRecorder{store: store}
}

// Record converts a sweep result into a [models.Sweep] and stores it.
// A nil res, from a sweep whose total request failed, is stored with zero counts and the error message.
func (r *RepositoryRecorder) Record(task, endpoint string, res *fetch.Result, err error) error {
	if err := r.store.Create(SweepFromResult(task, endpoint, res, err)); err != nil {
		return fmt.Errorf("failed to record %s sweep: %w", task, err)
	}
	return nil
}

// SweepFromResult builds the record of one sweep.
func SweepFromResult(task, endpoint string, res *fetch.Result, err error) *models.Sweep {
	sweep := models.NewSweep(0, task, endpoint)
	if err != nil {
		sweep.SetErrorMessage(err.Error())
	}
	if res == nil {
		return sweep
	}

	sweep.SetTotalCount(res.TotalCount)
	sweep.SetPages(res.Pages - res.Skipped)
	sweep.SetPagesSucceeded(res.Succeeded)
	sweep.SetPagesFailed(len(res.Failed))
	sweep.SetItemsCollected(res.Items)
	sweep.SetStopped(res.Stopped)
	sweep.SetStartedAt(res.StartedAt)
	if !res.FinishedAt.IsZero() {
		finished := res.FinishedAt
		sweep.SetFinishedAt(&finished)
	}
	return sweep
}
