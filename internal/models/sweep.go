package models

import (
	"errors"
	"fmt"
	"time"
)

var _ Model = (*Sweep)(nil)

// Sweep records one paginated collection run and how many of its pages succeeded.
type Sweep struct {
	id             string
	sequence       int
	task           string
	endpoint       string
	totalCount     int
	pages          int
	pagesSucceeded int
	pagesFailed    int
	itemsCollected int
	stopped        bool
	errorMessage   string
	startedAt      time.Time
	finishedAt     *time.Time
	createdAt      time.Time
	updatedAt      time.Time
	deletedAt      *time.Time
}

// NewSweep creates a sweep for task against endpoint, started now.
func NewSweep(sequence int, task, endpoint string) *Sweep {
	now := time.Now()
	return &Sweep{
		sequence:  sequence,
		task:      task,
		endpoint:  endpoint,
		startedAt: now,
		createdAt: now,
		updatedAt: now,
	}
}

func (s *Sweep) ID() string             { return s.id }
func (s *Sweep) Sequence() int          { return s.sequence }
func (s *Sweep) Task() string           { return s.task }
func (s *Sweep) Endpoint() string       { return s.endpoint }
func (s *Sweep) TotalCount() int        { return s.totalCount }
func (s *Sweep) Pages() int             { return s.pages }
func (s *Sweep) PagesSucceeded() int    { return s.pagesSucceeded }
func (s *Sweep) PagesFailed() int       { return s.pagesFailed }
func (s *Sweep) ItemsCollected() int    { return s.itemsCollected }
func (s *Sweep) Stopped() bool          { return s.stopped }
func (s *Sweep) ErrorMessage() string   { return s.errorMessage }
func (s *Sweep) StartedAt() time.Time   { return s.startedAt }
func (s *Sweep) FinishedAt() *time.Time { return s.finishedAt }
func (s *Sweep) CreatedAt() time.Time   { return s.createdAt }
func (s *Sweep) UpdatedAt() time.Time   { return s.updatedAt }
func (s *Sweep) DeletedAt() *time.Time  { return s.deletedAt }

func (s *Sweep) SetID(id string)                { s.id = id }
func (s *Sweep) SetSequence(n int)              { s.sequence = n }
func (s *Sweep) SetTotalCount(n int)            { s.totalCount = n }
func (s *Sweep) SetPages(n int)                 { s.pages = n }
func (s *Sweep) SetPagesSucceeded(n int)        { s.pagesSucceeded = n }
func (s *Sweep) SetPagesFailed(n int)           { s.pagesFailed = n }
func (s *Sweep) SetItemsCollected(n int)        { s.itemsCollected = n }
func (s *Sweep) SetStopped(v bool)              { s.stopped = v }
func (s *Sweep) SetErrorMessage(msg string)     { s.errorMessage = msg }
func (s *Sweep) SetStartedAt(t time.Time)       { s.startedAt = t }
func (s *Sweep) SetFinishedAt(t *time.Time)     { s.finishedAt = t }
func (s *Sweep) SetCreatedAt(t time.Time)       { s.createdAt = t }
func (s *Sweep) SetUpdatedAt(t time.Time)       { s.updatedAt = t }
func (s *Sweep) SetDeletedAt(t *time.Time)      { s.deletedAt = t }

// Complete reports whether every page succeeded and the sweep ran to the end.
func (s *Sweep) Complete() bool {
	return s.pagesFailed == 0 && !s.stopped && s.pagesSucceeded == s.pages && s.errorMessage == ""
}

// Duration is the time between start and finish, or zero while running.
func (s *Sweep) Duration() time.Duration {
	if s.finishedAt == nil {
		return 0
	}
	return s.finishedAt.Sub(s.startedAt)
}

// Validate checks required fields and page accounting.
func (s *Sweep) Validate() error {
	if s.task == "" {
		return errors.New("sweep task is required")
	}
	if s.endpoint == "" {
		return errors.New("sweep endpoint is required")
	}
	if s.totalCount < 0 || s.pages < 0 || s.pagesSucceeded < 0 || s.pagesFailed < 0 || s.itemsCollected < 0 {
		return errors.New("sweep counts must not be negative")
	}
	if s.pagesSucceeded+s.pagesFailed > s.pages {
		return fmt.Errorf("sweep accounts for %d pages but only %d exist", s.pagesSucceeded+s.pagesFailed, s.pages)
	}
	return nil
}
