package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/snx/internal/models"
	"github.com/desertthunder/snx/internal/shared"
)

var _ models.Repository[*models.Sweep] = (*SweepRepository)(nil)

// ErrSweepNotFound is returned when no live sweep has the requested id.
var ErrSweepNotFound = errors.New("sweep not found")

const sweepColumns = `
	id, sequence, task, endpoint, total_count, pages, pages_succeeded,
	pages_failed, items_collected, stopped, error_message, started_at,
	finished_at, created_at, updated_at, deleted_at`

// SweepRepository implements models.Repository[*models.Sweep] for sweep history.
type SweepRepository struct {
	db *sql.DB
}

// NewSweepRepository creates a new SweepRepository with the given database connection
func NewSweepRepository(db *sql.DB) *SweepRepository {
	return &SweepRepository{db: db}
}

// Create inserts a new sweep with a generated ID and sequence
func (r *SweepRepository) Create(sweep *models.Sweep) error {
	sequence, err := NextSequence(r.db, "sweeps")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	sweep.SetID(id)
	sweep.SetSequence(sequence)

	if err := sweep.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sweeps (` + sweepColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		sweep.Task(),
		sweep.Endpoint(),
		sweep.TotalCount(),
		sweep.Pages(),
		sweep.PagesSucceeded(),
		sweep.PagesFailed(),
		sweep.ItemsCollected(),
		sweep.Stopped(),
		nullable(sweep.ErrorMessage()),
		sweep.StartedAt(),
		sweep.FinishedAt(),
		sweep.CreatedAt(),
		sweep.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sweep: %w", err)
	}

	return nil
}

// Get retrieves a sweep by ID, excluding soft-deleted sweeps
func (r *SweepRepository) Get(id string) (*models.Sweep, error) {
	query := `SELECT ` + sweepColumns + ` FROM sweeps WHERE id = ? AND deleted_at IS NULL`
	return scanSweep(r.db.QueryRow(query, id))
}

// Update writes the sweep's counters and timestamps
func (r *SweepRepository) Update(sweep *models.Sweep) error {
	if err := sweep.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	sweep.SetUpdatedAt(now)

	query := `
		UPDATE sweeps
		SET total_count = ?, pages = ?, pages_succeeded = ?, pages_failed = ?,
			items_collected = ?, stopped = ?, error_message = ?, finished_at = ?,
			updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		sweep.TotalCount(),
		sweep.Pages(),
		sweep.PagesSucceeded(),
		sweep.PagesFailed(),
		sweep.ItemsCollected(),
		sweep.Stopped(),
		nullable(sweep.ErrorMessage()),
		sweep.FinishedAt(),
		now,
		sweep.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update sweep: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrSweepNotFound, sweep.ID())
	}

	return nil
}

// Delete soft-deletes a sweep by ID
func (r *SweepRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE sweeps SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete sweep: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrSweepNotFound, id)
	}

	return nil
}

// List retrieves sweeps newest first. Supported criteria: "task" (string) and "limit" (int).
func (r *SweepRepository) List(criteria map[string]any) ([]*models.Sweep, error) {
	query := `SELECT ` + sweepColumns + ` FROM sweeps WHERE deleted_at IS NULL`
	args := []any{}

	if task, ok := criteria["task"].(string); ok && task != "" {
		query += " AND task = ?"
		args = append(args, task)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sweeps: %w", err)
	}
	defer rows.Close()

	var sweeps []*models.Sweep
	for rows.Next() {
		sweep, err := scanSweep(rows)
		if err != nil {
			return nil, err
		}
		sweeps = append(sweeps, sweep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sweeps, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanSweep scans a [sql.Row] or the current row of [sql.Rows] into a [models.Sweep]
func scanSweep(row scanner) (*models.Sweep, error) {
	var (
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
		errorMessage   sql.NullString
		startedAt      time.Time
		finishedAt     sql.NullTime
		createdAt      time.Time
		updatedAt      time.Time
		deletedAt      sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &task, &endpoint, &totalCount, &pages, &pagesSucceeded,
		&pagesFailed, &itemsCollected, &stopped, &errorMessage, &startedAt,
		&finishedAt, &createdAt, &updatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSweepNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sweep: %w", err)
	}

	sweep := models.NewSweep(sequence, task, endpoint)
	sweep.SetID(id)
	sweep.SetTotalCount(totalCount)
	sweep.SetPages(pages)
	sweep.SetPagesSucceeded(pagesSucceeded)
	sweep.SetPagesFailed(pagesFailed)
	sweep.SetItemsCollected(itemsCollected)
	sweep.SetStopped(stopped)
	sweep.SetStartedAt(startedAt)
	sweep.SetCreatedAt(createdAt)
	sweep.SetUpdatedAt(updatedAt)

	if errorMessage.Valid {
		sweep.SetErrorMessage(errorMessage.String)
	}
	if finishedAt.Valid {
		sweep.SetFinishedAt(&finishedAt.Time)
	}
	if deletedAt.Valid {
		sweep.SetDeletedAt(&deletedAt.Time)
	}

	return sweep, nil
}
