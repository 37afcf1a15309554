package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/snx/internal/models"
	"github.com/desertthunder/snx/internal/shared"
)

// SnapshotRepository stores one serialized index snapshot per key.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the given database connection
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save replaces the snapshot stored under key in a single transaction.
func (r *SnapshotRepository) Save(key string, snap *models.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO index_snapshots (key, id, version, total, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			id = excluded.id,
			version = excluded.version,
			total = excluded.total,
			payload = excluded.payload,
			created_at = excluded.created_at
	`

	if _, err := tx.Exec(query, key, shared.GenerateID(), snap.Version, snap.Total, string(payload), snap.CreatedAt); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Load returns the snapshot stored under key, or [shared.ErrSnapshotNotFound].
func (r *SnapshotRepository) Load(key string) (*models.Snapshot, error) {
	var payload string
	err := r.db.QueryRow(`SELECT payload FROM index_snapshots WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSnapshotNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

// Clear removes the snapshot stored under key. Clearing a missing key is not an error.
func (r *SnapshotRepository) Clear(key string) error {
	if _, err := r.db.Exec(`DELETE FROM index_snapshots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	return nil
}
