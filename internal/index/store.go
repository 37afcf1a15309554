package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/desertthunder/snx/internal/models"
	"github.com/desertthunder/snx/internal/repositories"
	"github.com/desertthunder/snx/internal/shared"
)

// Store persists at most one snapshot.
type Store interface {
	Load() (*models.Snapshot, error) // wraps [shared.ErrSnapshotNotFound] when empty
	Save(snap *models.Snapshot) error
	Clear() error
	Name() string
}

// SQLiteStore keeps the snapshot in the index_snapshots table under a fixed key.
type SQLiteStore struct {
	repo *repositories.SnapshotRepository
	key  string
}

// NewSQLiteStore creates a store for key.
func NewSQLiteStore(repo *repositories.SnapshotRepository, key string) *SQLiteStore {
	return &SQLiteStore{repo: repo, key: key}
}

func (s *SQLiteStore) Load() (*models.Snapshot, error)  { return s.repo.Load(s.key) }
func (s *SQLiteStore) Save(snap *models.Snapshot) error { return s.repo.Save(s.key, snap) }
func (s *SQLiteStore) Clear() error                     { return s.repo.Clear(s.key) }
func (s *SQLiteStore) Name() string                     { return "sqlite:" + s.key }

// FileStore keeps the snapshot in a JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Name() string { return "file:" + s.path }

// Load reads the snapshot file.
func (s *FileStore) Load() (*models.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSnapshotNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode index file: %w", err)
	}
	if snap.Items == nil {
		return nil, fmt.Errorf("%w: %s has no items", shared.ErrSnapshotNotFound, s.path)
	}
	return &snap, nil
}

// Save writes the snapshot to a temporary file in the same directory and renames it over the old one.
func (s *FileStore) Save(snap *models.Snapshot) error {
	data, err := shared.MarshalJSON(snap, false)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snx-index-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write index file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	return nil
}

// Clear removes the snapshot file. A missing file is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove index file: %w", err)
	}
	return nil
}
