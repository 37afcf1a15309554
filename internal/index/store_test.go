package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/snx/internal/models"
	"github.com/desertthunder/snx/internal/repositories"
	"github.com/desertthunder/snx/internal/shared"
	tu "github.com/desertthunder/snx/internal/testing"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "index.json")
	store := NewFileStore(path)

	t.Run("Load before Save", func(t *testing.T) {
		_, err := store.Load()
		require.ErrorIs(t, err, shared.ErrSnapshotNotFound)
	})

	t.Run("Save writes the snapshot format", func(t *testing.T) {
		snap := models.NewSnapshot([]models.IndexItem{{ID: "z", Title: "Midnight Drive"}}, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
		require.NoError(t, store.Save(snap))

		tu.AssertFileExists(t, path)
		require.JSONEq(t,
			`{"version":1,"createdAt":"2025-01-02T00:00:00Z","total":1,"items":[{"id":"z","title":"Midnight Drive"}]}`,
			tu.MustReadFile(t, path))

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		require.Len(t, entries, 1, "temporary files should not be left behind")
	})

	t.Run("Load rejects files without items", func(t *testing.T) {
		other := filepath.Join(t.TempDir(), "index.json")
		require.NoError(t, os.WriteFile(other, []byte(`{"version":1}`), 0644))

		_, err := NewFileStore(other).Load()
		require.ErrorIs(t, err, shared.ErrSnapshotNotFound)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.Clear())
		require.NoError(t, store.Clear())

		_, err := store.Load()
		require.ErrorIs(t, err, shared.ErrSnapshotNotFound)
	})
}

func TestSQLiteStore(t *testing.T) {
	db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLiteStore(repositories.NewSnapshotRepository(db), "suno_playlist_index_v1")
	require.Equal(t, "sqlite:suno_playlist_index_v1", store.Name())

	_, err = store.Load()
	require.ErrorIs(t, err, shared.ErrSnapshotNotFound)

	snap := models.NewSnapshot([]models.IndexItem{{ID: "z", Title: "Midnight Drive"}}, time.Now())
	require.NoError(t, store.Save(snap))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, snap.Items, loaded.Items)

	require.NoError(t, store.Clear())
	_, err = store.Load()
	require.ErrorIs(t, err, shared.ErrSnapshotNotFound)
}
