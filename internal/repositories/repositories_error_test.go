package repositories

import (
	"errors"
	"testing"

	"github.com/desertthunder/snx/internal/models"
	"github.com/desertthunder/snx/internal/shared"
)

func TestSweepRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewSweepRepository(db)
			sweep := models.NewSweep(0, "", "/profiles/followers?page=1")

			if err := repo.Create(sweep); err == nil {
				t.Fatal("expected validation error for empty task")
			}
		})

		t.Run("BadAccounting", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewSweepRepository(db)
			sweep := models.NewSweep(0, "followers", "/profiles/followers?page=1")
			sweep.SetPages(1)
			sweep.SetPagesSucceeded(1)
			sweep.SetPagesFailed(1)

			if err := repo.Create(sweep); err == nil {
				t.Fatal("expected validation error when pages do not add up")
			}
		})

		t.Run("ClosedDatabase", func(t *testing.T) {
			db := setupTestDB(t)
			db.Close()

			repo := NewSweepRepository(db)
			if err := repo.Create(models.NewSweep(0, "followers", "/profiles/followers?page=1")); err == nil {
				t.Fatal("expected error on closed database")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewSweepRepository(db)

			_, err := repo.Get("nonexistent-id")
			if !errors.Is(err, ErrSweepNotFound) {
				t.Fatalf("expected ErrSweepNotFound, got %v", err)
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewSweepRepository(db)
			sweep := models.NewSweep(0, "followers", "/profiles/followers?page=1")
			sweep.SetID("nonexistent-id")

			if err := repo.Update(sweep); !errors.Is(err, ErrSweepNotFound) {
				t.Fatalf("expected ErrSweepNotFound, got %v", err)
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("Twice", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewSweepRepository(db)
			sweep := models.NewSweep(0, "followers", "/profiles/followers?page=1")
			if err := repo.Create(sweep); err != nil {
				t.Fatalf("failed to create sweep: %v", err)
			}
			if err := repo.Delete(sweep.ID()); err != nil {
				t.Fatalf("failed to delete sweep: %v", err)
			}
			if err := repo.Delete(sweep.ID()); err == nil {
				t.Fatal("expected error deleting an already deleted sweep")
			}
		})
	})
}

func TestSnapshotRepositoryErrors(t *testing.T) {
	t.Run("Load missing key", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		_, err := NewSnapshotRepository(db).Load("nope")
		if !errors.Is(err, shared.ErrSnapshotNotFound) {
			t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
		}
	})

	t.Run("Load corrupt payload", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		_, err := db.Exec(`INSERT INTO index_snapshots (key, id, version, total, payload, created_at) VALUES ('k', 'x', 1, 0, '{', CURRENT_TIMESTAMP)`)
		if err != nil {
			t.Fatalf("failed to insert corrupt row: %v", err)
		}

		if _, err := NewSnapshotRepository(db).Load("k"); err == nil {
			t.Fatal("expected decode error")
		}
	})
}
