package index

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/desertthunder/snx/internal/models"
	"github.com/desertthunder/snx/internal/services"
	"github.com/desertthunder/snx/internal/shared"
	tu "github.com/desertthunder/snx/internal/testing"
	"github.com/stretchr/testify/require"
)

func likedPage(total int, ids ...string) map[string]any {
	clips := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		clips = append(clips, map[string]any{"clip": map[string]string{"id": id, "title": "Title " + id}})
	}
	return map[string]any{"num_total_results": total, "playlist_clips": clips}
}

func newSource(doer *tu.RouteDoer) *services.SunoService {
	paging := shared.DefaultConfig().Paging
	paging.LikedDelayMS = 0
	paging.LikedPageSize = 2
	return services.NewSunoService(doer, nil, paging, shared.NewLogger(io.Discard))
}

func likedDoer() *tu.RouteDoer {
	return tu.NewRouteDoer().
		JSON(http.MethodGet, "/playlist/liked?page=1", http.StatusOK, likedPage(3)).
		JSON(http.MethodGet, "/playlist/liked?page=0&page_size=2", http.StatusOK, likedPage(3, "a", "b")).
		JSON(http.MethodGet, "/playlist/liked?page=1&page_size=2", http.StatusOK, likedPage(3, "c"))
}

func TestBuild(t *testing.T) {
	t.Run("saves on full success", func(t *testing.T) {
		store := NewFileStore(t.TempDir() + "/index.json")
		ix := New(store, newSource(likedDoer()), shared.NewLogger(io.Discard))
		ix.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

		var progress []Progress
		snap, res, err := ix.Build(context.Background(), func(p Progress) { progress = append(progress, p) })
		require.NoError(t, err)
		require.True(t, res.Complete())
		require.Equal(t, models.SnapshotVersion, snap.Version)
		require.Equal(t, 3, snap.Total)
		require.Equal(t, []Progress{{PagesDone: 1, Items: 2}, {PagesDone: 2, Items: 3}}, progress)

		loaded, err := store.Load()
		require.NoError(t, err)
		require.Equal(t, snap.Items, loaded.Items)
		require.True(t, loaded.CreatedAt.Equal(snap.CreatedAt))
	})

	t.Run("keeps previous snapshot when a page fails", func(t *testing.T) {
		store := NewFileStore(t.TempDir() + "/index.json")
		previous := models.NewSnapshot([]models.IndexItem{{ID: "old", Title: "Old Song"}}, time.Now())
		require.NoError(t, store.Save(previous))

		doer := likedDoer().JSON(http.MethodGet, "/playlist/liked?page=1&page_size=2", http.StatusBadGateway, "")
		ix := New(store, newSource(doer), shared.NewLogger(io.Discard))

		snap, res, err := ix.Build(context.Background(), nil)
		require.ErrorIs(t, err, shared.ErrIncompleteSweep)
		require.Nil(t, snap)
		require.Len(t, res.Failed, 1)

		loaded, err := store.Load()
		require.NoError(t, err)
		require.Equal(t, "old", loaded.Items[0].ID)
	})

	t.Run("keeps previous snapshot when the total is missing", func(t *testing.T) {
		store := NewFileStore(t.TempDir() + "/index.json")
		require.NoError(t, store.Save(models.NewSnapshot([]models.IndexItem{{ID: "old"}}, time.Now())))

		doer := tu.NewRouteDoer().JSON(http.MethodGet, "/playlist/liked?page=1", http.StatusOK, `{"playlist_clips":[]}`)
		ix := New(store, newSource(doer), shared.NewLogger(io.Discard))

		_, _, err := ix.Build(context.Background(), nil)
		require.Error(t, err)

		loaded, err := store.Load()
		require.NoError(t, err)
		require.Equal(t, "old", loaded.Items[0].ID)
	})

	t.Run("empty playlist saves an empty snapshot", func(t *testing.T) {
		store := NewFileStore(t.TempDir() + "/index.json")
		doer := tu.NewRouteDoer().JSON(http.MethodGet, "/playlist/liked?page=1", http.StatusOK, likedPage(0))
		ix := New(store, newSource(doer), shared.NewLogger(io.Discard))

		snap, res, err := ix.Build(context.Background(), nil)
		require.NoError(t, err)
		require.Zero(t, res.Pages)
		require.Zero(t, snap.Total)
		require.NotNil(t, snap.Items)
	})
}

func TestQuery(t *testing.T) {
	snap := models.NewSnapshot([]models.IndexItem{{ID: "z", Title: "Midnight Drive"}}, time.Now())

	tc := []struct {
		name  string
		query string
		want  int
	}{
		{name: "lower case", query: "drive", want: 1},
		{name: "upper case", query: "DRIVE", want: 1},
		{name: "surrounding space", query: "  night ", want: 1},
		{name: "longer than title word", query: "drivex", want: 0},
		{name: "blank", query: "   ", want: 0},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			require.Len(t, Query(snap, tt.query, 20), tt.want)
		})
	}

	t.Run("page comes from position", func(t *testing.T) {
		items := make([]models.IndexItem, 50)
		for i := range items {
			items[i] = models.IndexItem{ID: fmt.Sprint(i), Title: fmt.Sprintf("song %02d", i)}
		}
		big := models.NewSnapshot(items, time.Now())

		got := Query(big, "song 45", 20)
		require.Equal(t, []Match{{Position: 45, ID: "45", Title: "song 45", Page: 2}}, got)

		got = Query(big, "song 19", 0)
		require.Equal(t, 0, got[0].Page)
		got = Query(big, "song 20", 0)
		require.Equal(t, 1, got[0].Page)
	})

	t.Run("nil snapshot", func(t *testing.T) {
		require.Nil(t, Query(nil, "drive", 20))
	})
}

func TestSuggest(t *testing.T) {
	snap := models.NewSnapshot([]models.IndexItem{
		{ID: "a", Title: "Midnight Drive"},
		{ID: "b", Title: "Morning Coffee"},
	}, time.Now())

	got := Suggest(snap, "midnite", 20)
	require.NotEmpty(t, got)
	require.Equal(t, "a", got[0].ID)

	require.Empty(t, Suggest(snap, "zzzzzz", 20))
	require.Nil(t, Suggest(snap, "", 20))
}
