package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/snx/internal/fetch"
	"github.com/desertthunder/snx/internal/index"
	"github.com/desertthunder/snx/internal/models"
	"github.com/desertthunder/snx/internal/shared"
	"github.com/stretchr/testify/require"
)

type fakeIndexer struct {
	snapshot *models.Snapshot
	loadErr  error
	buildErr error
	pages    int
}

func (f *fakeIndexer) Load() (*models.Snapshot, error) {
	return f.snapshot, f.loadErr
}

func (f *fakeIndexer) Build(_ context.Context, onProgress func(index.Progress)) (*models.Snapshot, *fetch.Result, error) {
	for i := 1; i <= f.pages; i++ {
		onProgress(index.Progress{PagesDone: i, Items: i * 100})
	}
	res := &fetch.Result{Pages: f.pages, Succeeded: f.pages}
	if f.buildErr != nil {
		return nil, res, f.buildErr
	}
	f.snapshot = models.NewSnapshot([]models.IndexItem{{ID: "new", Title: "Fresh Cut"}}, time.Now())
	return f.snapshot, res, nil
}

func testSnapshot() *models.Snapshot {
	items := make([]models.IndexItem, 0, 25)
	for i := 0; i < 24; i++ {
		items = append(items, models.IndexItem{ID: "filler", Title: "Filler"})
	}
	items = append(items, models.IndexItem{ID: "clip-md", Title: "Midnight Drive"})
	return models.NewSnapshot(items, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
}

// run executes cmd and feeds every resulting message back into m, following batches.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	msg := cmd()
	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			run(t, m, c)
		}
	case Msg:
		_, next := m.Update(msg)
		run(t, m, next)
	}
}

func newTestModel(indexer Indexer, opts Options) *Model {
	m := NewModel(context.Background(), indexer, opts)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func typeQuery(m *Model, q string) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(q)})
	return cmd
}

func TestModel(t *testing.T) {
	t.Run("loads the snapshot and searches it", func(t *testing.T) {
		m := newTestModel(&fakeIndexer{snapshot: testSnapshot()}, Options{})
		run(t, m, m.loadSnapshot())
		require.NotNil(t, m.snapshot)

		typeQuery(m, "DRIVE")
		require.Len(t, m.matches, 1)
		require.False(t, m.suggesting)

		match, ok := m.Selected()
		require.True(t, ok)
		require.Equal(t, 24, match.Position)
		require.Equal(t, 1, match.Page)
		require.Contains(t, m.View(), "Midnight Drive")
		require.Contains(t, m.View(), "page 2")
	})

	t.Run("missing snapshot asks for a build", func(t *testing.T) {
		m := newTestModel(&fakeIndexer{loadErr: shared.ErrSnapshotNotFound}, Options{})
		run(t, m, m.loadSnapshot())
		require.NoError(t, m.err)
		require.Contains(t, m.View(), "ctrl+r")
	})

	t.Run("other load errors are shown", func(t *testing.T) {
		m := newTestModel(&fakeIndexer{loadErr: errors.New("corrupt")}, Options{})
		run(t, m, m.loadSnapshot())
		require.Contains(t, m.View(), "corrupt")
	})

	t.Run("near misses become suggestions", func(t *testing.T) {
		m := newTestModel(&fakeIndexer{snapshot: testSnapshot()}, Options{})
		run(t, m, m.loadSnapshot())

		typeQuery(m, "midnite")
		require.True(t, m.suggesting)
		require.Equal(t, "clip-md", m.matches[0].ID)
		require.Contains(t, m.View(), "closest titles")
	})

	t.Run("enter opens the song page", func(t *testing.T) {
		var opened string
		m := newTestModel(&fakeIndexer{snapshot: testSnapshot()}, Options{
			Open: func(url string) error { opened = url; return nil },
		})
		run(t, m, m.loadSnapshot())
		typeQuery(m, "midnight")

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		run(t, m, cmd)
		require.Equal(t, "https://suno.com/song/clip-md", opened)
		require.Contains(t, m.status, "Opened")
	})

	t.Run("enter without results does nothing", func(t *testing.T) {
		m := newTestModel(&fakeIndexer{snapshot: testSnapshot()}, Options{})
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		require.Nil(t, cmd)
	})

	t.Run("esc clears the query and then quits", func(t *testing.T) {
		m := newTestModel(&fakeIndexer{snapshot: testSnapshot()}, Options{})
		run(t, m, m.loadSnapshot())
		typeQuery(m, "drive")

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		require.Empty(t, m.input.Value())
		require.Empty(t, m.matches)

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		require.IsType(t, tea.QuitMsg{}, cmd())
	})

	t.Run("rebuild reports progress and swaps the snapshot", func(t *testing.T) {
		m := newTestModel(&fakeIndexer{snapshot: testSnapshot(), pages: 2}, Options{})
		run(t, m, m.loadSnapshot())

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
		require.Equal(t, BuildView, m.view)
		require.Contains(t, m.View(), "Rebuilding index")

		run(t, m, cmd)
		require.Equal(t, SearchView, m.view)
		require.Equal(t, 1, m.snapshot.Total)
		require.Equal(t, 2, m.LastSweep().Succeeded)
		require.Contains(t, m.status, "Indexed 1 songs")
	})

	t.Run("failed rebuild keeps the old snapshot", func(t *testing.T) {
		m := newTestModel(&fakeIndexer{snapshot: testSnapshot(), buildErr: shared.ErrIncompleteSweep}, Options{})
		run(t, m, m.loadSnapshot())

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
		run(t, m, cmd)
		require.Equal(t, 25, m.snapshot.Total)
		require.True(t, strings.Contains(m.status, "Rebuild failed"))
	})
}

func TestNewModelOptions(t *testing.T) {
	t.Run("zero values use defaults", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeIndexer{}, Options{UIPageSize: -3})
		require.Equal(t, index.DefaultUIPageSize, m.opts.UIPageSize)
		require.NotNil(t, m.opts.Open)
	})

	t.Run("set values are kept", func(t *testing.T) {
		called := false
		m := NewModel(context.Background(), &fakeIndexer{}, Options{
			UIPageSize: 7,
			Open:       func(string) error { called = true; return nil },
		})
		require.Equal(t, 7, m.opts.UIPageSize)
		require.NoError(t, m.opts.Open("x"))
		require.True(t, called)
	})
}
