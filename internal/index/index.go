package index

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/antzucaro/matchr"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/snx/internal/fetch"
	"github.com/desertthunder/snx/internal/models"
	"github.com/desertthunder/snx/internal/shared"
)

// DefaultUIPageSize is the number of songs per page in the Suno playlist view.
const DefaultUIPageSize = 20

const (
	suggestThreshold = 0.85
	suggestLimit     = 5
)

// Source supplies the liked-playlist sweep.
type Source interface {
	Doer() fetch.Doer
	LikedSpec() fetch.PageSpec[models.IndexItem]
}

// Progress is reported after each page of a build.
type Progress struct {
	PagesDone int
	Items     int
}

// Match is a query hit. Page is the zero-based Suno UI page holding the song.
type Match struct {
	Position int    `json:"position"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	Page     int    `json:"page"`
}

// Index builds snapshots from a [Source] into a [Store].
type Index struct {
	store  Store
	source Source
	logger *log.Logger
	now    func() time.Time
}

// New creates an index.
func New(store Store, source Source, logger *log.Logger) *Index {
	if logger == nil {
		logger = log.Default()
	}
	return &Index{store: store, source: source, logger: logger, now: time.Now}
}

// Store returns the backing store.
func (ix *Index) Store() Store { return ix.store }

// Load returns the stored snapshot.
func (ix *Index) Load() (*models.Snapshot, error) { return ix.store.Load() }

// Clear removes the stored snapshot.
func (ix *Index) Clear() error { return ix.store.Clear() }

// Build sweeps the liked playlist and replaces the stored snapshot.
//
// The store is written only when every page succeeded; otherwise the previous snapshot is kept and
// the error wraps [shared.ErrIncompleteSweep]. The sweep result is returned in every case it exists.
func (ix *Index) Build(ctx context.Context, onProgress func(Progress)) (*models.Snapshot, *fetch.Result, error) {
	list := fetch.NewList[models.IndexItem]()
	spec := ix.source.LikedSpec()
	spec.Logger = ix.logger

	pages := 0
	spec.Each = func(_ context.Context, _ int, _ []models.IndexItem) error {
		pages++
		if onProgress != nil {
			onProgress(Progress{PagesDone: pages, Items: list.Len()})
		}
		return nil
	}

	result, err := fetch.Collect(ctx, ix.source.Doer(), list, spec)
	if err != nil {
		return nil, result, fmt.Errorf("index build failed: %w", err)
	}

	if !result.Complete() {
		ix.logger.Warn("index not replaced", "failed_pages", len(result.Failed), "pages", result.Pages)
		return nil, result, fmt.Errorf("%w: %d of %d pages failed, keeping previous index",
			shared.ErrIncompleteSweep, len(result.Failed), result.Pages)
	}

	snap := models.NewSnapshot(list.Items(), ix.now())
	if err := ix.store.Save(snap); err != nil {
		return nil, result, err
	}

	ix.logger.Info("index saved", "store", ix.store.Name(), "items", snap.Total)
	return snap, result, nil
}

// Query returns every item whose title contains q, ignoring case, in playlist order.
// A blank query matches nothing. A non-positive uiPageSize uses [DefaultUIPageSize].
func Query(snap *models.Snapshot, q string, uiPageSize int) []Match {
	q = strings.ToLower(strings.TrimSpace(q))
	if snap == nil || q == "" {
		return nil
	}
	if uiPageSize <= 0 {
		uiPageSize = DefaultUIPageSize
	}

	var matches []Match
	for i, item := range snap.Items {
		if strings.Contains(strings.ToLower(item.Title), q) {
			matches = append(matches, newMatch(i, item, uiPageSize))
		}
	}
	return matches
}

// Suggest returns up to five titles similar to q by Jaro-Winkler distance, best first.
// It is meant for queries that [Query] finds nothing for.
func Suggest(snap *models.Snapshot, q string, uiPageSize int) []Match {
	q = strings.ToLower(strings.TrimSpace(q))
	if snap == nil || q == "" {
		return nil
	}
	if uiPageSize <= 0 {
		uiPageSize = DefaultUIPageSize
	}

	type scored struct {
		match Match
		score float64
	}

	var hits []scored
	for i, item := range snap.Items {
		if score := similarity(q, strings.ToLower(item.Title)); score >= suggestThreshold {
			hits = append(hits, scored{match: newMatch(i, item, uiPageSize), score: score})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })

	matches := make([]Match, 0, min(len(hits), suggestLimit))
	for _, h := range hits[:min(len(hits), suggestLimit)] {
		matches = append(matches, h.match)
	}
	return matches
}

// similarity scores q against the whole title and each of its words.
func similarity(q, title string) float64 {
	best := matchr.JaroWinkler(q, title, false)
	for _, word := range strings.Fields(title) {
		best = max(best, matchr.JaroWinkler(q, word, false))
	}
	return best
}

func newMatch(i int, item models.IndexItem, uiPageSize int) Match {
	return Match{Position: i, ID: item.ID, Title: item.Title, Page: i / uiPageSize}
}
