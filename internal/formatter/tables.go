package formatter

import (
	"fmt"
	"io"
	"time"

	"github.com/desertthunder/snx/internal/index"
	"github.com/desertthunder/snx/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
)

// NewTable creates a rounded table writer that renders to w.
func NewTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// RenderScores prints one row per handle with a column per stat. Failed lookups show "failed".
func RenderScores(w io.Writer, scores []models.HandleScore) {
	keys := StatKeys(scores)

	t := NewTable(w)
	header := table.Row{"Handle"}
	for _, k := range keys {
		header = append(header, k)
	}
	t.AppendHeader(header)

	for _, s := range scores {
		row := table.Row{s.Handle}
		if s.Stats == nil {
			row = append(row, "failed")
			t.AppendRow(row)
			continue
		}
		for _, k := range keys {
			row = append(row, FormatStat(s.Stats[k]))
		}
		t.AppendRow(row)
	}

	t.Render()
}

// RenderTrending prints the trending users search.
func RenderTrending(w io.Writer, users []models.TrendingUser) {
	t := NewTable(w)
	t.AppendHeader(table.Row{"Handle", "Display Name", "Followers", "Likes", "Clips", "Last Login"})
	for _, u := range users {
		t.AppendRow(table.Row{u.Handle, u.DisplayName, u.FollowersCount, u.LikesCount, u.ClipsCount, u.LastLogin})
	}
	t.AppendFooter(table.Row{"", "Total", len(users)})
	t.Render()
}

// RenderMatches prints index query results with the UI page each song is on.
func RenderMatches(w io.Writer, matches []index.Match) {
	t := NewTable(w)
	t.AppendHeader(table.Row{"#", "Title", "Page", "ID"})
	for _, m := range matches {
		t.AppendRow(table.Row{m.Position + 1, m.Title, m.Page + 1, m.ID})
	}
	t.Render()
}

// RenderSweeps prints recorded sweeps, newest first.
func RenderSweeps(w io.Writer, sweeps []*models.Sweep) {
	t := NewTable(w)
	t.AppendHeader(table.Row{"Seq", "Task", "Total", "Pages", "OK", "Failed", "Items", "Started", "Took", "Status"})
	for _, s := range sweeps {
		t.AppendRow(table.Row{
			s.Sequence(),
			s.Task(),
			s.TotalCount(),
			s.Pages(),
			s.PagesSucceeded(),
			s.PagesFailed(),
			s.ItemsCollected(),
			s.StartedAt().Local().Format(time.DateTime),
			s.Duration().Round(time.Millisecond),
			sweepStatus(s),
		})
	}
	t.Render()
}

func sweepStatus(s *models.Sweep) string {
	switch {
	case s.ErrorMessage() != "":
		return "error: " + s.ErrorMessage()
	case s.Stopped():
		return "stopped"
	case s.PagesFailed() > 0:
		return fmt.Sprintf("partial (%d failed)", s.PagesFailed())
	default:
		return "complete"
	}
}
