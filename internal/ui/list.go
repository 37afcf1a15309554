package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/snx/internal/index"
)

var _ list.Item = matchItem{}

// matchItem wraps [index.Match] to implement [list.Item].
type matchItem struct {
	match      index.Match
	suggestion bool
}

func (i matchItem) FilterValue() string { return i.match.Title }
func (i matchItem) Title() string {
	if i.match.Title == "" {
		return "(untitled)"
	}
	return i.match.Title
}
func (i matchItem) Description() string {
	desc := fmt.Sprintf("#%d • page %d • %s", i.match.Position+1, i.match.Page+1, i.match.ID)
	if i.suggestion {
		desc = "did you mean • " + desc
	}
	return desc
}

func matchItems(matches []index.Match, suggestion bool) []list.Item {
	items := make([]list.Item, len(matches))
	for i, m := range matches {
		items[i] = matchItem{match: m, suggestion: suggestion}
	}
	return items
}
