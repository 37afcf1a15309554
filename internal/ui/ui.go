package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dario.cat/mergo"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/snx/internal/fetch"
	"github.com/desertthunder/snx/internal/index"
	"github.com/desertthunder/snx/internal/models"
	"github.com/desertthunder/snx/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SearchView ViewState = iota
	BuildView
)

// Indexer loads and rebuilds the liked-songs snapshot. [*index.Index] implements it.
type Indexer interface {
	Load() (*models.Snapshot, error)
	Build(ctx context.Context, onProgress func(index.Progress)) (*models.Snapshot, *fetch.Result, error)
}

var _ Indexer = (*index.Index)(nil)

// Options configures a [Model].
type Options struct {
	UIPageSize int                    // songs per Suno UI page; [index.DefaultUIPageSize] when zero
	Open       func(url string) error // opens a song page; [shared.OpenBrowser] when nil
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	indexer      Indexer
	opts         Options
	width        int
	height       int
	snapshot     *models.Snapshot
	input        textinput.Model
	results      list.Model
	matches      []index.Match
	suggesting   bool
	progressChan chan index.Progress
	progress     index.Progress
	buildDone    chan buildResult
	lastSweep    *fetch.Result
	status       string
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model over indexer.
func NewModel(ctx context.Context, indexer Indexer, opts Options) *Model {
	opts.UIPageSize = max(opts.UIPageSize, 0)
	// both sides are Options, so Merge cannot fail
	_ = mergo.Merge(&opts, Options{UIPageSize: index.DefaultUIPageSize, Open: shared.OpenBrowser})

	input := textinput.New()
	input.Placeholder = "search liked songs"
	input.Prompt = "/ "
	input.Focus()

	results := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	results.Title = "Matches"
	results.SetFilteringEnabled(false)
	results.SetShowHelp(false)

	return &Model{
		ctx:     ctx,
		view:    SearchView,
		indexer: indexer,
		opts:    opts,
		input:   input,
		results: results,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init loads the stored snapshot.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadSnapshot())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.results.SetSize(msg.Width-4, max(msg.Height-10, 3))
		return m, nil

	case tea.KeyMsg:
		if m.view == BuildView {
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}
		return m.handleSearchKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSnapshotLoaded:
		data := msg.data.(snapshotResult)
		switch {
		case errors.Is(data.err, shared.ErrSnapshotNotFound):
			m.status = "No index yet. Press ctrl+r to build one."
		case data.err != nil:
			m.err = data.err
		default:
			m.snapshot = data.snapshot
			m.status = ""
		}
		return m, m.refresh()

	case MsgBuildProgress:
		m.progress = msg.data.(index.Progress)
		return m, m.waitForBuild()

	case MsgBuildComplete:
		data := msg.data.(buildResult)
		m.view = SearchView
		m.progressChan = nil
		m.buildDone = nil
		m.lastSweep = data.sweep
		if data.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Rebuild failed: %v", data.err))
			return m, nil
		}
		m.snapshot = data.snapshot
		m.status = styles.ok.Render(fmt.Sprintf("✓ Indexed %d songs", data.snapshot.Total))
		return m, m.refresh()

	case MsgSongOpened:
		data := msg.data.(openResult)
		if data.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Could not open %s: %v", data.url, data.err))
		} else {
			m.status = "Opened " + data.url
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.clear):
		if m.input.Value() == "" {
			return m, tea.Quit
		}
		m.input.SetValue("")
		return m, m.refresh()
	case key.Matches(msg, m.keys.rebuild):
		return m, m.startBuild()
	case key.Matches(msg, m.keys.open):
		return m, m.openSelected()
	case key.Matches(msg, m.keys.up), key.Matches(msg, m.keys.down):
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		return m, tea.Batch(cmd, m.refresh())
	}
	return m, cmd
}

// refresh recomputes the result list from the query.
func (m *Model) refresh() tea.Cmd {
	q := m.input.Value()
	m.matches = index.Query(m.snapshot, q, m.opts.UIPageSize)
	m.suggesting = false
	if len(m.matches) == 0 {
		if suggestions := index.Suggest(m.snapshot, q, m.opts.UIPageSize); len(suggestions) > 0 {
			m.matches = suggestions
			m.suggesting = true
		}
	}
	m.results.ResetSelected()
	return m.results.SetItems(matchItems(m.matches, m.suggesting))
}

// LastSweep returns the sweep of the most recent rebuild, if any.
func (m *Model) LastSweep() *fetch.Result { return m.lastSweep }

// Selected returns the highlighted match.
func (m *Model) Selected() (index.Match, bool) {
	i := m.results.Index()
	if i < 0 || i >= len(m.matches) {
		return index.Match{}, false
	}
	return m.matches[i], true
}

func (m *Model) openSelected() tea.Cmd {
	match, ok := m.Selected()
	if !ok {
		return nil
	}
	url := shared.SongURL(match.ID)
	open := m.opts.Open
	return func() tea.Msg {
		return songOpenedMsg(url, open(url))
	}
}

func (m *Model) loadSnapshot() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.indexer.Load()
		return snapshotLoadedMsg(snap, err)
	}
}

func (m *Model) startBuild() tea.Cmd {
	if m.progressChan != nil {
		return nil
	}

	m.view = BuildView
	m.progress = index.Progress{}
	progress := make(chan index.Progress, 50)
	m.progressChan = progress

	done := make(chan buildResult, 1)
	go func() {
		snap, sweep, err := m.indexer.Build(m.ctx, func(p index.Progress) {
			select {
			case progress <- p:
			default:
			}
		})
		done <- buildResult{snap, sweep, err}
		close(progress)
	}()

	m.buildDone = done
	return m.waitForBuild()
}

func (m *Model) waitForBuild() tea.Cmd {
	progress, done := m.progressChan, m.buildDone
	return func() tea.Msg {
		if progress != nil {
			if p, ok := <-progress; ok {
				return buildProgressMsg(p)
			}
		}
		res := <-done
		return buildCompleteMsg(res.snapshot, res.sweep, res.err)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress ctrl+c to quit", m.err))
	}

	switch m.view {
	case BuildView:
		return m.renderBuild()
	default:
		return m.renderSearch()
	}
}

func (m *Model) renderSearch() string {
	var b strings.Builder

	title := "snx • liked songs"
	if m.snapshot != nil {
		title = fmt.Sprintf("%s • %d songs • indexed %s", title, m.snapshot.Total, m.snapshot.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case strings.TrimSpace(m.input.Value()) == "":
	case len(m.matches) == 0:
		b.WriteString(styles.warn.Render("No matches"))
		b.WriteString("\n")
	default:
		if m.suggesting {
			b.WriteString(styles.warn.Render("No exact matches, closest titles:"))
			b.WriteString("\n")
		}
		b.WriteString(m.results.View())
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.status)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.help.Render(m.help.View(m.keys)))
	return b.String()
}

func (m *Model) renderBuild() string {
	title := styles.title.Render("Rebuilding index")
	line := fmt.Sprintf("Pages collected: %d\nSongs so far: %d", m.progress.PagesDone, m.progress.Items)
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, line, helpView)
}
