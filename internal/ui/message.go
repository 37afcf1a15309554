package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/snx/internal/fetch"
	"github.com/desertthunder/snx/internal/index"
	"github.com/desertthunder/snx/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSnapshotLoaded MsgKind = iota
	MsgBuildProgress
	MsgBuildComplete
	MsgSongOpened
)

type snapshotResult struct {
	snapshot *models.Snapshot
	err      error
}

type buildResult struct {
	snapshot *models.Snapshot
	sweep    *fetch.Result
	err      error
}

type openResult struct {
	url string
	err error
}

// snapshotLoadedMsg is the constructor for [MsgSnapshotLoaded]
func snapshotLoadedMsg(snap *models.Snapshot, err error) Msg {
	return Msg{kind: MsgSnapshotLoaded, data: snapshotResult{snap, err}}
}

// buildProgressMsg is the constructor for [MsgBuildProgress]
func buildProgressMsg(p index.Progress) Msg {
	return Msg{kind: MsgBuildProgress, data: p}
}

// buildCompleteMsg is the constructor for [MsgBuildComplete]
func buildCompleteMsg(snap *models.Snapshot, sweep *fetch.Result, err error) Msg {
	return Msg{kind: MsgBuildComplete, data: buildResult{snap, sweep, err}}
}

// songOpenedMsg is the constructor for [MsgSongOpened]
func songOpenedMsg(url string, err error) Msg {
	return Msg{kind: MsgSongOpened, data: openResult{url, err}}
}
