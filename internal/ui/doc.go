// Package ui implements an interactive search over the local liked-songs index using bubbletea's
// Elm architecture.
//
// The TUI has two views:
//  1. [SearchView] : type to filter the snapshot; results show the Suno UI page of every hit
//  2. [BuildView] : monitor a full index rebuild page by page
//
// The (view) [Model] implements the standard Init/Update/View pattern, receiving messages via the
// [Msg] union type. Rebuild progress flows through a channel from the index builder so the sweep
// never blocks rendering.
//
// Enter opens the selected song in the browser, ctrl+r rebuilds the index and esc clears the
// query (or quits when it is already empty). Help is rendered with charmbracelet/bubbles/help.
package ui
