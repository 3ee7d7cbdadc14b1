// Package ui implements an interactive terminal viewer for a comparison using bubbletea's Elm architecture.
//
// The viewer has two views:
//  1. [ComparingView] : live progress while both libraries are fetched and reconciled
//  2. [ResultView] : the score and three browsable track lists (in common, only A, only B)
//
// The [Model] implements bubbletea's standard Init/Update/View pattern, receiving messages via the [Msg] union type.
// Progress updates flow through a channel from the comparison engine, so rendering never blocks the fetches.
//
// Keyboard navigation uses tab/shift+tab (or h/l) to switch lists, the list's own bindings to scroll and
// filter, and q to quit, with contextual help displayed via charmbracelet/bubbles/help.
package ui
