package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/tasks"
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
	MsgProgressUpdate MsgKind = iota
	MsgCompareComplete
)

type compareOutcome struct {
	result *models.ComparisonResult
	err    error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// compareCompleteMsg is the constructor for [MsgCompareComplete]
func compareCompleteMsg(result *models.ComparisonResult, err error) Msg {
	return Msg{kind: MsgCompareComplete, data: compareOutcome{result, err}}
}
