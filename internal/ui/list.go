package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/vibesync/internal/models"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.TrackRecord] to implement [list.Item].
type trackItem struct {
	track models.TrackRecord
}

func (i trackItem) FilterValue() string {
	return i.track.Name + " " + strings.Join(i.track.Artists, " ")
}

func (i trackItem) Title() string { return i.track.Name }

func (i trackItem) Description() string {
	desc := strings.Join(i.track.Artists, ", ")
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return desc
}

// newTrackList builds a list titled title over tracks.
func newTrackList(title string, tracks []models.TrackRecord, width, height int) list.Model {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}

	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = fmt.Sprintf("%s (%d)", title, len(tracks))
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	return l
}
