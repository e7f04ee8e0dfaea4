package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/zazu-22/bandassist/internal/player"
)

var (
	_ list.Item = trackItem{}
)

// trackItem wraps [player.TrackInfo] to implement [list.Item].
type trackItem struct {
	track   player.TrackInfo
	current bool
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string {
	name := i.track.Name
	if i.current {
		name = "▸ " + name
	}
	return name
}
func (i trackItem) Description() string {
	switch {
	case i.track.IsSolo:
		return "solo"
	case i.track.IsMute:
		return "muted"
	default:
		return "on"
	}
}
