package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	playPause key.Binding
	stop      key.Binding
	seekBack  key.Binding
	seekFwd   key.Binding
	loop      key.Binding
	mark      key.Binding
	clearLoop key.Binding
	faster    key.Binding
	slower    key.Binding
	reset     key.Binding
	up        key.Binding
	down      key.Binding
	sel       key.Binding
	mute      key.Binding
	solo      key.Binding
	retry     key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		playPause: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		stop:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		seekBack:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "seek back")),
		seekFwd:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "seek forward")),
		loop:      key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "loop on/off")),
		mark:      key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "mark loop point")),
		clearLoop: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear loop range")),
		faster:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "faster")),
		slower:    key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "slower")),
		reset:     key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "original tempo")),
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		sel:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "view track")),
		mute:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute track")),
		solo:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "solo track")),
		retry:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.playPause, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.playPause, k.stop, k.seekBack, k.seekFwd},
		{k.loop, k.mark, k.clearLoop, k.faster, k.slower, k.reset},
		{k.up, k.down, k.sel, k.mute, k.solo},
		{k.retry, k.quit},
	}
}
