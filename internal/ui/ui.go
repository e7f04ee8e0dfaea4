package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zazu-22/bandassist/internal/player"
	"github.com/zazu-22/bandassist/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	ErrorView
	PlayerView
)

// seekStepMs is how far one arrow-key press moves the playback position.
const seekStepMs = 5000.0

// speedStep is the multiplier change per speed key press.
const speedStep = 0.05

// Model represents the TUI application state.
type Model struct {
	coordinator *player.Coordinator
	title       string
	view        ViewState
	width       int
	height      int
	snap        player.Snapshot
	snaps       <-chan player.Snapshot
	trackList   list.Model
	listReady   bool
	help        help.Model
	keys        keyMap
}

type snapshotMsg player.Snapshot

type snapshotsClosedMsg struct{}

// NewModel creates a new TUI model reading coordinator snapshots from snaps.
// The channel should be buffered and fed with a non-blocking send so the
// coordinator never stalls on a busy render loop.
func NewModel(coordinator *player.Coordinator, title string, snaps <-chan player.Snapshot) *Model {
	return &Model{
		coordinator: coordinator,
		title:       title,
		view:        LoadingView,
		snaps:       snaps,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init starts the snapshot pump.
func (m *Model) Init() tea.Cmd {
	return m.waitForSnapshot()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.listReady {
			m.trackList.SetSize(msg.Width-4, msg.Height-12)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoadingView:
			return m.handleLoadingKeys(msg)
		case ErrorView:
			return m.handleErrorKeys(msg)
		case PlayerView:
			return m.handlePlayerKeys(msg)
		}

	case snapshotMsg:
		m.applySnapshot(player.Snapshot(msg))
		return m, m.waitForSnapshot()

	case snapshotsClosedMsg:
		return m, tea.Quit
	}

	return m.updateList(msg)
}

// applySnapshot projects a fresh coordinator snapshot into view state.
func (m *Model) applySnapshot(s player.Snapshot) {
	m.snap = s

	switch {
	case s.Err != "":
		m.view = ErrorView
	case s.Loading:
		m.view = LoadingView
	default:
		m.view = PlayerView
	}

	if len(s.Tracks) == 0 {
		return
	}

	items := make([]list.Item, len(s.Tracks))
	for i, track := range s.Tracks {
		items[i] = trackItem{track: track, current: i == s.CurrentTrack}
	}

	if !m.listReady {
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = "Tracks"
		m.trackList.SetShowHelp(false)
		m.trackList.SetSize(m.width-4, m.height-12)
		m.listReady = true
		return
	}
	m.trackList.SetItems(items)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoadingView:
		return m.renderLoading()
	case ErrorView:
		return m.renderError()
	case PlayerView:
		return m.renderPlayer()
	default:
		return ""
	}
}

func (m *Model) handleLoadingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleErrorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.retry):
		if err := m.coordinator.Retry(); err == nil {
			m.view = LoadingView
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handlePlayerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.coordinator

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.playPause):
		c.TogglePlayback()
		return m, nil
	case key.Matches(msg, m.keys.stop):
		c.Stop()
		return m, nil
	case key.Matches(msg, m.keys.seekBack):
		return m.seekBy(-seekStepMs)
	case key.Matches(msg, m.keys.seekFwd):
		return m.seekBy(seekStepMs)
	case key.Matches(msg, m.keys.loop):
		c.SetLoopEnabled(!m.snap.IsLooping)
		return m, nil
	case key.Matches(msg, m.keys.mark):
		c.MarkLoopPoint()
		return m, nil
	case key.Matches(msg, m.keys.clearLoop):
		c.ClearLoopRange()
		return m, nil
	case key.Matches(msg, m.keys.faster):
		c.SetSpeed(m.snap.Speed + speedStep)
		return m, nil
	case key.Matches(msg, m.keys.slower):
		c.SetSpeed(m.snap.Speed - speedStep)
		return m, nil
	case key.Matches(msg, m.keys.reset):
		c.ResetTempo()
		return m, nil
	case key.Matches(msg, m.keys.sel):
		if m.listReady {
			c.SelectTrack(m.trackList.Index())
		}
		return m, nil
	case key.Matches(msg, m.keys.mute):
		if m.listReady {
			c.ToggleTrackMute(m.trackList.Index())
		}
		return m, nil
	case key.Matches(msg, m.keys.solo):
		if m.listReady {
			c.ToggleTrackSolo(m.trackList.Index())
		}
		return m, nil
	}

	return m.updateList(msg)
}

func (m *Model) seekBy(deltaMs float64) (tea.Model, tea.Cmd) {
	if m.snap.TotalTimeMs <= 0 {
		return m, nil
	}
	m.coordinator.SeekToFraction((m.snap.CurrentTimeMs + deltaMs) / m.snap.TotalTimeMs)
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !m.listReady {
		return m, nil
	}
	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		s, ok := <-m.snaps
		if !ok {
			return snapshotsClosedMsg{}
		}
		return snapshotMsg(s)
	}
}

func (m *Model) renderLoading() string {
	title := styles.title.Render(m.title)
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\nLoading score...\n\n%s", title, helpView)
}

func (m *Model) renderError() string {
	body := styles.err.Render(m.snap.Err)
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.retry, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", body, helpView)
}

func (m *Model) renderPlayer() string {
	title := styles.title.Render(m.title)
	transport := m.renderTransport()

	var tracks string
	if m.listReady {
		tracks = m.trackList.View()
	}

	helpKeys := []key.Binding{m.keys.playPause, m.keys.stop, m.keys.loop, m.keys.mute, m.keys.solo, m.keys.quit}
	if m.snap.ReadOnly {
		helpKeys = []key.Binding{m.keys.sel, m.keys.quit}
	}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, transport, tracks, helpView)
}

func (m *Model) renderTransport() string {
	s := m.snap

	if s.ReadOnly {
		return styles.warn.Render("read-only") + fmt.Sprintf("  %.0f BPM", s.OriginalTempo)
	}

	status := "⏸ paused"
	if s.IsPlaying {
		status = styles.ok.Render("▶ playing")
	}
	if !s.PlayerReady {
		status = styles.warn.Render("preparing...")
	}

	clock := fmt.Sprintf("%s / %s", shared.FormatClock(s.CurrentTimeMs), shared.FormatClock(s.TotalTimeMs))
	tempo := fmt.Sprintf("%d BPM (%.2fx)", s.BPM, s.Speed)

	var loop string
	if s.IsLooping {
		loop = "  loop on"
		if s.LoopRange != nil {
			loop = fmt.Sprintf("  loop %d-%d", s.LoopRange.StartTick, s.LoopRange.EndTick)
		}
	}

	var beat string
	if s.MetronomeBeat > 0 {
		beat = styles.ok.Render(fmt.Sprintf("  ● %d", s.MetronomeBeat))
	}

	return fmt.Sprintf("%s  %s  %s%s%s", status, clock, tempo, loop, beat)
}
