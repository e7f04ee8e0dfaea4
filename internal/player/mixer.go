package player

import (
	"github.com/zazu-22/bandassist/internal/engine"
	"github.com/zazu-22/bandassist/internal/shared"
)

// refreshTracksLocked re-derives the UI track array from the engine's live
// graph. The live objects stay authoritative; the UI always observes a fresh
// array so in-place mutations become visible. Callers hold c.mu.
func (c *Coordinator) refreshTracksLocked() {
	if c.eng == nil {
		c.tracks = nil
		return
	}
	score := c.eng.Score()
	if score == nil {
		c.tracks = nil
		return
	}

	tracks := make([]TrackInfo, len(score.Tracks))
	for i, t := range score.Tracks {
		tracks[i] = TrackInfo{
			Name:   t.Name,
			IsMute: t.Playback.IsMute,
			IsSolo: t.Playback.IsSolo,
		}
	}
	c.tracks = tracks
}

// trackLocked validates the index against the live score graph. Callers hold c.mu.
func (c *Coordinator) trackLocked(index int) (*engine.Track, error) {
	if c.eng == nil {
		return nil, shared.ErrNoScore
	}
	score := c.eng.Score()
	if score == nil {
		return nil, shared.ErrNoScore
	}
	if index < 0 || index >= len(score.Tracks) {
		return nil, shared.ErrTrackIndex
	}
	return score.Tracks[index], nil
}

// ToggleTrackMute flips the track's live mute flag and mirrors the change
// into UI state. A mute toggled while a solo snapshot is outstanding also
// updates the snapshot's record for that track, so the later diff-restore
// never clobbers a deliberate mid-solo change.
func (c *Coordinator) ToggleTrackMute(index int) error {
	c.mu.Lock()
	if c.readOnly {
		c.mu.Unlock()
		return shared.ErrReadOnly
	}
	track, err := c.trackLocked(index)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	mute := !track.Playback.IsMute
	track.Playback.IsMute = mute
	if c.solo != nil && index < len(c.solo.mutes) {
		c.solo.mutes[index] = mute
	}
	eng := c.eng
	c.mu.Unlock()

	eng.ChangeTrackMute([]*engine.Track{track}, mute)

	c.mu.Lock()
	c.refreshTracksLocked()
	c.mu.Unlock()

	c.publish()
	return nil
}

// ToggleTrackSolo enables or disables solo on one track.
//
// Enabling captures a snapshot of every track's mixer flags. Only one
// snapshot may exist at a time: enabling solo on a second track while one is
// outstanding is rejected rather than merging snapshots. Disabling restores,
// per track, only the mute flags that differ from the snapshot, then
// discards it.
func (c *Coordinator) ToggleTrackSolo(index int) error {
	c.mu.Lock()
	if c.readOnly {
		c.mu.Unlock()
		return shared.ErrReadOnly
	}
	track, err := c.trackLocked(index)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	if !track.Playback.IsSolo {
		if c.solo != nil {
			c.mu.Unlock()
			c.log.Warn("solo already active on another track, ignoring", "track", index)
			return nil
		}
		c.enableSolo(index, track)
		return nil
	}

	c.disableSolo(track)
	return nil
}

// enableSolo is entered with c.mu held and releases it before touching the engine.
func (c *Coordinator) enableSolo(index int, track *engine.Track) {
	score := c.eng.Score()
	snap := &soloSnapshot{
		mutes: make([]bool, len(score.Tracks)),
		solos: make([]bool, len(score.Tracks)),
	}
	for i, t := range score.Tracks {
		snap.mutes[i] = t.Playback.IsMute
		snap.solos[i] = t.Playback.IsSolo
	}
	c.solo = snap

	track.Playback.IsSolo = true
	eng := c.eng
	c.mu.Unlock()

	eng.ChangeTrackSolo([]*engine.Track{track}, true)

	c.mu.Lock()
	c.refreshTracksLocked()
	c.mu.Unlock()

	c.publish()
}

// disableSolo is entered with c.mu held and releases it before touching the engine.
func (c *Coordinator) disableSolo(track *engine.Track) {
	track.Playback.IsSolo = false
	snap := c.solo
	c.solo = nil
	score := c.eng.Score()
	eng := c.eng
	c.mu.Unlock()

	eng.ChangeTrackSolo([]*engine.Track{track}, false)

	if snap != nil {
		for i, t := range score.Tracks {
			if i >= len(snap.mutes) {
				break
			}
			if t.Playback.IsMute != snap.mutes[i] {
				t.Playback.IsMute = snap.mutes[i]
				eng.ChangeTrackMute([]*engine.Track{t}, snap.mutes[i])
			}
		}
	}

	c.mu.Lock()
	c.refreshTracksLocked()
	c.mu.Unlock()

	c.publish()
}

// SelectTrack re-renders notation for exactly one track and records it as
// current. Playback state is untouched, so this works in read-only mode too.
func (c *Coordinator) SelectTrack(index int) error {
	c.mu.Lock()
	track, err := c.trackLocked(index)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.currentTrack = index
	eng := c.eng
	c.mu.Unlock()

	if err := eng.RenderTracks([]*engine.Track{track}); err != nil {
		c.log.Warn("track render failed", "track", index, "error", err)
	}

	c.publish()
	return nil
}
