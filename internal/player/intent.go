package player

import (
	"time"

	"github.com/zazu-22/bandassist/internal/engine"
	"github.com/zazu-22/bandassist/internal/shared"
)

// TogglePlayback flips the effective playing state and issues the matching
// engine command. While a previous command is still pending confirmation the
// toggle is ignored, so the engine never sees overlapping play/pause calls.
func (c *Coordinator) TogglePlayback() error {
	c.mu.Lock()
	if c.readOnly {
		c.mu.Unlock()
		return shared.ErrReadOnly
	}
	if c.eng == nil {
		c.mu.Unlock()
		return shared.ErrNoScore
	}
	if c.intent != intentNone {
		c.mu.Unlock()
		c.log.Debug("toggle ignored, command already pending")
		return nil
	}

	desired := !c.effectiveLocked()
	if desired {
		c.intent = intentPlay
	} else {
		c.intent = intentPause
	}
	gen, eng := c.gen, c.eng
	c.mu.Unlock()

	c.publish()
	c.issue(gen, eng, desired)
	return nil
}

// SetExternalIntent feeds the externally controlled playback intent. The
// control is edge-triggered: only a change in the supplied boolean issues a
// command, and nil means "no opinion" and never issues anything by itself.
func (c *Coordinator) SetExternalIntent(intent *bool) error {
	c.mu.Lock()
	if c.readOnly {
		c.mu.Unlock()
		return shared.ErrReadOnly
	}

	if intent == nil {
		c.lastExternal = nil
		c.mu.Unlock()
		return nil
	}

	// Bail out before recording the value: an intent supplied while no
	// engine exists must still count as an edge once a score is loaded.
	if c.eng == nil {
		c.mu.Unlock()
		return shared.ErrNoScore
	}

	if c.lastExternal != nil && *c.lastExternal == *intent {
		c.mu.Unlock()
		return nil
	}
	desired := *intent
	c.lastExternal = &desired
	if desired == c.effectiveLocked() {
		c.mu.Unlock()
		return nil
	}
	if c.intent != intentNone {
		c.mu.Unlock()
		c.log.Debug("external intent ignored, command already pending")
		return nil
	}

	if desired {
		c.intent = intentPlay
	} else {
		c.intent = intentPause
	}
	gen, eng := c.gen, c.eng
	c.mu.Unlock()

	c.publish()
	c.issue(gen, eng, desired)
	return nil
}

// issue sends play or pause to the engine. A failure schedules exactly one
// retry after the configured delay; a second failure is permanent.
func (c *Coordinator) issue(gen int, eng engine.Engine, play bool) {
	err := c.command(eng, play)
	if err == nil {
		return
	}
	c.log.Warn("playback command failed, scheduling retry", "play", play, "error", err)

	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		return
	}
	c.retryTimer = time.AfterFunc(c.cfg.RetryDelay(), func() {
		c.retryCommand(gen, play)
	})
	c.mu.Unlock()
}

// retryCommand is the single automatic retry. If it fails too, the intent is
// abandoned and, for a failed play, the confirmed state is forced back to
// not-playing: never claim to be playing when the engine refused play twice.
func (c *Coordinator) retryCommand(gen int, play bool) {
	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		return
	}
	c.retryTimer = nil
	eng := c.eng
	c.mu.Unlock()

	err := c.command(eng, play)
	if err == nil {
		return
	}
	c.log.Error("playback command failed after retry, abandoning", "play", play, "error", err)

	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		return
	}
	c.intent = intentNone
	if play {
		c.confirmed = false
	}
	c.mu.Unlock()

	if play {
		c.notifyPlayback(false)
	}
	c.publish()
}

func (c *Coordinator) command(eng engine.Engine, play bool) error {
	if play {
		return eng.Play()
	}
	return eng.Pause()
}

// Stop halts playback and rewinds. The engine's stop primitive is only
// invoked when the confirmed state is playing; stopping a never-started
// engine is a documented engine failure mode. Local state is reset and the
// observer notified regardless.
func (c *Coordinator) Stop() error {
	c.mu.Lock()
	if c.readOnly {
		c.mu.Unlock()
		return shared.ErrReadOnly
	}

	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	c.intent = intentNone
	wasPlaying := c.confirmed
	c.confirmed = false
	c.currentMs = 0
	c.cancelMetronomeLocked()
	eng := c.eng
	c.mu.Unlock()

	if wasPlaying && eng != nil {
		if err := eng.Stop(); err != nil {
			c.log.Warn("engine stop failed", "error", err)
		}
	}

	c.notifyPlayback(false)
	c.publish()
	return nil
}

// onStateChanged consumes the engine's own confirmed transport transitions.
func (c *Coordinator) onStateChanged(gen int, sc engine.StateChange) {
	playing := sc.State == engine.StatePlaying

	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		return
	}
	c.confirmed = playing
	if (c.intent == intentPlay && playing) || (c.intent == intentPause && !playing) {
		c.intent = intentNone
	}
	if !playing {
		// A stale beat indicator must not survive a pause or stop.
		c.cancelMetronomeLocked()
	}
	if sc.Stopped {
		c.currentMs = 0
	}
	c.mu.Unlock()

	c.notifyPlayback(playing)
	c.publish()
}

// onPlayerFinished handles end-of-score. While the engine's loop flag is set
// the engine re-fires finished on every loop iteration, which must not be
// mistaken for real playback end.
func (c *Coordinator) onPlayerFinished(gen int) {
	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		return
	}
	if c.isLooping {
		c.mu.Unlock()
		return
	}
	c.confirmed = false
	if c.intent == intentPause {
		c.intent = intentNone
	}
	c.cancelMetronomeLocked()
	c.mu.Unlock()

	c.notifyPlayback(false)
	c.publish()
}
