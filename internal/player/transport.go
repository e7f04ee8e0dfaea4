package player

import (
	"time"

	"github.com/zazu-22/bandassist/internal/engine"
	"github.com/zazu-22/bandassist/internal/shared"
)

// metronomeClearFactor scales a metronome beat's duration into the flash
// window before the indicator auto-clears.
const metronomeClearFactor = 0.3

// onPositionChanged projects the engine's position stream into UI state,
// throttled by arrival time: bursts inside the window are dropped, never
// queued or averaged.
func (c *Coordinator) onPositionChanged(gen int, pc engine.PositionChange) {
	if !c.limiter.Allow() {
		return
	}

	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		return
	}
	c.currentMs = pc.CurrentTimeMs
	c.totalMs = pc.EndTimeMs
	c.mu.Unlock()

	c.publish()
}

// onMIDIEvents sets the one-indexed metronome beat and arms its auto-clear.
// Every armed timer lands in the tracked set so stop and teardown can cancel
// the lot.
func (c *Coordinator) onMIDIEvents(gen int, events []engine.MIDIEvent) {
	changed := false
	for _, ev := range events {
		if !ev.Metronome {
			continue
		}

		c.mu.Lock()
		if c.stale(gen) {
			c.mu.Unlock()
			return
		}
		c.metroBeat = ev.Numerator + 1
		clearAfter := time.Duration(ev.DurationMs * metronomeClearFactor * float64(time.Millisecond))
		var tm *time.Timer
		tm = time.AfterFunc(clearAfter, func() {
			c.clearMetronome(gen, tm)
		})
		c.metroTimers[tm] = struct{}{}
		c.mu.Unlock()
		changed = true
	}

	if changed {
		c.publish()
	}
}

func (c *Coordinator) clearMetronome(gen int, tm *time.Timer) {
	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		return
	}
	if _, tracked := c.metroTimers[tm]; !tracked {
		// Mass-cancelled by a stop or teardown while this callback was queued.
		c.mu.Unlock()
		return
	}
	delete(c.metroTimers, tm)
	c.metroBeat = 0
	c.mu.Unlock()

	c.publish()
}

// onBeatMouseDown implements the two-phase loop-range gesture. Only events
// carrying the range-select modifier participate; the engine handles plain
// clicks itself.
func (c *Coordinator) onBeatMouseDown(gen int, b engine.BeatEvent) {
	if !b.RangeSelect {
		return
	}

	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		return
	}

	if c.pendingSel == nil {
		sel := b
		c.pendingSel = &sel
		c.mu.Unlock()
		c.publish()
		return
	}

	first := *c.pendingSel
	c.pendingSel = nil

	start := min(first.StartTick, b.StartTick)
	end := max(first.StartTick+first.DurationTicks, b.StartTick+b.DurationTicks)
	rng := &engine.PlaybackRange{StartTick: start, EndTick: end}
	c.loopRange = rng
	eng := c.eng
	c.mu.Unlock()

	if eng != nil {
		eng.SetPlaybackRange(rng)
	}
	c.publish()
}

// MarkLoopPoint feeds the loop-range gesture from the current playback
// position, one beat long. Keyboard-only hosts use this where a notation
// view would deliver shift-clicked beats.
func (c *Coordinator) MarkLoopPoint() error {
	c.mu.Lock()
	if c.readOnly {
		c.mu.Unlock()
		return shared.ErrReadOnly
	}
	if c.eng == nil {
		c.mu.Unlock()
		return shared.ErrNoScore
	}
	gen := c.gen
	beatMs := 500.0
	if c.originalTempo > 0 {
		beatMs = 60_000 / (c.originalTempo * c.speed)
	}
	ev := engine.BeatEvent{
		StartTick:     int64(c.currentMs),
		DurationTicks: int64(beatMs),
		RangeSelect:   true,
	}
	c.mu.Unlock()

	c.onBeatMouseDown(gen, ev)
	return nil
}

// SeekToFraction positions playback at a fraction of the total time.
func (c *Coordinator) SeekToFraction(f float64) error {
	c.mu.Lock()
	if c.readOnly {
		c.mu.Unlock()
		return shared.ErrReadOnly
	}
	if c.eng == nil {
		c.mu.Unlock()
		return shared.ErrNoScore
	}
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	ms := f * c.totalMs
	c.currentMs = ms
	eng := c.eng
	c.mu.Unlock()

	eng.SetTimePosition(ms)
	c.publish()
	return nil
}

// SetLoopEnabled toggles the engine's loop flag.
func (c *Coordinator) SetLoopEnabled(enabled bool) error {
	c.mu.Lock()
	if c.readOnly {
		c.mu.Unlock()
		return shared.ErrReadOnly
	}
	if c.eng == nil {
		c.mu.Unlock()
		return shared.ErrNoScore
	}
	c.isLooping = enabled
	eng := c.eng
	c.mu.Unlock()

	eng.SetLooping(enabled)
	c.publish()
	return nil
}

// ClearLoopRange removes the loop range and any half-finished selection.
func (c *Coordinator) ClearLoopRange() error {
	c.mu.Lock()
	if c.readOnly {
		c.mu.Unlock()
		return shared.ErrReadOnly
	}
	c.loopRange = nil
	c.pendingSel = nil
	eng := c.eng
	c.mu.Unlock()

	if eng != nil {
		eng.SetPlaybackRange(nil)
	}
	c.publish()
	return nil
}

// SetSpeed applies a playback speed multiplier, clamped to the configured
// bounds. BPM is always re-derived from the original tempo, never stored.
func (c *Coordinator) SetSpeed(multiplier float64) error {
	c.mu.Lock()
	if c.readOnly {
		c.mu.Unlock()
		return shared.ErrReadOnly
	}
	if c.eng == nil {
		c.mu.Unlock()
		return shared.ErrNoScore
	}
	if multiplier < c.cfg.MinSpeed {
		multiplier = c.cfg.MinSpeed
	}
	if multiplier > c.cfg.MaxSpeed {
		multiplier = c.cfg.MaxSpeed
	}
	c.speed = multiplier
	eng := c.eng
	c.mu.Unlock()

	eng.SetPlaybackSpeed(multiplier)
	c.publish()
	return nil
}

// SetBPM converts a target BPM to a speed multiplier against the original
// tempo and applies it through SetSpeed.
func (c *Coordinator) SetBPM(bpm int) error {
	c.mu.Lock()
	tempo := c.originalTempo
	c.mu.Unlock()

	if tempo <= 0 {
		return shared.ErrNoScore
	}
	return c.SetSpeed(float64(bpm) / tempo)
}

// ResetTempo restores the score's original tempo.
func (c *Coordinator) ResetTempo() error {
	return c.SetSpeed(1.0)
}
