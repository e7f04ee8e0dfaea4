package player

import (
	"fmt"
	"time"

	"github.com/zazu-22/bandassist/internal/engine"
	"github.com/zazu-22/bandassist/internal/shared"
)

// Load runs the full engine lifecycle for a new score payload: decode, wait
// for the engine library, construct, subscribe, load. Any previous engine is
// torn down first. fileData is a Base64 data URI.
//
// Load returns immediately after the decode step; the rest of the lifecycle
// completes asynchronously and reports through the observer callbacks.
func (c *Coordinator) Load(fileData string, readOnly bool) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("coordinator closed")
	}

	c.gen++
	gen := c.gen
	c.session = shared.GenerateID()
	c.lastFile = fileData
	c.lastReadOnly = readOnly
	c.cancelTimersLocked()
	unsub, old := c.unsubscribe, c.eng
	c.unsubscribe, c.eng = nil, nil
	c.resetLocked(readOnly)
	log := shared.WithLogger(c.log, "session", c.session)
	c.mu.Unlock()

	c.teardownEngine(unsub, old)

	data, err := engine.DecodeDataURI(fileData)
	if err != nil {
		log.Error("score decode failed", "error", err)
		c.fail(gen, err.Error())
		return err
	}

	log.Info("score decoded", "bytes", len(data), "read_only", readOnly)
	go c.bootstrap(gen, data, readOnly)
	return nil
}

// Retry re-runs the entire lifecycle for the last supplied payload, from
// decode onward. Used by the host's "retry loading" action after a terminal
// error.
func (c *Coordinator) Retry() error {
	c.mu.Lock()
	file, readOnly := c.lastFile, c.lastReadOnly
	c.mu.Unlock()

	if file == "" {
		return shared.ErrNoScore
	}
	return c.Load(file, readOnly)
}

// resetLocked clears all per-load state. Callers hold c.mu.
func (c *Coordinator) resetLocked(readOnly bool) {
	c.loading = true
	c.errMsg = ""
	c.readOnly = readOnly
	c.playerReady = false
	c.intent = intentNone
	c.confirmed = false
	c.lastExternal = nil
	c.currentMs = 0
	c.totalMs = 0
	c.metroBeat = 0
	c.pendingSel = nil
	c.loopRange = nil
	c.isLooping = false
	c.originalTempo = 0
	c.speed = 1.0
	c.tracks = nil
	c.currentTrack = 0
	c.solo = nil
}

// bootstrap polls the factory until the engine library is available, then
// constructs the engine and issues the load. Runs on its own goroutine.
func (c *Coordinator) bootstrap(gen int, data []byte, readOnly bool) {
	interval := c.cfg.PollInterval()
	available := false
	for attempt := 0; attempt < c.cfg.LibraryPollAttempts; attempt++ {
		if c.factory.Ready() {
			available = true
			break
		}
		time.Sleep(interval)

		c.mu.Lock()
		lost := c.stale(gen)
		c.mu.Unlock()
		if lost {
			return
		}
	}

	if !available {
		c.log.Error("engine library never became available",
			"attempts", c.cfg.LibraryPollAttempts, "interval", interval)
		c.fail(gen, "The tablature engine failed to load. Please check your connection and retry.")
		return
	}

	eng, err := c.factory.New(engine.Options{
		EnableWorkers: true,
		EnablePlayer:  !readOnly,
		Layout:        engine.LayoutPage,
	})
	if err != nil {
		c.fail(gen, fmt.Sprintf("Failed to initialize the tablature engine: %v", err))
		return
	}

	unsub := eng.Subscribe(c.handlers(gen))

	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		c.teardownEngine(unsub, eng)
		return
	}
	c.eng = eng
	c.unsubscribe = unsub
	c.loadTimer = time.AfterFunc(c.cfg.LoadTimeoutDuration(), func() {
		c.onLoadTimeout(gen)
	})
	c.mu.Unlock()

	if err := eng.Load(data); err != nil {
		c.fail(gen, fmt.Sprintf("Failed to load score: %v", err))
	}
}

// handlers builds the full listener batch for one engine generation. Every
// handler re-checks the generation before touching state, so callbacks from a
// torn-down instance are silent no-ops.
func (c *Coordinator) handlers(gen int) engine.Handlers {
	return engine.Handlers{
		ScoreLoaded:           func(s *engine.Score) { c.onScoreLoaded(gen, s) },
		Error:                 func(err error) { c.onEngineError(gen, err) },
		PlayerStateChanged:    func(sc engine.StateChange) { c.onStateChanged(gen, sc) },
		PlayerReady:           func() { c.onPlayerReady(gen) },
		PlayerPositionChanged: func(pc engine.PositionChange) { c.onPositionChanged(gen, pc) },
		PlayerFinished:        func() { c.onPlayerFinished(gen) },
		BeatMouseDown:         func(b engine.BeatEvent) { c.onBeatMouseDown(gen, b) },
		MIDIEventsPlayed:      func(evs []engine.MIDIEvent) { c.onMIDIEvents(gen, evs) },
	}
}

// fail records a terminal, user-visible lifecycle error and stops the
// loading indicator. The coordinator stays alive for a later Retry.
func (c *Coordinator) fail(gen int, msg string) {
	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		return
	}
	c.loading = false
	c.errMsg = msg
	if c.loadTimer != nil {
		c.loadTimer.Stop()
		c.loadTimer = nil
	}
	c.mu.Unlock()

	c.publish()
}

func (c *Coordinator) onLoadTimeout(gen int) {
	c.log.Error("score load timed out", "timeout", c.cfg.LoadTimeoutDuration())
	c.fail(gen, "Loading the score took too long. Please retry.")
}

func (c *Coordinator) onScoreLoaded(gen int, score *engine.Score) {
	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		return
	}
	if c.loadTimer != nil {
		c.loadTimer.Stop()
		c.loadTimer = nil
	}
	c.loading = false
	c.errMsg = ""
	if score != nil {
		c.originalTempo = score.Tempo
	}
	c.speed = 1.0
	c.refreshTracksLocked()
	tempo := c.originalTempo
	tracks := make([]TrackInfo, len(c.tracks))
	copy(tracks, c.tracks)
	c.mu.Unlock()

	c.log.Info("score loaded", "tracks", len(tracks), "tempo", tempo)
	if c.opts.OnTracksLoaded != nil {
		c.opts.OnTracksLoaded(tracks)
	}
	c.publish()
}

func (c *Coordinator) onEngineError(gen int, err error) {
	detail := "unknown engine error"
	if err != nil {
		detail = err.Error()
	}
	c.log.Error("engine reported an error", "error", detail)
	c.fail(gen, fmt.Sprintf("Failed to load score: %s", detail))
}

// onPlayerReady arms the grace timer between the engine reporting ready and
// the UI treating the player as interactive, letting the audio subsystem
// settle.
func (c *Coordinator) onPlayerReady(gen int) {
	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		return
	}
	c.readyTimer = time.AfterFunc(c.cfg.ReadyGraceDuration(), func() {
		c.onReadyGraceElapsed(gen)
	})
	c.mu.Unlock()
}

func (c *Coordinator) onReadyGraceElapsed(gen int) {
	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		return
	}
	c.readyTimer = nil
	c.playerReady = true
	eng := c.eng
	c.mu.Unlock()

	if c.opts.OnReady != nil {
		c.opts.OnReady(eng)
	}
	c.publish()
}
