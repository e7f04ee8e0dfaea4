package engine

import (
	"fmt"
	"sync"
	"time"
)

// SimOptions shapes the score the simulator fabricates for any payload.
type SimOptions struct {
	Title    string
	Artist   string
	Tempo    float64  // BPM, defaults to 120
	LengthMs float64  // Score length, defaults to 60s
	Tracks   []string // Track names, defaults to a standard band lineup
}

func (o *SimOptions) normalize() {
	if o.Tempo <= 0 {
		o.Tempo = 120
	}
	if o.LengthMs <= 0 {
		o.LengthMs = 60_000
	}
	if len(o.Tracks) == 0 {
		o.Tracks = []string{"Lead Guitar", "Rhythm Guitar", "Bass", "Drums"}
	}
	if o.Title == "" {
		o.Title = "Untitled"
	}
}

// SimFactory produces [Sim] engines. It reports ready only after a fixed
// delay from construction, exercising the coordinator's availability poll the
// same way the real library's asynchronous bootstrap does.
type SimFactory struct {
	readyAt time.Time
	sim     SimOptions
}

var _ Factory = (*SimFactory)(nil)

// NewSimFactory creates a factory that becomes ready after readyAfter.
func NewSimFactory(readyAfter time.Duration, sim SimOptions) *SimFactory {
	sim.normalize()
	return &SimFactory{readyAt: time.Now().Add(readyAfter), sim: sim}
}

func (f *SimFactory) Ready() bool {
	return !time.Now().Before(f.readyAt)
}

func (f *SimFactory) New(opts Options) (Engine, error) {
	if !f.Ready() {
		return nil, fmt.Errorf("simulator library not ready")
	}
	return newSim(opts, f.sim), nil
}

// Sim is a wall-clock reference engine. Its tick resolution is one tick per
// millisecond, so playback ranges and positions share a unit.
type Sim struct {
	mu      sync.Mutex
	opts    Options
	simOpts SimOptions

	subs    map[int]Handlers
	nextSub int

	score     *Score
	loaded    bool
	destroyed bool

	playing  bool
	started  bool // ever played; Stop before first Play is an error
	posMs    float64
	speed    float64
	looping  bool
	rng      *PlaybackRange
	lastBeat int

	stopCh chan struct{}
}

var _ Engine = (*Sim)(nil)

const simTickInterval = 25 * time.Millisecond

func newSim(opts Options, sim SimOptions) *Sim {
	return &Sim{
		opts:     opts,
		simOpts:  sim,
		subs:     make(map[int]Handlers),
		speed:    1.0,
		lastBeat: -1,
	}
}

// handlers returns a snapshot of subscriptions so events fire outside the lock.
func (s *Sim) handlers() []Handlers {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Handlers, 0, len(s.subs))
	for _, h := range s.subs {
		out = append(out, h)
	}
	return out
}

func (s *Sim) Subscribe(h Handlers) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = h
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Sim) Load(data []byte) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return fmt.Errorf("engine destroyed")
	}

	tracks := make([]*Track, len(s.simOpts.Tracks))
	for i, name := range s.simOpts.Tracks {
		tracks[i] = &Track{Index: i, Name: name}
	}
	s.score = &Score{
		Title:  s.simOpts.Title,
		Artist: s.simOpts.Artist,
		Tempo:  s.simOpts.Tempo,
		Tracks: tracks,
	}
	s.loaded = true
	score := s.score
	playerEnabled := s.opts.EnablePlayer
	s.mu.Unlock()

	go func() {
		for _, h := range s.handlers() {
			if h.ScoreLoaded != nil {
				h.ScoreLoaded(score)
			}
		}
		s.emitRenderPass()
		if playerEnabled {
			for _, h := range s.handlers() {
				if h.PlayerReady != nil {
					h.PlayerReady()
				}
			}
		}
	}()

	return nil
}

func (s *Sim) emitRenderPass() {
	for _, h := range s.handlers() {
		if h.RenderStarted != nil {
			h.RenderStarted()
		}
	}
	for _, h := range s.handlers() {
		if h.RenderFinished != nil {
			h.RenderFinished()
		}
	}
}

func (s *Sim) Play() error {
	s.mu.Lock()
	if s.destroyed || !s.loaded {
		s.mu.Unlock()
		return fmt.Errorf("no score loaded")
	}
	if !s.opts.EnablePlayer {
		s.mu.Unlock()
		return fmt.Errorf("player subsystem disabled")
	}
	if s.playing {
		s.mu.Unlock()
		return nil
	}
	s.playing = true
	s.started = true
	s.stopCh = make(chan struct{})
	stop := s.stopCh
	s.mu.Unlock()

	go s.run(stop)
	s.emitState(StateChange{State: StatePlaying})
	return nil
}

func (s *Sim) Pause() error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return fmt.Errorf("engine destroyed")
	}
	if !s.playing {
		s.mu.Unlock()
		return nil
	}
	s.haltLocked()
	s.mu.Unlock()

	s.emitState(StateChange{State: StatePaused})
	return nil
}

func (s *Sim) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("cannot stop a player that was never started")
	}
	s.haltLocked()
	s.posMs = 0
	s.lastBeat = -1
	length := s.simOpts.LengthMs
	s.mu.Unlock()

	s.emitState(StateChange{State: StatePaused, Stopped: true})
	s.emitPosition(PositionChange{CurrentTimeMs: 0, EndTimeMs: length})
	return nil
}

// haltLocked stops the run loop. Callers hold s.mu.
func (s *Sim) haltLocked() {
	s.playing = false
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
}

func (s *Sim) run(stop chan struct{}) {
	ticker := time.NewTicker(simTickInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now
			if s.advance(float64(elapsed.Milliseconds())) {
				return
			}
		}
	}
}

// advance moves the transport and emits events. Returns true when playback
// ended and the loop should exit.
func (s *Sim) advance(elapsedMs float64) bool {
	s.mu.Lock()
	if !s.playing {
		s.mu.Unlock()
		return true
	}

	s.posMs += elapsedMs * s.speed
	length := s.simOpts.LengthMs
	beatMs := 60_000 / s.simOpts.Tempo

	var finished, ended bool
	if s.looping && s.rng != nil && s.posMs >= float64(s.rng.EndTick) {
		s.posMs = float64(s.rng.StartTick)
		finished = true
	} else if s.posMs >= length {
		finished = true
		if s.looping {
			s.posMs = 0
			s.lastBeat = -1
		} else {
			s.posMs = length
			ended = true
			s.haltLocked()
		}
	}

	var beat = -1
	if idx := int(s.posMs / beatMs); idx != s.lastBeat && !ended {
		s.lastBeat = idx
		beat = idx % 4
	}

	pos := PositionChange{CurrentTimeMs: s.posMs, EndTimeMs: length}
	s.mu.Unlock()

	s.emitPosition(pos)
	if beat >= 0 {
		events := []MIDIEvent{{Metronome: true, Numerator: beat, DurationMs: beatMs}}
		for _, h := range s.handlers() {
			if h.MIDIEventsPlayed != nil {
				h.MIDIEventsPlayed(events)
			}
		}
	}
	if finished {
		for _, h := range s.handlers() {
			if h.PlayerFinished != nil {
				h.PlayerFinished()
			}
		}
	}
	if ended {
		s.emitState(StateChange{State: StatePaused, Stopped: true})
	}
	return ended
}

func (s *Sim) emitState(sc StateChange) {
	for _, h := range s.handlers() {
		if h.PlayerStateChanged != nil {
			h.PlayerStateChanged(sc)
		}
	}
}

func (s *Sim) emitPosition(pc PositionChange) {
	for _, h := range s.handlers() {
		if h.PlayerPositionChanged != nil {
			h.PlayerPositionChanged(pc)
		}
	}
}

// ClickBeat synthesizes a beatMouseDown event at the current playback
// position, one beat long. Terminal hosts use this in place of mouse input.
func (s *Sim) ClickBeat(rangeSelect bool) {
	s.mu.Lock()
	beatMs := 60_000 / s.simOpts.Tempo
	ev := BeatEvent{
		StartTick:     int64(s.posMs),
		DurationTicks: int64(beatMs),
		RangeSelect:   rangeSelect,
	}
	s.mu.Unlock()

	for _, h := range s.handlers() {
		if h.BeatMouseDown != nil {
			h.BeatMouseDown(ev)
		}
	}
}

func (s *Sim) SetPlaybackSpeed(multiplier float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if multiplier > 0 {
		s.speed = multiplier
	}
}

func (s *Sim) SetTimePosition(ms float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ms < 0 {
		ms = 0
	}
	if ms > s.simOpts.LengthMs {
		ms = s.simOpts.LengthMs
	}
	s.posMs = ms
	s.lastBeat = -1
}

func (s *Sim) SetLooping(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.looping = enabled
}

func (s *Sim) SetPlaybackRange(r *PlaybackRange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = r
}

func (s *Sim) PlaybackRange() *PlaybackRange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng
}

func (s *Sim) Score() *Score {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

func (s *Sim) RenderTracks(tracks []*Track) error {
	s.mu.Lock()
	if s.destroyed || s.score == nil {
		s.mu.Unlock()
		return fmt.Errorf("no score loaded")
	}
	s.mu.Unlock()

	go s.emitRenderPass()
	return nil
}

func (s *Sim) ChangeTrackMute(tracks []*Track, mute bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tracks {
		t.Playback.IsMute = mute
	}
}

func (s *Sim) ChangeTrackSolo(tracks []*Track, solo bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tracks {
		t.Playback.IsSolo = solo
	}
}

func (s *Sim) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.haltLocked()
	s.destroyed = true
	s.subs = make(map[int]Handlers)
	return nil
}
