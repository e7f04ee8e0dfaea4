package engine

// LayoutMode selects how the engine lays out rendered notation.
type LayoutMode int

const (
	LayoutPage LayoutMode = iota
	LayoutHorizontal
)

// PlayerState enumerates the engine's own notion of transport state.
type PlayerState int

const (
	StatePaused PlayerState = iota
	StatePlaying
)

// Options configures a single engine instance at construction time.
type Options struct {
	EnableWorkers bool       // Run parsing/rendering off the caller's goroutine
	EnablePlayer  bool       // Enable the audio player subsystem
	Layout        LayoutMode // Fixed notation layout
}

// PlaybackInfo holds the mutable per-track mixer flags on the live score graph.
type PlaybackInfo struct {
	IsMute bool
	IsSolo bool
}

// Track is one track of the loaded score. The engine owns the instance; the
// coordinator mutates Playback in place and the engine observes the change.
type Track struct {
	Index    int
	Name     string
	Playback PlaybackInfo
}

// Score is the engine's live object graph for one loaded file.
type Score struct {
	Title  string
	Artist string
	Tempo  float64 // Score tempo in BPM
	Tracks []*Track
}

// PlaybackRange bounds looped playback to a tick window on the score.
type PlaybackRange struct {
	StartTick int64
	EndTick   int64
}

// StateChange is the payload of the playerStateChanged channel.
type StateChange struct {
	State   PlayerState
	Stopped bool // True when the transition was a full stop, not a pause
}

// PositionChange is the payload of the playerPositionChanged channel.
type PositionChange struct {
	CurrentTimeMs float64
	EndTimeMs     float64
}

// BeatEvent is the payload of the beatMouseDown channel.
type BeatEvent struct {
	StartTick     int64
	DurationTicks int64
	RangeSelect   bool // The originating UI event carried the range-select modifier
}

// MIDIEvent is one synthesizer event from the midiEventsPlayed channel.
// Only metronome events carry a meaningful numerator and duration.
type MIDIEvent struct {
	Metronome  bool
	Numerator  int     // Zero-indexed beat within the bar
	DurationMs float64 // Duration of the metronome beat in milliseconds
}

// Handlers carries one optional callback per named event channel. Nil fields
// are simply never invoked.
type Handlers struct {
	ScoreLoaded           func(*Score)
	Error                 func(error)
	PlayerStateChanged    func(StateChange)
	PlayerReady           func()
	RenderStarted         func()
	RenderFinished        func()
	PlayerPositionChanged func(PositionChange)
	PlayerFinished        func()
	BeatMouseDown         func(BeatEvent)
	MIDIEventsPlayed      func([]MIDIEvent)
}

// Engine is the opaque tablature engine capability set. One instance owns one
// loaded file; callers destroy and recreate it to change files.
//
// All callbacks registered through Subscribe may fire on arbitrary goroutines.
type Engine interface {
	// Load parses the given score bytes. Completion is signalled through the
	// scoreLoaded or error channels, not the return value, which only reports
	// immediate rejection.
	Load(data []byte) error

	Play() error
	Pause() error
	// Stop halts playback and rewinds. Calling Stop on an engine that has
	// never started playing is a documented failure mode and returns an error.
	Stop() error

	SetPlaybackSpeed(multiplier float64)
	SetTimePosition(ms float64)
	SetLooping(enabled bool)
	SetPlaybackRange(r *PlaybackRange)
	PlaybackRange() *PlaybackRange

	// Score returns the live score graph, or nil before scoreLoaded fires.
	Score() *Score

	// RenderTracks re-renders notation for exactly the given tracks.
	RenderTracks(tracks []*Track) error
	ChangeTrackMute(tracks []*Track, mute bool)
	ChangeTrackSolo(tracks []*Track, solo bool)

	// Subscribe registers the full listener batch and returns an idempotent
	// closure that unregisters all of them.
	Subscribe(h Handlers) (unsubscribe func())

	// Destroy tears the instance down. The instance must not be used after
	// Destroy returns, though late callbacks may still be in flight.
	Destroy() error
}

// Factory creates engine instances once the backing library is available.
//
// Ready reports whether the library has finished bootstrapping; callers poll
// it rather than blocking.
type Factory interface {
	Ready() bool
	New(opts Options) (Engine, error)
}
