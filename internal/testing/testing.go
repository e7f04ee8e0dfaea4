// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/zazu-22/bandassist/internal/engine"
)

// FlagChange records one mute/solo primitive invocation.
type FlagChange struct {
	Tracks []*engine.Track
	Value  bool
}

// FakeEngine is a fully controllable test double for [engine.Engine]. All
// event emission is synchronous and driven by the test through the Emit
// helpers, so ordering is deterministic. Configure the exported fields
// before handing the fake to a coordinator; read results back through the
// locked accessors.
type FakeEngine struct {
	mu      sync.Mutex
	subs    map[int]engine.Handlers
	nextSub int

	ScoreValue *engine.Score

	// AutoLoad makes Load emit scoreLoaded and playerReady synchronously.
	AutoLoad bool
	// AutoConfirm makes Play/Pause emit the matching state change synchronously.
	AutoConfirm bool

	// Per-call error queues; an exhausted queue means success.
	PlayErrs  []error
	PauseErrs []error
	StopErr   error
	LoadErr   error

	playCalls  int
	pauseCalls int
	stopCalls  int
	loadCalls  int

	speed     float64
	position  float64
	looping   bool
	rng       *engine.PlaybackRange
	rendered  [][]*engine.Track
	destroyed bool

	muteLog []FlagChange
	soloLog []FlagChange
}

var _ engine.Engine = (*FakeEngine)(nil)

// NewFakeEngine creates a fake with a standard four-track score at 120 BPM.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{
		subs: make(map[int]engine.Handlers),
		ScoreValue: &engine.Score{
			Title: "Test Song",
			Tempo: 120,
			Tracks: []*engine.Track{
				{Index: 0, Name: "Lead Guitar"},
				{Index: 1, Name: "Rhythm Guitar"},
				{Index: 2, Name: "Bass"},
				{Index: 3, Name: "Drums"},
			},
		},
	}
}

func (f *FakeEngine) handlers() []engine.Handlers {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]engine.Handlers, 0, len(f.subs))
	for _, h := range f.subs {
		out = append(out, h)
	}
	return out
}

func (f *FakeEngine) Subscribe(h engine.Handlers) func() {
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = h
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func pop(queue *[]error) error {
	if len(*queue) == 0 {
		return nil
	}
	err := (*queue)[0]
	*queue = (*queue)[1:]
	return err
}

func (f *FakeEngine) Load(data []byte) error {
	f.mu.Lock()
	f.loadCalls++
	err := f.LoadErr
	auto := f.AutoLoad
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if auto {
		f.EmitScoreLoaded()
		f.EmitPlayerReady()
	}
	return nil
}

func (f *FakeEngine) Play() error {
	f.mu.Lock()
	f.playCalls++
	err := pop(&f.PlayErrs)
	auto := f.AutoConfirm
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if auto {
		f.EmitStateChange(engine.StateChange{State: engine.StatePlaying})
	}
	return nil
}

func (f *FakeEngine) Pause() error {
	f.mu.Lock()
	f.pauseCalls++
	err := pop(&f.PauseErrs)
	auto := f.AutoConfirm
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if auto {
		f.EmitStateChange(engine.StateChange{State: engine.StatePaused})
	}
	return nil
}

func (f *FakeEngine) Stop() error {
	f.mu.Lock()
	f.stopCalls++
	err := f.StopErr
	f.mu.Unlock()
	return err
}

func (f *FakeEngine) SetPlaybackSpeed(m float64) { f.mu.Lock(); f.speed = m; f.mu.Unlock() }
func (f *FakeEngine) SetTimePosition(ms float64) { f.mu.Lock(); f.position = ms; f.mu.Unlock() }
func (f *FakeEngine) SetLooping(on bool)         { f.mu.Lock(); f.looping = on; f.mu.Unlock() }

func (f *FakeEngine) SetPlaybackRange(r *engine.PlaybackRange) {
	f.mu.Lock()
	f.rng = r
	f.mu.Unlock()
}

func (f *FakeEngine) PlaybackRange() *engine.PlaybackRange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rng
}

func (f *FakeEngine) Score() *engine.Score {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ScoreValue
}

func (f *FakeEngine) RenderTracks(tracks []*engine.Track) error {
	f.mu.Lock()
	f.rendered = append(f.rendered, tracks)
	f.mu.Unlock()
	return nil
}

func (f *FakeEngine) ChangeTrackMute(tracks []*engine.Track, mute bool) {
	f.mu.Lock()
	f.muteLog = append(f.muteLog, FlagChange{Tracks: tracks, Value: mute})
	f.mu.Unlock()
}

func (f *FakeEngine) ChangeTrackSolo(tracks []*engine.Track, solo bool) {
	f.mu.Lock()
	f.soloLog = append(f.soloLog, FlagChange{Tracks: tracks, Value: solo})
	f.mu.Unlock()
}

func (f *FakeEngine) Destroy() error {
	f.mu.Lock()
	f.destroyed = true
	f.mu.Unlock()
	return nil
}

// Locked accessors for inspecting calls from test goroutines.

func (f *FakeEngine) PlayCount() int  { f.mu.Lock(); defer f.mu.Unlock(); return f.playCalls }
func (f *FakeEngine) PauseCount() int { f.mu.Lock(); defer f.mu.Unlock(); return f.pauseCalls }
func (f *FakeEngine) StopCount() int  { f.mu.Lock(); defer f.mu.Unlock(); return f.stopCalls }
func (f *FakeEngine) LoadCount() int  { f.mu.Lock(); defer f.mu.Unlock(); return f.loadCalls }

func (f *FakeEngine) WasDestroyed() bool { f.mu.Lock(); defer f.mu.Unlock(); return f.destroyed }
func (f *FakeEngine) LastSpeed() float64 { f.mu.Lock(); defer f.mu.Unlock(); return f.speed }
func (f *FakeEngine) LastPosition() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position
}
func (f *FakeEngine) IsLooping() bool { f.mu.Lock(); defer f.mu.Unlock(); return f.looping }

func (f *FakeEngine) MuteLog() []FlagChange {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FlagChange, len(f.muteLog))
	copy(out, f.muteLog)
	return out
}

func (f *FakeEngine) SoloLog() []FlagChange {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FlagChange, len(f.soloLog))
	copy(out, f.soloLog)
	return out
}

func (f *FakeEngine) RenderLog() [][]*engine.Track {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]*engine.Track, len(f.rendered))
	copy(out, f.rendered)
	return out
}

// Emit helpers fire the corresponding channel on every subscriber.

func (f *FakeEngine) EmitScoreLoaded() {
	score := f.Score()
	for _, h := range f.handlers() {
		if h.ScoreLoaded != nil {
			h.ScoreLoaded(score)
		}
	}
}

func (f *FakeEngine) EmitPlayerReady() {
	for _, h := range f.handlers() {
		if h.PlayerReady != nil {
			h.PlayerReady()
		}
	}
}

func (f *FakeEngine) EmitError(err error) {
	for _, h := range f.handlers() {
		if h.Error != nil {
			h.Error(err)
		}
	}
}

func (f *FakeEngine) EmitStateChange(sc engine.StateChange) {
	for _, h := range f.handlers() {
		if h.PlayerStateChanged != nil {
			h.PlayerStateChanged(sc)
		}
	}
}

func (f *FakeEngine) EmitFinished() {
	for _, h := range f.handlers() {
		if h.PlayerFinished != nil {
			h.PlayerFinished()
		}
	}
}

func (f *FakeEngine) EmitPosition(pc engine.PositionChange) {
	for _, h := range f.handlers() {
		if h.PlayerPositionChanged != nil {
			h.PlayerPositionChanged(pc)
		}
	}
}

func (f *FakeEngine) EmitBeat(b engine.BeatEvent) {
	for _, h := range f.handlers() {
		if h.BeatMouseDown != nil {
			h.BeatMouseDown(b)
		}
	}
}

func (f *FakeEngine) EmitMIDI(events []engine.MIDIEvent) {
	for _, h := range f.handlers() {
		if h.MIDIEventsPlayed != nil {
			h.MIDIEventsPlayed(events)
		}
	}
}

// FakeFactory is a test double for [engine.Factory] that hands out one
// prepared FakeEngine and can simulate a slow library bootstrap.
type FakeFactory struct {
	mu         sync.Mutex
	Engine     *FakeEngine
	NewErr     error
	ReadyAfter int // number of Ready calls that report false first
	newCalls   int
	readyCalls int
}

var _ engine.Factory = (*FakeFactory)(nil)

func NewFakeFactory(eng *FakeEngine) *FakeFactory {
	return &FakeFactory{Engine: eng}
}

func (f *FakeFactory) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readyCalls++
	return f.readyCalls > f.ReadyAfter
}

func (f *FakeFactory) New(opts engine.Options) (engine.Engine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newCalls++
	if f.NewErr != nil {
		return nil, f.NewErr
	}
	return f.Engine, nil
}

// NewCount returns how many engines the factory has constructed.
func (f *FakeFactory) NewCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.newCalls
}

// WaitUntil polls cond every 2ms and fails the test if it does not hold
// within 2 seconds.
func WaitUntil(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition never held: %s", msg)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

var _ io.Writer = (*FWriter)(nil)
