package player

import (
	"io"
	"sync"
	"testing"

	"github.com/zazu-22/bandassist/internal/engine"
	"github.com/zazu-22/bandassist/internal/shared"
	tu "github.com/zazu-22/bandassist/internal/testing"
)

// testConfig shrinks every interval so tests run in milliseconds.
func testConfig() shared.PlayerConfig {
	return shared.PlayerConfig{
		LibraryPollInterval: 1,
		LibraryPollAttempts: 3,
		LoadTimeout:         150,
		CommandRetryDelay:   20,
		PositionThrottle:    50,
		ReadyGrace:          1,
		MinSpeed:            0.25,
		MaxSpeed:            2.0,
	}
}

// observer records every callback the coordinator fires.
type observer struct {
	mu           sync.Mutex
	playback     []bool
	tracksLoaded int
	readyCount   int
}

func (o *observer) onPlayback(playing bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.playback = append(o.playback, playing)
}

func (o *observer) playbackChanges() []bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]bool, len(o.playback))
	copy(out, o.playback)
	return out
}

func (o *observer) loads() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.tracksLoaded
}

func (o *observer) ready() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.readyCount
}

func newTestCoordinator(t *testing.T, fake *tu.FakeEngine) (*Coordinator, *observer, *tu.FakeFactory) {
	t.Helper()

	obs := &observer{}
	factory := tu.NewFakeFactory(fake)
	c := New(Options{
		Factory:          factory,
		Config:           testConfig(),
		Logger:           shared.NewLogger(io.Discard),
		OnPlaybackChange: obs.onPlayback,
		OnTracksLoaded: func([]TrackInfo) {
			obs.mu.Lock()
			obs.tracksLoaded++
			obs.mu.Unlock()
		},
		OnReady: func(engine.Engine) {
			obs.mu.Lock()
			obs.readyCount++
			obs.mu.Unlock()
		},
	})
	t.Cleanup(c.Close)

	return c, obs, factory
}

// loadScore runs a full successful lifecycle and waits for the player to
// become interactive.
func loadScore(t *testing.T, c *Coordinator, fake *tu.FakeEngine) {
	t.Helper()

	fake.AutoLoad = true
	uri := engine.EncodeDataURI("application/gp", []byte("score-bytes"))
	if err := c.Load(uri, false); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	tu.WaitUntil(t, func() bool {
		s := c.Snapshot()
		return !s.Loading && s.PlayerReady
	}, "score load and player ready")
}

// confirmPlaying drives the engine to a confirmed playing state.
func confirmPlaying(t *testing.T, c *Coordinator, fake *tu.FakeEngine) {
	t.Helper()

	if err := c.TogglePlayback(); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	fake.EmitStateChange(engine.StateChange{State: engine.StatePlaying})

	tu.WaitUntil(t, func() bool {
		return c.Snapshot().IsPlaying
	}, "confirmed playing state")
}
