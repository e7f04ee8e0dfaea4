package player

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zazu-22/bandassist/internal/engine"
	"github.com/zazu-22/bandassist/internal/shared"
	tu "github.com/zazu-22/bandassist/internal/testing"
)

func TestLoad(t *testing.T) {
	t.Run("successful lifecycle", func(t *testing.T) {
		fake := tu.NewFakeEngine()
		c, obs, _ := newTestCoordinator(t, fake)

		loadScore(t, c, fake)

		s := c.Snapshot()
		if s.Loading {
			t.Error("loading indicator should be cleared")
		}
		if s.Err != "" {
			t.Errorf("unexpected error: %s", s.Err)
		}
		if len(s.Tracks) != 4 {
			t.Errorf("expected 4 tracks, got %d", len(s.Tracks))
		}
		if s.OriginalTempo != 120 {
			t.Errorf("expected original tempo 120, got %v", s.OriginalTempo)
		}
		if s.BPM != 120 {
			t.Errorf("expected BPM 120, got %d", s.BPM)
		}
		if obs.loads() != 1 {
			t.Errorf("expected one tracks-loaded notification, got %d", obs.loads())
		}

		tu.WaitUntil(t, func() bool { return obs.ready() == 1 }, "ready notification")
	})

	t.Run("empty score seeds tempo", func(t *testing.T) {
		fake := tu.NewFakeEngine()
		fake.ScoreValue = &engine.Score{Tempo: 120}
		c, _, _ := newTestCoordinator(t, fake)

		loadScore(t, c, fake)

		s := c.Snapshot()
		if s.Loading {
			t.Error("loading indicator should be cleared")
		}
		if len(s.Tracks) != 0 {
			t.Errorf("expected no tracks, got %d", len(s.Tracks))
		}
		if s.OriginalTempo != 120 || s.BPM != 120 {
			t.Errorf("expected tempo and BPM 120, got %v / %d", s.OriginalTempo, s.BPM)
		}
	})

	t.Run("read-only load completes at scoreLoaded", func(t *testing.T) {
		fake := tu.NewFakeEngine() // AutoLoad off: a player-less engine never reports ready
		c, obs, _ := newTestCoordinator(t, fake)

		uri := engine.EncodeDataURI("application/gp", []byte("score"))
		if err := c.Load(uri, true); err != nil {
			t.Fatalf("load failed: %v", err)
		}
		tu.WaitUntil(t, func() bool { return fake.LoadCount() == 1 }, "engine load")
		fake.EmitScoreLoaded()

		tu.WaitUntil(t, func() bool { return obs.loads() == 1 }, "tracks-loaded notification")

		s := c.Snapshot()
		if s.Loading {
			t.Error("loading indicator should be cleared at scoreLoaded")
		}
		if !s.ReadOnly {
			t.Error("expected read-only snapshot")
		}
		if s.PlayerReady {
			t.Error("a read-only load must not report player-ready")
		}
		if obs.ready() != 0 {
			t.Errorf("expected no ready notification, got %d", obs.ready())
		}

		score := c.Score()
		if score == nil {
			t.Fatal("score graph should be reachable once loaded")
		}
		if score.Title != "Test Song" || len(score.Tracks) != 4 {
			t.Errorf("unexpected score: %q with %d tracks", score.Title, len(score.Tracks))
		}
	})

	t.Run("malformed data is terminal", func(t *testing.T) {
		fake := tu.NewFakeEngine()
		c, _, factory := newTestCoordinator(t, fake)

		err := c.Load("invalid-data", false)
		if err == nil {
			t.Fatal("expected a decode error")
		}
		if !errors.Is(err, shared.ErrDataFormat) {
			t.Errorf("expected ErrDataFormat, got %v", err)
		}
		if !strings.Contains(err.Error(), "Could not convert Base64 to binary") {
			t.Errorf("expected conversion message, got %q", err.Error())
		}

		s := c.Snapshot()
		if s.Loading {
			t.Error("loading indicator should be cleared after a decode failure")
		}
		if !strings.Contains(s.Err, "Could not convert Base64 to binary") {
			t.Errorf("expected user-visible decode message, got %q", s.Err)
		}
		if factory.NewCount() != 0 {
			t.Error("decode failure must not reach engine construction")
		}
	})

	t.Run("library never available", func(t *testing.T) {
		fake := tu.NewFakeEngine()
		c, _, factory := newTestCoordinator(t, fake)
		factory.ReadyAfter = 100 // more false answers than the attempt budget

		uri := engine.EncodeDataURI("", []byte("score"))
		if err := c.Load(uri, false); err != nil {
			t.Fatalf("load failed: %v", err)
		}

		tu.WaitUntil(t, func() bool { return c.Snapshot().Err != "" }, "library load failure")

		s := c.Snapshot()
		if s.Loading {
			t.Error("loading indicator should be cleared")
		}
		if !strings.Contains(s.Err, "check your connection") {
			t.Errorf("expected connectivity advice, got %q", s.Err)
		}
	})

	t.Run("load timeout", func(t *testing.T) {
		fake := tu.NewFakeEngine() // AutoLoad off: scoreLoaded never fires
		c, _, _ := newTestCoordinator(t, fake)

		uri := engine.EncodeDataURI("", []byte("score"))
		if err := c.Load(uri, false); err != nil {
			t.Fatalf("load failed: %v", err)
		}

		tu.WaitUntil(t, func() bool { return c.Snapshot().Err != "" }, "load timeout")

		if !strings.Contains(c.Snapshot().Err, "took too long") {
			t.Errorf("expected timeout message, got %q", c.Snapshot().Err)
		}
	})

	t.Run("engine reported error", func(t *testing.T) {
		fake := tu.NewFakeEngine()
		c, _, _ := newTestCoordinator(t, fake)

		uri := engine.EncodeDataURI("", []byte("score"))
		if err := c.Load(uri, false); err != nil {
			t.Fatalf("load failed: %v", err)
		}

		tu.WaitUntil(t, func() bool { return fake.LoadCount() == 1 }, "engine load call")
		fake.EmitError(errors.New("unsupported format revision"))

		tu.WaitUntil(t, func() bool { return c.Snapshot().Err != "" }, "engine error surfaced")

		errMsg := c.Snapshot().Err
		if !strings.Contains(errMsg, "Failed to load score") || !strings.Contains(errMsg, "unsupported format revision") {
			t.Errorf("expected enriched engine error, got %q", errMsg)
		}
	})

	t.Run("reload destroys previous engine", func(t *testing.T) {
		fake := tu.NewFakeEngine()
		c, _, factory := newTestCoordinator(t, fake)

		loadScore(t, c, fake)
		loadScore(t, c, fake)

		if !fake.WasDestroyed() {
			t.Error("previous engine should be destroyed on reload")
		}
		if factory.NewCount() != 2 {
			t.Errorf("expected two engine constructions, got %d", factory.NewCount())
		}
	})

	t.Run("retry re-runs lifecycle", func(t *testing.T) {
		fake := tu.NewFakeEngine()
		c, _, factory := newTestCoordinator(t, fake)

		loadScore(t, c, fake)
		if err := c.Retry(); err != nil {
			t.Fatalf("retry failed: %v", err)
		}

		tu.WaitUntil(t, func() bool { return factory.NewCount() == 2 }, "second engine construction")
	})

	t.Run("retry without a file", func(t *testing.T) {
		fake := tu.NewFakeEngine()
		c, _, _ := newTestCoordinator(t, fake)

		if err := c.Retry(); !errors.Is(err, shared.ErrNoScore) {
			t.Errorf("expected ErrNoScore, got %v", err)
		}
	})

	t.Run("stale callbacks are no-ops after close", func(t *testing.T) {
		fake := tu.NewFakeEngine()
		c, obs, _ := newTestCoordinator(t, fake)

		loadScore(t, c, fake)
		c.Close()

		before := len(obs.playbackChanges())
		fake.EmitStateChange(engine.StateChange{State: engine.StatePlaying})
		fake.EmitFinished()
		fake.EmitMIDI([]engine.MIDIEvent{{Metronome: true, Numerator: 0, DurationMs: 100}})

		time.Sleep(10 * time.Millisecond)
		if got := len(obs.playbackChanges()); got != before {
			t.Errorf("stale callbacks mutated state: %d notifications after close", got-before)
		}
		if c.Snapshot().IsPlaying {
			t.Error("stale state change must not mark a closed coordinator playing")
		}
	})

	t.Run("load after close fails", func(t *testing.T) {
		fake := tu.NewFakeEngine()
		c, _, _ := newTestCoordinator(t, fake)

		c.Close()
		if err := c.Load(engine.EncodeDataURI("", []byte("x")), false); err == nil {
			t.Error("loading into a closed coordinator should fail")
		}
	})
}
