package player

import (
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/zazu-22/bandassist/internal/engine"
	"github.com/zazu-22/bandassist/internal/shared"
)

// intentState is a locally pending, not yet confirmed play/pause command.
type intentState int

const (
	intentNone intentState = iota
	intentPlay
	intentPause
)

// TrackInfo is the UI-visible mirror of one live engine track.
type TrackInfo struct {
	Name   string
	IsMute bool
	IsSolo bool
}

// Snapshot is the full observable state the host renders from. It is a value
// copy; the coordinator never hands out references to internal state.
type Snapshot struct {
	Loading      bool
	Err          string // user-visible error message, empty when healthy
	Tracks       []TrackInfo
	CurrentTrack int
	IsPlaying    bool // effective playing state: pending intent wins over confirmed
	PlayerReady  bool
	ReadOnly     bool

	CurrentTimeMs float64
	TotalTimeMs   float64

	IsLooping     bool
	LoopRange     *engine.PlaybackRange
	MetronomeBeat int // 1-4 while flashing, 0 when inactive

	OriginalTempo float64
	Speed         float64
	BPM           int
}

// Options wires a Coordinator to its collaborators. Factory is required;
// everything else has a sensible default.
type Options struct {
	Factory engine.Factory
	Config  shared.PlayerConfig
	Logger  *log.Logger

	// OnPlaybackChange fires on every confirmed playing-state transition.
	OnPlaybackChange func(isPlaying bool)
	// OnTracksLoaded fires once per successful load with the initial track set.
	OnTracksLoaded func(tracks []TrackInfo)
	// OnReady fires once per load when the player becomes interactive,
	// handing collaborators imperative access to the live engine.
	OnReady func(h engine.Engine)
	// OnUpdate fires after any observable state change with a fresh snapshot.
	OnUpdate func(s Snapshot)
}

// soloSnapshot records every track's mixer flags at the moment a solo was
// enabled, for diff-restore when it is disabled.
type soloSnapshot struct {
	mutes []bool
	solos []bool
}

// Coordinator owns one engine instance at a time and reconciles all playback
// state for it. Create with New, feed with Load, release with Close.
type Coordinator struct {
	mu sync.Mutex

	factory engine.Factory
	cfg     shared.PlayerConfig
	log     *log.Logger
	opts    Options

	eng         engine.Engine
	unsubscribe func()
	gen         int
	closed      bool
	session     string // per-load ID carried on log lines

	// lifecycle
	loading      bool
	errMsg       string
	readOnly     bool
	lastFile     string
	lastReadOnly bool
	loadTimer    *time.Timer
	readyTimer   *time.Timer
	playerReady  bool

	// intent
	intent       intentState
	confirmed    bool // last engine-confirmed playing flag
	lastExternal *bool
	retryTimer   *time.Timer

	// projection
	limiter     *rate.Limiter
	currentMs   float64
	totalMs     float64
	metroBeat   int
	metroTimers map[*time.Timer]struct{}
	pendingSel  *engine.BeatEvent
	loopRange   *engine.PlaybackRange
	isLooping   bool

	originalTempo float64
	speed         float64

	// mixer
	tracks       []TrackInfo
	currentTrack int
	solo         *soloSnapshot
}

// New creates a Coordinator. No engine exists until Load is called.
func New(opts Options) *Coordinator {
	opts.Config.Normalize()
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Coordinator{
		factory:     opts.Factory,
		cfg:         opts.Config,
		log:         opts.Logger,
		opts:        opts,
		speed:       1.0,
		limiter:     rate.NewLimiter(rate.Every(opts.Config.ThrottleWindow()), 1),
		metroTimers: make(map[*time.Timer]struct{}),
	}
}

// Snapshot returns a copy of the current observable state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	s := Snapshot{
		Loading:       c.loading,
		Err:           c.errMsg,
		CurrentTrack:  c.currentTrack,
		IsPlaying:     c.effectiveLocked(),
		PlayerReady:   c.playerReady,
		ReadOnly:      c.readOnly,
		CurrentTimeMs: c.currentMs,
		TotalTimeMs:   c.totalMs,
		IsLooping:     c.isLooping,
		MetronomeBeat: c.metroBeat,
		OriginalTempo: c.originalTempo,
		Speed:         c.speed,
		BPM:           deriveBPM(c.originalTempo, c.speed),
	}

	if c.loopRange != nil {
		r := *c.loopRange
		s.LoopRange = &r
	}
	if len(c.tracks) > 0 {
		s.Tracks = make([]TrackInfo, len(c.tracks))
		copy(s.Tracks, c.tracks)
	}

	return s
}

// Score returns the engine's live score graph, or nil while no score is
// loaded. Available as soon as the score loads, before the player becomes
// interactive, so read-only consumers can use it too. Callers must treat
// the graph as read-only; mutation belongs to the mixer methods.
func (c *Coordinator) Score() *engine.Score {
	c.mu.Lock()
	eng := c.eng
	c.mu.Unlock()

	if eng == nil {
		return nil
	}
	return eng.Score()
}

// effectiveLocked is the playing boolean the UI should trust: the pending
// intent's implied value when one exists, else the last confirmed state.
func (c *Coordinator) effectiveLocked() bool {
	switch c.intent {
	case intentPlay:
		return true
	case intentPause:
		return false
	default:
		return c.confirmed
	}
}

// deriveBPM recomputes BPM from tempo and speed; it is never stored.
func deriveBPM(originalTempo, speed float64) int {
	if originalTempo <= 0 {
		return 0
	}
	return int(math.Round(originalTempo * speed))
}

// publish sends a fresh snapshot to the OnUpdate observer, outside the lock.
func (c *Coordinator) publish() {
	if c.opts.OnUpdate == nil {
		return
	}
	c.opts.OnUpdate(c.Snapshot())
}

// notifyPlayback reports a confirmed playing-state transition, outside the lock.
func (c *Coordinator) notifyPlayback(playing bool) {
	if c.opts.OnPlaybackChange != nil {
		c.opts.OnPlaybackChange(playing)
	}
}

// stale reports whether the given generation no longer owns the coordinator.
// Callers hold c.mu.
func (c *Coordinator) stale(gen int) bool {
	return c.closed || gen != c.gen
}

// Close tears down the current engine and makes the coordinator inert.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.gen++
	c.cancelTimersLocked()
	unsub, eng := c.unsubscribe, c.eng
	c.unsubscribe, c.eng = nil, nil
	c.mu.Unlock()

	c.teardownEngine(unsub, eng)
}

// teardownEngine unregisters listeners before destroying the engine, so no
// callback fires against a half-destroyed instance. Destroy errors are
// logged and swallowed: teardown failure must never block the next lifecycle.
func (c *Coordinator) teardownEngine(unsub func(), eng engine.Engine) {
	if unsub != nil {
		unsub()
	}
	if eng != nil {
		if err := eng.Destroy(); err != nil {
			c.log.Warn("engine destroy failed", "error", err)
		}
	}
}

// cancelTimersLocked stops every deferred timer. Callers hold c.mu.
func (c *Coordinator) cancelTimersLocked() {
	if c.loadTimer != nil {
		c.loadTimer.Stop()
		c.loadTimer = nil
	}
	if c.readyTimer != nil {
		c.readyTimer.Stop()
		c.readyTimer = nil
	}
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	c.cancelMetronomeLocked()
}

// cancelMetronomeLocked clears the beat indicator and cancels every pending
// auto-clear in one pass. Callers hold c.mu.
func (c *Coordinator) cancelMetronomeLocked() {
	for t := range c.metroTimers {
		t.Stop()
	}
	c.metroTimers = make(map[*time.Timer]struct{})
	c.metroBeat = 0
}
