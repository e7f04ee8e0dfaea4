// Package player implements the playback coordinator that sits between the
// opaque tablature engine and a host front end.
//
// # Responsibilities
//
// The [Coordinator] has four cooperating jobs:
//
//  1. Engine lifecycle: decode the score payload, poll the injected
//     [engine.Factory] until the backing library is available, construct the
//     engine, register the full listener batch, arm a load timeout, and tear
//     everything down again when the file changes or the coordinator closes.
//
//  2. Intent reconciliation: merge three sources of truth for "should be
//     playing" (the engine's asynchronous state events, an edge-triggered
//     external intent, and locally pending toggles) into one effective state,
//     with a single automatic retry for transient command failures.
//
//  3. Transport projection: turn high-frequency engine events into throttled
//     UI-ready state (clock, loop range, metronome beat, BPM).
//
//  4. Mixer control: mutate per-track mute/solo flags on the engine's live
//     score graph, mirror them into a fresh snapshot array, and implement
//     single-track-solo save/restore semantics.
//
// # Concurrency
//
// Engine callbacks arrive on arbitrary goroutines. The coordinator serializes
// all state behind one mutex and tags every lifecycle with a generation
// token: a callback registered against a previous engine instance that fires
// after teardown observes a stale generation and becomes a silent no-op.
// Observer callbacks are always invoked outside the lock. Every deferred
// timer (load timeout, command retry, ready grace, metronome auto-clears) is
// tracked and cancelled on teardown; the metronome timers live in an
// enumerable set so a stop cancels all of them in one pass.
package player
