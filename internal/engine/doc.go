// Package engine defines the capability boundary for the external tablature
// engine: the library that parses a binary score, renders notation, and owns
// the audio playback clock.
//
// # Capability Interface
//
// The [Engine] interface models the engine as a polymorphic capability set
// (load, transport, mixer, event channels) rather than a concrete type, so any
// conforming implementation, including the test doubles in internal/testing,
// can sit behind the playback coordinator.
//
// # Event Channels
//
// The engine exposes a fixed set of named event channels. Listeners are
// registered in one batch via [Engine.Subscribe], which accepts a [Handlers]
// struct with one optional callback per channel and returns a single
// idempotent unregister-all closure. Callbacks may arrive on any goroutine;
// consumers are responsible for their own serialization.
//
// # Factory Injection
//
// The original application discovered the engine through an ambient global
// populated by a separately loaded script. Here discovery is explicit: a
// [Factory] is injected at construction time and reports availability through
// [Factory.Ready], preserving the poll-until-available bootstrap behavior.
//
// # Simulator
//
// [Sim] is a self-driving reference implementation backed by the wall clock.
// It fabricates a score from any payload, advances the transport on a ticker,
// and emits metronome events on every beat, which makes the CLI host runnable
// without the real rendering library and lets integration tests exercise the
// full coordinator.
package engine
