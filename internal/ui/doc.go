// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a three-view playback session:
//  1. [LoadingView] : Engine bootstrap and score load progress
//  2. [ErrorView] : Terminal load failures with a retry affordance
//  3. [PlayerView] : Transport controls, tempo, loop range and the track mixer
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Coordinator state flows through a buffered snapshot channel, so engine callbacks
// never block on the render loop.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, m, o, space, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
