package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/zazu-22/bandassist/internal/engine"
	"github.com/zazu-22/bandassist/internal/player"
	"github.com/zazu-22/bandassist/internal/shared"
	"github.com/zazu-22/bandassist/internal/ui"
)

// simBootDelay approximates the real notation library's asynchronous startup.
const simBootDelay = 300 * time.Millisecond

// Play opens a score in the interactive terminal player.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	config := r.loadOrCreateConfig(cmd.String("config"))

	uri, title, err := r.readScoreFile(cmd.StringArg("file"))
	if err != nil {
		return err
	}

	factory := r.factory
	if factory == nil || cmd.Float("tempo") > 0 || cmd.Float("length") > 0 || cmd.String("tracks") != "" {
		factory = engine.NewSimFactory(simBootDelay, engine.SimOptions{
			Title:    scoreTitle(title),
			Tempo:    cmd.Float("tempo"),
			LengthMs: cmd.Float("length"),
			Tracks:   splitTracks(cmd.String("tracks")),
		})
	}

	logPath := cmd.String("log-file")
	if !cmd.IsSet("log-file") && config.Log.File != "" {
		logPath = config.Log.File
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	snaps := make(chan player.Snapshot, 64)
	coordinator := player.New(player.Options{
		Factory: factory,
		Config:  config.Player,
		Logger:  fileLogger,
		OnUpdate: func(s player.Snapshot) {
			select {
			case snaps <- s:
			default:
			}
		},
	})
	defer coordinator.Close()

	if err := coordinator.Load(uri, cmd.Bool("read-only")); err != nil {
		return fmt.Errorf("failed to start score load: %w", err)
	}

	model := ui.NewModel(coordinator, scoreTitle(title), snaps)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// scoreTitle derives a display title from a score file path.
func scoreTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// splitTracks parses a comma separated track name list.
func splitTracks(raw string) []string {
	if raw == "" {
		return nil
	}

	var names []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
