package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/zazu-22/bandassist/internal/engine"
	"github.com/zazu-22/bandassist/internal/formatter"
	"github.com/zazu-22/bandassist/internal/player"
	"github.com/zazu-22/bandassist/internal/shared"
)

// trackSheet is the JSON shape of the inspect output.
type trackSheet struct {
	Title  string       `json:"title"`
	Artist string       `json:"artist,omitempty"`
	Tempo  float64      `json:"tempo"`
	Tracks []sheetTrack `json:"tracks"`
}

type sheetTrack struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Muted  bool   `json:"muted"`
	Soloed bool   `json:"soloed"`
}

// Inspect loads a score read-only and exports its track sheet.
func (r *Runner) Inspect(ctx context.Context, cmd *cli.Command) error {
	config := r.loadOrCreateConfig(cmd.String("config"))

	uri, title, err := r.readScoreFile(cmd.StringArg("file"))
	if err != nil {
		return err
	}

	factory := r.factory
	if factory == nil {
		factory = engine.NewSimFactory(0, engine.SimOptions{Title: scoreTitle(title)})
	}

	loaded := make(chan struct{}, 1)
	coordinator := player.New(player.Options{
		Factory: factory,
		Config:  config.Player,
		Logger:  r.logger,
		OnTracksLoaded: func([]player.TrackInfo) {
			select {
			case loaded <- struct{}{}:
			default:
			}
		},
	})
	defer coordinator.Close()

	// Inspection never plays anything, so the read-only path is enough.
	// A read-only lifecycle skips the player subsystem and therefore never
	// reports player-ready; the score graph is complete at scoreLoaded.
	if err := coordinator.Load(uri, true); err != nil {
		return fmt.Errorf("failed to start score load: %w", err)
	}

	score, err := r.awaitScore(ctx, coordinator, loaded, config.Player)
	if err != nil {
		return err
	}

	return r.exportScore(score, cmd.String("format"), cmd.String("output"), cmd.Bool("pretty"))
}

func (r *Runner) awaitScore(ctx context.Context, coordinator *player.Coordinator, loaded <-chan struct{}, cfg shared.PlayerConfig) (*engine.Score, error) {
	budget := cfg.LoadTimeoutDuration() +
		time.Duration(cfg.LibraryPollAttempts)*cfg.PollInterval()
	deadline := time.Now().Add(budget)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-loaded:
			score := coordinator.Score()
			if score == nil {
				return nil, shared.ErrNoScore
			}
			return score, nil
		case <-time.After(10 * time.Millisecond):
			if s := coordinator.Snapshot(); s.Err != "" {
				return nil, fmt.Errorf("%w: %s", shared.ErrEngineReported, s.Err)
			}
			if time.Now().After(deadline) {
				return nil, shared.ErrLoadTimeout
			}
		}
	}
}

func (r *Runner) exportScore(score *engine.Score, format, output string, pretty bool) error {
	switch format {
	case "json":
		sheet := trackSheet{
			Title:  score.Title,
			Artist: score.Artist,
			Tempo:  score.Tempo,
			Tracks: make([]sheetTrack, len(score.Tracks)),
		}
		for i, track := range score.Tracks {
			sheet.Tracks[i] = sheetTrack{
				Index:  track.Index,
				Name:   track.Name,
				Muted:  track.Playback.IsMute,
				Soloed: track.Playback.IsSolo,
			}
		}
		return r.writeJSON(sheet, pretty)

	case "csv":
		result, err := formatter.WriteCSVExport(score, output)
		if err != nil {
			return err
		}
		r.logger.Info("exported CSV", "tracks", result.TracksFile, "metadata", result.MetadataFile)
		fmt.Fprintf(r.output, "%s\n%s\n", result.TracksFile, result.MetadataFile)
		return nil

	case "md", "markdown":
		mdFile, err := formatter.WriteMarkdownExport(score, output)
		if err != nil {
			return err
		}
		r.logger.Info("exported Markdown", "file", mdFile)
		fmt.Fprintf(r.output, "%s\n", mdFile)
		return nil

	case "txt", "text":
		if output == "" {
			data, err := formatter.ExportToText(score)
			if err != nil {
				return err
			}
			_, err = r.output.Write(data)
			return err
		}
		path, err := formatter.WriteTextExport(score, output)
		if err != nil {
			return err
		}
		r.logger.Info("exported text", "file", path)
		fmt.Fprintf(r.output, "%s\n", path)
		return nil

	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}
