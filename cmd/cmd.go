// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// playCommand launches the interactive playback TUI.
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "play",
		Aliases: []string{"p", "tui"},
		Usage:   "Open a score in the interactive player",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "file",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "read-only",
				Usage: "Open without playback controls",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log file path while the TUI owns the terminal",
				Value: "./tmp/bandassist-tui.log",
			},
			&cli.FloatFlag{
				Name:  "tempo",
				Usage: "Simulator score tempo in BPM",
			},
			&cli.FloatFlag{
				Name:  "length",
				Usage: "Simulator score length in milliseconds",
			},
			&cli.StringFlag{
				Name:  "tracks",
				Usage: "Comma-separated simulator track names",
			},
		},
		Action: r.Play,
	}
}

// inspectCommand exports a score's track sheet without opening the player.
func inspectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "inspect",
		Aliases: []string{"i"},
		Usage:   "Print or export a score's track sheet",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "file",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: json, csv, md or txt",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default: stdout for json/txt, derived name for csv/md)",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
		},
		Action: r.Inspect,
	}
}

// setupCommand handles configuration bootstrap.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create and validate the configuration file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "show",
				Usage: "Print the resolved configuration",
			},
		},
		Action: r.Setup,
	}
}
