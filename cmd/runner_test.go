package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zazu-22/bandassist/internal/engine"
	"github.com/zazu-22/bandassist/internal/shared"
	tu "github.com/zazu-22/bandassist/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			factory := engine.NewSimFactory(0, engine.SimOptions{})

			runner := NewRunner(RunnerOpts{
				Config:  config,
				Logger:  logger,
				Output:  output,
				Factory: factory,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.factory != factory {
				t.Error("expected factory to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("register returns all commands", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) != 3 {
			t.Fatalf("expected 3 commands, got %d", len(commands))
		}

		names := map[string]bool{}
		for _, cmd := range commands {
			names[cmd.Name] = true
		}
		for _, want := range []string{"play", "inspect", "setup"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("compact output", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"tracks": 4}, false); err != nil {
				t.Fatalf("writeJSON failed: %v", err)
			}
			if got := output.String(); got != "{\"tracks\":4}\n" {
				t.Errorf("unexpected output: %q", got)
			}
		})

		t.Run("pretty output", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"tracks": 4}, true); err != nil {
				t.Fatalf("writeJSON failed: %v", err)
			}
			if !strings.Contains(output.String(), "\n  ") {
				t.Errorf("expected indented output, got %q", output.String())
			}
		})

		t.Run("failing writer surfaces the error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writeJSON(map[string]int{"tracks": 4}, false); err == nil {
				t.Error("expected an error from a failing writer")
			}
		})
	})

	t.Run("readScoreFile", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})

		t.Run("empty path fabricates a demo payload", func(t *testing.T) {
			uri, title, err := runner.readScoreFile("")
			if err != nil {
				t.Fatalf("readScoreFile failed: %v", err)
			}
			if title != "Demo Score" {
				t.Errorf("unexpected title: %s", title)
			}
			if _, err := engine.DecodeDataURI(uri); err != nil {
				t.Errorf("demo payload not decodable: %v", err)
			}
		})

		t.Run("reads and encodes a file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "song.gp")
			if err := os.WriteFile(path, []byte("score-bytes"), 0644); err != nil {
				t.Fatalf("writing fixture: %v", err)
			}

			uri, title, err := runner.readScoreFile(path)
			if err != nil {
				t.Fatalf("readScoreFile failed: %v", err)
			}
			if title != path {
				t.Errorf("expected title %s, got %s", path, title)
			}

			data, err := engine.DecodeDataURI(uri)
			if err != nil {
				t.Fatalf("decoding: %v", err)
			}
			if string(data) != "score-bytes" {
				t.Errorf("payload mismatch: %q", data)
			}
		})

		t.Run("missing file errors", func(t *testing.T) {
			if _, _, err := runner.readScoreFile("/does/not/exist.gp"); err == nil {
				t.Error("expected an error for a missing file")
			}
		})
	})
}

func TestScoreTitle(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"songs/back_in_black.gp", "back_in_black"},
		{"riff.gp5", "riff"},
		{"Demo Score", "Demo Score"},
	}

	for _, tc := range cases {
		if got := scoreTitle(tc.path); got != tc.want {
			t.Errorf("scoreTitle(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestSetupAction(t *testing.T) {
	t.Run("creates and loads the config file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Logger: shared.NewLogger(output)})

		cmd := setupCommand(runner)
		if err := cmd.Run(context.Background(), []string{"setup", "--config", configPath, "--show"}); err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Errorf("expected config file to exist: %v", err)
		}
		if runner.config.Player.LoadTimeout <= 0 {
			t.Error("expected normalized player config")
		}
	})

	t.Run("idempotent when the file exists", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := shared.CreateConfigFile(configPath); err != nil {
			t.Fatalf("creating config: %v", err)
		}

		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(&bytes.Buffer{})})
		cmd := setupCommand(runner)
		if err := cmd.Run(context.Background(), []string{"setup", "--config", configPath}); err != nil {
			t.Fatalf("setup on existing config failed: %v", err)
		}
	})
}

func TestInspectAction(t *testing.T) {
	t.Run("json output", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Output:  output,
			Logger:  shared.NewLogger(&bytes.Buffer{}),
			Factory: engine.NewSimFactory(0, engine.SimOptions{Title: "Test Song", Tempo: 90}),
		})

		cmd := inspectCommand(runner)
		if err := cmd.Run(context.Background(), []string{"inspect"}); err != nil {
			t.Fatalf("inspect failed: %v", err)
		}

		var sheet trackSheet
		if err := json.Unmarshal(output.Bytes(), &sheet); err != nil {
			t.Fatalf("output is not valid JSON: %v\n%s", err, output.String())
		}
		if sheet.Title != "Test Song" {
			t.Errorf("unexpected title: %s", sheet.Title)
		}
		if sheet.Tempo != 90 {
			t.Errorf("unexpected tempo: %v", sheet.Tempo)
		}
		if len(sheet.Tracks) == 0 {
			t.Error("expected tracks in the sheet")
		}
	})

	t.Run("text output", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Output:  output,
			Logger:  shared.NewLogger(&bytes.Buffer{}),
			Factory: engine.NewSimFactory(0, engine.SimOptions{Title: "Test Song"}),
		})

		cmd := inspectCommand(runner)
		if err := cmd.Run(context.Background(), []string{"inspect", "--format", "txt"}); err != nil {
			t.Fatalf("inspect failed: %v", err)
		}
		if !strings.Contains(output.String(), "Score: Test Song") {
			t.Errorf("unexpected text output: %s", output.String())
		}
	})

	t.Run("unknown format fails", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{
			Output:  &bytes.Buffer{},
			Logger:  shared.NewLogger(&bytes.Buffer{}),
			Factory: engine.NewSimFactory(0, engine.SimOptions{}),
		})

		cmd := inspectCommand(runner)
		err := cmd.Run(context.Background(), []string{"inspect", "--format", "yaml"})
		if err == nil {
			t.Fatal("expected an error for an unknown format")
		}
	})
}
