package formatter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zazu-22/bandassist/internal/engine"
)

func testScore() *engine.Score {
	return &engine.Score{
		Title:  "Test Song",
		Artist: "Test Artist",
		Tempo:  120,
		Tracks: []*engine.Track{
			{Index: 0, Name: "Lead Guitar"},
			{Index: 1, Name: "Bass", Playback: engine.PlaybackInfo{IsMute: true}},
			{Index: 2, Name: "Drums", Playback: engine.PlaybackInfo{IsSolo: true}},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testScore())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Index,Name,Muted,Soloed") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "0,Lead Guitar,false,false") {
			t.Errorf("CSV missing lead guitar row, got: %s", output)
		}
		if !strings.Contains(output, "1,Bass,true,false") {
			t.Errorf("CSV missing muted bass row, got: %s", output)
		}
		if !strings.Contains(output, "2,Drums,false,true") {
			t.Errorf("CSV missing soloed drums row, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testScore())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "# Test Song") {
			t.Errorf("Markdown missing title heading")
		}
		if !strings.Contains(output, "**Artist**: Test Artist") {
			t.Errorf("Markdown missing artist")
		}
		if !strings.Contains(output, "**Tempo**: 120 BPM") {
			t.Errorf("Markdown missing tempo")
		}
		if !strings.Contains(output, "2. Bass [muted]") {
			t.Errorf("Markdown missing muted marker, got: %s", output)
		}
		if !strings.Contains(output, "3. Drums [solo]") {
			t.Errorf("Markdown missing solo marker, got: %s", output)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testScore())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Score: Test Song") {
			t.Errorf("text missing score header")
		}
		if !strings.Contains(output, "Tracks: 3") {
			t.Errorf("text missing track count")
		}
		if !strings.Contains(output, "1. Lead Guitar\n") {
			t.Errorf("text missing plain track line, got: %s", output)
		}
	})

	t.Run("ToMetadataJSON", func(t *testing.T) {
		data, err := ToMetadataJSON(testScore())
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}

		var meta map[string]any
		if err := json.Unmarshal(data, &meta); err != nil {
			t.Fatalf("metadata is not valid JSON: %v", err)
		}
		if meta["title"] != "Test Song" {
			t.Errorf("expected title, got %v", meta["title"])
		}
		if meta["track_count"] != float64(3) {
			t.Errorf("expected track_count 3, got %v", meta["track_count"])
		}
	})
}

func TestBaseName(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Test Song", "test_song"},
		{"  Led-Zeppelin IV ", "led_zeppelin_iv"},
		{"", "score"},
		{"!!!", "score"},
	}

	for _, tc := range cases {
		got := BaseName(&engine.Score{Title: tc.title})
		if got != tc.want {
			t.Errorf("BaseName(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		dir := t.TempDir()
		base := filepath.Join(dir, "out")

		result, err := WriteCSVExport(testScore(), base)
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}

		if result.TracksFile != base+"_tracks.csv" {
			t.Errorf("unexpected tracks file: %s", result.TracksFile)
		}
		if _, err := os.Stat(result.TracksFile); err != nil {
			t.Errorf("tracks file missing: %v", err)
		}
		if _, err := os.Stat(result.MetadataFile); err != nil {
			t.Errorf("metadata file missing: %v", err)
		}
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "export")

		mdFile, err := WriteMarkdownExport(testScore(), dir)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}

		data, err := os.ReadFile(mdFile)
		if err != nil {
			t.Fatalf("reading markdown: %v", err)
		}
		if !strings.Contains(string(data), "# Test Song") {
			t.Errorf("markdown file missing title")
		}
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "tracks.txt")

		got, err := WriteTextExport(testScore(), path)
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("text file missing: %v", err)
		}
	})
}
