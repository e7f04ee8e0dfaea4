// package formatter provides functions to export score track sheets to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/zazu-22/bandassist/internal/engine"
	"github.com/zazu-22/bandassist/internal/shared"
)

// ExportToCSV converts a score's track sheet to CSV format with columns: Index, Name, Muted, Soloed
func ExportToCSV(score *engine.Score) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Index", "Name", "Muted", "Soloed"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range score.Tracks {
		record := []string{
			strconv.Itoa(track.Index),
			track.Name,
			strconv.FormatBool(track.Playback.IsMute),
			strconv.FormatBool(track.Playback.IsSolo),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a score's track sheet to Markdown format
func ExportToMarkdown(score *engine.Score) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", score.Title))

	if score.Artist != "" {
		buf.WriteString(fmt.Sprintf("**Artist**: %s\n\n", score.Artist))
	}

	buf.WriteString(fmt.Sprintf("**Tempo**: %.0f BPM\n", score.Tempo))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(score.Tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range score.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s%s\n", i+1, track.Name, flagSuffix(track)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a score's track sheet to plain text format
func ExportToText(score *engine.Score) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Score: %s\n", score.Title))
	if score.Artist != "" {
		buf.WriteString(fmt.Sprintf("Artist: %s\n", score.Artist))
	}
	buf.WriteString(fmt.Sprintf("Tempo: %.0f BPM\n", score.Tempo))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(score.Tracks)))

	for i, track := range score.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s%s\n", i+1, track.Name, flagSuffix(track)))
	}

	return buf.Bytes(), nil
}

func flagSuffix(track *engine.Track) string {
	switch {
	case track.Playback.IsSolo:
		return " [solo]"
	case track.Playback.IsMute:
		return " [muted]"
	default:
		return ""
	}
}

// scoreMetadata is the shape of the metadata JSON written next to exports.
type scoreMetadata struct {
	Title      string  `json:"title"`
	Artist     string  `json:"artist,omitempty"`
	Tempo      float64 `json:"tempo"`
	TrackCount int     `json:"track_count"`
}

// ToMetadataJSON generates a JSON representation of score metadata (without tracks)
func ToMetadataJSON(score *engine.Score) ([]byte, error) {
	return shared.MarshalJSON(scoreMetadata{
		Title:      score.Title,
		Artist:     score.Artist,
		Tempo:      score.Tempo,
		TrackCount: len(score.Tracks),
	}, true)
}

// BaseName derives a filesystem-safe base filename from the score title.
func BaseName(score *engine.Score) string {
	name := strings.ToLower(strings.TrimSpace(score.Title))
	if name == "" {
		return "score"
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "score"
	}
	return b.String()
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a score's track sheet to CSV format with accompanying metadata JSON file.
//
// Defaults to the score title as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(score *engine.Score, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = BaseName(score)
	}

	csvData, err := ExportToCSV(score)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(score)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteMarkdownExport exports a score's track sheet to Markdown format in a dedicated directory.
//
// Directory name defaults to the derived base filename. Creates {dir}/README.md.
func WriteMarkdownExport(score *engine.Score, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = BaseName(score)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(score)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := fmt.Sprintf("%s/README.md", outputDir)
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return mdFile, nil
}

// WriteTextExport exports a score's track sheet to plain text format.
//
// Defaults to {base}_tracks.txt as the filename.
func WriteTextExport(score *engine.Score, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_tracks.txt", BaseName(score))
	}

	textData, err := ExportToText(score)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}
