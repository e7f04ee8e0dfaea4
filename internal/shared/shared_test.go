package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	t.Run("writes to provided writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello")

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output to contain message, got %q", buf.String())
		}
	})

	t.Run("nil writer defaults to stderr", func(t *testing.T) {
		logger := NewLogger(nil)
		if logger == nil {
			t.Fatal("expected a logger")
		}
	})
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "band.log")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create file logger: %v", err)
	}

	logger.Info("startup")

	content := mustReadFile(t, path)
	if !strings.Contains(content, "startup") {
		t.Errorf("expected log file to contain message, got %q", content)
	}
}

func mustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", path, err)
	}
	return string(content)
}

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()

	if a == "" || b == "" {
		t.Error("generated IDs should not be empty")
	}

	if a == b {
		t.Error("generated IDs should be unique")
	}
}

func TestFormatClock(t *testing.T) {
	cases := []struct {
		ms   float64
		want string
	}{
		{0, "0:00"},
		{999, "0:00"},
		{1000, "0:01"},
		{61500, "1:01"},
		{600000, "10:00"},
		{3600000, "60:00"},
		{-5000, "0:00"},
	}

	for _, tc := range cases {
		if got := FormatClock(tc.ms); got != tc.want {
			t.Errorf("FormatClock(%v) = %q, want %q", tc.ms, got, tc.want)
		}
	}
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"beats": 4}

	compact, err := MarshalJSON(v, false)
	if err != nil {
		t.Fatalf("compact marshal failed: %v", err)
	}
	if string(compact) != `{"beats":4}` {
		t.Errorf("unexpected compact output: %s", compact)
	}

	indented, err := MarshalJSON(v, true)
	if err != nil {
		t.Fatalf("indented marshal failed: %v", err)
	}
	if !strings.Contains(string(indented), "\n") {
		t.Errorf("expected indented output, got: %s", indented)
	}
}
