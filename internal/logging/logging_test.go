package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "whisperburn.log")

	logger, err := New(Options{File: path})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	logger.With("session", "abc123").Debugw("trim finished", "clip", "out.mp4")
	logger.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	got := string(data)
	for _, want := range []string{"trim finished", "abc123", "out.mp4"} {
		if !strings.Contains(got, want) {
			t.Errorf("log file missing %q: %s", want, got)
		}
	}
}

func TestNilLoggerWith(t *testing.T) {
	var logger *Logger
	child := logger.With("k", "v")
	if child == nil || child.SugaredLogger == nil {
		t.Fatal("With on nil logger should return a usable logger")
	}
	child.Infow("ignored")
}
