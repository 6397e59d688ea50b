package media

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestEscapeFilterPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"/tmp/clip.ass", "'/tmp/clip.ass'"},
		{"/tmp/a:b/clip.ass", `'/tmp/a\:b/clip.ass'`},
		{`/tmp/back\slash.ass`, `'/tmp/back\\slash.ass'`},
		{"/tmp/it's.ass", `'/tmp/it'\''s.ass'`},
	}

	for _, tt := range tests {
		if got := EscapeFilterPath(tt.input); got != tt.want {
			t.Errorf("EscapeFilterPath(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestEscapeFilterPathIsAbsolute(t *testing.T) {
	got := EscapeFilterPath(filepath.Join("output_videos", "clip.ass"))
	inner := strings.Trim(got, "'")
	if !strings.HasPrefix(inner, "/") && !strings.Contains(inner, `\:`) {
		t.Errorf("expected an absolute path, got %s", got)
	}
}

func TestIsMediaFile(t *testing.T) {
	tests := map[string]bool{
		"clip.MP4":   true,
		"movie.mkv":  true,
		"voice.wav":  true,
		"notes.txt":  false,
		"subs.ass":   false,
		"noext":      false,
		"song.flac":  true,
		"video.webm": true,
	}
	for path, want := range tests {
		if got := IsMediaFile(path); got != want {
			t.Errorf("IsMediaFile(%q) = %v, want %v", path, got, want)
		}
	}
	if IsVideoFile("a.mp3") || !IsAudioFile("a.mp3") {
		t.Error("mp3 should be audio only")
	}
}
