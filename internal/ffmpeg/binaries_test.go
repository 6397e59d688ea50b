package ffmpeg

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func noPath(string) (string, error) { return "", errors.New("not found") }

func TestResolvePrefersExplicitPaths(t *testing.T) {
	l := &Locator{
		FFmpegPath:  "/opt/ffmpeg",
		FFprobePath: "/opt/ffprobe",
		getenv:      func(string) string { return "/env/bin" },
		lookPath:    noPath,
	}

	paths, err := l.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if paths.FFmpeg != "/opt/ffmpeg" || paths.FFprobe != "/opt/ffprobe" {
		t.Errorf("unexpected paths: %+v", paths)
	}
}

func TestResolveUsesEnvThenPath(t *testing.T) {
	l := &Locator{
		getenv: func(key string) string {
			if key == EnvFFmpegPath {
				return "/env/ffmpeg"
			}
			return ""
		},
		lookPath: func(name string) (string, error) { return "/usr/bin/" + name, nil },
	}

	paths, err := l.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if paths.FFmpeg != "/env/ffmpeg" {
		t.Errorf("expected env ffmpeg, got %s", paths.FFmpeg)
	}
	if paths.FFprobe != "/usr/bin/ffprobe" {
		t.Errorf("expected PATH ffprobe, got %s", paths.FFprobe)
	}
}

func TestResolveDownloadDisabled(t *testing.T) {
	if _, err := assetForPlatform(runtime.GOOS, runtime.GOARCH); err != nil {
		t.Skip("no bundled build for this platform")
	}

	l := &Locator{
		CacheDir: t.TempDir(),
		getenv:   func(string) string { return "" },
		lookPath: noPath,
	}
	if _, err := l.Resolve(context.Background()); err == nil {
		t.Fatal("expected an error when downloads are disabled")
	}
}

func TestAssetForPlatform(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         string
	}{
		{"linux", "amd64", "ffmpeg-6.1-linux-64.zip"},
		{"linux", "arm64", "ffmpeg-6.1-linux-arm-64.zip"},
		{"darwin", "amd64", "ffmpeg-6.1-macos-64.zip"},
		{"windows", "amd64", "ffmpeg-6.1-win-64.zip"},
	}
	for _, tt := range tests {
		got, err := assetForPlatform(tt.goos, tt.goarch)
		if err != nil || got != tt.want {
			t.Errorf("assetForPlatform(%s, %s) = %q, %v", tt.goos, tt.goarch, got, err)
		}
	}

	if _, err := assetForPlatform("plan9", "386"); !errors.Is(err, ErrUnsupportedPlatform) {
		t.Errorf("expected ErrUnsupportedPlatform, got %v", err)
	}
}

func TestExtractArchive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "bundle.zip")

	f, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for _, name := range []string{"bin/ffmpeg", "bin/ffprobe", "README.txt"} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte("binary " + name)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	installDir := filepath.Join(dir, "install")
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := extractArchive(archive, installDir); err != nil {
		t.Fatalf("extractArchive failed: %v", err)
	}

	paths := BinaryPaths{
		FFmpeg:  filepath.Join(installDir, "ffmpeg"+executableSuffix()),
		FFprobe: filepath.Join(installDir, "ffprobe"+executableSuffix()),
	}
	if !binariesExist(paths) {
		t.Error("binaries missing after extraction")
	}
	if _, err := os.Stat(filepath.Join(installDir, "README.txt")); !os.IsNotExist(err) {
		t.Error("unrelated archive entries should not be extracted")
	}
}

func TestBinaryName(t *testing.T) {
	tests := map[string]string{
		"ffmpeg":      "ffmpeg",
		"FFPROBE.EXE": "ffprobe",
		"ffplay":      "",
		"ffmpeg.txt":  "",
	}
	for in, want := range tests {
		if got := binaryName(in); got != want {
			t.Errorf("binaryName(%q) = %q, want %q", in, got, want)
		}
	}
}
