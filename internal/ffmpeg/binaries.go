// Package ffmpeg locates the ffmpeg and ffprobe executables, fetching a
// pinned static build into the user cache when neither is configured nor
// on PATH.
package ffmpeg

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/mgpai22/whisperburn/internal/logging"
)

const (
	releaseVersion = "6.1"
	releaseBaseURL = "https://github.com/ffbinaries/ffbinaries-prebuilt/releases/download"

	EnvFFmpegPath  = "WHISPERBURN_FFMPEG_PATH"
	EnvFFprobePath = "WHISPERBURN_FFPROBE_PATH"
)

var ErrUnsupportedPlatform = errors.New("no bundled ffmpeg for this platform")

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

// Locator resolves binaries once and caches the result.
type Locator struct {
	// explicit paths win over the environment and PATH
	FFmpegPath  string
	FFprobePath string
	// CacheDir defaults to the user cache directory
	CacheDir string
	// AllowDownload permits fetching the pinned release
	AllowDownload bool

	Logger     *logging.Logger
	HTTPClient *http.Client

	// overridable in tests
	lookPath func(string) (string, error)
	getenv   func(string) string

	once  sync.Once
	paths BinaryPaths
	err   error
}

func NewLocator(log *logging.Logger) *Locator {
	return &Locator{
		AllowDownload: true,
		Logger:        log,
		HTTPClient:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// Resolve returns the binary paths, downloading them on first use if needed.
func (l *Locator) Resolve(ctx context.Context) (BinaryPaths, error) {
	l.once.Do(func() {
		l.paths, l.err = l.resolve(ctx)
		if l.err == nil {
			logging.OrNop(l.Logger).Debugw("ffmpeg binaries resolved", "ffmpeg", l.paths.FFmpeg, "ffprobe", l.paths.FFprobe)
		}
	})
	return l.paths, l.err
}

func (l *Locator) resolve(ctx context.Context) (BinaryPaths, error) {
	lookPath := l.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	getenv := l.getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	ffmpegPath := firstNonEmpty(l.FFmpegPath, getenv(EnvFFmpegPath))
	ffprobePath := firstNonEmpty(l.FFprobePath, getenv(EnvFFprobePath))

	if ffmpegPath == "" {
		if found, err := lookPath("ffmpeg"); err == nil {
			ffmpegPath = found
		}
	}
	if ffprobePath == "" {
		if found, err := lookPath("ffprobe"); err == nil {
			ffprobePath = found
		}
	}

	if ffmpegPath != "" && ffprobePath != "" {
		return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
	}

	assetName, err := assetForPlatform(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return BinaryPaths{}, err
	}

	installDir := l.installDir()
	exeSuffix := executableSuffix()
	cached := BinaryPaths{
		FFmpeg:  filepath.Join(installDir, "ffmpeg"+exeSuffix),
		FFprobe: filepath.Join(installDir, "ffprobe"+exeSuffix),
	}

	if binariesExist(cached) {
		return cached, nil
	}

	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return BinaryPaths{}, fmt.Errorf("create ffmpeg cache dir: %w", err)
	}

	embeddedUsed, err := extractEmbedded(assetName, installDir)
	if err != nil {
		return BinaryPaths{}, err
	}
	if !embeddedUsed {
		if !l.AllowDownload {
			return BinaryPaths{}, errors.New("ffmpeg not found on PATH and downloads are disabled")
		}
		logging.OrNop(l.Logger).Infow("downloading ffmpeg", "version", releaseVersion, "asset", assetName)
		if err := l.download(ctx, assetName, installDir); err != nil {
			return BinaryPaths{}, err
		}
	}

	if !binariesExist(cached) {
		return BinaryPaths{}, errors.New("ffmpeg binaries not found after extraction")
	}

	if runtime.GOOS != "windows" {
		for _, p := range []string{cached.FFmpeg, cached.FFprobe} {
			if err := os.Chmod(p, 0o755); err != nil {
				return BinaryPaths{}, fmt.Errorf("chmod %s: %w", filepath.Base(p), err)
			}
		}
	}

	return cached, nil
}

func (l *Locator) installDir() string {
	cacheDir := l.CacheDir
	if cacheDir == "" {
		dir, err := os.UserCacheDir()
		if err != nil || dir == "" {
			dir = os.TempDir()
		}
		cacheDir = filepath.Join(dir, "whisperburn")
	}
	return filepath.Join(cacheDir, "ffmpeg", releaseVersion, runtime.GOOS, runtime.GOARCH)
}

func assetForPlatform(goos, goarch string) (string, error) {
	switch {
	case goos == "linux" && goarch == "amd64":
		return "ffmpeg-" + releaseVersion + "-linux-64.zip", nil
	case goos == "linux" && goarch == "arm64":
		return "ffmpeg-" + releaseVersion + "-linux-arm-64.zip", nil
	case goos == "darwin" && goarch == "amd64":
		return "ffmpeg-" + releaseVersion + "-macos-64.zip", nil
	case goos == "windows" && goarch == "amd64":
		return "ffmpeg-" + releaseVersion + "-win-64.zip", nil
	default:
		return "", fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, goos, goarch)
	}
}

func (l *Locator) download(ctx context.Context, assetName, installDir string) error {
	client := l.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	url := fmt.Sprintf("%s/v%s/%s", releaseBaseURL, releaseVersion, assetName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("download ffmpeg bundle: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download ffmpeg bundle: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download ffmpeg bundle: unexpected status %s", resp.Status)
	}

	return extractArchiveFromReader(assetName, resp.Body, installDir)
}

func extractEmbedded(assetName, installDir string) (bool, error) {
	reader, ok, err := openEmbeddedAsset(assetName)
	if err != nil || !ok {
		return ok, err
	}
	defer func() { _ = reader.Close() }()

	if err := extractArchiveFromReader(assetName, reader, installDir); err != nil {
		return true, err
	}
	return true, nil
}

func extractArchiveFromReader(assetName string, reader io.Reader, installDir string) error {
	tmpFile, err := os.CreateTemp("", "whisperburn-ffmpeg-*.zip")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	archivePath := tmpFile.Name()
	defer func() { _ = os.Remove(archivePath) }()

	if _, err := io.Copy(tmpFile, reader); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	if err := extractArchive(archivePath, installDir); err != nil {
		return fmt.Errorf("extract %s: %w", assetName, err)
	}
	return nil
}

func extractArchive(archivePath, installDir string) error {
	zipReader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open ffmpeg archive: %w", err)
	}
	defer func() { _ = zipReader.Close() }()

	found := map[string]bool{}
	for _, file := range zipReader.File {
		name := binaryName(filepath.Base(file.Name))
		if name == "" {
			continue
		}
		dest := filepath.Join(installDir, name+executableSuffix())
		if err := extractZipFile(file, dest); err != nil {
			return err
		}
		found[name] = true
	}

	if !found["ffmpeg"] || !found["ffprobe"] {
		return errors.New("ffmpeg archive missing required binaries")
	}
	return nil
}

func extractZipFile(file *zip.File, dest string) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("open ffmpeg archive entry: %w", err)
	}
	defer func() { _ = reader.Close() }()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(dest), err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, reader); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(dest), err)
	}
	return nil
}

// maps an archive entry to ffmpeg or ffprobe, or "" for anything else
func binaryName(entry string) string {
	name := strings.TrimSuffix(strings.ToLower(entry), ".exe")
	switch name {
	case "ffmpeg", "ffprobe":
		return name
	default:
		return ""
	}
}

func binariesExist(paths BinaryPaths) bool {
	return fileExists(paths.FFmpeg) && fileExists(paths.FFprobe)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func executableSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}
