package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/mgpai22/whisperburn/internal/config"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, key := range []string{
		config.EnvOpenAIKey, config.EnvGeminiKey, config.EnvAnthropicKey,
		config.EnvFFmpegPath, config.EnvFFprobePath, config.EnvOutputDir,
	} {
		t.Setenv(key, "")
	}
	t.Chdir(dir)
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected no config file")
	}
	if resolved != filepath.Join(dir, "whisperburn", "config.toml") {
		t.Errorf("unexpected resolved path %q", resolved)
	}
	if cfg.Server.Bind != "127.0.0.1:7860" {
		t.Errorf("unexpected bind %q", cfg.Server.Bind)
	}
	if cfg.Paths.OutputDir != filepath.Join(dir, "output_videos") {
		t.Errorf("output dir not expanded: %q", cfg.Paths.OutputDir)
	}
	if cfg.Transcription.Model != "medium" || cfg.Transcription.Provider != "whisperx" {
		t.Errorf("unexpected transcription defaults: %+v", cfg.Transcription)
	}
	if !cfg.Server.OpenBrowser {
		t.Error("expected browser auto-open by default")
	}
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
[paths]
output_dir = "renders"

[server]
bind = "127.0.0.1:9000"
open_browser = false

[transcription]
model = "large-v2 (~8GB)"
device = "CUDA"
sync_offset = -0.5

[translation]
provider = "anthropic"
target_language = "German"
`)

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be read")
	}
	if cfg.Paths.OutputDir != filepath.Join(dir, "renders") {
		t.Errorf("output dir = %q", cfg.Paths.OutputDir)
	}
	if cfg.Server.Bind != "127.0.0.1:9000" || cfg.Server.OpenBrowser {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Transcription.Model != "large-v2" {
		t.Errorf("model label not cleaned: %q", cfg.Transcription.Model)
	}
	if cfg.Transcription.Device != "cuda" {
		t.Errorf("device not normalized: %q", cfg.Transcription.Device)
	}
	if cfg.Transcription.SyncOffset != -0.5 {
		t.Errorf("sync offset = %v", cfg.Transcription.SyncOffset)
	}
	if cfg.Translation.Provider != "anthropic" || cfg.Translation.BatchSize != 50 {
		t.Errorf("translation = %+v", cfg.Translation)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
[api_keys]
openai = "from-file"
`)
	t.Setenv(config.EnvOpenAIKey, "from-env")
	t.Setenv(config.EnvFFmpegPath, "/opt/ffmpeg")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := cfg.APIKey("openai"); got != "from-env" {
		t.Errorf("APIKey(openai) = %q", got)
	}
	if cfg.FFmpeg.FFmpegPath != "/opt/ffmpeg" {
		t.Errorf("ffmpeg path = %q", cfg.FFmpeg.FFmpegPath)
	}
	if cfg.APIKey("unknown") != "" {
		t.Error("unknown provider should have no key")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	// Setenv registers cleanup; unset so godotenv may fill it
	os.Unsetenv(config.EnvGeminiKey)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GEMINI_API_KEY=dotenv-key\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIKeys.Gemini != "dotenv-key" {
		t.Errorf("gemini key = %q", cfg.APIKeys.Gemini)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"unknown field", "[paths]\nnope = 1\n", "parse config"},
		{"bad bind", "[server]\nbind = \"7860\"\n", "server.bind"},
		{"bad device", "[transcription]\ndevice = \"tpu\"\n", "transcription.device"},
		{"offset out of range", "[transcription]\nsync_offset = 3.0\n", "sync_offset"},
		{"bad transcription provider", "[transcription]\nprovider = \"vosk\"\n", "transcription.provider"},
		{"bad translation provider", "[translation]\nprovider = \"deepl\"\n", "translation.provider"},
		{"negative batch", "[translation]\nbatch_size = -1\n", "batch_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := writeConfig(t, dir, tt.body)
			_, _, _, err := config.Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Translation.TargetLanguage = "Korean"

	text, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded config.Config
	if err := toml.Unmarshal([]byte(text), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != cfg {
		t.Errorf("round trip mismatch:\n%+v\n%+v", decoded, cfg)
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(t.TempDir(), "a", "b")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	if info, err := os.Stat(cfg.Paths.OutputDir); err != nil || !info.IsDir() {
		t.Errorf("output dir not created: %v", err)
	}
}
