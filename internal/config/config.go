package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Paths holds file locations and the server bind address.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogFile   string `toml:"log_file"`
	EnvFile   string `toml:"env_file"`
}

// Server controls the local web UI.
type Server struct {
	Bind        string `toml:"bind"`
	OpenBrowser bool   `toml:"open_browser"`
}

// Transcription selects and tunes the speech-to-text collaborator.
type Transcription struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	Device      string  `toml:"device"`
	ComputeType string  `toml:"compute_type"`
	Language    string  `toml:"language"`
	Command     string  `toml:"whisperx_command"`
	SyncOffset  float64 `toml:"sync_offset"` // seconds
}

// Translation configures document translation.
type Translation struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	TargetLanguage string `toml:"target_language"`
	BatchSize      int    `toml:"batch_size"`
	Concurrency    int    `toml:"concurrency"`
}

// FFmpeg overrides binary discovery.
type FFmpeg struct {
	FFmpegPath    string `toml:"ffmpeg_path"`
	FFprobePath   string `toml:"ffprobe_path"`
	AllowDownload bool   `toml:"allow_download"`
}

// APIKeys for hosted providers. Usually supplied via environment.
type APIKeys struct {
	OpenAI    string `toml:"openai"`
	Gemini    string `toml:"gemini"`
	Anthropic string `toml:"anthropic"`
}

// Config is the full WhisperBurn configuration.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Server        Server        `toml:"server"`
	Transcription Transcription `toml:"transcription"`
	Translation   Translation   `toml:"translation"`
	FFmpeg        FFmpeg        `toml:"ffmpeg"`
	APIKeys       APIKeys       `toml:"api_keys"`
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/whisperburn/config.toml, falling
// back to ~/.config.
func DefaultConfigPath() (string, error) {
	if base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); base != "" {
		return filepath.Join(base, "whisperburn", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "whisperburn", "config.toml"), nil
}

// Load reads the config at path (or the default location when empty), applies
// .env and environment overrides, and validates the result. A missing file is
// not an error; the returned bool reports whether one was read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	if err := cfg.loadEnvFile(); err != nil {
		return nil, "", false, err
	}
	cfg.applyEnv(os.Getenv)

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolved, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
	}

	expanded, err := ExpandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

// Encode renders cfg as TOML, for `config show` style output.
func (c *Config) Encode() (string, error) {
	var sb strings.Builder
	enc := toml.NewEncoder(&sb)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return sb.String(), nil
}

// APIKey returns the key configured for a hosted provider name.
func (c *Config) APIKey(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return c.APIKeys.OpenAI
	case "gemini":
		return c.APIKeys.Gemini
	case "anthropic":
		return c.APIKeys.Anthropic
	default:
		return ""
	}
}

// EnsureDirectories creates the output directory.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory %q: %w", c.Paths.OutputDir, err)
	}
	return nil
}

// ExpandPath resolves ~ and makes the path absolute.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
