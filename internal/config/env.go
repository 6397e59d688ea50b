package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mgpai22/whisperburn/internal/ffmpeg"
)

// environment variables consulted after the config file
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvGeminiKey    = "GEMINI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvFFmpegPath   = ffmpeg.EnvFFmpegPath
	EnvFFprobePath  = ffmpeg.EnvFFprobePath
	EnvOutputDir    = "WHISPERBURN_OUTPUT_DIR"
)

// loadEnvFile seeds the process environment from Paths.EnvFile. Variables
// already set are not overridden. A missing file is ignored.
func (c *Config) loadEnvFile() error {
	path := strings.TrimSpace(c.Paths.EnvFile)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays non-empty environment values.
func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.APIKeys.OpenAI, EnvOpenAIKey)
	set(&c.APIKeys.Gemini, EnvGeminiKey)
	set(&c.APIKeys.Anthropic, EnvAnthropicKey)
	set(&c.FFmpeg.FFmpegPath, EnvFFmpegPath)
	set(&c.FFmpeg.FFprobePath, EnvFFprobePath)
	set(&c.Paths.OutputDir, EnvOutputDir)
}
