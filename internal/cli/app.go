package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgpai22/whisperburn/internal/ffmpeg"
	"github.com/mgpai22/whisperburn/internal/media"
	"github.com/mgpai22/whisperburn/internal/pipeline"
	"github.com/mgpai22/whisperburn/internal/transcribe"
	"github.com/mgpai22/whisperburn/internal/translate"
)

func newEncoder(ctx context.Context) (*media.Encoder, error) {
	locator := ffmpeg.NewLocator(logger)
	locator.FFmpegPath = cfg.FFmpeg.FFmpegPath
	locator.FFprobePath = cfg.FFmpeg.FFprobePath
	locator.AllowDownload = cfg.FFmpeg.AllowDownload

	paths, err := locator.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to locate ffmpeg: %w", err)
	}
	return media.NewEncoder(paths.FFmpeg, paths.FFprobe, logger), nil
}

func newService(ctx context.Context, cmd *cobra.Command) (*pipeline.Service, error) {
	enc, err := newEncoder(ctx)
	if err != nil {
		return nil, err
	}
	provider, _ := cmd.Flags().GetString("provider")
	if provider == "" {
		provider = cfg.Transcription.Provider
	}
	factory, err := transcriberFactory(transcribe.Provider(provider))
	if err != nil {
		return nil, err
	}
	return pipeline.New(enc, factory, outputDir(cmd), logger), nil
}

// transcriberFactory binds a provider and its API key. The model setting
// names a local recognizer size, so hosted providers use their own default.
func transcriberFactory(provider transcribe.Provider) (pipeline.TranscriberFactory, error) {
	apiKey := cfg.APIKey(string(provider))
	if provider.NeedsAPIKey() && apiKey == "" {
		return nil, fmt.Errorf("%s transcription needs an API key: set %s_API_KEY or api_keys.%s in the config", provider, envPrefix(string(provider)), provider)
	}

	return func(ctx context.Context, s pipeline.TranscriberSettings) (transcribe.Transcriber, error) {
		opts := transcribe.Options{
			Language:           firstNonEmpty(s.Language, cfg.Transcription.Language),
			TranscriptLanguage: s.TranscriptLanguage,
			Device:             s.Device,
			ComputeType:        cfg.Transcription.ComputeType,
			Command:            cfg.Transcription.Command,
			Logger:             logger,
		}
		if provider == transcribe.ProviderWhisperX || provider == "" {
			opts.Model = firstNonEmpty(s.Model, cfg.Transcription.Model)
		}
		return transcribe.Factory(ctx, provider, apiKey, opts)
	}, nil
}

func newTranslator(ctx context.Context, provider translate.Provider, opts translate.Options) (translate.ConcurrentTranslator, error) {
	apiKey := cfg.APIKey(string(provider))
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required: set %s_API_KEY or api_keys.%s in the config", envPrefix(string(provider)), provider)
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = cfg.Translation.BatchSize
	}
	return translate.Factory(ctx, provider, apiKey, opts)
}

func envPrefix(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI"
	case "gemini":
		return "GEMINI"
	case "anthropic":
		return "ANTHROPIC"
	default:
		return "PROVIDER"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
