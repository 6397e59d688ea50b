package transcribe

import (
	"context"
	"fmt"
	"time"

	"github.com/mgpai22/whisperburn/internal/logging"
	"github.com/mgpai22/whisperburn/internal/subtitle"
)

// transcription result
type Result struct {
	Segments []subtitle.Segment
	Language string
	Duration time.Duration
}

// interface for audio transcription
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
}

// transcription service provider
type Provider string

const (
	ProviderWhisperX Provider = "whisperx"
	ProviderOpenAI   Provider = "openai"
	ProviderGemini   Provider = "gemini"
)

func Providers() []Provider {
	return []Provider{ProviderWhisperX, ProviderOpenAI, ProviderGemini}
}

// NeedsAPIKey reports whether p calls a hosted API.
func (p Provider) NeedsAPIKey() bool {
	return p == ProviderOpenAI || p == ProviderGemini
}

// transcription options
type Options struct {
	Language           string // Source language of audio
	TranscriptLanguage string // Output language for transcript (default: "native")
	Model              string
	Prompt             string

	// local recognizer only
	Device      Device
	ComputeType string
	Command     string
	WorkDir     string

	Logger *logging.Logger
}

// creates transcriber based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Transcriber, error) {
	switch provider {
	case ProviderWhisperX, "":
		return NewWhisperXTranscriber(opts)
	case ProviderGemini:
		return NewGeminiTranscriber(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAITranscriber(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// end of the last segment, for providers that do not report a duration
func segmentsDuration(segments []subtitle.Segment) time.Duration {
	var d time.Duration
	for _, s := range segments {
		if s.EndTime > d {
			d = s.EndTime
		}
	}
	return d
}
