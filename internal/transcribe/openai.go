package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mgpai22/whisperburn/internal/logging"
	"github.com/mgpai22/whisperburn/internal/subtitle"
)

const defaultOpenAIModel = "whisper-1"

var errNoTimedSegments = errors.New("response has no timed segments")

// OpenAITranscriber sends clip audio to the hosted whisper endpoint and asks
// for segment timestamps.
type OpenAITranscriber struct {
	client openai.Client
	model  string
	opts   Options
	log    *logging.Logger
}

// verbose_json body shared by the transcription and translation endpoints
type verboseJSON struct {
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func NewOpenAITranscriber(ctx context.Context, apiKey string, opts Options) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	return &OpenAITranscriber{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  firstNonEmpty(opts.Model, defaultOpenAIModel),
		opts:   opts,
		log:    logging.OrNop(opts.Logger).Named("openai"),
	}, nil
}

func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	toEnglish := translatesToEnglish(t.opts.TranscriptLanguage)
	t.log.Debugw("uploading audio", "path", audioPath, "model", t.model, "to_english", toEnglish)

	raw, err := t.request(ctx, f, toEnglish)
	if err != nil {
		return nil, err
	}
	res, err := decodeVerboseJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}

	switch {
	case toEnglish:
		res.Language = "en"
	case t.opts.Language != "":
		res.Language = t.opts.Language
	}
	return res, nil
}

// request returns the raw verbose_json body. The translation endpoint is the
// only way to get an English transcript of non-English speech.
func (t *OpenAITranscriber) request(ctx context.Context, audio io.Reader, toEnglish bool) (string, error) {
	if toEnglish {
		params := openai.AudioTranslationNewParams{
			File:           audio,
			Model:          openai.AudioModel(t.model),
			ResponseFormat: openai.AudioTranslationNewParamsResponseFormatVerboseJSON,
		}
		if t.opts.Prompt != "" {
			params.Prompt = openai.String(t.opts.Prompt)
		}
		resp, err := t.client.Audio.Translations.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("openai translation failed: %w", err)
		}
		return resp.RawJSON(), nil
	}

	params := openai.AudioTranscriptionNewParams{
		File:                   audio,
		Model:                  openai.AudioModel(t.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment"},
	}
	if t.opts.Language != "" {
		params.Language = openai.String(t.opts.Language)
	}
	if t.opts.Prompt != "" {
		params.Prompt = openai.String(t.opts.Prompt)
	}
	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai transcription failed: %w", err)
	}
	return resp.RawJSON(), nil
}

func translatesToEnglish(lang string) bool {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "english", "en":
		return true
	}
	return false
}

// decodeVerboseJSON keeps segments with text. A body with text but no
// segments is rejected: a clip-long caption is not a usable subtitle.
func decodeVerboseJSON(raw string) (*Result, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("empty response")
	}
	var body verboseJSON
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return nil, fmt.Errorf("failed to parse verbose_json response: %w", err)
	}

	segments := make([]subtitle.Segment, 0, len(body.Segments))
	for _, seg := range body.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		segments = append(segments, subtitle.Segment{
			StartTime: subtitle.SecondsToDuration(seg.Start),
			EndTime:   subtitle.SecondsToDuration(seg.End),
			Text:      text,
		})
	}
	if len(segments) == 0 {
		return nil, errNoTimedSegments
	}

	duration := segmentsDuration(segments)
	if body.Duration > 0 {
		duration = subtitle.SecondsToDuration(body.Duration)
	}
	return &Result{Segments: segments, Language: body.Language, Duration: duration}, nil
}

func (t *OpenAITranscriber) Close() error {
	return nil
}
