// Package pipeline runs the two WhisperBurn stages: Generate (trim, transcribe,
// build an editable subtitle document) and Burn (apply a style and render the
// subtitles into the clip).
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mgpai22/whisperburn/internal/logging"
	"github.com/mgpai22/whisperburn/internal/media"
	"github.com/mgpai22/whisperburn/internal/subtitle"
	"github.com/mgpai22/whisperburn/internal/transcribe"
)

// Progress receives best-effort stage updates. A nil Progress is valid.
type Progress func(fraction float64, status string)

func (p Progress) report(fraction float64, status string) {
	if p != nil {
		p(fraction, status)
	}
}

// Encoder is the subset of *media.Encoder the pipeline drives.
type Encoder interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
	Trim(ctx context.Context, src, dst string, start, end time.Duration, opts media.TrimOptions) error
	ExtractAudio(ctx context.Context, src, dst string, opts media.AudioOptions) error
	Burn(ctx context.Context, src, subtitlePath, dst string, opts media.BurnOptions) error
}

// TranscriberFactory builds a transcriber for one request.
type TranscriberFactory func(ctx context.Context, settings TranscriberSettings) (transcribe.Transcriber, error)

// TranscriberSettings are the per-request recognizer choices.
type TranscriberSettings struct {
	Model    string
	Device   transcribe.Device
	Language string
	// TranscriptLanguage asks hosted providers for a translated transcript.
	TranscriptLanguage string
}

// Generation pairs a trimmed clip with its subtitle document. Burn accepts
// only a Generation, so a document can never be burned onto the wrong clip.
type Generation struct {
	ID           string
	Source       string
	Clip         string
	Stem         string
	SubtitlePath string
	Language     string
	Document     subtitle.Document
}

// WithDocument returns a copy of g carrying doc.
func (g *Generation) WithDocument(doc subtitle.Document) *Generation {
	next := *g
	next.Document = doc
	return &next
}

// GenerateRequest describes one Generate run.
type GenerateRequest struct {
	Source     string
	Start      time.Duration
	End        time.Duration
	SyncOffset time.Duration

	Transcriber TranscriberSettings
}

// Service wires the encoder and transcription collaborators.
type Service struct {
	encoder      Encoder
	transcribers TranscriberFactory
	outputDir    string
	log          *logging.Logger

	TrimOptions  media.TrimOptions
	AudioOptions media.AudioOptions
	BurnOptions  media.BurnOptions

	newID func() string
}

func New(enc Encoder, transcribers TranscriberFactory, outputDir string, log *logging.Logger) *Service {
	return &Service{
		encoder:      enc,
		transcribers: transcribers,
		outputDir:    outputDir,
		log:          logging.OrNop(log).Named("pipeline"),
		TrimOptions:  media.DefaultTrimOptions(),
		AudioOptions: media.DefaultAudioOptions(),
		BurnOptions:  media.DefaultBurnOptions(),
		newID:        newShortID,
	}
}

// OutputDir is where every artifact is written.
func (s *Service) OutputDir() string {
	return s.outputDir
}

// Generate trims the requested range out of the source, transcribes it and
// writes the default-styled subtitle document next to the clip.
func (s *Service) Generate(ctx context.Context, req GenerateRequest, progress Progress) (gen *Generation, err error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	stem := SanitizeStem(req.Source)
	id, clip, err := reserve(s.outputDir, stem, "_trim.mp4", s.newID)
	if err != nil {
		return nil, newError(StageReserve, KindInternal, err)
	}
	base := stem + "_" + id
	log := s.log.With("generation", id, "source", req.Source)

	defer func() {
		if err != nil {
			removeQuietly(log, clip)
		}
	}()

	progress.report(0.1, "Trimming Video...")
	log.Infow("trimming clip", "start", req.Start, "end", req.End, "clip", clip)
	if err := s.encoder.Trim(ctx, req.Source, clip, req.Start, req.End, s.TrimOptions); err != nil {
		return nil, classify(StageTrim, err, KindExternalProcess)
	}

	progress.report(0.3, "Extracting Audio...")
	audio, err := s.extractAudio(ctx, clip, base)
	if err != nil {
		return nil, err
	}
	defer removeQuietly(log, audio)

	progress.report(0.5, "Transcribing...")
	result, err := s.transcribe(ctx, req.Transcriber, audio, log)
	if err != nil {
		return nil, err
	}

	progress.report(0.7, "Aligning Timestamps...")
	segments := subtitle.Shift(result.Segments, req.SyncOffset)
	doc := subtitle.Build(segments, subtitle.DefaultStyle())

	subtitlePath := filepath.Join(s.outputDir, base+".ass")
	if err := subtitle.WriteDocument(subtitlePath, doc); err != nil {
		return nil, newError(StageBuild, KindInternal, err)
	}

	log.Infow("generation complete", "segments", len(segments), "language", result.Language, "document", subtitlePath)
	progress.report(1.0, "Done")

	return &Generation{
		ID:           id,
		Source:       req.Source,
		Clip:         clip,
		Stem:         base,
		SubtitlePath: subtitlePath,
		Language:     result.Language,
		Document:     doc,
	}, nil
}

func (s *Service) validate(ctx context.Context, req GenerateRequest) error {
	if strings.TrimSpace(req.Source) == "" {
		return validationError(StageValidate, "no source video given")
	}
	info, err := os.Stat(req.Source)
	if err != nil {
		return newError(StageValidate, KindValidation, fmt.Errorf("source video: %w", err))
	}
	if info.IsDir() {
		return validationError(StageValidate, "source %s is a directory", req.Source)
	}
	if !media.IsVideoFile(req.Source) {
		return validationError(StageValidate, "source %s is not a supported video file", req.Source)
	}
	if req.Start < 0 || req.End <= req.Start {
		return validationError(StageValidate, "invalid range %s-%s: need 0 <= start < end", req.Start, req.End)
	}

	duration, err := s.encoder.Duration(ctx, req.Source)
	if err != nil {
		return classify(StageProbe, err, KindExternalProcess)
	}
	if req.End > duration {
		return validationError(StageValidate, "end %s is past the end of the video (%s)", req.End, duration)
	}
	return nil
}

func (s *Service) extractAudio(ctx context.Context, clip, base string) (string, error) {
	f, err := os.CreateTemp(s.outputDir, base+"_*"+s.AudioOptions.Ext())
	if err != nil {
		return "", newError(StageAudio, KindInternal, err)
	}
	path := f.Name()
	f.Close()

	if err := s.encoder.ExtractAudio(ctx, clip, path, s.AudioOptions); err != nil {
		os.Remove(path)
		return "", classify(StageAudio, err, KindExternalProcess)
	}
	return path, nil
}

func (s *Service) transcribe(ctx context.Context, settings TranscriberSettings, audio string, log *logging.Logger) (*transcribe.Result, error) {
	if s.transcribers == nil {
		return nil, newError(StageTranscribe, KindInternal, fmt.Errorf("no transcriber configured"))
	}
	t, err := s.transcribers(ctx, settings)
	if err != nil {
		return nil, newError(StageTranscribe, KindValidation, err)
	}
	if closer, ok := t.(io.Closer); ok {
		defer closer.Close()
	}

	started := time.Now()
	result, err := transcribe.TranscribeWithFallback(ctx, t, audio, log)
	if err != nil {
		return nil, classify(StageTranscribe, err, KindExternalProcess)
	}
	log.Infow("transcription finished", "segments", len(result.Segments), "elapsed", time.Since(started))
	return result, nil
}

// Burn applies style to the generation's document and renders it into the
// clip. It returns the path of the final video.
func (s *Service) Burn(ctx context.Context, gen *Generation, style subtitle.Style, progress Progress) (string, error) {
	if gen == nil || gen.Clip == "" {
		return "", newError(StageValidate, KindMissingInput, fmt.Errorf("no generated clip; run generate first"))
	}
	if gen.Document.IsZero() {
		return "", newError(StageValidate, KindMissingInput, fmt.Errorf("no subtitle document"))
	}
	if _, err := os.Stat(gen.Clip); err != nil {
		return "", newError(StageValidate, KindMissingInput, fmt.Errorf("clip: %w", err))
	}
	log := s.log.With("generation", gen.ID)

	progress.report(0.1, "Rendering Subtitles...")
	doc, err := subtitle.PatchStyle(gen.Document, style)
	if err != nil {
		return "", classify(StagePatch, err, KindValidation)
	}

	f, err := os.CreateTemp(s.outputDir, gen.Stem+"_edit_*.ass")
	if err != nil {
		return "", newError(StageBurn, KindInternal, err)
	}
	tempPath := f.Name()
	f.Close()
	defer removeQuietly(log, tempPath)

	if err := subtitle.WriteDocument(tempPath, doc); err != nil {
		return "", newError(StageBurn, KindInternal, err)
	}

	progress.report(0.5, "Burning Video (FFmpeg)...")
	final := filepath.Join(s.outputDir, gen.Stem+"_final.mp4")
	started := time.Now()
	if err := s.encoder.Burn(ctx, gen.Clip, tempPath, final, s.BurnOptions); err != nil {
		return "", classify(StageBurn, err, KindExternalProcess)
	}

	log.Infow("burn complete", "output", final, "elapsed", time.Since(started))
	progress.report(1.0, "Done")
	return final, nil
}

func removeQuietly(log *logging.Logger, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warnw("failed to remove file", "path", path, "error", err)
	}
}
