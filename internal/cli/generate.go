package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/whisperburn/internal/config"
	"github.com/mgpai22/whisperburn/internal/pipeline"
	"github.com/mgpai22/whisperburn/internal/subtitle"
	"github.com/mgpai22/whisperburn/internal/transcribe"
)

var generateCmd = &cobra.Command{
	Use:   "generate [video_file]",
	Short: "Trim a clip and generate an editable subtitle document for it",
	Long: `Trim [start, end) out of the video, transcribe it and write an ASS subtitle
document next to the trimmed clip in the output directory.

Times accept seconds (75.5), MM:SS or HH:MM:SS. Edit the document, then run
"whisperburn burn" on the clip and document.

Examples:
  whisperburn generate talk.mp4 --start 00:01:00 --end 00:01:30
  whisperburn generate talk.mp4 -s 5 -e 20 --model large-v2 --device cuda
  whisperburn generate talk.mp4 -s 0 -e 10 --provider openai --offset -0.3`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringP("start", "s", "00:00:00", "Clip start")
	generateCmd.Flags().StringP("end", "e", "", "Clip end (required)")
	generateCmd.Flags().String("model", "", "Recognizer size: tiny, base, small, medium, large-v2 (default from config)")
	generateCmd.Flags().String("device", "", "Device: auto, cuda, cpu (default from config)")
	generateCmd.Flags().Float64("offset", 0, "Sync offset in seconds added to every timestamp (-2 to 2)")
	generateCmd.Flags().String("provider", "", "Transcription provider: whisperx, openai, gemini (default from config)")
	generateCmd.Flags().StringP("language", "l", "", "Spoken language code (e.g., en, es, fr); detected when empty")
	generateCmd.Flags().
		String("transcript-language", "native", "Output language for hosted transcripts (e.g., 'english', or 'native' for original language)")

	_ = generateCmd.MarkFlagRequired("end")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	source := args[0]

	startStr, _ := cmd.Flags().GetString("start")
	endStr, _ := cmd.Flags().GetString("end")
	model, _ := cmd.Flags().GetString("model")
	deviceStr, _ := cmd.Flags().GetString("device")
	offset, _ := cmd.Flags().GetFloat64("offset")
	provider, _ := cmd.Flags().GetString("provider")
	language, _ := cmd.Flags().GetString("language")
	transcriptLang, _ := cmd.Flags().GetString("transcript-language")

	if provider == "" {
		provider = cfg.Transcription.Provider
	}
	if transcribe.Provider(provider) == transcribe.ProviderOpenAI && !isValidOpenAITranscriptLanguage(transcriptLang) {
		return fmt.Errorf("openai can only transcribe in the native language or translate to english, got %q", transcriptLang)
	}

	start, end, err := pipeline.ParseRange(startStr, endStr)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("offset") {
		offset = cfg.Transcription.SyncOffset
	}
	if offset < -config.MaxSyncOffset || offset > config.MaxSyncOffset {
		return fmt.Errorf("offset %.2f outside [-%.1f, %.1f]", offset, config.MaxSyncOffset, config.MaxSyncOffset)
	}
	device, err := transcribe.ParseDevice(firstNonEmpty(deviceStr, cfg.Transcription.Device))
	if err != nil {
		return err
	}

	svc, err := newService(ctx, cmd)
	if err != nil {
		return err
	}

	logger.Infow("Starting subtitle generation",
		"input", source,
		"start", start,
		"end", end,
		"provider", provider,
		"output_dir", svc.OutputDir(),
	)

	gen, err := svc.Generate(ctx, pipeline.GenerateRequest{
		Source:     source,
		Start:      start,
		End:        end,
		SyncOffset: subtitle.SecondsToDuration(offset),
		Transcriber: pipeline.TranscriberSettings{
			Model:              firstNonEmpty(model, cfg.Transcription.Model),
			Device:             device,
			Language:           language,
			TranscriptLanguage: transcriptLang,
		},
	}, logProgress("generate"))
	if err != nil {
		return err
	}

	fmt.Printf("Subtitles generated successfully: %s\n", gen.SubtitlePath)
	fmt.Printf("  Clip: %s\n", gen.Clip)
	fmt.Printf("  Lines: %d\n", len(gen.Document.DialogueLines()))
	if gen.Language != "" {
		fmt.Printf("  Language: %s\n", gen.Language)
	}
	return nil
}

// OpenAI can transcribe in the source language or translate into English,
// nothing else.
func isValidOpenAITranscriptLanguage(lang string) bool {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "", "native", "english", "en":
		return true
	default:
		return false
	}
}

func logProgress(stage string) pipeline.Progress {
	return func(fraction float64, status string) {
		logger.Infow(status, "stage", stage, "progress", fmt.Sprintf("%.0f%%", fraction*100))
	}
}
