package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/whisperburn/internal/subtitle"
	"github.com/mgpai22/whisperburn/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate [subtitle.ass]",
	Short: "Translate a subtitle document to another language using AI",
	Long: `Translate a generated ASS/SSA document to another language using AI.

Styling, override tags and timing are preserved; only the dialogue text is
translated, so the result can still be burned with "whisperburn burn".

The --overlay flag creates bilingual subtitles with the translated text
first, followed by the original text on the next line.

Examples:
  whisperburn translate talk_1a2b3c4d.ass --target-language japanese
  whisperburn translate talk_1a2b3c4d.ass -t es --overlay --provider anthropic
  whisperburn translate talk_1a2b3c4d.ass -l english -t spanish -o talk.es.ass`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().
		StringP("target-language", "t", "", "Target language for translation (default from config)")
	translateCmd.Flags().
		StringP("language", "l", "", "Language of the document (detected by the model when empty)")
	translateCmd.Flags().
		Bool("overlay", false, "Overlay translated text with original (bilingual subtitles)")
	translateCmd.Flags().
		String("model", "", "Model to use for translation (provider-specific, uses sensible defaults)")
	translateCmd.Flags().
		Bool("model-override", false, "Allow any custom model, bypassing provider model validation")
	translateCmd.Flags().
		String("provider", "", "Translation provider (gemini, openai, anthropic; default from config)")
	translateCmd.Flags().
		Int("concurrency", 0, "Number of parallel translation workers (default from config)")
	translateCmd.Flags().
		Int("batch-size", 0, "Number of subtitle entries per API request (default from config)")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	subtitlePath := args[0]
	ctx := cmd.Context()

	targetLang, _ := cmd.Flags().GetString("target-language")
	inputLang, _ := cmd.Flags().GetString("language")
	overlay, _ := cmd.Flags().GetBool("overlay")
	model, _ := cmd.Flags().GetString("model")
	modelOverride, _ := cmd.Flags().GetBool("model-override")
	providerStr, _ := cmd.Flags().GetString("provider")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	outputPath, _ := cmd.Flags().GetString("output")

	if _, err := os.Stat(subtitlePath); os.IsNotExist(err) {
		return fmt.Errorf("subtitle file not found: %s", subtitlePath)
	}

	ext := strings.ToLower(filepath.Ext(subtitlePath))
	if ext != ".ass" && ext != ".ssa" {
		return fmt.Errorf("unsupported subtitle format %q: use .ass or .ssa", ext)
	}

	targetLang = strings.TrimSpace(firstNonEmpty(targetLang, cfg.Translation.TargetLanguage))
	if targetLang == "" {
		return fmt.Errorf("target language is required: pass --target-language or set translation.target_language")
	}
	if inputLang != "" && strings.EqualFold(strings.TrimSpace(inputLang), targetLang) {
		return fmt.Errorf(
			"input language %q and target language %q cannot be the same",
			inputLang,
			targetLang,
		)
	}

	provider := translate.Provider(firstNonEmpty(providerStr, cfg.Translation.Provider))
	model = firstNonEmpty(model, cfg.Translation.Model)
	if !modelOverride {
		if err := translate.ValidateModel(provider, model); err != nil {
			return fmt.Errorf("%w (use --model-override to bypass)", err)
		}
	}

	if !cmd.Flags().Changed("concurrency") {
		concurrency = cfg.Translation.Concurrency
	}
	if !cmd.Flags().Changed("batch-size") {
		batchSize = cfg.Translation.BatchSize
	}
	if concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be positive, got %d", batchSize)
	}

	if outputPath == "" {
		outputPath = translatedPath(subtitlePath, targetLang, overlay)
	}

	logger.Infow("Starting subtitle translation",
		"input", subtitlePath,
		"output", outputPath,
		"target_language", targetLang,
		"input_language", inputLang,
		"provider", provider,
		"overlay", overlay,
		"model", model,
	)

	doc, err := subtitle.ReadDocument(subtitlePath)
	if err != nil {
		return fmt.Errorf("failed to read subtitle file: %w", err)
	}
	lines := len(doc.DialogueLines())
	if lines == 0 {
		return fmt.Errorf("subtitle file contains no dialogue lines")
	}

	translator, err := newTranslator(ctx, provider, translate.Options{
		InputLanguage:  inputLang,
		TargetLanguage: targetLang,
		Model:          model,
		BatchSize:      batchSize,
	})
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	logger.Infow("Translating subtitles", "items", lines, "concurrency", concurrency)

	translated, err := translate.TranslateDocument(ctx, translator, doc, translate.DocumentOptions{
		Overlay:     overlay,
		Concurrency: concurrency,
	})
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}

	if err := subtitle.WriteDocument(outputPath, translated); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Printf("Subtitles translated successfully: %s\n", absOutput)
	fmt.Printf("  Entries: %d\n", lines)
	fmt.Printf("  Target language: %s\n", targetLang)
	if overlay {
		fmt.Printf("  Mode: bilingual overlay\n")
	}
	return nil
}

// talk.ass -> talk.es.ass, or talk.es.overlay.ass
func translatedPath(path, targetLang string, overlay bool) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	if overlay {
		return fmt.Sprintf("%s.%s.overlay%s", base, targetLang, ext)
	}
	return fmt.Sprintf("%s.%s%s", base, targetLang, ext)
}
