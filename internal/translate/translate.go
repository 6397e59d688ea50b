package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// TranslationItem is one dialogue text, keyed by its position in the document.
type TranslationItem struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// TranslationResult carries the translated text for the item with the same Index.
type TranslationResult struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type Translator interface {
	Translate(ctx context.Context, items []TranslationItem) ([]TranslationResult, error)
}

// ConcurrentTranslator can spread batches over several workers. Results are
// ordered by Index either way.
type ConcurrentTranslator interface {
	Translator
	TranslateWithConcurrency(ctx context.Context, items []TranslationItem, concurrency int) ([]TranslationResult, error)
}

type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

func Providers() []Provider {
	return []Provider{ProviderGemini, ProviderOpenAI, ProviderAnthropic}
}

type Options struct {
	// InputLanguage is optional; the model detects it when empty.
	InputLanguage  string
	TargetLanguage string
	Model          string
	// Prompt is appended to the built-in instructions.
	Prompt    string
	BatchSize int
}

// Factory returns the translator for provider. Every provider supports
// concurrent batches.
func Factory(ctx context.Context, provider Provider, apiKey string, opts Options) (ConcurrentTranslator, error) {
	if strings.TrimSpace(opts.TargetLanguage) == "" {
		return nil, fmt.Errorf("target language is required")
	}

	switch provider {
	case ProviderGemini:
		return NewGeminiTranslator(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAITranslator(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicTranslator(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", provider)
	}
}

// rules sent with every batch; burned-in subtitles cannot be reflowed later
var promptRules = []string{
	"Translate ONLY the text content, preserving the meaning.",
	`Keep ASS override tags (like {\i1}, {\an8}, {\pos(...)}) unchanged.`,
	`Preserve line breaks (\N) in the same positions.`,
	"Keep each translation short enough to read as a burned-in subtitle.",
	"Return ONLY a JSON array with the same structure.",
	"Each object must have 'index' and 'text' fields.",
	"The 'index' values must match the input indices exactly.",
	"Do not add any explanation or markdown formatting.",
}

// BuildPrompt renders the request for one batch.
func BuildPrompt(opts Options, items []TranslationItem) string {
	var sb strings.Builder

	source := "subtitle texts"
	if opts.InputLanguage != "" {
		source = opts.InputLanguage + " subtitle texts"
	}
	fmt.Fprintf(&sb, "Translate the following %s to %s.\n\n", source, opts.TargetLanguage)

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	for i, rule := range promptRules {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, rule)
	}
	sb.WriteString("\n")

	if opts.Prompt != "" {
		fmt.Fprintf(&sb, "Additional instructions: %s\n\n", opts.Prompt)
	}

	input, _ := json.MarshalIndent(items, "", "  ")
	sb.WriteString("Input JSON:\n")
	sb.Write(input)
	sb.WriteString("\n\nOutput the translated JSON array only:")

	return sb.String()
}
