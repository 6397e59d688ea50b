package translate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// models each provider is known to handle the JSON prompt with
var knownModels = map[Provider][]string{
	ProviderGemini: {
		"gemini-3-pro-preview", "gemini-3-flash-preview",
		"gemini-2.5-pro", "gemini-2.5-flash", "gemini-2.5-flash-lite",
	},
	ProviderOpenAI: {
		"o1", "o3-mini", "o1-pro", "o3",
		"gpt-5", "gpt-5-nano", "gpt-5-mini", "gpt-5-pro",
		"gpt-5.1", "gpt-5.2", "gpt-5.2-pro",
	},
	ProviderAnthropic: {
		"claude-sonnet-4-5", "claude-opus-4-1", "claude-haiku-4-5",
	},
}

// used when no model is configured
var defaultModels = map[Provider]string{
	ProviderGemini:    "gemini-2.5-flash",
	ProviderOpenAI:    "gpt-5-mini",
	ProviderAnthropic: string(anthropic.ModelClaudeHaiku4_5),
}

// DefaultModel returns model, or the provider default when model is blank.
func DefaultModel(p Provider, model string) string {
	if model = strings.TrimSpace(model); model != "" {
		return model
	}
	return defaultModels[p]
}

// KnownModels lists the vetted models for p.
func KnownModels(p Provider) []string {
	return slices.Clone(knownModels[p])
}

// ValidateModel rejects models outside the vetted list. An empty model means
// the provider default and is always accepted.
func ValidateModel(p Provider, model string) error {
	model = strings.TrimSpace(model)
	if model == "" {
		return nil
	}
	known, ok := knownModels[p]
	if !ok {
		return fmt.Errorf("unsupported translation provider: %s", p)
	}
	if !slices.Contains(known, model) {
		return fmt.Errorf("unsupported %s model %q: valid models are %s", p, model, strings.Join(known, ", "))
	}
	return nil
}
