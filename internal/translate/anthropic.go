package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// room for a full batch of translated lines plus JSON framing
const anthropicMaxTokens = 8192

// AnthropicTranslator translates through the Claude Messages API.
type AnthropicTranslator struct {
	batcher
	client anthropic.Client
	model  anthropic.Model
}

func NewAnthropicTranslator(ctx context.Context, apiKey string, opts Options) (*AnthropicTranslator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	t := &AnthropicTranslator{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(DefaultModel(ProviderAnthropic, opts.Model)),
	}
	t.batcher = newBatcher(promptBatches("Anthropic", t.complete, opts), opts.BatchSize)
	return t, nil
}

func (t *AnthropicTranslator) complete(ctx context.Context, prompt string) (string, error) {
	message, err := t.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     t.model,
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

func (t *AnthropicTranslator) Close() error {
	return nil
}
