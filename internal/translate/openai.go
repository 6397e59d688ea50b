package translate

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAITranslator translates through Chat Completions.
type OpenAITranslator struct {
	batcher
	client openai.Client
	model  string
}

func NewOpenAITranslator(ctx context.Context, apiKey string, opts Options) (*OpenAITranslator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	t := &OpenAITranslator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  DefaultModel(ProviderOpenAI, opts.Model),
	}
	t.batcher = newBatcher(promptBatches("OpenAI", t.complete, opts), opts.BatchSize)
	return t, nil
}

func (t *OpenAITranslator) complete(ctx context.Context, prompt string) (string, error) {
	completion, err := t.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: t.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}

func (t *OpenAITranslator) Close() error {
	return nil
}
