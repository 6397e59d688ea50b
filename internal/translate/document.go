package translate

import (
	"context"
	"fmt"

	"github.com/mgpai22/whisperburn/internal/subtitle"
)

// DocumentOptions controls how translations are written back.
type DocumentOptions struct {
	// Overlay keeps the original line under the translation.
	Overlay     bool
	Concurrency int
}

// TranslateDocument translates every dialogue line of doc. Override tags,
// timing and the style record are left as they were.
func TranslateDocument(
	ctx context.Context,
	tr Translator,
	doc subtitle.Document,
	opts DocumentOptions,
) (subtitle.Document, error) {
	parsed, err := subtitle.ParseDocument(doc)
	if err != nil {
		return subtitle.Document{}, err
	}

	items := make([]TranslationItem, 0, parsed.Len())
	for i := 0; i < parsed.Len(); i++ {
		text, err := parsed.OriginalText(i)
		if err != nil {
			return subtitle.Document{}, err
		}
		items = append(items, TranslationItem{Index: i, Text: text})
	}
	if len(items) == 0 {
		return doc, nil
	}

	var results []TranslationResult
	if ct, ok := tr.(ConcurrentTranslator); ok && opts.Concurrency > 1 {
		results, err = ct.TranslateWithConcurrency(ctx, items, opts.Concurrency)
	} else {
		results, err = tr.Translate(ctx, items)
	}
	if err != nil {
		return subtitle.Document{}, err
	}
	if len(results) != len(items) {
		return subtitle.Document{}, fmt.Errorf("expected %d translations, got %d", len(items), len(results))
	}

	for _, r := range results {
		if opts.Overlay {
			err = parsed.SetTextWithOverlay(r.Index, r.Text)
		} else {
			err = parsed.SetText(r.Index, r.Text)
		}
		if err != nil {
			return subtitle.Document{}, fmt.Errorf("apply translation %d: %w", r.Index, err)
		}
	}

	return parsed.Render(), nil
}
