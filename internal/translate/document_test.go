package translate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mgpai22/whisperburn/internal/subtitle"
)

type dictTranslator struct {
	words map[string]string
	err   error
}

func (d *dictTranslator) Translate(_ context.Context, items []TranslationItem) ([]TranslationResult, error) {
	if d.err != nil {
		return nil, d.err
	}
	results := make([]TranslationResult, len(items))
	for i, item := range items {
		results[i] = TranslationResult{Index: item.Index, Text: d.words[item.Text]}
	}
	return results, nil
}

func testDocument() subtitle.Document {
	return subtitle.Build([]subtitle.Segment{
		{StartTime: 0, EndTime: subtitle.SecondsToDuration(1.25), Text: "hello"},
		{StartTime: subtitle.SecondsToDuration(1.25), EndTime: subtitle.SecondsToDuration(3), Text: "world"},
	}, subtitle.DefaultStyle())
}

func TestTranslateDocument(t *testing.T) {
	tr := &dictTranslator{words: map[string]string{"hello": "hola", "world": "mundo"}}

	out, err := TranslateDocument(context.Background(), tr, testDocument(), DocumentOptions{})
	if err != nil {
		t.Fatalf("TranslateDocument failed: %v", err)
	}

	lines := out.DialogueLines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 dialogue lines, got %d", len(lines))
	}
	if lines[0] != "Dialogue: 0,0:00:00.00,0:00:01.25,Default,,0,0,0,,hola" {
		t.Errorf("unexpected line: %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], ",,mundo") {
		t.Errorf("unexpected line: %q", lines[1])
	}

	// style line untouched and still patchable
	if _, err := subtitle.PatchStyle(out, subtitle.DefaultStyle()); err != nil {
		t.Errorf("translated document lost its style line: %v", err)
	}
}

func TestTranslateDocumentOverlay(t *testing.T) {
	tr := &dictTranslator{words: map[string]string{"hello": "hola", "world": "mundo"}}

	out, err := TranslateDocument(context.Background(), tr, testDocument(), DocumentOptions{Overlay: true})
	if err != nil {
		t.Fatalf("TranslateDocument failed: %v", err)
	}

	lines := out.DialogueLines()
	if !strings.HasSuffix(lines[0], `,,hola\Nhello`) {
		t.Errorf("overlay missing original: %q", lines[0])
	}
}

func TestTranslateDocumentEmpty(t *testing.T) {
	doc := subtitle.Build(nil, subtitle.DefaultStyle())
	tr := &dictTranslator{err: errors.New("should not be called")}

	out, err := TranslateDocument(context.Background(), tr, doc, DocumentOptions{})
	if err != nil {
		t.Fatalf("TranslateDocument failed: %v", err)
	}
	if out.String() != doc.String() {
		t.Error("empty document should be returned unchanged")
	}
}

func TestTranslateDocumentError(t *testing.T) {
	tr := &dictTranslator{err: errors.New("quota exceeded")}

	if _, err := TranslateDocument(context.Background(), tr, testDocument(), DocumentOptions{}); err == nil {
		t.Error("expected translator error")
	}
	if _, err := TranslateDocument(context.Background(), tr, subtitle.NewDocument("not a document"), DocumentOptions{}); !errors.Is(err, subtitle.ErrMalformedDocument) {
		t.Errorf("expected ErrMalformedDocument, got %v", err)
	}
}
