package subtitle

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseDocumentEntries(t *testing.T) {
	doc := Build([]Segment{
		{StartTime: secs(1), EndTime: secs(4), Text: "Hello, world!"},
		{StartTime: secs(5.5), EndTime: secs(8.2), Text: "Second line"},
	}, DefaultStyle())

	parsed, err := ParseDocument(doc)
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}

	entries := parsed.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	if entries[0].StartTime != time.Second || entries[0].EndTime != 4*time.Second {
		t.Errorf("entry 0: unexpected times %v-%v", entries[0].StartTime, entries[0].EndTime)
	}
	if entries[0].Text != "Hello, world!" {
		t.Errorf("entry 0: commas inside text must be kept, got %q", entries[0].Text)
	}
	if entries[1].StartTime != 5500*time.Millisecond || entries[1].EndTime != 8200*time.Millisecond {
		t.Errorf("entry 1: unexpected times %v-%v", entries[1].StartTime, entries[1].EndTime)
	}
	if entries[1].Index != 2 {
		t.Errorf("entry 1: expected index 2, got %d", entries[1].Index)
	}
}

func TestParsedDocumentRenderUnchanged(t *testing.T) {
	doc := Build(sampleSegments(), DefaultStyle())

	parsed, err := ParseDocument(doc)
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	if got := parsed.Render(); got.String() != doc.String() {
		t.Errorf("render without edits changed the document:\n%s", got)
	}
}

func TestParsedDocumentPreservesStyles(t *testing.T) {
	content := `[Script Info]
ScriptType: v4.00+

[V4+ Styles]
` + styleFormatLine + `
` + DefaultStyle().Line() + `
Style: Italic,Arial,20,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,1,0,0,100,100,0,0,1,2,2,2,10,10,10,1

[Events]
` + eventsFormatLine + `
` + editDelimiter + `
Dialogue: 0,0:00:01.00,0:00:04.00,Default,,0,0,0,,Original text
Comment: 0,0:00:04.00,0:00:05.00,Default,,0,0,0,,not shown
Dialogue: 0,0:00:05.00,0:00:08.00,Italic,,0,0,0,,{\pos(100,200)}Tagged text
`
	parsed, err := ParseDocument(NewDocument(content))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}

	if err := parsed.SetText(0, "Translated text"); err != nil {
		t.Fatalf("SetText failed: %v", err)
	}
	if err := parsed.SetTextWithOverlay(1, "翻訳されたテキスト"); err != nil {
		t.Fatalf("SetTextWithOverlay failed: %v", err)
	}

	out := parsed.Render().String()

	if !strings.Contains(out, "Style: Italic,Arial,20") {
		t.Error("Italic style not preserved")
	}
	if !strings.Contains(out, "Dialogue: 0,0:00:01.00,0:00:04.00,Default,,0,0,0,,Translated text\n") {
		t.Errorf("first entry not updated, got: %s", out)
	}
	if !strings.Contains(out, "{\\pos(100,200)}翻訳されたテキスト\\NTagged text") {
		t.Errorf("overlay not correct, got: %s", out)
	}

	// comment stays between the two dialogues
	first := strings.Index(out, "Translated text")
	comment := strings.Index(out, "Comment:")
	second := strings.Index(out, "Italic,,0,0,0")
	if !(first < comment && comment < second) {
		t.Error("line order changed on render")
	}

	// style line is still patchable after an edit cycle
	if _, err := PatchStyle(parsed.Render(), DefaultStyle()); err != nil {
		t.Errorf("PatchStyle after edit failed: %v", err)
	}
}

func TestParsedDocumentSetTextMultiline(t *testing.T) {
	parsed, err := ParseDocument(Build(sampleSegments(), DefaultStyle()))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}

	if err := parsed.SetText(1, "two\nlines"); err != nil {
		t.Fatalf("SetText failed: %v", err)
	}

	doc := parsed.Render()
	if n := len(doc.DialogueLines()); n != 2 {
		t.Fatalf("expected 2 dialogue lines after edit, got %d", n)
	}
	if !strings.HasSuffix(doc.DialogueLines()[1], ",,two\\Nlines") {
		t.Errorf("newline not encoded as hard break: %q", doc.DialogueLines()[1])
	}

	reparsed, err := ParseDocument(doc)
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	if got := reparsed.Entries()[1].Text; got != "two\nlines" {
		t.Errorf("entry text = %q", got)
	}
}

func TestParsedDocumentIndexRange(t *testing.T) {
	parsed, err := ParseDocument(Build(sampleSegments(), DefaultStyle()))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}

	if err := parsed.SetText(2, "x"); err == nil {
		t.Error("expected out of range error")
	}
	if err := parsed.SetTextWithOverlay(-1, "x"); err == nil {
		t.Error("expected out of range error")
	}
	if _, err := parsed.OriginalText(5); err == nil {
		t.Error("expected out of range error")
	}
}

func TestParseDocumentMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no events", "[Script Info]\nScriptType: v4.00+\n"},
		{"no text column", "[Events]\nFormat: Layer, Start, End\n"},
		{"dialogue before format", "[Events]\nDialogue: 0,0:00:00.00,0:00:01.00,Default,,0,0,0,,x\n"},
		{"short dialogue", "[Events]\n" + eventsFormatLine + "\nDialogue: 0,0:00:00.00\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument(NewDocument(tt.doc))
			if !errors.Is(err, ErrMalformedDocument) {
				t.Errorf("expected ErrMalformedDocument, got %v", err)
			}
		})
	}
}

func TestExtractLeadingTags(t *testing.T) {
	tests := []struct {
		input       string
		wantTags    string
		wantContent string
	}{
		{
			input:       "Hello world",
			wantTags:    "",
			wantContent: "Hello world",
		},
		{
			input:       "{\\pos(100,200)}Hello world",
			wantTags:    "{\\pos(100,200)}",
			wantContent: "Hello world",
		},
		{
			input:       "{\\an8}{\\fs24}Hello world",
			wantTags:    "{\\an8}{\\fs24}",
			wantContent: "Hello world",
		},
		{
			input:       "{\\pos(100,200)}{\\c&HFFFFFF&}Hello {\\i1}world{\\i0}",
			wantTags:    "{\\pos(100,200)}{\\c&HFFFFFF&}",
			wantContent: "Hello {\\i1}world{\\i0}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			gotTags, gotContent := extractLeadingTags(tt.input)
			if gotTags != tt.wantTags {
				t.Errorf("tags: got %q, want %q", gotTags, tt.wantTags)
			}
			if gotContent != tt.wantContent {
				t.Errorf("content: got %q, want %q", gotContent, tt.wantContent)
			}
		})
	}
}

func TestExport(t *testing.T) {
	doc := Build(sampleSegments(), DefaultStyle())
	dir := t.TempDir()

	tests := []struct {
		file string
		want string
	}{
		{"out.srt", "1\n00:00:00,000 --> 00:00:01,250\nhello\n\n2\n00:00:01,250 --> 00:00:03,000\nworld\n\n"},
		{"out.vtt", "WEBVTT\n\n1\n00:00:00.000 --> 00:00:01.250\nhello\n\n2\n00:00:01.250 --> 00:00:03.000\nworld\n\n"},
		{"out.ass", doc.String()},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := Export(doc, path); err != nil {
				t.Fatalf("Export failed: %v", err)
			}
			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("failed to read output: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"SRT": FormatSRT, " vtt": FormatVTT, "ass": FormatASS} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("txt"); err == nil {
		t.Error("expected error for txt")
	}
}
