package subtitle

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var ErrMalformedDocument = errors.New("malformed subtitle document")

// parsed Dialogue line with all fields
type Dialogue struct {
	Fields          []string
	Text            string
	LeadingTags     string
	TextWithoutTags string
	line            int
}

// ParsedDocument is an editable view of a document. It keeps every line in
// place so that rendering only rewrites the dialogue lines that changed.
type ParsedDocument struct {
	lines           []string
	formatColumns   []string
	textColumnIndex int
	startIndex      int
	endIndex        int
	dialogues       []Dialogue
}

// ParseDocument reads the [Events] section of doc. Dialogue lines outside
// that section are kept verbatim but are not editable.
func ParseDocument(doc Document) (*ParsedDocument, error) {
	text := strings.TrimPrefix(doc.text, "\ufeff")
	text = strings.TrimSuffix(text, "\n")

	parsed := &ParsedDocument{
		lines:           strings.Split(text, "\n"),
		textColumnIndex: -1,
		startIndex:      -1,
		endIndex:        -1,
	}

	inEvents := false
	for i, raw := range parsed.lines {
		line := strings.TrimSuffix(raw, "\r")
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			section := strings.ToLower(strings.Trim(trimmed, "[]"))
			inEvents = section == "events"
			continue
		}
		if !inEvents {
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "Format:"):
			if err := parsed.setFormat(trimmed); err != nil {
				return nil, err
			}
		case strings.HasPrefix(trimmed, "Dialogue:"):
			if parsed.formatColumns == nil {
				return nil, fmt.Errorf("%w: dialogue at line %d precedes the events Format line", ErrMalformedDocument, i+1)
			}
			d, err := parsed.parseDialogue(trimmed)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedDocument, i+1, err)
			}
			d.line = i
			parsed.dialogues = append(parsed.dialogues, d)
		}
	}

	if parsed.formatColumns == nil {
		return nil, fmt.Errorf("%w: missing Format line in [Events] section", ErrMalformedDocument)
	}

	return parsed, nil
}

func (p *ParsedDocument) setFormat(trimmed string) error {
	columns := strings.Split(strings.TrimPrefix(trimmed, "Format:"), ",")
	for i, col := range columns {
		columns[i] = strings.TrimSpace(col)
		switch strings.ToLower(columns[i]) {
		case "text":
			p.textColumnIndex = i
		case "start":
			p.startIndex = i
		case "end":
			p.endIndex = i
		}
	}
	if p.textColumnIndex == -1 {
		return fmt.Errorf("%w: events Format line has no Text column", ErrMalformedDocument)
	}
	p.formatColumns = columns
	return nil
}

func (p *ParsedDocument) parseDialogue(trimmed string) (Dialogue, error) {
	content := strings.TrimSpace(strings.TrimPrefix(trimmed, "Dialogue:"))

	numColumns := len(p.formatColumns)
	fields := splitASSFields(content, numColumns)
	if len(fields) < numColumns {
		return Dialogue{}, fmt.Errorf("expected %d fields, got %d", numColumns, len(fields))
	}

	d := Dialogue{Fields: fields, Text: fields[p.textColumnIndex]}
	d.LeadingTags, d.TextWithoutTags = extractLeadingTags(d.Text)
	return d, nil
}

// the text column is last, so commas inside it are kept
func splitASSFields(content string, numFields int) []string {
	if numFields <= 0 {
		return nil
	}

	parts := make([]string, 0, numFields)
	remaining := content

	for i := 0; i < numFields-1; i++ {
		idx := strings.Index(remaining, ",")
		if idx == -1 {
			parts = append(parts, remaining)
			remaining = ""
			break
		}
		parts = append(parts, remaining[:idx])
		remaining = remaining[idx+1:]
	}

	parts = append(parts, remaining)

	return parts
}

var leadingTagPattern = regexp.MustCompile(`^(\{[^}]*\})+`)

func extractLeadingTags(text string) (string, string) {
	match := leadingTagPattern.FindString(text)
	if match == "" {
		return "", text
	}
	return match, text[len(match):]
}

func (p *ParsedDocument) Len() int {
	return len(p.dialogues)
}

// Dialogues returns a copy of the editable dialogue records.
func (p *ParsedDocument) Dialogues() []Dialogue {
	out := make([]Dialogue, len(p.dialogues))
	copy(out, p.dialogues)
	return out
}

// Entries returns the dialogue cues with hard breaks expanded to newlines.
func (p *ParsedDocument) Entries() []Entry {
	entries := make([]Entry, len(p.dialogues))

	for i, d := range p.dialogues {
		text := strings.ReplaceAll(d.TextWithoutTags, "\\N", "\n")
		text = strings.ReplaceAll(text, "\\n", "\n")

		entries[i] = Entry{
			Index:     i + 1,
			StartTime: p.fieldTime(d, p.startIndex),
			EndTime:   p.fieldTime(d, p.endIndex),
			Text:      text,
		}
	}

	return entries
}

// unparseable times read as zero, as players do
func (p *ParsedDocument) fieldTime(d Dialogue, idx int) time.Duration {
	if idx < 0 || idx >= len(d.Fields) {
		return 0
	}
	parsed, err := ParseTimestamp(d.Fields[idx])
	if err != nil {
		return 0
	}
	return parsed
}

func (p *ParsedDocument) checkIndex(index int) error {
	if index < 0 || index >= len(p.dialogues) {
		return fmt.Errorf("index %d out of range (0-%d)", index, len(p.dialogues)-1)
	}
	return nil
}

// SetText replaces the text of dialogue index, keeping its override tags.
func (p *ParsedDocument) SetText(index int, text string) error {
	if err := p.checkIndex(index); err != nil {
		return err
	}

	assText := strings.ReplaceAll(text, "\n", "\\N")
	p.setDialogueText(index, p.dialogues[index].LeadingTags+assText)
	p.dialogues[index].TextWithoutTags = assText

	return nil
}

// SetTextWithOverlay puts translated above the existing text of dialogue
// index.
func (p *ParsedDocument) SetTextWithOverlay(index int, translated string) error {
	if err := p.checkIndex(index); err != nil {
		return err
	}

	d := p.dialogues[index]
	assTranslated := strings.ReplaceAll(translated, "\n", "\\N")
	p.setDialogueText(index, d.LeadingTags+assTranslated+"\\N"+d.TextWithoutTags)

	return nil
}

func (p *ParsedDocument) setDialogueText(index int, text string) {
	d := &p.dialogues[index]
	d.Text = text
	d.Fields[p.textColumnIndex] = text

	suffix := ""
	if strings.HasSuffix(p.lines[d.line], "\r") {
		suffix = "\r"
	}
	p.lines[d.line] = "Dialogue: " + strings.Join(d.Fields, ",") + suffix
}

func (p *ParsedDocument) OriginalText(index int) (string, error) {
	if err := p.checkIndex(index); err != nil {
		return "", err
	}
	return p.dialogues[index].TextWithoutTags, nil
}

// Render produces the edited document.
func (p *ParsedDocument) Render() Document {
	return Document{text: strings.Join(p.lines, "\n") + "\n"}
}
