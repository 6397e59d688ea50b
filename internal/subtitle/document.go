package subtitle

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	ErrStyleLineMissing    = errors.New("document has no " + strings.TrimSuffix(StylePrefix, ",") + " style line")
	ErrStyleLineDuplicated = errors.New("document has more than one " + strings.TrimSuffix(StylePrefix, ",") + " style line")
)

const (
	playResX = 1920
	playResY = 1080

	eventsFormatLine = "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text"
	editDelimiter    = "; ======================================="
	editBanner       = ";    EDIT SUBTITLES BELOW THIS LINE      "
)

// Document is the text of an ASS subtitle track. It is a value: edits and
// style patches produce new documents.
type Document struct {
	text string
}

func NewDocument(text string) Document {
	return Document{text: text}
}

func (d Document) String() string {
	return d.text
}

func (d Document) Bytes() []byte {
	return []byte(d.text)
}

func (d Document) IsZero() bool {
	return strings.TrimSpace(d.text) == ""
}

// Build renders segments into a fresh document using style. Every segment
// yields exactly one dialogue line, in input order.
func Build(segments []Segment, style Style) Document {
	var sb strings.Builder

	// script info section
	sb.WriteString("[Script Info]\n")
	sb.WriteString("ScriptType: v4.00+\n")
	sb.WriteString(fmt.Sprintf("PlayResX: %d\n", playResX))
	sb.WriteString(fmt.Sprintf("PlayResY: %d\n", playResY))
	sb.WriteString("WrapStyle: 0\n")
	sb.WriteString("ScaledBorderAndShadow: yes\n\n")

	// v4+ styles section
	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString(styleFormatLine + "\n")
	sb.WriteString(style.Line() + "\n\n")

	// events section
	sb.WriteString("[Events]\n")
	sb.WriteString(eventsFormatLine + "\n")
	sb.WriteString(editDelimiter + "\n")
	sb.WriteString(editBanner + "\n")
	sb.WriteString(editDelimiter + "\n")

	for _, seg := range segments {
		sb.WriteString(dialogueLine(seg))
		sb.WriteString("\n")
	}

	return Document{text: sb.String()}
}

func dialogueLine(seg Segment) string {
	return fmt.Sprintf("Dialogue: 0,%s,%s,%s,,0,0,0,,%s",
		FormatTimestamp(seg.StartTime),
		FormatTimestamp(seg.EndTime),
		styleName,
		sanitizeText(seg.Text),
	)
}

var lineBreaks = regexp.MustCompile(`[\r\n]+`)

// collapses embedded line breaks so a cue stays on one dialogue line
func sanitizeText(text string) string {
	return strings.TrimSpace(lineBreaks.ReplaceAllString(text, " "))
}

// PatchStyle replaces the style line of doc with one rendered from style.
// All other bytes, including hand-edited dialogue, are left untouched. The
// document must contain exactly one style line.
func PatchStyle(doc Document, style Style) (Document, error) {
	if err := style.Validate(); err != nil {
		return Document{}, err
	}

	lines := strings.Split(doc.text, "\n")
	idx, err := styleLineIndex(lines)
	if err != nil {
		return Document{}, err
	}

	replacement := style.Line()
	if strings.HasSuffix(lines[idx], "\r") {
		replacement += "\r"
	}
	lines[idx] = replacement

	return Document{text: strings.Join(lines, "\n")}, nil
}

// StyleLine returns the document's style record without line terminator.
func (d Document) StyleLine() (string, error) {
	lines := strings.Split(d.text, "\n")
	idx, err := styleLineIndex(lines)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(lines[idx], "\r"), nil
}

// DialogueLines returns every dialogue line in document order.
func (d Document) DialogueLines() []string {
	var out []string
	for _, line := range strings.Split(d.text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "Dialogue:") {
			out = append(out, line)
		}
	}
	return out
}

func styleLineIndex(lines []string) (int, error) {
	found := -1
	for i, line := range lines {
		if !isStyleLine(line) {
			continue
		}
		if found >= 0 {
			return -1, fmt.Errorf("%w (lines %d and %d)", ErrStyleLineDuplicated, found+1, i+1)
		}
		found = i
	}
	if found < 0 {
		return -1, ErrStyleLineMissing
	}
	return found, nil
}

func isStyleLine(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t\ufeff"), StylePrefix)
}

// ReadDocument loads a document from disk.
func ReadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read subtitle document: %w", err)
	}
	return Document{text: string(data)}, nil
}

// WriteDocument stores doc at path, creating parent directories.
func WriteDocument(path string, doc Document) error {
	if err := writeFile(path, doc.text); err != nil {
		return fmt.Errorf("failed to write subtitle document: %w", err)
	}
	return nil
}
