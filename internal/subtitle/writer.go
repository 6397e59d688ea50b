package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// renders entries in a file format other than ASS
type Writer interface {
	Write(entries []Entry, path string) error
}

// SubRip format
type SRTWriter struct{}

// WebVTT format
type VTTWriter struct{}

// ASS passthrough, writes a document unchanged
type ASSWriter struct {
	Document Document
}

func NewWriter(format Format, doc Document) (Writer, error) {
	switch format {
	case FormatSRT:
		return &SRTWriter{}, nil
	case FormatVTT:
		return &VTTWriter{}, nil
	case FormatASS:
		return &ASSWriter{Document: doc}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Export writes doc to path in the format implied by its extension.
func Export(doc Document, path string) error {
	parsed, err := ParseDocument(doc)
	if err != nil {
		return err
	}
	w, err := NewWriter(GetFormatFromExtension(path), doc)
	if err != nil {
		return err
	}
	return w.Write(parsed.Entries(), path)
}

func (w *SRTWriter) Write(entries []Entry, path string) error {
	var sb strings.Builder
	for i, entry := range entries {
		// index (1-based)
		sb.WriteString(fmt.Sprintf("%d\n", i+1))

		// 00:00:00,000 --> 00:00:00,000
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatSRTTime(entry.StartTime),
			formatSRTTime(entry.EndTime)))

		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}

	return writeFile(path, sb.String())
}

func (w *VTTWriter) Write(entries []Entry, path string) error {
	var sb strings.Builder

	sb.WriteString("WEBVTT\n\n")

	for i, entry := range entries {
		// optional cue identifier
		sb.WriteString(fmt.Sprintf("%d\n", i+1))

		// 00:00:00.000 --> 00:00:00.000
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatVTTTime(entry.StartTime),
			formatVTTTime(entry.EndTime)))

		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}

	return writeFile(path, sb.String())
}

func (w *ASSWriter) Write(_ []Entry, path string) error {
	return writeFile(path, w.Document.String())
}

func formatSRTTime(d time.Duration) string {
	return formatClock(d, ",")
}

func formatVTTTime(d time.Duration) string {
	return formatClock(d, ".")
}

func formatClock(d time.Duration, sep string) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d%s%03d", hours, minutes, seconds, sep, millis)
}

func writeFile(path, content string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}

// subtitle format based on file extension
func GetFormatFromExtension(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".srt":
		return FormatSRT
	case ".vtt":
		return FormatVTT
	case ".ass", ".ssa":
		return FormatASS
	default:
		return FormatSRT
	}
}

// file extension for a format
func GetExtensionForFormat(format Format) string {
	switch format {
	case FormatSRT:
		return ".srt"
	case FormatVTT:
		return ".vtt"
	case FormatASS:
		return ".ass"
	default:
		return ".srt"
	}
}

// ParseFormat accepts srt, vtt or ass in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatSRT, FormatVTT, FormatASS:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %q", s)
	}
}
