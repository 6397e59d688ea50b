package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"google.golang.org/genai"

	"github.com/mgpai22/whisperburn/internal/logging"
	"github.com/mgpai22/whisperburn/internal/subtitle"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiTranscriber uploads clip audio to Gemini and asks for timed phrases
// as JSON. Timing is model-estimated and coarser than the local recognizer.
type GeminiTranscriber struct {
	client *genai.Client
	model  string
	opts   Options
	log    *logging.Logger
}

// phrase as the model is asked to return it, times in seconds
type transcriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func NewGeminiTranscriber(ctx context.Context, apiKey string, opts Options) (*GeminiTranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiTranscriber{
		client: client,
		model:  firstNonEmpty(opts.Model, defaultGeminiModel),
		opts:   opts,
		log:    logging.OrNop(opts.Logger).Named("gemini"),
	}, nil
}

func (t *GeminiTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("audio file: %w", err)
	}

	uploaded, err := t.client.Files.UploadFromPath(ctx, audioPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upload audio file: %w", err)
	}
	defer func() {
		if _, err := t.client.Files.Delete(context.WithoutCancel(ctx), uploaded.Name, nil); err != nil {
			t.log.Debugw("could not delete uploaded audio", "name", uploaded.Name, "error", err)
		}
	}()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(geminiPrompt(t.opts)),
			genai.NewPartFromURI(uploaded.URI, uploaded.MIMEType),
		}, genai.RoleUser),
	}

	t.log.Debugw("requesting transcript", "model", t.model, "file", uploaded.Name)
	resp, err := t.client.Models.GenerateContent(ctx, t.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	segments, err := segmentsFromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transcription: %w", err)
	}

	return &Result{
		Segments: segments,
		Language: t.opts.Language,
		Duration: segmentsDuration(segments),
	}, nil
}

func geminiPrompt(opts Options) string {
	var sb strings.Builder

	sb.WriteString("Generate a detailed transcript of this audio. ")
	sb.WriteString("For each short phrase, give the start time, end time and the exact words spoken. ")
	sb.WriteString("Respond with a JSON array of objects with 'start', 'end' and 'text' fields, ")
	sb.WriteString("where 'start' and 'end' are seconds from the beginning of the audio (as numbers). ")
	sb.WriteString("Keep each phrase short enough to read as a single subtitle line. ")

	if opts.Language != "" {
		fmt.Fprintf(&sb, "The audio is in %s. ", opts.Language)
	}
	if lang := strings.TrimSpace(opts.TranscriptLanguage); lang != "" && !strings.EqualFold(lang, "native") {
		fmt.Fprintf(&sb, "Output the transcript in %s. ", lang)
	}
	if opts.Prompt != "" {
		sb.WriteString(opts.Prompt)
		sb.WriteString(" ")
	}

	sb.WriteString("Return ONLY the JSON array, no other text or markdown formatting.")
	return sb.String()
}

// segmentsFromResponse joins the text parts of every candidate and pulls the
// phrase array out of it. Phrases without text are dropped.
func segmentsFromResponse(resp *genai.GenerateContentResponse) ([]subtitle.Segment, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	var text strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("no text in Gemini response")
	}

	phrases, err := extractTranscriptSegments(cleanJSONResponse(text.String()))
	if err != nil {
		return nil, fmt.Errorf("%w (response: %s)", err, truncateString(text.String(), 200))
	}

	segments := make([]subtitle.Segment, 0, len(phrases))
	for _, p := range phrases {
		if s := strings.TrimSpace(p.Text); s != "" {
			segments = append(segments, subtitle.Segment{
				StartTime: subtitle.SecondsToDuration(p.Start),
				EndTime:   subtitle.SecondsToDuration(p.End),
				Text:      s,
			})
		}
	}
	if len(segments) == 0 {
		return nil, errNoSegments
	}
	return segments, nil
}

var errNoSegments = errors.New("no transcript segments found in response")

// extractTranscriptSegments finds the first JSON array of segments in text,
// tolerating prose around it and wrapper objects of any shape.
func extractTranscriptSegments(text string) ([]transcriptSegment, error) {
	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}

		dec := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			continue
		}
		if segments, ok := findSegments(raw); ok {
			return segments, nil
		}
		i += int(dec.InputOffset()) - 1
	}
	return nil, errNoSegments
}

// well-known wrapper keys are tried before the rest
var wrapperKeys = map[string]int{"segments": 0, "transcript": 1, "data": 2}

func findSegments(raw json.RawMessage) ([]transcriptSegment, bool) {
	var segments []transcriptSegment
	if err := json.Unmarshal(raw, &segments); err == nil {
		return segments, validateSegments(segments)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iKnown := wrapperKeys[keys[i]]
		rj, jKnown := wrapperKeys[keys[j]]
		if iKnown != jKnown {
			return iKnown
		}
		if iKnown {
			return ri < rj
		}
		return keys[i] < keys[j]
	})

	for _, k := range keys {
		if found, ok := findSegments(obj[k]); ok {
			return found, true
		}
	}
	return nil, false
}

// at least one segment must carry a timestamp or text
func validateSegments(segments []transcriptSegment) bool {
	for _, s := range segments {
		if s.Text != "" || s.Start != 0 || s.End != 0 {
			return true
		}
	}
	return false
}

var jsonFencePattern = regexp.MustCompile("```(?:json)?\\s*")

// removes markdown formatting from the response
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = jsonFencePattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func (t *GeminiTranscriber) Close() error {
	return nil
}
