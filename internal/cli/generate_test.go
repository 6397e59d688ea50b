package cli

import "testing"

func TestIsValidOpenAITranscriptLanguage(t *testing.T) {
	tests := []struct {
		lang string
		want bool
	}{
		// Valid cases
		{"", true},
		{"native", true},
		{"Native", true},
		{" native ", true},
		{"english", true},
		{"ENGLISH", true},
		{"en", true},
		{" en ", true},

		// Invalid cases - non-English languages
		{"spanish", false},
		{"french", false},
		{"japanese", false},
		{"es", false},
		{"zh", false},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			got := isValidOpenAITranscriptLanguage(tt.lang)
			if got != tt.want {
				t.Errorf(
					"isValidOpenAITranscriptLanguage(%q) = %v, want %v",
					tt.lang,
					got,
					tt.want,
				)
			}
		})
	}
}

func TestClipStem(t *testing.T) {
	tests := []struct {
		clip string
		want string
	}{
		{"output_videos/talk_1a2b3c4d_trim.mp4", "talk_1a2b3c4d"},
		{"/tmp/clip.mp4", "clip"},
		{"_trim.mp4", "clip"},
		{"my_trimmed.mov", "my_trimmed"},
	}

	for _, tt := range tests {
		t.Run(tt.clip, func(t *testing.T) {
			if got := clipStem(tt.clip); got != tt.want {
				t.Errorf("clipStem(%q) = %q, want %q", tt.clip, got, tt.want)
			}
		})
	}
}

func TestTranslatedPath(t *testing.T) {
	if got := translatedPath("out/talk.ass", "es", false); got != "out/talk.es.ass" {
		t.Errorf("got %q", got)
	}
	if got := translatedPath("out/talk.ass", "es", true); got != "out/talk.es.overlay.ass" {
		t.Errorf("got %q", got)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "", "b", "c"); got != "b" {
		t.Errorf("firstNonEmpty = %q, want b", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Errorf("firstNonEmpty() = %q, want empty", got)
	}
}

func TestEnvPrefix(t *testing.T) {
	for provider, want := range map[string]string{
		"openai":    "OPENAI",
		"gemini":    "GEMINI",
		"anthropic": "ANTHROPIC",
		"whisperx":  "PROVIDER",
	} {
		if got := envPrefix(provider); got != want {
			t.Errorf("envPrefix(%q) = %q, want %q", provider, got, want)
		}
	}
}
