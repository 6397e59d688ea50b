package subtitle

import (
	"errors"
	"strings"
	"testing"
)

func TestLookupColor(t *testing.T) {
	for _, name := range ColorNames() {
		if got := LookupColor(name, ""); got == "" {
			t.Errorf("palette name %q resolved to empty colour", name)
		}
	}

	tests := []struct {
		name     string
		fallback Color
		want     Color
	}{
		{"Yellow", ColorWhite, ColorYellow},
		{"yellow", ColorWhite, ColorYellow},
		{" Orange ", ColorWhite, ColorOrange},
		{"Chartreuse", DefaultTextColor, DefaultTextColor},
		{"", DefaultOutlineColor, DefaultOutlineColor},
	}

	for _, tt := range tests {
		if got := LookupColor(tt.name, tt.fallback); got != tt.want {
			t.Errorf("LookupColor(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestColorName(t *testing.T) {
	name, ok := ColorName(ColorCyan)
	if !ok || name != "Cyan" {
		t.Errorf("ColorName(Cyan) = %q, %v", name, ok)
	}
	if _, ok := ColorName("&H00123456"); ok {
		t.Error("expected unknown colour to be reported")
	}
}

func TestStyleLine(t *testing.T) {
	s := Style{
		FontSize:     60,
		TextColor:    ColorYellow,
		OutlineColor: ColorBlack,
		OutlineWidth: 3,
		MarginBottom: 80,
		MarginSide:   40,
	}

	want := "Style: Default,Arial,60,&H0000FFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,3,0,2,40,40,80,1"
	if got := s.Line(); got != want {
		t.Errorf("Line() =\n%s\nwant\n%s", got, want)
	}
	if !strings.HasPrefix(s.Line(), StylePrefix) {
		t.Error("style line does not start with StylePrefix")
	}
}

func TestStyleValidate(t *testing.T) {
	if err := DefaultStyle().Validate(); err != nil {
		t.Fatalf("default style invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Style)
	}{
		{"zero font", func(s *Style) { s.FontSize = 0 }},
		{"negative outline", func(s *Style) { s.OutlineWidth = -1 }},
		{"negative bottom margin", func(s *Style) { s.MarginBottom = -5 }},
		{"negative side margin", func(s *Style) { s.MarginSide = -5 }},
		{"missing text color", func(s *Style) { s.TextColor = "" }},
		{"missing outline color", func(s *Style) { s.OutlineColor = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultStyle()
			tt.mutate(&s)
			if err := s.Validate(); !errors.Is(err, ErrInvalidStyle) {
				t.Errorf("expected ErrInvalidStyle, got %v", err)
			}
		})
	}
}
