package subtitle

import (
	"errors"
	"fmt"
	"strings"
)

// Color is a packed ASS colour value (&HAABBGGRR).
type Color string

const (
	ColorWhite   Color = "&H00FFFFFF"
	ColorBlack   Color = "&H00000000"
	ColorYellow  Color = "&H0000FFFF"
	ColorCyan    Color = "&H00FFFF00"
	ColorLime    Color = "&H0000FF00"
	ColorMagenta Color = "&H00FF00FF"
	ColorOrange  Color = "&H0000AAFF"
	ColorRed     Color = "&H000000FF"
	ColorBlue    Color = "&H00FF0000"
)

// fallbacks for names missing from the palette
const (
	DefaultTextColor    = ColorYellow
	DefaultOutlineColor = ColorBlack
)

type paletteEntry struct {
	name  string
	color Color
}

// fixed order, used for UI listings
var palette = []paletteEntry{
	{"White", ColorWhite},
	{"Black", ColorBlack},
	{"Yellow", ColorYellow},
	{"Cyan", ColorCyan},
	{"Lime", ColorLime},
	{"Magenta", ColorMagenta},
	{"Orange", ColorOrange},
	{"Red", ColorRed},
	{"Blue", ColorBlue},
}

// palette names in display order
func ColorNames() []string {
	names := make([]string, len(palette))
	for i, p := range palette {
		names[i] = p.name
	}
	return names
}

// LookupColor resolves a palette name case-insensitively. Unknown names
// resolve to fallback.
func LookupColor(name string, fallback Color) Color {
	name = strings.TrimSpace(name)
	for _, p := range palette {
		if strings.EqualFold(p.name, name) {
			return p.color
		}
	}
	return fallback
}

// reverse lookup for display; ok is false for colours outside the palette
func ColorName(c Color) (string, bool) {
	for _, p := range palette {
		if strings.EqualFold(string(p.color), string(c)) {
			return p.name, true
		}
	}
	return "", false
}

var ErrInvalidStyle = errors.New("invalid style")

// formatting applied to every dialogue line
type Style struct {
	FontSize     int
	TextColor    Color
	OutlineColor Color
	OutlineWidth int
	MarginBottom int
	MarginSide   int
}

func DefaultStyle() Style {
	return Style{
		FontSize:     48,
		TextColor:    DefaultTextColor,
		OutlineColor: DefaultOutlineColor,
		OutlineWidth: 2,
		MarginBottom: 80,
		MarginSide:   40,
	}
}

func (s Style) Validate() error {
	switch {
	case s.FontSize <= 0:
		return fmt.Errorf("%w: font size must be positive, got %d", ErrInvalidStyle, s.FontSize)
	case s.OutlineWidth < 0:
		return fmt.Errorf("%w: outline width must not be negative, got %d", ErrInvalidStyle, s.OutlineWidth)
	case s.MarginBottom < 0:
		return fmt.Errorf("%w: bottom margin must not be negative, got %d", ErrInvalidStyle, s.MarginBottom)
	case s.MarginSide < 0:
		return fmt.Errorf("%w: side margin must not be negative, got %d", ErrInvalidStyle, s.MarginSide)
	case s.TextColor == "":
		return fmt.Errorf("%w: text color is required", ErrInvalidStyle)
	case s.OutlineColor == "":
		return fmt.Errorf("%w: outline color is required", ErrInvalidStyle)
	}
	return nil
}

const (
	styleName = "Default"
	fontName  = "Arial"

	// StylePrefix starts the single style record of a document.
	StylePrefix = "Style: " + styleName + ","

	styleFormatLine = "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding"
)

// Line renders the style record. Everything except size, colours, outline
// width and margins is fixed.
func (s Style) Line() string {
	return fmt.Sprintf(
		"%s%s,%d,%s,&H000000FF,%s,&H00000000,0,0,0,0,100,100,0,0,1,%d,0,2,%d,%d,%d,1",
		StylePrefix,
		fontName,
		s.FontSize,
		s.TextColor,
		s.OutlineColor,
		s.OutlineWidth,
		s.MarginSide,
		s.MarginSide,
		s.MarginBottom,
	)
}
