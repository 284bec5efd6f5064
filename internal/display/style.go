// Package display normalizes chat events into rows a renderer can bind
// to. A Row reads its styling from shared per-connection Metadata and
// process-wide Options and forwards their change notifications under its
// own property names.
package display

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a "#RRGGBB" hex color.
type Color string

// ParseColor validates s and returns it normalized to upper case.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if len(s) != 7 || s[0] != '#' {
		return "", fmt.Errorf("invalid color %q: want #RRGGBB", s)
	}
	if _, err := strconv.ParseUint(s[1:], 16, 32); err != nil {
		return "", fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color(strings.ToUpper(s)), nil
}

// FontStyle is the slant of a font.
type FontStyle int

const (
	FontStyleNormal FontStyle = iota
	FontStyleItalic
	FontStyleOblique
)

func (s FontStyle) String() string {
	switch s {
	case FontStyleItalic:
		return "italic"
	case FontStyleOblique:
		return "oblique"
	default:
		return "normal"
	}
}

// ParseFontStyle accepts "normal", "italic" or "oblique"; "" means normal.
func ParseFontStyle(s string) (FontStyle, error) {
	switch strings.ToLower(s) {
	case "", "normal":
		return FontStyleNormal, nil
	case "italic":
		return FontStyleItalic, nil
	case "oblique":
		return FontStyleOblique, nil
	}
	return FontStyleNormal, fmt.Errorf("invalid font style %q", s)
}

// FontWeight is a CSS-style numeric weight.
type FontWeight int

const (
	FontWeightNormal FontWeight = 400
	FontWeightBold   FontWeight = 700
)

// Wrapping controls whether a long user name wraps onto several lines.
type Wrapping int

const (
	NoWrap Wrapping = iota
	Wrap
)

func (w Wrapping) String() string {
	if w == Wrap {
		return "wrap"
	}
	return "nowrap"
}
