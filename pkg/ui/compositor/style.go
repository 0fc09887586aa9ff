package compositor

import (
	"strconv"
	"strings"
)

// ColorMode defines how a color is represented.
type ColorMode uint8

const (
	// ColorModeDefault uses terminal default color.
	ColorModeDefault ColorMode = iota
	// ColorMode16 uses basic 16 ANSI colors (0-15).
	ColorMode16
	// ColorMode256 uses extended 256 color palette.
	ColorMode256
	// ColorModeRGB uses 24-bit true color.
	ColorModeRGB
)

// Color represents a terminal color.
type Color struct {
	Mode  ColorMode
	Value uint32 // For 16/256: color index, For RGB: 0xRRGGBB
}

// ColorDefault is the terminal's own foreground or background.
var ColorDefault = Color{Mode: ColorModeDefault}

// Color16 creates one of the basic 16 colors.
func Color16(index uint8) Color {
	return Color{Mode: ColorMode16, Value: uint32(index & 0x0f)}
}

// Color256 creates a 256-palette color (0-255).
func Color256(index uint8) Color {
	return Color{Mode: ColorMode256, Value: uint32(index)}
}

// RGB creates a 24-bit true color.
func RGB(r, g, b uint8) Color {
	return Color{Mode: ColorModeRGB, Value: uint32(r)<<16 | uint32(g)<<8 | uint32(b)}
}

// RGBComponents splits an RGB color into its channels.
func (c Color) RGBComponents() (r, g, b uint8) {
	return uint8(c.Value >> 16), uint8(c.Value >> 8), uint8(c.Value)
}

// Style is the attribute state a terminal holds after a run of SGR
// sequences. Cells carry SGR sequences verbatim; Style exists for backends
// that draw through an API instead of a byte stream.
type Style struct {
	FG            Color
	BG            Color
	Bold          bool
	Dim           bool
	Italic        bool
	Underline     bool
	Blink         bool
	Reverse       bool
	Strikethrough bool
}

// DefaultStyle returns a style with no attributes.
func DefaultStyle() Style {
	return Style{FG: ColorDefault, BG: ColorDefault}
}

// Equal compares two styles for equality.
func (s Style) Equal(other Style) bool {
	return s == other
}

// Apply returns the style after the SGR sequences found in prefix.
// Sequences other than SGR, and private SGR forms, are ignored.
func (s Style) Apply(prefix string) Style {
	for i := 0; i < len(prefix); {
		if prefix[i] != 0x1b {
			i++
			continue
		}
		n := escapeLen(prefix[i:])
		seq := prefix[i : i+n]
		i += n
		if len(seq) < 3 || seq[1] != '[' || seq[len(seq)-1] != 'm' {
			continue
		}
		params := seq[2 : len(seq)-1]
		if params != "" && (params[0] < '0' || params[0] > '9') && params[0] != ';' {
			continue
		}
		s = s.applySGR(params)
	}
	return s
}

func (s Style) applySGR(params string) Style {
	if params == "" {
		return DefaultStyle()
	}
	fields := strings.FieldsFunc(params, func(r rune) bool { return r == ';' || r == ':' })
	codes := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			n = 0
		}
		codes = append(codes, n)
	}
	if len(codes) == 0 {
		return DefaultStyle()
	}

	for i := 0; i < len(codes); i++ {
		code := codes[i]
		switch {
		case code == 0:
			s = DefaultStyle()
		case code == 1:
			s.Bold = true
		case code == 2:
			s.Dim = true
		case code == 3:
			s.Italic = true
		case code == 4:
			s.Underline = true
		case code == 5 || code == 6:
			s.Blink = true
		case code == 7:
			s.Reverse = true
		case code == 9:
			s.Strikethrough = true
		case code == 22:
			s.Bold, s.Dim = false, false
		case code == 23:
			s.Italic = false
		case code == 24:
			s.Underline = false
		case code == 25:
			s.Blink = false
		case code == 27:
			s.Reverse = false
		case code == 29:
			s.Strikethrough = false
		case code >= 30 && code <= 37:
			s.FG = Color16(uint8(code - 30))
		case code == 39:
			s.FG = ColorDefault
		case code >= 40 && code <= 47:
			s.BG = Color16(uint8(code - 40))
		case code == 49:
			s.BG = ColorDefault
		case code >= 90 && code <= 97:
			s.FG = Color16(uint8(code - 90 + 8))
		case code >= 100 && code <= 107:
			s.BG = Color16(uint8(code - 100 + 8))
		case code == 38 || code == 48:
			c, used := extendedColor(codes[i+1:])
			i += used
			if used == 0 {
				continue
			}
			if code == 38 {
				s.FG = c
			} else {
				s.BG = c
			}
		}
	}
	return s
}

// extendedColor parses the arguments after a 38 or 48 code and reports how
// many of them it consumed.
func extendedColor(args []int) (Color, int) {
	if len(args) == 0 {
		return ColorDefault, 0
	}
	switch args[0] {
	case 5:
		if len(args) < 2 {
			return ColorDefault, len(args)
		}
		return Color256(uint8(args[1])), 2
	case 2:
		if len(args) < 4 {
			return ColorDefault, len(args)
		}
		return RGB(uint8(args[1]), uint8(args[2]), uint8(args[3])), 4
	}
	return ColorDefault, 1
}
