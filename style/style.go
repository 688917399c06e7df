// Package style defines the immutable attribute values attached to runs of
// a styled document.
//
// Every type here is a comparable value: two styles with the same content
// are equal under ==, so they can be coalesced in run tables and used as
// map keys for layout caches.
package style

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color 采用 0-255 的 RGBA 数值。
type Color struct {
	R, G, B, A uint8
}

// RGBA converts c to a color.Color.
func (c Color) RGBA() color.RGBA { return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A} }

// Black is the default text color.
var Black = Color{A: 255}

// ParseColor parses #rgb, #rrggbb or #rrggbbaa.
func ParseColor(value string) (Color, error) {
	v := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(v) == 3 {
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]})
	}
	if len(v) == 6 {
		v += "ff"
	}
	if len(v) != 8 {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
	}
	return Color{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

// Char is the style of a run of characters.
type Char struct {
	Family    string  `json:"family"`
	Size      float64 `json:"size"` // px
	Bold      bool    `json:"bold,omitempty"`
	Italic    bool    `json:"italic,omitempty"`
	Underline bool    `json:"underline,omitempty"`
	Color     Color   `json:"color"`
}

// DefaultChar is the style used for text inserted without one.
var DefaultChar = Char{Family: "go", Size: 12, Color: Black}

// Key returns a stable string describing the font selected by c.
func (c Char) Key() string {
	return fmt.Sprintf("%s|%g|%t|%t", c.Family, c.Size, c.Bold, c.Italic)
}

// Flush is the horizontal alignment of the lines of a paragraph.
type Flush int

const (
	FlushLeading Flush = iota
	FlushCenter
	FlushTrailing
	FlushJustified
)

func (f Flush) String() string {
	switch f {
	case FlushCenter:
		return "center"
	case FlushTrailing:
		return "trailing"
	case FlushJustified:
		return "justified"
	default:
		return "leading"
	}
}

// ParseFlush parses a flush name. Unknown names yield an error.
func ParseFlush(s string) (Flush, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "leading", "left", "start":
		return FlushLeading, nil
	case "center", "centre":
		return FlushCenter, nil
	case "trailing", "right", "end":
		return FlushTrailing, nil
	case "justified", "justify", "full":
		return FlushJustified, nil
	}
	return FlushLeading, fmt.Errorf("未知的对齐方式 %q", s)
}

// Direction is the base run direction of a paragraph.
type Direction int

const (
	// DirectionDefault derives the direction from the first strong character.
	DirectionDefault Direction = iota
	DirectionLeftToRight
	DirectionRightToLeft
)

// ParseDirection parses a run direction name.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default", "auto":
		return DirectionDefault, nil
	case "ltr", "left-to-right":
		return DirectionLeftToRight, nil
	case "rtl", "right-to-left":
		return DirectionRightToLeft, nil
	}
	return DirectionDefault, fmt.Errorf("未知的书写方向 %q", s)
}

// Paragraph is the style of a paragraph.
type Paragraph struct {
	LeadingMargin    float64   `json:"leadingMargin"`
	TrailingMargin   float64   `json:"trailingMargin"`
	FirstLineIndent  float64   `json:"firstLineIndent"`
	MinLineSpacing   float64   `json:"minLineSpacing"`
	ExtraLineSpacing float64   `json:"extraLineSpacing"`
	Flush            Flush     `json:"flush"`
	Direction        Direction `json:"direction"`
	Tabs             TabRuler  `json:"-"`
}

// DefaultParagraph is the paragraph style of a new document.
var DefaultParagraph = Paragraph{Tabs: DefaultTabRuler}
