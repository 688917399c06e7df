package shaping

import (
	"github.com/benoitkugler/textprocessing/fribidi"

	"github.com/ByLCY/papyrus-text/style"
)

// Embedding levels and visual order come from fribidi, which implements
// the full bidirectional algorithm including explicit embeddings,
// overrides, isolates and bracket pairs.

func bidiTypes(text []rune) []fribidi.CharType {
	types := make([]fribidi.CharType, len(text))
	for i, r := range text {
		types[i] = fribidi.GetBidiType(r)
	}
	return types
}

// bracketTypes pairs brackets; only neutral characters can be brackets.
func bracketTypes(text []rune, types []fribidi.CharType) []fribidi.BracketType {
	out := make([]fribidi.BracketType, len(text))
	for i, r := range text {
		if types[i] == fribidi.ON {
			out[i] = fribidi.GetBracket(r)
		}
	}
	return out
}

// paragraphDir maps a paragraph direction to the fribidi base direction.
// The default is weak left-to-right: the first strong character decides.
func paragraphDir(dir style.Direction) fribidi.ParType {
	switch dir {
	case style.DirectionLeftToRight:
		return fribidi.LTR
	case style.DirectionRightToLeft:
		return fribidi.RTL
	}
	return fribidi.WLTR
}

// resolveLevels returns one embedding level per character and the
// paragraph level (0 or 1).
func resolveLevels(text []rune, dir style.Direction) ([]uint8, uint8) {
	pdir := paragraphDir(dir)
	levels := make([]uint8, len(text))
	if len(text) == 0 {
		return levels, baseOf(pdir)
	}
	types := bidiTypes(text)
	resolved, _ := fribidi.GetParEmbeddingLevels(types, bracketTypes(text, types), &pdir)
	for i, l := range resolved {
		levels[i] = uint8(l)
	}
	return levels, baseOf(pdir)
}

func baseOf(dir fribidi.ParType) uint8 {
	if dir.IsRtl() {
		return 1
	}
	return 0
}

// visualOrder returns the logical indexes of a line's characters in
// visual order. Trailing whitespace is reset to the paragraph level.
func visualOrder(text []rune, levels []uint8, base uint8) []int {
	n := len(text)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if n == 0 {
		return order
	}
	lv := make([]fribidi.Level, n)
	for i, l := range levels {
		lv[i] = fribidi.Level(l)
	}
	var dir fribidi.ParType = fribidi.LTR
	if base&1 == 1 {
		dir = fribidi.RTL
	}
	fribidi.ReorderLine(0, bidiTypes(text), n, 0, dir, lv, nil, order)
	return order
}

func isWhitespace(r rune) bool {
	switch fribidi.GetBidiType(r) {
	case fribidi.WS, fribidi.SS, fribidi.BS:
		return true
	}
	return false
}

func isSpace(r rune) bool { return fribidi.GetBidiType(r) == fribidi.WS }

func isSeparator(r rune) bool { return fribidi.GetBidiType(r) == fribidi.BS }
