package layout

import (
	"math"

	"github.com/ByLCY/papyrus-text/geom"
	"github.com/ByLCY/papyrus-text/shaping"
	"github.com/ByLCY/papyrus-text/style"
	"github.com/ByLCY/papyrus-text/textpos"
)

// Queries take the document offset of the line's first character and work
// in line coordinates: x from the left of the fill width, y from the top
// of the line, baseline at Ascent.

// left returns the visual left edge of segment i.
func (l *Line) left(i int) float64 {
	s := l.Segments[i]
	if l.LeftToRight {
		return l.LeadingMargin + s.Offset
	}
	return l.Width - l.LeadingMargin - s.Offset - s.Run.Advance()
}

// toX converts a distance from the leading edge of the fill width into x.
// The conversion is its own inverse.
func (l *Line) toX(d float64) float64 {
	if l.LeftToRight {
		return d
	}
	return l.Width - d
}

func (l *Line) lastChar() rune {
	n := len(l.Segments)
	if n == 0 {
		return 0
	}
	r := l.Segments[n-1].Run
	if r.Len() == 0 {
		return 0
	}
	return r.CharAt(r.Len() - 1)
}

// segmentFor returns the segment holding the caret at the line-relative
// offset rel, or -1 for an empty line.
func (l *Line) segmentFor(rel int, b textpos.Bias) int {
	for i, s := range l.Segments {
		if rel < s.Limit() || (rel == s.Limit() && b == textpos.Before) {
			return i
		}
	}
	return len(l.Segments) - 1
}

// position converts a run insertion index to a document position. The
// start of a run binds after, its end binds before.
func (l *Line) position(lineStart, i, ins int, b textpos.Bias) textpos.Position {
	s := l.Segments[i]
	switch ins {
	case 0:
		b = textpos.After
	case s.Run.Len():
		b = textpos.Before
	}
	return textpos.New(lineStart+s.Start+ins, b)
}

// PixelToOffset returns the text position nearest to x.
func (l *Line) PixelToOffset(lineStart int, x float64) textpos.Position {
	d := l.toX(x) - l.LeadingMargin
	n := len(l.Segments)
	if n == 0 || d < 0 {
		return textpos.New(lineStart, textpos.After)
	}
	for i, s := range l.Segments {
		end := s.Offset + s.Run.Advance()
		if d < end || (i == n-1 && !s.endsWithTab()) {
			return l.hitSegment(lineStart, i, x)
		}
		bound := l.TotalAdvance
		if i+1 < n {
			bound = l.Segments[i+1].Offset
		}
		if d >= bound {
			continue
		}
		// 落在制表符留出的空白里：按中点决定落在制表符之前还是之后
		tab := lineStart + s.Limit() - 1
		if d < (end+bound)/2 {
			return textpos.New(tab, textpos.After)
		}
		return textpos.New(tab+1, textpos.Before)
	}
	return textpos.New(lineStart+l.CharLength, textpos.Before)
}

func (l *Line) hitSegment(lineStart, i int, x float64) textpos.Position {
	h := l.Segments[i].Run.HitTest(x - l.left(i))
	b := textpos.Before
	if h.Leading {
		b = textpos.After
	}
	return l.position(lineStart, i, h.Insertion(), b)
}

// NextOffset moves the caret one stop visually left or right. It reports
// false when the move leaves the line.
func (l *Line) NextOffset(lineStart int, pos textpos.Position, right bool) (textpos.Position, bool) {
	rel := pos.Offset - lineStart
	i := l.segmentFor(rel, pos.Bias)
	if i < 0 {
		return pos, false
	}
	s := l.Segments[i]
	if next, ok := s.Run.NextCaret(rel-s.Start, right); ok {
		return l.position(lineStart, i, next, textpos.After), true
	}
	// 在从右到左的行中，视觉向右即逻辑向后
	if right == l.LeftToRight {
		for j := i + 1; j < len(l.Segments); j++ {
			t := l.Segments[j]
			if t.Start != rel {
				return l.position(lineStart, j, 0, textpos.After), true
			}
			if next, ok := t.Run.NextCaret(0, right); ok {
				return l.position(lineStart, j, next, textpos.After), true
			}
		}
		return pos, false
	}
	for j := i - 1; j >= 0; j-- {
		t := l.Segments[j]
		if t.Limit() != rel {
			return l.position(lineStart, j, t.Run.Len(), textpos.Before), true
		}
		if next, ok := t.Run.NextCaret(t.Run.Len(), right); ok {
			return l.position(lineStart, j, next, textpos.After), true
		}
	}
	return pos, false
}

// CaretBounds returns the caret rectangle for pos. At the end of an empty
// line or after a trailing tab the caret is a 1px mark at the total advance.
func (l *Line) CaretBounds(lineStart int, pos textpos.Position) geom.Rect {
	caret := func(x float64) geom.Rect {
		return geom.Rect{X: x, Y: 0, W: 1, H: float64(l.Ascent + l.Descent)}
	}
	rel := pos.Offset - lineStart
	n := len(l.Segments)
	if n == 0 || (rel >= l.CharLength && l.lastChar() == '\t') {
		x := l.toX(l.LeadingMargin + l.TotalAdvance)
		if !l.LeftToRight {
			x--
		}
		return caret(x)
	}
	i := l.segmentFor(rel, pos.Bias)
	s := l.Segments[i]
	ins := rel - s.Start
	if ins == s.Run.Len() && s.endsWithTab() && i+1 < n {
		// 制表符之后：落在下一段的起始边
		return caret(l.toX(l.LeadingMargin + l.Segments[i+1].Offset))
	}
	return caret(l.left(i) + s.Run.CaretX(ins, pos.Bias))
}

// StrongCaretX returns the x of the caret at offset, used as the column
// to keep when moving between lines.
func (l *Line) StrongCaretX(lineStart, offset int) float64 {
	b := textpos.After
	if offset-lineStart >= l.CharLength && l.CharLength > 0 {
		b = textpos.Before
	}
	return l.CaretBounds(lineStart, textpos.New(offset, b)).X
}

// HighlightShape returns the rectangles covering characters [a,b).
func (l *Line) HighlightShape(lineStart, a, b int) []geom.Rect {
	a, b = max(a-lineStart, 0), min(b-lineStart, l.CharLength)
	if a >= b {
		return nil
	}
	h := float64(l.Height())
	var out []geom.Rect
	for i, s := range l.Segments {
		if lo, hi := max(a, s.Start), min(b, s.Limit()); lo < hi {
			left := l.left(i)
			for _, sp := range s.Run.Ranges(lo-s.Start, hi-s.Start) {
				if sp.X1 > sp.X0 {
					out = append(out, geom.Rect{X: left + sp.X0, W: sp.X1 - sp.X0, H: h})
				}
			}
		}
		if !s.endsWithTab() || s.Limit()-1 < a || s.Limit()-1 >= b {
			continue
		}
		d0 := l.LeadingMargin + s.Offset + s.Run.Advance()
		d1 := l.LeadingMargin + l.TotalAdvance
		if i+1 < len(l.Segments) {
			d1 = l.LeadingMargin + l.Segments[i+1].Offset
		}
		if d1 > d0 {
			out = append(out, geom.RectFromCorners(l.toX(d0), 0, l.toX(d1), h))
		}
	}
	return out
}

// Bounds returns the box covering the line's segments, or an empty box at
// the leading margin for an empty line.
func (l *Line) Bounds() geom.Rect {
	h := float64(l.Height())
	if len(l.Segments) == 0 {
		return geom.Rect{X: l.toX(l.LeadingMargin), H: h}
	}
	x0, x1 := math.Inf(1), math.Inf(-1)
	for i, s := range l.Segments {
		x0 = math.Min(x0, l.left(i))
		x1 = math.Max(x1, l.left(i)+s.Run.Advance())
	}
	return geom.Rect{X: x0, W: x1 - x0, H: h}
}

// Draw paints the line with its top-left corner at (x, y).
func (l *Line) Draw(s shaping.Surface, x, y float64) {
	base := y + float64(l.Ascent)
	for i, seg := range l.Segments {
		seg.Run.Draw(s, x+l.left(i), base)
	}
}

// DrawCaret fills the caret for pos with the line's top-left at (x, y).
func (l *Line) DrawCaret(s shaping.Surface, lineStart int, pos textpos.Position, x, y float64, c style.Color) {
	r := l.CaretBounds(lineStart, pos).Translate(geom.Point{X: x, Y: y})
	s.Fill([]geom.Rect{r}, c)
}
